package command

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// MaxLineLength is the longest line a LineReader hands out. Longer lines are
// consumed up to their line ending and reported as malformed.
const MaxLineLength = 64 * 1024

// LineReader splits input into lines of bounded length
type LineReader struct {
	r    *bufio.Reader
	line int
}

// NewLineReader creates a line reader over r
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{r: bufio.NewReaderSize(r, MaxLineLength)}
}

// ReadLine returns the next line without its line ending. It returns io.EOF
// at the end of input and an error wrapping ErrMalformed for an overlong line.
func (lr *LineReader) ReadLine() (string, error) {
	buf, isPrefix, err := lr.r.ReadLine()
	if errors.Is(err, io.EOF) {
		return "", io.EOF
	}
	if err != nil {
		return "", fmt.Errorf("read line %d: %w", lr.line+1, err)
	}
	lr.line++
	if !isPrefix {
		return string(buf), nil
	}

	for isPrefix {
		_, isPrefix, err = lr.r.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read line %d: %w", lr.line, err)
		}
	}
	return "", fmt.Errorf("line %d: %w: longer than %d bytes", lr.line, ErrMalformed, MaxLineLength)
}

// Line returns the number of lines consumed so far
func (lr *LineReader) Line() int {
	return lr.line
}
