package command

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrMalformed marks a line that does not have the shape <time>\t<signal>.
// Sources wrap it; consumers skip the line and keep reading.
var ErrMalformed = errors.New("malformed record")

// Source yields raw records one at a time.
//
// Next returns io.EOF at the normal end of input and an error wrapping
// ErrMalformed for a line that could not be parsed. Any other error is an
// upstream failure and ends the stream.
type Source interface {
	Next() (RawRecord, error)
}

// ParseRecord parses a single "<time>\t<signal>" line
func ParseRecord(line string) (RawRecord, error) {
	line = strings.TrimSpace(line)

	parts := strings.SplitN(line, "\t", 2)
	if len(parts) != 2 {
		return RawRecord{}, fmt.Errorf("%w: expected <time>\\t<signal>, got %q", ErrMalformed, line)
	}

	t, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return RawRecord{}, fmt.Errorf("%w: invalid time %q", ErrMalformed, parts[0])
	}

	signal, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return RawRecord{}, fmt.Errorf("%w: invalid signal %q", ErrMalformed, parts[1])
	}

	return RawRecord{Time: t, Signal: signal}, nil
}

// FormatRecord renders a record in the line format ParseRecord accepts
func FormatRecord(r RawRecord) string {
	return fmt.Sprintf("%d\t%d", r.Time, r.Signal)
}

// LineSource reads records from a line oriented reader
type LineSource struct {
	lines *LineReader
}

// NewLineSource creates a source reading one record per line from r
func NewLineSource(r io.Reader) *LineSource {
	return &LineSource{lines: NewLineReader(r)}
}

// Next reads and parses the next line
func (s *LineSource) Next() (RawRecord, error) {
	line, err := s.lines.ReadLine()
	if err != nil {
		return RawRecord{}, err
	}

	rec, err := ParseRecord(line)
	if err != nil {
		return RawRecord{}, fmt.Errorf("line %d: %w", s.lines.Line(), err)
	}
	return rec, nil
}

// Line returns the number of lines consumed so far
func (s *LineSource) Line() int {
	return s.lines.Line()
}

// SliceSource replays a fixed list of records. Useful for tests and for
// feeding generated scenarios straight into a simulation.
type SliceSource struct {
	records []RawRecord
	pos     int
}

// NewSliceSource creates a source over records
func NewSliceSource(records []RawRecord) *SliceSource {
	return &SliceSource{records: records}
}

// Next returns the next record or io.EOF
func (s *SliceSource) Next() (RawRecord, error) {
	if s.pos >= len(s.records) {
		return RawRecord{}, io.EOF
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, nil
}
