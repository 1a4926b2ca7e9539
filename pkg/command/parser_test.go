package command

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"
)

func TestParseRecord(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    RawRecord
		wantErr bool
	}{
		{name: "schedule", line: "0\t3", want: RawRecord{Time: 0, Signal: 3}},
		{name: "cancel", line: "2\t-1", want: RawRecord{Time: 2, Signal: -1}},
		{name: "any negative cancels", line: "7\t-42", want: RawRecord{Time: 7, Signal: -42}},
		{name: "trailing newline", line: "4\t0\n", want: RawRecord{Time: 4, Signal: 0}},
		{name: "max time", line: "18446744073709551615\t1", want: RawRecord{Time: ^uint64(0), Signal: 1}},
		{name: "garbage", line: "garbage", wantErr: true},
		{name: "missing signal", line: "5", wantErr: true},
		{name: "empty signal", line: "5\t", wantErr: true},
		{name: "empty line", line: "", wantErr: true},
		{name: "negative time", line: "-1\t3", wantErr: true},
		{name: "space separated", line: "1 3", wantErr: true},
		{name: "extra field", line: "1\t3\t4", wantErr: true},
		{name: "non integer signal", line: "1\tabc", wantErr: true},
		{name: "surrounding whitespace", line: " 3\t1 ", want: RawRecord{Time: 3, Signal: 1}},
		{name: "space before signal", line: "0\t 3", wantErr: true},
		{name: "space after time", line: "0 \t3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRecord(tt.line)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformed)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestRawRecordCommand(t *testing.T) {
	require.Equal(t, Schedule(3), RawRecord{Time: 1, Signal: 3}.Command())
	require.Equal(t, Schedule(0), RawRecord{Time: 1, Signal: 0}.Command())
	require.Equal(t, Cancel(), RawRecord{Time: 1, Signal: -1}.Command())
	require.True(t, RawRecord{Signal: -5}.IsCancel())
}

func TestLineSourceReportsMalformedLines(t *testing.T) {
	src := NewLineSource(strings.NewReader("0\t3\ngarbage\n2\t-1\n"))

	rec, err := src.Next()
	require.NoError(t, err)
	require.Equal(t, RawRecord{Time: 0, Signal: 3}, rec)

	_, err = src.Next()
	require.ErrorIs(t, err, ErrMalformed)
	require.Contains(t, err.Error(), "line 2")

	rec, err = src.Next()
	require.NoError(t, err)
	require.Equal(t, RawRecord{Time: 2, Signal: -1}, rec)

	_, err = src.Next()
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, 3, src.Line())
}

func TestLineSourceSkipsOverlongLine(t *testing.T) {
	long := strings.Repeat("x", MaxLineLength+6*1024)
	src := NewLineSource(strings.NewReader("0\t3\n" + long + "\n1\t1\n"))

	rec, err := src.Next()
	require.NoError(t, err)
	require.Equal(t, RawRecord{Time: 0, Signal: 3}, rec)

	_, err = src.Next()
	require.ErrorIs(t, err, ErrMalformed)
	require.Contains(t, err.Error(), "line 2")

	rec, err = src.Next()
	require.NoError(t, err)
	require.Equal(t, RawRecord{Time: 1, Signal: 1}, rec)

	_, err = src.Next()
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, 3, src.Line())
}

func TestLineReaderOverlongLastLine(t *testing.T) {
	lines := NewLineReader(strings.NewReader("ok\r\n" + strings.Repeat("9", 2*MaxLineLength)))

	line, err := lines.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "ok", line)

	_, err = lines.ReadLine()
	require.ErrorIs(t, err, ErrMalformed)

	_, err = lines.ReadLine()
	require.ErrorIs(t, err, io.EOF)
}

func TestLineSourceReadFailure(t *testing.T) {
	boom := errors.New("boom")
	src := NewLineSource(iotest.ErrReader(boom))

	_, err := src.Next()
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, ErrMalformed)
	require.NotErrorIs(t, err, io.EOF)
}

func TestSliceSource(t *testing.T) {
	src := NewSliceSource([]RawRecord{{Time: 1, Signal: 2}})

	rec, err := src.Next()
	require.NoError(t, err)
	require.Equal(t, RawRecord{Time: 1, Signal: 2}, rec)

	_, err = src.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestFormatRecordRoundTrip(t *testing.T) {
	rec := RawRecord{Time: 12, Signal: -1}
	got, err := ParseRecord(FormatRecord(rec))
	require.NoError(t, err)
	require.Equal(t, rec, got)
}
