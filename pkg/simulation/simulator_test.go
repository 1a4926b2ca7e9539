package simulation

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sherine-k/actuator/pkg/command"
	"github.com/sherine-k/actuator/pkg/scheduler"
)

func replay(t *testing.T, input string, opts ...Option) (*Simulator, string) {
	t.Helper()

	var out bytes.Buffer
	opts = append(opts, WithSinks(scheduler.NewWriterSink(&out)))
	sim := NewSimulator(command.NewLineSource(strings.NewReader(input)), opts...)
	require.NoError(t, sim.Run(context.Background()))
	return sim, out.String()
}

func lastTime(sim *Simulator) uint64 {
	points := sim.GetTimePoints()
	return points[len(points)-1].Time
}

func TestScenarios(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     string
		lastTick uint64
	}{
		{
			name:     "schedule then fire after input ends",
			input:    "0\t3\n",
			want:     "0\tschedule firing in 3\n3\tfiring now\n",
			lastTick: 3,
		},
		{
			name:  "cancel before firing still drains",
			input: "0\t5\n2\t-1\n",
			want: "0\tschedule firing in 5\n" +
				"2\tcancel pending firing at 5\n",
			lastTick: 5,
		},
		{
			name:  "reschedule overwrites pending slot",
			input: "0\t2\n1\t4\n",
			want: "0\tschedule firing in 2\n" +
				"1\tcancel pending firing at 2\n" +
				"1\tschedule firing in 4\n" +
				"5\tfiring now\n",
			lastTick: 5,
		},
		{
			name:  "malformed line between records is skipped",
			input: "0\t2\ngarbage\n1\t-1\n3\t1\n",
			want: "0\tschedule firing in 2\n" +
				"1\tcancel pending firing at 2\n" +
				"3\tschedule firing in 1\n" +
				"4\tfiring now\n",
			lastTick: 4,
		},
		{
			name:     "zero delay fires in the same tick",
			input:    "0\t0\n",
			want:     "0\tschedule firing in 0\n0\tfiring now\n",
			lastTick: 0,
		},
		{
			name:     "cancel with nothing pending",
			input:    "1\t-1\n",
			want:     "1\tcancel any pending firing\n",
			lastTick: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim, out := replay(t, tt.input)
			require.Equal(t, tt.want, out)
			require.Equal(t, tt.lastTick, lastTime(sim))

			for i, tp := range sim.GetTimePoints() {
				require.Equal(t, uint64(i), tp.Time)
			}
		})
	}
}

func TestOverwrittenSlotNeverFires(t *testing.T) {
	sim, _ := replay(t, "0\t2\n1\t4\n")

	for _, e := range sim.GetEvents() {
		if e.Type == scheduler.EventTypeFired {
			require.Equal(t, uint64(5), e.Time)
		}
	}
	// drain is still bounded by the later fire time only
	require.Equal(t, uint64(5), lastTime(sim))
}

func TestMalformedLineIsRecordedAsWarning(t *testing.T) {
	sim, _ := replay(t, "0\t1\nnope\n")

	warnings := sim.GetWarnings()
	require.Len(t, warnings, 1)
	require.Equal(t, scheduler.EventTypeMalformed, warnings[0].Type)
	require.Equal(t, 1, sim.GetStats().Malformed)
}

func TestOverlongLineIsSkipped(t *testing.T) {
	input := "0\t3\n" + strings.Repeat("x", 70*1024) + "\n1\t1\n"
	sim, out := replay(t, input)

	require.Equal(t, "0\tschedule firing in 3\n"+
		"1\tcancel pending firing at 3\n"+
		"1\tschedule firing in 1\n"+
		"2\tfiring now\n", out)
	require.Equal(t, 1, sim.GetStats().Malformed)
	require.Equal(t, uint64(3), lastTime(sim))
}

func TestRunWithoutHistoryKeepsNoTicks(t *testing.T) {
	sim, out := replay(t, "0\t100000\nnope\n", WithHistory(false))

	require.Equal(t, "0\tschedule firing in 100000\n100000\tfiring now\n", out)
	require.Equal(t, uint64(100001), sim.Ticks())
	require.Empty(t, sim.GetTimePoints())
	require.Empty(t, sim.GetEvents())
	require.Equal(t, 1, sim.GetStats().Malformed)
}

func TestTimePoints(t *testing.T) {
	sim, _ := replay(t, "1\t2\n")
	points := sim.GetTimePoints()

	require.Len(t, points, 4)
	require.False(t, points[0].Armed)
	require.Nil(t, points[0].Command)

	require.True(t, points[1].Armed)
	require.Equal(t, uint64(3), points[1].FireAt)
	require.NotNil(t, points[1].Command)
	require.Equal(t, command.KindSchedule, *points[1].Command)

	require.True(t, points[2].Armed)
	require.False(t, points[3].Armed)
	require.True(t, points[3].Fired)
}

func TestRunStopsOnReadFailure(t *testing.T) {
	boom := errors.New("pipe closed")
	sim := NewSimulator(&brokenSource{records: []command.RawRecord{{Time: 0, Signal: 9}}, err: boom})

	err := sim.Run(context.Background())
	require.ErrorIs(t, err, boom)
	// no drain after the failure
	require.Len(t, sim.GetTimePoints(), 1)
}

func TestRunHonoursTickLimit(t *testing.T) {
	sim := NewSimulator(command.NewSliceSource([]command.RawRecord{{Time: 0, Signal: 1000}}), WithMaxTicks(10))

	err := sim.Run(context.Background())
	require.ErrorIs(t, err, ErrTickLimit)
	require.Equal(t, uint64(10), sim.Ticks())
}

func TestRunHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sim := NewSimulator(command.NewSliceSource([]command.RawRecord{{Time: 0, Signal: 3}}))
	require.ErrorIs(t, sim.Run(ctx), context.Canceled)
	require.Empty(t, sim.GetTimePoints())
}

type brokenSource struct {
	records []command.RawRecord
	err     error
}

func (s *brokenSource) Next() (command.RawRecord, error) {
	if len(s.records) == 0 {
		return command.RawRecord{}, s.err
	}
	rec := s.records[0]
	s.records = s.records[1:]
	return rec, nil
}
