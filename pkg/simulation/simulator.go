package simulation

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/sherine-k/actuator/pkg/command"
	"github.com/sherine-k/actuator/pkg/scheduler"
	"github.com/sherine-k/actuator/pkg/tick"
)

// ErrTickLimit is returned when a replay produces more ticks than allowed
var ErrTickLimit = errors.New("tick limit reached")

// Option configures a Simulator
type Option func(*Simulator)

// WithLogger sets the logger shared by the generator and scheduler
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Simulator) {
		s.logger = logger
	}
}

// WithSinks adds event receivers besides the simulator's own recorder
func WithSinks(sinks ...scheduler.Sink) Option {
	return func(s *Simulator) {
		s.sinks = append(s.sinks, sinks...)
	}
}

// WithMaxTicks bounds the number of ticks a run may produce. Zero means no bound.
func WithMaxTicks(n uint64) Option {
	return func(s *Simulator) {
		s.maxTicks = n
	}
}

// WithHistory controls whether the run keeps its events and per-tick time
// points for reporting. It is on by default. With it off a run holds no
// per-tick state, however long the drain.
func WithHistory(enabled bool) Option {
	return func(s *Simulator) {
		s.history = enabled
	}
}

// Simulator replays a command log through the tick generator and the scheduler
type Simulator struct {
	src      command.Source
	logger   zerolog.Logger
	sinks    []scheduler.Sink
	maxTicks uint64
	history  bool

	generator *tick.Generator
	scheduler *scheduler.Scheduler

	events     []scheduler.Event
	timePoints []TimePoint
	ticks      uint64
	fired      bool
}

// NewSimulator creates a new simulator over src
func NewSimulator(src command.Source, opts ...Option) *Simulator {
	s := &Simulator{
		src:        src,
		logger:     zerolog.Nop(),
		events:     []scheduler.Event{},
		timePoints: []TimePoint{},
		history:    true,
	}
	for _, opt := range opts {
		opt(s)
	}

	recorder := scheduler.SinkFunc(s.addEvent)
	s.generator = tick.NewGenerator(src,
		tick.WithLogger(s.logger),
		tick.WithWarningHandler(func(w tick.Warning) {
			s.addEvent(warningEvent(w))
		}),
	)
	s.scheduler = scheduler.New(s.logger, append([]scheduler.Sink{recorder}, s.sinks...)...)

	return s
}

// Run executes the simulation until the generator is exhausted.
// Context cancellation is checked between ticks.
func (s *Simulator) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.maxTicks > 0 && s.ticks >= s.maxTicks {
			return fmt.Errorf("%w after %d ticks", ErrTickLimit, s.ticks)
		}

		t, err := s.generator.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("simulation stopped at t=%d: %w", s.generator.Current(), err)
		}

		s.step(t)
	}

	stats := s.generator.Stats()
	s.logger.Info().
		Uint64("ticks", s.ticks).
		Int("records", stats.Records).
		Int("malformed", stats.Malformed).
		Int("late", stats.Late).
		Int("overflows", stats.Overflows).
		Msg("replay complete")

	return nil
}

// step feeds one tick to the scheduler and samples its state
func (s *Simulator) step(t tick.Tick) {
	s.fired = false
	s.scheduler.Step(t)
	s.ticks++

	if !s.history {
		return
	}

	tp := TimePoint{Time: t.Time}
	if t.Command != nil {
		kind := t.Command.Kind
		tp.Command = &kind
	}
	tp.FireAt, tp.Armed = s.scheduler.Pending()
	tp.Fired = s.fired
	s.timePoints = append(s.timePoints, tp)
}

// addEvent adds an event to the event list
func (s *Simulator) addEvent(event scheduler.Event) {
	if event.Type == scheduler.EventTypeFired {
		s.fired = true
	}
	if s.history {
		s.events = append(s.events, event)
	}
}

// GetEvents returns all events
func (s *Simulator) GetEvents() []scheduler.Event {
	return s.events
}

// GetTimePoints returns one time point per tick
func (s *Simulator) GetTimePoints() []TimePoint {
	return s.timePoints
}

// GetWarnings returns all warning events
func (s *Simulator) GetWarnings() []scheduler.Event {
	warnings := []scheduler.Event{}
	for _, event := range s.events {
		if event.IsWarning {
			warnings = append(warnings, event)
		}
	}
	return warnings
}

// GetStats returns the generator's recovery counters
func (s *Simulator) GetStats() tick.Stats {
	return s.generator.Stats()
}

// Ticks returns the number of ticks processed so far
func (s *Simulator) Ticks() uint64 {
	return s.ticks
}
