// Package scheduler implements the single-slot actuation scheduler.
//
// The scheduler is either Idle or Armed with one fire time. A schedule
// command always replaces the pending slot, a cancel clears it, and every
// tick checks whether the armed fire time has arrived.
package scheduler

import (
	"math/bits"

	"github.com/rs/zerolog"

	"github.com/sherine-k/actuator/pkg/command"
	"github.com/sherine-k/actuator/pkg/tick"
)

// State is the scheduler's slot state
type State int

const (
	StateIdle State = iota
	StateArmed
)

func (s State) String() string {
	if s == StateArmed {
		return "armed"
	}
	return "idle"
}

// Scheduler owns at most one pending actuation
type Scheduler struct {
	armed  bool
	fireAt uint64

	sinks  []Sink
	logger zerolog.Logger
}

// New creates an idle scheduler reporting to sinks
func New(logger zerolog.Logger, sinks ...Sink) *Scheduler {
	return &Scheduler{
		sinks:  sinks,
		logger: logger,
	}
}

// AddSink registers another event receiver
func (s *Scheduler) AddSink(sink Sink) {
	s.sinks = append(s.sinks, sink)
}

// Step applies the tick's command, if any, then checks whether the pending
// actuation is due at the tick's time.
func (s *Scheduler) Step(t tick.Tick) {
	if t.Command != nil {
		s.Apply(t.Time, *t.Command)
	}
	s.Check(t.Time)
}

// Apply handles a command arriving at time at
func (s *Scheduler) Apply(at uint64, cmd command.Command) {
	switch cmd.Kind {
	case command.KindSchedule:
		fireAt, carry := bits.Add64(at, cmd.Delay, 0)
		if carry != 0 {
			s.logger.Warn().Uint64("tick", at).Uint64("delay", cmd.Delay).Msg("fire time overflows, not arming")
			s.emit(overflowEvent(at, cmd.Delay))
			return
		}

		if s.armed {
			s.logger.Debug().Uint64("tick", at).Uint64("fire_at", s.fireAt).Msg("replacing pending actuation")
			s.emit(replacedEvent(at, s.fireAt))
		}
		s.armed = true
		s.fireAt = fireAt
		s.logger.Debug().Uint64("tick", at).Uint64("fire_at", fireAt).Msg("armed")
		s.emit(scheduledEvent(at, cmd.Delay, fireAt))

	case command.KindCancel:
		if !s.armed {
			s.emit(cancelNoopEvent(at))
			return
		}
		s.logger.Debug().Uint64("tick", at).Uint64("fire_at", s.fireAt).Msg("cancelled")
		s.emit(cancelledEvent(at, s.fireAt))
		s.armed = false
		s.fireAt = 0
	}
}

// Check fires the pending actuation if its fire time is at.
// It reports whether a firing happened.
func (s *Scheduler) Check(at uint64) bool {
	if !s.armed || s.fireAt != at {
		return false
	}
	s.armed = false
	s.fireAt = 0
	s.logger.Info().Uint64("tick", at).Msg("firing")
	s.emit(firedEvent(at))
	return true
}

// Pending returns the armed fire time
func (s *Scheduler) Pending() (uint64, bool) {
	return s.fireAt, s.armed
}

// State returns the current slot state
func (s *Scheduler) State() State {
	if s.armed {
		return StateArmed
	}
	return StateIdle
}

func (s *Scheduler) emit(e Event) {
	for _, sink := range s.sinks {
		sink.Emit(e)
	}
}
