// Package tick turns a sparse, timestamped command log into a dense sequence
// of discrete time steps.
//
// Every emitted Tick is exactly one unit later than the previous one, starting
// at zero. Instants with no input record are filled with commandless ticks,
// and once the input ends the generator keeps ticking until the furthest fire
// time it has seen has been reached.
package tick

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/bits"

	"github.com/rs/zerolog"

	"github.com/sherine-k/actuator/pkg/command"
)

// Tick is one discrete instant, optionally carrying a command
type Tick struct {
	Time    uint64
	Command *command.Command
}

// HasCommand reports whether the tick carries a command
func (t Tick) HasCommand() bool {
	return t.Command != nil
}

// Stats counts records the generator had to recover from
type Stats struct {
	Records   int // well formed records consumed
	Malformed int // lines skipped because they did not parse
	Overflows int // drain bound updates dropped on overflow
	Late      int // records stamped later than their declared time
}

// Warning describes a recovered per-record problem
type Warning struct {
	Kind    WarningKind
	Time    uint64
	Message string
}

// WarningKind classifies a Warning
type WarningKind string

const (
	WarningMalformed     WarningKind = "malformed"
	WarningLate          WarningKind = "late"
	WarningDrainOverflow WarningKind = "drain-overflow"
)

// Option configures a Generator
type Option func(*Generator)

// WithLogger sets the logger used for recovered record problems
func WithLogger(logger zerolog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// WithWarningHandler registers a callback for every recovered record problem
func WithWarningHandler(fn func(Warning)) Option {
	return func(g *Generator) {
		g.onWarning = fn
	}
}

// Generator produces ticks from a command.Source
type Generator struct {
	src    command.Source
	logger zerolog.Logger

	onWarning func(Warning)

	current       uint64
	lastScheduled uint64
	buffered      *command.RawRecord

	exhausted bool
	err       error
	stats     Stats
}

// NewGenerator creates a generator reading from src
func NewGenerator(src command.Source, opts ...Option) *Generator {
	g := &Generator{
		src:    src,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Next returns the next tick.
//
// It returns io.EOF once the input is exhausted and every scheduled fire time
// has been reached. An upstream read failure ends the sequence immediately,
// without draining, and is returned on this and every later call.
func (g *Generator) Next() (Tick, error) {
	if g.err != nil {
		return Tick{}, g.err
	}
	if g.exhausted {
		return Tick{}, io.EOF
	}

	if g.buffered != nil {
		if g.buffered.Time > g.current {
			return g.advance(), nil
		}
		rec := *g.buffered
		g.buffered = nil
		return g.process(rec), nil
	}

	for {
		rec, err := g.src.Next()
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			if g.current <= g.lastScheduled {
				return g.advance(), nil
			}
			g.exhausted = true
			return Tick{}, io.EOF
		case errors.Is(err, command.ErrMalformed):
			g.stats.Malformed++
			g.warn(WarningMalformed, g.current, err.Error())
			continue
		default:
			g.err = fmt.Errorf("read record: %w", err)
			return Tick{}, g.err
		}

		g.stats.Records++
		if rec.Time > g.current {
			g.buffered = &rec
			return g.advance(), nil
		}
		return g.process(rec), nil
	}
}

// Current returns the time the next tick will carry
func (g *Generator) Current() uint64 {
	return g.current
}

// LastScheduled returns the furthest fire time seen so far
func (g *Generator) LastScheduled() uint64 {
	return g.lastScheduled
}

// Buffered returns the record held back for a future instant, if any
func (g *Generator) Buffered() (command.RawRecord, bool) {
	if g.buffered == nil {
		return command.RawRecord{}, false
	}
	return *g.buffered, true
}

// Stats returns counters for recovered record problems
func (g *Generator) Stats() Stats {
	return g.stats
}

// advance emits a commandless tick at the current instant
func (g *Generator) advance() Tick {
	t := Tick{Time: g.current}
	g.step(t.Time)
	return t
}

// process emits a tick carrying rec's command.
// A record older than the current instant is stamped at the current instant.
func (g *Generator) process(rec command.RawRecord) Tick {
	at := rec.Time
	if at < g.current {
		g.stats.Late++
		g.warn(WarningLate, g.current, fmt.Sprintf("record for t=%d arrived at t=%d", rec.Time, g.current))
		at = g.current
	}

	cmd := rec.Command()
	if cmd.Kind == command.KindSchedule {
		fireAt, carry := bits.Add64(at, cmd.Delay, 0)
		if carry != 0 {
			g.stats.Overflows++
			g.warn(WarningDrainOverflow, at, fmt.Sprintf("fire time %d+%d overflows", at, cmd.Delay))
		} else if fireAt > g.lastScheduled {
			g.lastScheduled = fireAt
		}
	}

	t := Tick{Time: at, Command: &cmd}
	g.step(at)
	return t
}

// step moves the clock past at
func (g *Generator) step(at uint64) {
	if at == math.MaxUint64 {
		g.exhausted = true
		return
	}
	g.current = at + 1
}

func (g *Generator) warn(kind WarningKind, at uint64, msg string) {
	ev := g.logger.Warn()
	if kind == WarningMalformed {
		ev = g.logger.Debug()
	}
	ev.Str("kind", string(kind)).Uint64("tick", at).Msg(msg)

	if g.onWarning != nil {
		g.onWarning(Warning{Kind: kind, Time: at, Message: msg})
	}
}
