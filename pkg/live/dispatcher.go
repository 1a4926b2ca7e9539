// Package live runs the actuation scheduler against the wall clock.
//
// Input is one delay per line: a non-negative integer arms the actuation to
// fire after that many units, a negative one cancels it. At most one timer is
// alive per dispatcher. When the next input line and the timer expiry are
// ready together, the expiry is handled first.
package live

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sherine-k/actuator/pkg/command"
	"github.com/sherine-k/actuator/pkg/scheduler"
)

// ParseDelay parses a live input line
func ParseDelay(line string) (command.Command, error) {
	delay, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
	if err != nil {
		return command.Command{}, fmt.Errorf("%w: expected an integer delay, got %q", command.ErrMalformed, line)
	}
	if delay < 0 {
		return command.Cancel(), nil
	}
	return command.Schedule(uint64(delay)), nil
}

// Dispatcher races input commands against the pending actuation's timer
type Dispatcher struct {
	clock  Clock
	unit   time.Duration
	logger zerolog.Logger

	scheduler *scheduler.Scheduler
	start     time.Time
	timer     Timer
}

// NewDispatcher creates a dispatcher measuring delays in units of unit
func NewDispatcher(clock Clock, unit time.Duration, logger zerolog.Logger, sinks ...scheduler.Sink) *Dispatcher {
	if unit <= 0 {
		unit = time.Second
	}
	return &Dispatcher{
		clock:     clock,
		unit:      unit,
		logger:    logger,
		scheduler: scheduler.New(logger, sinks...),
	}
}

// Run reads commands from r until the input ends and nothing is pending,
// ctx is cancelled, or reading fails.
//
// Run does not close r. When ctx ends while a read on r is blocked, the
// reading goroutine stays parked in that read until the caller closes r or
// the read returns.
func (d *Dispatcher) Run(ctx context.Context, r io.Reader) error {
	d.start = d.clock.Now()
	defer d.stopTimer()

	cmds := make(chan command.Command)
	readErr := make(chan error, 1)
	go d.read(ctx, r, cmds, readErr)

	inputDone := false
	for {
		if inputDone && d.timer == nil {
			return nil
		}

		var expired <-chan time.Time
		if d.timer != nil {
			expired = d.timer.C()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-expired:
			d.fire()

		case cmd, ok := <-cmds:
			if !ok {
				if err := <-readErr; err != nil {
					return err
				}
				inputDone = true
				cmds = nil
				d.logger.Debug().Bool("armed", d.timer != nil).Msg("input closed")
				continue
			}

			// expiry wins a tie with input
			if expired != nil {
				select {
				case <-expired:
					d.fire()
				default:
				}
			}
			d.apply(cmd)
		}
	}
}

// Pending returns the armed fire time in units since Run started
func (d *Dispatcher) Pending() (uint64, bool) {
	return d.scheduler.Pending()
}

// read parses lines into commands. Unparsable lines are logged and skipped.
func (d *Dispatcher) read(ctx context.Context, r io.Reader, cmds chan<- command.Command, readErr chan<- error) {
	defer close(cmds)

	lines := command.NewLineReader(r)
	for {
		line, err := lines.ReadLine()
		if errors.Is(err, io.EOF) {
			readErr <- nil
			return
		}
		if err != nil && !errors.Is(err, command.ErrMalformed) {
			readErr <- fmt.Errorf("read input: %w", err)
			return
		}

		var cmd command.Command
		if err == nil {
			cmd, err = ParseDelay(line)
		}
		if err != nil {
			d.logger.Debug().Err(err).Msg("ignoring input line")
			continue
		}

		select {
		case cmds <- cmd:
		case <-ctx.Done():
			readErr <- nil
			return
		}
	}
}

// now returns elapsed wall time in units since Run started
func (d *Dispatcher) now() uint64 {
	elapsed := d.clock.Now().Sub(d.start)
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed / d.unit)
}

func (d *Dispatcher) apply(cmd command.Command) {
	at := d.now()
	d.scheduler.Apply(at, cmd)
	d.stopTimer()

	fireAt, armed := d.scheduler.Pending()
	if !armed {
		return
	}
	if fireAt <= at {
		d.scheduler.Check(fireAt)
		return
	}

	// delays too long for a time.Duration wait the longest representable time
	wait := time.Duration(math.MaxInt64)
	if units := fireAt - at; units <= uint64(math.MaxInt64/int64(d.unit)) {
		wait = time.Duration(units) * d.unit
	}
	d.timer = d.clock.NewTimer(wait)
}

func (d *Dispatcher) fire() {
	d.timer = nil
	if fireAt, armed := d.scheduler.Pending(); armed {
		d.scheduler.Check(fireAt)
	}
}

func (d *Dispatcher) stopTimer() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
