package scheduler

import (
	"fmt"
	"io"
	"sync"
)

// Sink receives every event the scheduler emits
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to a Sink
type SinkFunc func(Event)

// Emit calls f(e)
func (f SinkFunc) Emit(e Event) {
	f(e)
}

// WriterSink prints one "<time>\t<message>" line per transition.
// Warning events are left to the logger.
type WriterSink struct {
	mu  sync.Mutex
	w   io.Writer
	err error
}

// NewWriterSink creates a sink writing to w
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Emit writes the event line. The first write error is kept and later
// events are dropped.
func (s *WriterSink) Emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil || e.IsWarning {
		return
	}
	if _, err := fmt.Fprintln(s.w, e.String()); err != nil {
		s.err = fmt.Errorf("write event: %w", err)
	}
}

// Err returns the first write error, if any
func (s *WriterSink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Recorder keeps every event in memory
type Recorder struct {
	events []Event
}

// Emit appends the event
func (r *Recorder) Emit(e Event) {
	r.events = append(r.events, e)
}

// Events returns the recorded events in emission order
func (r *Recorder) Events() []Event {
	return r.events
}
