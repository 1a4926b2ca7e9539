package simulation

import (
	"github.com/sherine-k/actuator/pkg/command"
	"github.com/sherine-k/actuator/pkg/scheduler"
	"github.com/sherine-k/actuator/pkg/tick"
)

// TimePoint represents the scheduler state after one tick
type TimePoint struct {
	Time    uint64
	Armed   bool
	FireAt  uint64
	Command *command.Kind
	Fired   bool
}

// warningEvent folds a recovered generator problem into the event stream
func warningEvent(w tick.Warning) scheduler.Event {
	var typ scheduler.EventType
	switch w.Kind {
	case tick.WarningMalformed:
		typ = scheduler.EventTypeMalformed
	case tick.WarningLate:
		typ = scheduler.EventTypeLate
	case tick.WarningDrainOverflow:
		typ = scheduler.EventTypeDrainOverflow
	default:
		typ = scheduler.EventType(w.Kind)
	}

	return scheduler.Event{
		Time:      w.Time,
		Type:      typ,
		Message:   w.Message,
		IsWarning: true,
	}
}
