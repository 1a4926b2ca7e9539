package scheduler

import "fmt"

// EventType defines the kind of transition the scheduler reports
type EventType string

const (
	EventTypeScheduled  EventType = "scheduled"
	EventTypeReplaced   EventType = "replaced"
	EventTypeCancelled  EventType = "cancelled"
	EventTypeCancelNoop EventType = "cancel-noop"
	EventTypeFired      EventType = "fired"
	EventTypeOverflow   EventType = "overflow"

	// Record level problems recovered before they reached the scheduler.
	// The scheduler never emits these; the simulation folds them in.
	EventTypeMalformed     EventType = "malformed"
	EventTypeLate          EventType = "late"
	EventTypeDrainOverflow EventType = "drain-overflow"
)

// Event represents one observable scheduler transition
type Event struct {
	Time      uint64
	Type      EventType
	Delay     uint64 // requested delay, for scheduled and overflow events
	FireAt    uint64 // fire time of the slot the event refers to
	Message   string
	IsWarning bool
}

// String renders the event as a "<time>\t<message>" output line
func (e Event) String() string {
	return fmt.Sprintf("%d\t%s", e.Time, e.Message)
}

func scheduledEvent(at, delay, fireAt uint64) Event {
	return Event{
		Time:    at,
		Type:    EventTypeScheduled,
		Delay:   delay,
		FireAt:  fireAt,
		Message: fmt.Sprintf("schedule firing in %d", delay),
	}
}

func replacedEvent(at, fireAt uint64) Event {
	return Event{
		Time:    at,
		Type:    EventTypeReplaced,
		FireAt:  fireAt,
		Message: fmt.Sprintf("cancel pending firing at %d", fireAt),
	}
}

func cancelledEvent(at, fireAt uint64) Event {
	return Event{
		Time:    at,
		Type:    EventTypeCancelled,
		FireAt:  fireAt,
		Message: fmt.Sprintf("cancel pending firing at %d", fireAt),
	}
}

func cancelNoopEvent(at uint64) Event {
	return Event{
		Time:    at,
		Type:    EventTypeCancelNoop,
		Message: "cancel any pending firing",
	}
}

func firedEvent(at uint64) Event {
	return Event{
		Time:    at,
		Type:    EventTypeFired,
		FireAt:  at,
		Message: "firing now",
	}
}

func overflowEvent(at, delay uint64) Event {
	return Event{
		Time:      at,
		Type:      EventTypeOverflow,
		Delay:     delay,
		Message:   fmt.Sprintf("schedule delay %d overflows at %d, ignored", delay, at),
		IsWarning: true,
	}
}
