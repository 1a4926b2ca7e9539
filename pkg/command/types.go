package command

// Kind identifies what a Command does to the pending actuation
type Kind int

const (
	// KindSchedule arms the actuation slot, replacing whatever was pending
	KindSchedule Kind = iota
	// KindCancel clears the actuation slot
	KindCancel
)

func (k Kind) String() string {
	switch k {
	case KindSchedule:
		return "schedule"
	case KindCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Command is a single scheduling instruction
type Command struct {
	Kind Kind
	// Delay is the number of time units until firing. Only meaningful for KindSchedule.
	Delay uint64
}

// Schedule returns a command that fires after delay units
func Schedule(delay uint64) Command {
	return Command{Kind: KindSchedule, Delay: delay}
}

// Cancel returns a command that clears any pending actuation
func Cancel() Command {
	return Command{Kind: KindCancel}
}

// RawRecord is one input line: the instant it applies to and its signal.
// A negative signal means cancel, anything else means fire after Signal units.
type RawRecord struct {
	Time   uint64
	Signal int64
}

// IsCancel reports whether the record cancels the pending actuation
func (r RawRecord) IsCancel() bool {
	return r.Signal < 0
}

// Command derives the scheduling command carried by the record
func (r RawRecord) Command() Command {
	if r.IsCancel() {
		return Cancel()
	}
	return Schedule(uint64(r.Signal))
}
