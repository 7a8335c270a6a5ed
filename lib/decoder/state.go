package decoder

// State of a decode session. The numeric values are exported as the
// session state gauge.
type State int

const (
	Idle State = iota
	Preparing
	Playing
	Completed
	Stopped
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Preparing:
		return "preparing"
	case Playing:
		return "playing"
	case Completed:
		return "completed"
	case Stopped:
		return "stopped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal states are never left
func (s State) Terminal() bool {
	return s == Stopped || s == Failed
}
