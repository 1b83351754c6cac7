package session

// State is the lifecycle state of the live session.
type State int

const (
	Idle State = iota
	Capturing
	Finalizing
	Reviewing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Capturing:
		return "capturing"
	case Finalizing:
		return "finalizing"
	case Reviewing:
		return "reviewing"
	}
	return "unknown"
}

// Transition describes one state change.
type Transition struct {
	From  State
	To    State
	Event string
}
