package pipeline

// State is the stage a run is in. Runs move forward only:
// Idle -> Reading -> Batching -> Publishing -> Done, and Failed from anywhere.
type State int32

const (
	StateIdle State = iota
	StateReading
	StateBatching
	StatePublishing
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReading:
		return "reading"
	case StateBatching:
		return "batching"
	case StatePublishing:
		return "publishing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
