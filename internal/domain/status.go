package domain

// Status is the lifecycle state of a room.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusStarting   Status = "starting"
	StatusInProgress Status = "in-progress"
	StatusFinished   Status = "finished"
	StatusCancelled  Status = "cancelled"
)

var statusOrder = map[Status]int{
	StatusWaiting:    0,
	StatusStarting:   1,
	StatusInProgress: 2,
	StatusFinished:   3,
	StatusCancelled:  3,
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusFinished || s == StatusCancelled
}

// HoldsCode reports whether a room in this status still owns its code.
func (s Status) HoldsCode() bool {
	return s == StatusWaiting || s == StatusStarting || s == StatusInProgress
}

// CanTransition reports whether moving from s to next keeps the lifecycle monotonic.
// Waiting may skip straight to in-progress; finished is only reachable from in-progress.
func (s Status) CanTransition(next Status) bool {
	if s.Terminal() {
		return false
	}
	from, ok := statusOrder[s]
	if !ok {
		return false
	}
	to, ok := statusOrder[next]
	if !ok || to <= from {
		return false
	}
	if next == StatusFinished {
		return s == StatusInProgress
	}
	return true
}
