package sched

// State is the scheduling state of a task.
type State uint8

const (
	// Runnable tasks are polled on their next turn.
	Runnable State = iota
	// Waiting tasks were polled, reported pending and have not been woken since.
	Waiting
	// Suspended tasks are excluded from scheduling until resumed.
	Suspended
	// CancelRequested tasks are dropped, without another poll, at the next poll boundary.
	CancelRequested
	// Completed is terminal; the task has been removed from the registry.
	Completed
)

func (s State) String() string {
	switch s {
	case Runnable:
		return "Runnable"
	case Waiting:
		return "Waiting"
	case Suspended:
		return "Suspended"
	case CancelRequested:
		return "CancelRequested"
	case Completed:
		return "Completed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transition is possible from s.
func (s State) Terminal() bool { return s == Completed }

// CanTransition reports whether moving from s to next is legal.
//
// Cancelling twice is allowed so Cancel stays idempotent until the task is
// actually removed. Suspend is refused for CancelRequested tasks: cancellation wins.
func (s State) CanTransition(next State) bool {
	switch s {
	case Runnable:
		return next == Waiting || next == Suspended || next == CancelRequested || next == Completed
	case Waiting:
		return next == Runnable || next == Suspended || next == CancelRequested
	case Suspended:
		return next == Runnable || next == CancelRequested
	case CancelRequested:
		return next == CancelRequested || next == Completed
	default:
		return false
	}
}

// Reason tells how a task left the registry.
type Reason uint8

const (
	// Finished tasks reported ready.
	Finished Reason = iota + 1
	// Cancelled tasks were dropped after a cancel request.
	Cancelled
	// Faulted tasks failed or panicked.
	Faulted
)

func (r Reason) String() string {
	switch r {
	case Finished:
		return "Finished"
	case Cancelled:
		return "Cancelled"
	case Faulted:
		return "Faulted"
	default:
		return "Unknown"
	}
}
