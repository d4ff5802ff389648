package sched

import "ticksched/internal/errors"

var (
	// ErrNotFound is returned for ids that were never issued or whose task has been removed.
	ErrNotFound = errors.Sentinel("task not found")
	// ErrInvalidTransition is returned when an operation is not legal in the task's current state.
	ErrInvalidTransition = errors.Sentinel("invalid task state transition")
	// ErrExhausted is returned by Spawn once the task id space has run out.
	ErrExhausted = errors.Sentinel("task id space exhausted")
	// ErrClosed is returned by handles of a closed wheel.
	ErrClosed = errors.Sentinel("wheel closed")
	// ErrAllSuspended is returned by Run when only suspended tasks are left.
	ErrAllSuspended = errors.Sentinel("all tasks were suspended")
	// ErrReentrantPoll is reported when a wheel is polled from one of its own tasks.
	ErrReentrantPoll = errors.Sentinel("wheel polled reentrantly")
)

func notFound(id TaskID) error {
	return errors.Errorf("task %s: %w", id, ErrNotFound)
}

func invalidTransition(id TaskID, from, to State) error {
	return errors.Errorf("task %s: %s -> %s: %w", id, from, to, ErrInvalidTransition)
}
