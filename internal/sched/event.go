// internal/sched/event.go

package sched

import (
	"time"
)

// StatusKind represents the type of scheduler event
type StatusKind int

const (
	StatusIdle StatusKind = iota
	StatusSpawn
	StatusDispatch
	StatusYield
	StatusWait
	StatusFinish
	StatusCancel
	StatusFault
	StatusSuspend
	StatusResume
	StatusWake
)

// StatusEvent is emitted on every state change of a task and when a pass
// finds nothing to run.
type StatusEvent struct {
	Time   time.Time
	Kind   StatusKind
	TaskID TaskID
	Name   string
	Group  string
	Pass   uint64
	Polls  uint64
	Err    error
}

// Observer receives status events. Events are delivered after the wheel has
// released its lock, so an observer may use a Handle. Observers attached to a
// wheel that is driven from several goroutines must do their own locking.
type Observer func(ev StatusEvent)

func (sk StatusKind) String() string {
	switch sk {
	case StatusIdle:
		return "Idle"
	case StatusSpawn:
		return "Spawn"
	case StatusDispatch:
		return "Dispatch"
	case StatusYield:
		return "Yield"
	case StatusWait:
		return "Wait"
	case StatusFinish:
		return "Finish"
	case StatusCancel:
		return "Cancel"
	case StatusFault:
		return "Fault"
	case StatusSuspend:
		return "Suspend"
	case StatusResume:
		return "Resume"
	case StatusWake:
		return "Wake"
	default:
		return "Unknown"
	}
}
