package sched

import (
	"fmt"
	"io"
	"time"

	"ticksched/internal/errors"
)

// SpawnParams controls how a task enters the wheel.
type SpawnParams struct {
	// Suspended starts the task parked; it is not polled until resumed.
	Suspended bool
	// Group is the fairness bucket of the task. Empty means the wheel's default group.
	Group string
	// Name is optional and only used for lookups, logs and traces.
	Name string
}

// Named returns default params carrying name.
func Named(name string) SpawnParams { return SpawnParams{Name: name} }

// InGroup returns default params placing the task in group.
func InGroup(group string) SpawnParams { return SpawnParams{Group: group} }

// InitialState returns the state a task spawned with p starts in.
func (p SpawnParams) InitialState() State {
	if p.Suspended {
		return Suspended
	}

	return Runnable
}

func (p SpawnParams) String() string {
	if p.Name != "" {
		return fmt.Sprintf("SpawnParams[name: %q, group: %q, suspended: %t]", p.Name, p.Group, p.Suspended)
	}

	return fmt.Sprintf("SpawnParams[group: %q, suspended: %t]", p.Group, p.Suspended)
}

// task is one registry record. It is owned by the registry; everything else
// refers to it by id.
type task struct {
	id      TaskID
	comp    Computation
	state   State
	group   string
	name    string
	wake    bool // wake requested since the last poll started
	polls   uint64
	spawned time.Time
	waker   Waker
}

func newTask(comp Computation, p SpawnParams, group string) *task {
	return &task{
		comp:    comp,
		state:   p.InitialState(),
		group:   group,
		name:    p.Name,
		spawned: time.Now(),
	}
}

// drop releases the computation of a task that will never be polled again.
// A panic in Close is returned as an error.
func (t *task) drop() (err error) {
	comp := t.comp
	t.comp = nil

	defer errors.Recover(func(cause error) {
		err = cause
	})

	if c, ok := comp.(io.Closer); ok {
		return c.Close()
	}

	return nil
}

func (t *task) outcome(reason Reason, value any, err error) Outcome {
	return Outcome{
		ID:     t.id,
		Name:   t.name,
		Group:  t.group,
		Reason: reason,
		Value:  value,
		Err:    err,
		Polls:  t.polls,
		Ran:    time.Since(t.spawned),
	}
}

// Outcome is the retained terminal report of a removed task.
type Outcome struct {
	ID     TaskID
	Name   string
	Group  string
	Reason Reason
	Value  any
	Err    error
	Polls  uint64
	Ran    time.Duration // wall time between spawn and removal
}
