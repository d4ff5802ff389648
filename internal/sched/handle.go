package sched

import (
	"ticksched/internal/errors"
)

// Handle spawns and controls the tasks of one Wheel. Handles are small values;
// copying one (or calling Clone) yields another handle to the same wheel.
//
// Every method is safe to call from inside a task of the wheel, while that
// task is being polled, and from other goroutines. Changes take effect
// immediately but only influence the next pass, never the one in flight.
// Once the wheel is closed, mutating methods return ErrClosed.
type Handle struct {
	c *core
}

// Clone returns another handle to the same wheel.
func (h Handle) Clone() Handle { return h }

// Valid reports whether h can still be used to control tasks.
func (h Handle) Valid() bool {
	if h.c == nil {
		return false
	}

	h.c.mu.Lock()
	defer h.c.mu.Unlock()

	return !h.c.closed
}

// Same reports whether h and other belong to the same wheel.
func (h Handle) Same(other Handle) bool {
	return h.c != nil && h.c == other.c
}

// lock acquires the core for a mutating operation.
func (h Handle) lock() (*core, error) {
	if h.c == nil {
		return nil, errors.WithStackTrace(ErrClosed)
	}

	h.c.mu.Lock()

	if h.c.closed {
		h.c.mu.Unlock()
		return nil, errors.Errorf("wheel %s: %w", h.c.name, ErrClosed)
	}

	return h.c, nil
}

// Spawn registers comp as a new task. A runnable task is first polled on the
// pass after the current one.
func (h Handle) Spawn(params SpawnParams, comp Computation) (TaskID, error) {
	if comp == nil {
		return 0, errors.Errorf("spawning %s: nil computation", params)
	}

	c, err := h.lock()
	if err != nil {
		return 0, err
	}
	defer c.unlock()

	group := params.Group
	if group == "" {
		group = c.cfg.DefaultGroup
	}

	t := newTask(comp, params, group)

	id, err := c.reg.insert(t)
	if err != nil {
		c.log.WithError(err).Warn("spawn refused")
		return 0, err
	}

	t.waker = Waker{id: id, handle: h}

	c.taskLog(t).WithField("state", t.state).Debug("task spawned")
	c.emit(StatusSpawn, t, nil)

	if t.state == Runnable {
		c.kick()
	}

	return id, nil
}

// SpawnDefault is Spawn with default params.
func (h Handle) SpawnDefault(comp Computation) (TaskID, error) {
	return h.Spawn(SpawnParams{}, comp)
}

// Cancel asks for the task to be dropped. The computation is never polled
// again; if the task is being polled right now, the poll runs to its next
// yield point and the task is removed when it returns. Cancelling a task
// that is already waiting for removal is a no-op.
func (h Handle) Cancel(id TaskID) error {
	c, err := h.lock()
	if err != nil {
		return err
	}
	defer c.unlock()

	return c.cancel(id)
}

func (c *core) cancel(id TaskID) error {
	t, ok := c.reg.get(id)
	if !ok {
		return notFound(id)
	}

	if t.state == CancelRequested {
		return nil
	}

	if err := c.reg.setState(id, CancelRequested); err != nil {
		return err
	}

	c.taskLog(t).Debug("task cancel requested")
	c.kick()

	return nil
}

// Suspend parks a Runnable or Waiting task until Resume.
func (h Handle) Suspend(id TaskID) error {
	c, err := h.lock()
	if err != nil {
		return err
	}
	defer c.unlock()

	return c.suspend(id)
}

func (c *core) suspend(id TaskID) error {
	t, ok := c.reg.get(id)
	if !ok {
		return notFound(id)
	}

	if err := c.reg.setState(id, Suspended); err != nil {
		return err
	}

	c.emit(StatusSuspend, t, nil)

	return nil
}

// Resume makes a Suspended task Runnable again.
func (h Handle) Resume(id TaskID) error {
	c, err := h.lock()
	if err != nil {
		return err
	}
	defer c.unlock()

	return c.resume(id)
}

func (c *core) resume(id TaskID) error {
	t, ok := c.reg.get(id)
	if !ok {
		return notFound(id)
	}

	if t.state != Suspended {
		return invalidTransition(id, t.state, Runnable)
	}

	t.state = Runnable
	c.emit(StatusResume, t, nil)
	c.kick()

	return nil
}

// Wake records a wake request for the task. A Waiting task becomes Runnable
// immediately; a task that is being polled stays Runnable after it yields.
func (h Handle) Wake(id TaskID) error {
	c, err := h.lock()
	if err != nil {
		return err
	}
	defer c.unlock()

	t, ok := c.reg.get(id)
	if !ok {
		return notFound(id)
	}

	t.wake = true

	if t.state == Waiting {
		t.state = Runnable
		c.emit(StatusWake, t, nil)
		c.kick()
	}

	return nil
}

// State returns the current state of a task. Removed tasks whose outcome is
// still retained report Completed; otherwise they are not found.
func (h Handle) State(id TaskID) (State, error) {
	if h.c == nil {
		return Completed, errors.WithStackTrace(ErrClosed)
	}

	h.c.mu.Lock()
	defer h.c.mu.Unlock()

	if s, ok := h.c.reg.lookupState(id); ok {
		return s, nil
	}

	if _, ok := h.c.outcomes.Get(id); ok {
		return Completed, nil
	}

	return Completed, notFound(id)
}

// Outcome returns how a removed task ended. Only the most recent outcomes,
// up to Config.OutcomeCapacity, are retained.
func (h Handle) Outcome(id TaskID) (Outcome, error) {
	if h.c == nil {
		return Outcome{}, errors.WithStackTrace(ErrClosed)
	}

	h.c.mu.Lock()
	defer h.c.mu.Unlock()

	v, ok := h.c.outcomes.Get(id)
	if !ok {
		return Outcome{}, notFound(id)
	}

	return v.(Outcome), nil
}

// Current returns the id of the task being polled, if any.
func (h Handle) Current() (TaskID, bool) {
	if h.c == nil {
		return 0, false
	}

	h.c.mu.Lock()
	defer h.c.mu.Unlock()

	return h.c.current, h.c.current != 0
}

// Name returns the name a live task was spawned with.
func (h Handle) Name(id TaskID) (string, error) {
	if h.c == nil {
		return "", errors.WithStackTrace(ErrClosed)
	}

	h.c.mu.Lock()
	defer h.c.mu.Unlock()

	t, ok := h.c.reg.get(id)
	if !ok {
		return "", notFound(id)
	}

	return t.name, nil
}

// Lookup returns the oldest live task spawned with name.
func (h Handle) Lookup(name string) (TaskID, bool) {
	if h.c == nil || name == "" {
		return 0, false
	}

	h.c.mu.Lock()
	defer h.c.mu.Unlock()

	var found TaskID

	h.c.reg.each(func(t *task) bool {
		if t.name == name {
			found = t.id
			return false
		}

		return true
	})

	return found, found != 0
}

// CancelGroup requests cancellation of every live task in group and returns
// how many requests were made.
func (h Handle) CancelGroup(group string) (int, error) {
	return h.eachInGroup(group, func(c *core, t *task) error {
		if t.state == CancelRequested {
			return errSkip
		}

		return c.cancel(t.id)
	})
}

// SuspendGroup suspends every Runnable or Waiting task in group.
func (h Handle) SuspendGroup(group string) (int, error) {
	return h.eachInGroup(group, func(c *core, t *task) error {
		if t.state != Runnable && t.state != Waiting {
			return errSkip
		}

		return c.suspend(t.id)
	})
}

// ResumeGroup resumes every Suspended task in group.
func (h Handle) ResumeGroup(group string) (int, error) {
	return h.eachInGroup(group, func(c *core, t *task) error {
		if t.state != Suspended {
			return errSkip
		}

		return c.resume(t.id)
	})
}

var errSkip = errors.Sentinel("skip")

func (h Handle) eachInGroup(group string, f func(c *core, t *task) error) (int, error) {
	c, err := h.lock()
	if err != nil {
		return 0, err
	}
	defer c.unlock()

	if group == "" {
		group = c.cfg.DefaultGroup
	}

	n := 0

	for _, id := range c.reg.members(group) {
		t, ok := c.reg.get(id)
		if !ok {
			continue
		}

		switch err := f(c, t); {
		case err == nil:
			n++
		case errors.Is(err, errSkip):
		default:
			return n, err
		}
	}

	return n, nil
}

// Stats returns a snapshot of the wheel's counters.
func (h Handle) Stats() Stats {
	if h.c == nil {
		return Stats{}
	}

	h.c.mu.Lock()
	defer h.c.mu.Unlock()

	c := h.c

	return Stats{
		Registered: c.reg.len(),
		Runnable:   c.reg.count(Runnable),
		Waiting:    c.reg.count(Waiting),
		Suspended:  c.reg.count(Suspended),
		Cancelling: c.reg.count(CancelRequested),
		Groups:     c.reg.groupSizes(),
		Passes:     c.passes,
		Polls:      c.polls,
		Finished:   c.finished,
		Cancelled:  c.cancelled,
		Faulted:    c.faulted,
		Retained:   c.outcomes.Size(),
		Exhausted:  c.reg.ids.exhausted(),
	}
}

// Stats is a snapshot of a wheel's task counts.
type Stats struct {
	Registered int
	Runnable   int
	Waiting    int
	Suspended  int
	Cancelling int
	Groups     map[string]int

	Passes    uint64
	Polls     uint64
	Finished  uint64
	Cancelled uint64
	Faulted   uint64
	Retained  int
	Exhausted bool
}
