package sched

import (
	"context"

	"ticksched/internal/errors"
)

// Run drives w until every task has left it.
//
// While nothing is runnable Run blocks until a handle operation (possibly from
// another goroutine) makes progress possible, or until ctx is done. When the
// only tasks left are suspended and Config.StopWhenSuspended is set, nothing
// inside the wheel can resume them and Run returns ErrAllSuspended.
//
// The returned error aggregates the faults of every task that failed or
// panicked during this run; the other tasks are unaffected by them.
func (w *Wheel) Run(ctx context.Context) error {
	wakeCh := make(chan struct{}, 1)
	outer := NewWaker(func() {
		select {
		case wakeCh <- struct{}{}:
		default:
		}
	})

	w.core.mu.Lock()
	w.core.faults = nil
	w.core.mu.Unlock()

	for {
		if err := ctx.Err(); err != nil {
			return errors.WithStackTrace(err)
		}

		res := w.Poll(outer)
		if res.IsReady() {
			if res.Err() != nil {
				return res.Err()
			}

			return w.takeFaults()
		}

		select {
		case <-wakeCh:
			continue
		default:
		}

		if w.core.cfg.StopWhenSuspended && w.onlySuspended() {
			return errors.Errorf("wheel %s: %w", w.core.name, ErrAllSuspended)
		}

		select {
		case <-wakeCh:
		case <-ctx.Done():
			return errors.WithStackTrace(ctx.Err())
		}
	}
}

func (w *Wheel) onlySuspended() bool {
	c := w.core

	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.reg.len()

	return n > 0 && c.reg.count(Suspended) == n
}

func (w *Wheel) takeFaults() error {
	c := w.core

	c.mu.Lock()
	defer c.mu.Unlock()

	faults := c.faults
	c.faults = nil

	return faults.ErrorOrNil()
}

// Close cancels every remaining task and invalidates all handles of w. The
// computations of the dropped tasks are closed and their close errors are
// returned.
//
// Close may be called while w is being polled, from another goroutine or from
// one of w's own tasks. The handles are invalidated at once, the pass stops
// after the task in flight, and the remaining tasks are dropped when Poll
// returns; close errors are then logged instead of returned.
func (w *Wheel) Close() error {
	return w.core.close()
}

func (c *core) close() error {
	c.mu.Lock()

	if c.closed {
		c.unlock()
		return nil
	}

	c.closed = true

	if c.polling {
		c.log.Debug("wheel closed during a pass")
		c.unlock()

		return nil
	}

	tasks := c.dropAll()

	c.fireOuter = c.idle
	c.unlock()

	var errs *errors.MultiError

	for _, t := range tasks {
		if err := t.drop(); err != nil {
			errs = errs.Append(errors.Errorf("closing task %s: %w", t.id, err))
		}
	}

	return errs.ErrorOrNil()
}

// dropAll removes every task with a Cancelled outcome and returns them for
// their computations to be dropped once c.mu is released.
func (c *core) dropAll() []*task {
	var tasks []*task

	c.reg.each(func(t *task) bool {
		tasks = append(tasks, t)
		return true
	})

	for _, t := range tasks {
		c.reg.remove(t.id)
		t.state = Completed
		c.cancelled++
		c.keep(t.outcome(Cancelled, nil, nil))
		c.emit(StatusCancel, t, nil)
	}

	c.log.WithField("dropped", len(tasks)).Debug("wheel closed")

	return tasks
}
