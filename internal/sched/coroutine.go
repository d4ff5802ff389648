package sched

import (
	"iter"
)

// Go turns straight-line code into a Computation. fn runs as a coroutine:
// every yield point on co suspends it and reports Pending to the wheel, and
// the next poll resumes it where it stopped. The value and error returned by
// fn become the task's outcome; a panic in fn faults the task.
//
// When the task is cancelled, or its wheel is closed or collected, the
// coroutine is unwound at its current yield point, running its deferred calls.
// fn must not recover that unwinding.
func Go(fn func(co *Co) (any, error)) Computation {
	return &coroutine{fn: fn}
}

// Co is the view a coroutine has of its task.
type Co struct {
	waker *Waker
	yield func(struct{}) bool
}

// unwind is the panic value used to stop a cancelled coroutine.
type unwind struct{}

type coroutine struct {
	fn       func(co *Co) (any, error)
	co       Co
	next     func() (struct{}, bool)
	stop     func()
	finished bool
	value    any
	err      error
}

func (c *coroutine) Poll(w *Waker) Result {
	if c.finished {
		return c.result()
	}

	c.co.waker = w

	if c.next == nil {
		c.next, c.stop = iter.Pull(c.body)
	}

	if _, ok := c.next(); ok {
		return Pending()
	}

	return c.result()
}

func (c *coroutine) result() Result {
	if c.err != nil {
		return Fail(c.err)
	}

	return Ready(c.value)
}

func (c *coroutine) body(yield func(struct{}) bool) {
	defer func() { c.finished = true }()
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(unwind); ok {
				return
			}

			panic(r)
		}
	}()

	c.co.yield = yield
	c.value, c.err = c.fn(&c.co)
}

// Close unwinds a coroutine that has not finished.
func (c *coroutine) Close() error {
	if c.stop != nil && !c.finished {
		c.stop()
	}

	c.finished = true

	return nil
}

func (co *Co) suspend() {
	if !co.yield(struct{}{}) {
		panic(unwind{})
	}
}

// Await polls comp until it is ready, suspending the coroutine in between.
func (co *Co) Await(comp Computation) (any, error) {
	for {
		res := comp.Poll(co.waker)
		if res.IsReady() {
			return res.Value(), res.Err()
		}

		co.suspend()
	}
}

// YieldOnce gives the other tasks one turn.
func (co *Co) YieldOnce() {
	_, _ = co.Await(Yield())
}

// YieldTimes gives the other tasks n turns.
func (co *Co) YieldTimes(n int) {
	_, _ = co.Await(YieldTimes(n))
}

// YieldUntil yields until cond holds.
func (co *Co) YieldUntil(cond func() bool) {
	_, _ = co.Await(YieldUntil(cond))
}

// YieldWhile yields while busy holds.
func (co *Co) YieldWhile(busy func() bool) {
	_, _ = co.Await(YieldWhile(busy))
}

// ID returns the id of the task running the coroutine.
func (co *Co) ID() TaskID { return co.waker.ID() }

// Handle returns a handle to the wheel running the coroutine.
func (co *Co) Handle() Handle { return co.waker.Handle() }

// Waker returns the waker of the current poll.
func (co *Co) Waker() *Waker { return co.waker }
