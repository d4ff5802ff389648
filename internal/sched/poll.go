package sched

// Result is what a single Poll of a Computation reports: either still pending,
// or ready with a value and an optional error.
type Result struct {
	ready bool
	value any
	err   error
}

// Pending reports that the computation has not finished yet.
func Pending() Result { return Result{} }

// Ready reports that the computation finished with v.
func Ready(v any) Result { return Result{ready: true, value: v} }

// Fail reports that the computation finished with an error.
// A task whose computation fails ends up Faulted.
func Fail(err error) Result { return Result{ready: true, err: err} }

// IsReady reports whether r is final.
func (r Result) IsReady() bool { return r.ready }

// Value returns the value of a ready result.
func (r Result) Value() any { return r.value }

// Err returns the error of a ready result.
func (r Result) Err() error { return r.err }

// A Computation is a resumable unit of work. The wheel polls it once per turn;
// Poll must not block. Returning Pending without arranging for w.Wake to be
// called leaves the task Waiting until something else wakes it.
//
// A Computation that also implements io.Closer is closed when its task is
// dropped without finishing (cancellation or Wheel.Close).
type Computation interface {
	Poll(w *Waker) Result
}

// ComputationFunc adapts an ordinary function to a Computation.
type ComputationFunc func(w *Waker) Result

// Poll calls f(w).
func (f ComputationFunc) Poll(w *Waker) Result { return f(w) }

// A Waker is handed to a Computation on every poll. Wake marks the polled
// task as runnable again; for a task that is being polled it means "poll me on
// the next pass".
type Waker struct {
	id     TaskID
	handle Handle
	wake   func()
}

// NewWaker returns a Waker that calls f when woken. Outer drivers polling a
// Wheel use it to learn when the wheel can make progress again.
func NewWaker(f func()) *Waker {
	return &Waker{wake: f}
}

// Wake requests another poll.
func (w *Waker) Wake() {
	if w == nil {
		return
	}

	if w.wake != nil {
		w.wake()
		return
	}

	if w.id != 0 {
		_ = w.handle.Wake(w.id)
	}
}

// ID returns the id of the task being polled, zero for outer wakers.
func (w *Waker) ID() TaskID {
	if w == nil {
		return 0
	}

	return w.id
}

// Handle returns a handle to the wheel polling this task. It is invalid for
// outer wakers.
func (w *Waker) Handle() Handle {
	if w == nil {
		return Handle{}
	}

	return w.handle
}
