package sched

// Yield returns a Computation that hands control back to the wheel exactly
// once: the first poll wakes the task and reports Pending, the second poll
// reports Ready. It never completes on its first poll.
func Yield() Computation {
	return &yieldTimes{remaining: 1}
}

// YieldTimes is like Yield but round-trips through the wheel n times.
func YieldTimes(n int) Computation {
	return &yieldTimes{remaining: n}
}

type yieldTimes struct {
	remaining int
}

func (y *yieldTimes) Poll(w *Waker) Result {
	if y.remaining <= 0 {
		return Ready(nil)
	}

	y.remaining--
	w.Wake()

	return Pending()
}

// YieldUntil busy-waits for cond while letting other tasks run: every poll
// checks cond, completes when it holds and otherwise yields once. Other tasks
// therefore wait at most one pass between two checks.
func YieldUntil(cond func() bool) Computation {
	return yieldUntil(cond)
}

// YieldWhile yields for as long as busy reports true. If busy is false on the
// first check the task does not yield at all.
func YieldWhile(busy func() bool) Computation {
	return yieldUntil(func() bool { return !busy() })
}

type yieldUntil func() bool

func (cond yieldUntil) Poll(w *Waker) Result {
	if cond() {
		return Ready(nil)
	}

	w.Wake()

	return Pending()
}
