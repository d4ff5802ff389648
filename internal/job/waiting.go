package job

import (
	"ticksched/internal/sched"
)

// SleepTicks returns a computation that completes once clock has advanced
// ticks ticks past its first poll. It busy-waits cooperatively, giving the
// other tasks a turn on every check.
func SleepTicks(clock Clock, ticks int64) sched.Computation {
	var (
		deadline int64
		started  bool
	)

	return sched.YieldUntil(func() bool {
		if !started {
			started = true
			deadline = clock.Count() + ticks
		}

		return clock.Count() >= deadline
	})
}
