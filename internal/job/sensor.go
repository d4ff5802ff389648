package job

import (
	"github.com/emirpasic/gods/queues/circularbuffer"

	"ticksched/internal/sched"
)

// Readings is a bounded buffer of sensor samples shared by the collector and
// the processor. When full, the oldest sample is overwritten.
type Readings struct {
	buf *circularbuffer.Queue
}

// NewReadings creates a buffer holding at most size samples.
func NewReadings(size int) *Readings {
	if size <= 0 {
		size = 64
	}

	return &Readings{buf: circularbuffer.New(size)}
}

// Push appends a sample.
func (r *Readings) Push(v int) {
	r.buf.Enqueue(v)
}

// Drain removes and returns every buffered sample, oldest first.
func (r *Readings) Drain() []int {
	out := make([]int, 0, r.buf.Size())

	for {
		v, ok := r.buf.Dequeue()
		if !ok {
			return out
		}

		out = append(out, v.(int))
	}
}

// Len returns the number of buffered samples.
func (r *Readings) Len() int { return r.buf.Size() }

// Collect reads a sample, stores it and yields, forever or until cancelled.
func Collect(readings *Readings, read func() int) sched.Computation {
	return sched.Go(func(co *sched.Co) (any, error) {
		for {
			readings.Push(read())
			co.YieldOnce()
		}
	})
}

// Report is what Process returns once it has cancelled the collector.
type Report struct {
	Rounds  int
	Samples int
	Sum     int
}

// Average returns the mean of all processed samples.
func (r Report) Average() float64 {
	if r.Samples == 0 {
		return 0
	}

	return float64(r.Sum) / float64(r.Samples)
}

// Process waits period ticks on clock, drains readings, and repeats rounds
// times. It then cancels the collector task and returns a Report.
func Process(clock Clock, period int64, rounds int, readings *Readings, collector sched.TaskID) sched.Computation {
	return sched.Go(func(co *sched.Co) (any, error) {
		var report Report

		for range rounds {
			if _, err := co.Await(SleepTicks(clock, period)); err != nil {
				return report, err
			}

			for _, v := range readings.Drain() {
				report.Samples++
				report.Sum += v
			}

			report.Rounds++
		}

		if err := co.Handle().Cancel(collector); err != nil {
			return report, err
		}

		return report, nil
	})
}
