package sched

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func newTestWheel(t *testing.T, cfg Config, opts ...Option) *Wheel {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	w := New(cfg, append([]Option{WithLogger(logger)}, opts...)...)
	t.Cleanup(func() { _ = w.Close() })

	return w
}

// drive polls w until it is ready and returns how many polls that took.
func drive(t *testing.T, w *Wheel, limit int) int {
	t.Helper()

	for i := 1; i <= limit; i++ {
		res := w.Poll(nil)
		if res.IsReady() {
			require.NoError(t, res.Err())
			return i
		}
	}

	require.FailNow(t, "wheel did not finish", "after %d polls", limit)

	return 0
}

// yielder wakes itself and reports pending n times, then finishes with value.
func yielder(n int, value any, polled *int) Computation {
	return ComputationFunc(func(w *Waker) Result {
		if polled != nil {
			*polled++
		}

		if n > 0 {
			n--
			w.Wake()

			return Pending()
		}

		return Ready(value)
	})
}

func ready(value any) Computation {
	return ComputationFunc(func(*Waker) Result { return Ready(value) })
}

// parked reports pending without waking itself.
func parked(polled *int) Computation {
	return ComputationFunc(func(*Waker) Result {
		if polled != nil {
			*polled++
		}

		return Pending()
	})
}

type closeRecorder struct {
	Computation
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}
