package sched

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticksched/internal/errors"
)

func TestRunCompletes(t *testing.T) {
	t.Parallel()

	w := newTestWheel(t, DefaultConfig())

	for i := range 5 {
		_, err := w.Handle().SpawnDefault(yielder(i, i, nil))
		require.NoError(t, err)
	}

	require.NoError(t, w.Run(context.Background()))
	assert.Equal(t, uint64(5), w.Handle().Stats().Finished)
}

func TestRunWokenFromAnotherGoroutine(t *testing.T) {
	t.Parallel()

	w := newTestWheel(t, DefaultConfig())
	h := w.Handle()

	polls := 0
	id, err := h.SpawnDefault(ComputationFunc(func(*Waker) Result {
		polls++
		if polls == 1 {
			return Pending()
		}

		return Ready(nil)
	}))
	require.NoError(t, err)

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = h.Wake(id)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, w.Run(ctx))
	assert.Equal(t, 2, polls)
}

func TestRunStopsWhenAllSuspended(t *testing.T) {
	t.Parallel()

	w := newTestWheel(t, DefaultConfig())

	_, err := w.Handle().Spawn(SpawnParams{Suspended: true}, parked(nil))
	require.NoError(t, err)

	err = w.Run(context.Background())
	require.ErrorIs(t, err, ErrAllSuspended)
}

func TestRunHonoursContext(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.StopWhenSuspended = false

	w := newTestWheel(t, cfg)

	_, err := w.Handle().Spawn(SpawnParams{Suspended: true}, parked(nil))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = w.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunAggregatesFaults(t *testing.T) {
	t.Parallel()

	w := newTestWheel(t, DefaultConfig())
	h := w.Handle()

	first := errors.Sentinel("first")

	_, err := h.SpawnDefault(ComputationFunc(func(*Waker) Result { return Fail(first) }))
	require.NoError(t, err)
	_, err = h.SpawnDefault(ComputationFunc(func(*Waker) Result { panic("second") }))
	require.NoError(t, err)
	_, err = h.SpawnDefault(yielder(2, nil, nil))
	require.NoError(t, err)

	err = w.Run(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, first)

	var panicErr errors.PanicError
	require.ErrorAs(t, err, &panicErr)

	var multi *errors.MultiError
	require.ErrorAs(t, err, &multi)
	assert.Equal(t, 2, multi.Len())
}

func TestCloseDropsTasks(t *testing.T) {
	t.Parallel()

	w := newTestWheel(t, DefaultConfig())
	h := w.Handle()

	cleaned := false

	id, err := h.SpawnDefault(Go(func(co *Co) (any, error) {
		defer func() { cleaned = true }()

		for {
			co.YieldOnce()
		}
	}))
	require.NoError(t, err)

	recorder := &closeRecorder{Computation: parked(nil)}
	_, err = h.Spawn(SpawnParams{Suspended: true}, recorder)
	require.NoError(t, err)

	assert.False(t, w.Poll(nil).IsReady())

	require.NoError(t, w.Close())
	assert.True(t, cleaned)
	assert.True(t, recorder.closed)

	out, err := h.Outcome(id)
	require.NoError(t, err)
	assert.Equal(t, Cancelled, out.Reason)

	assert.False(t, h.Valid())
	_, err = h.SpawnDefault(ready(nil))
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, h.Cancel(id), ErrClosed)

	require.NoError(t, w.Close())
	assert.True(t, w.Poll(nil).IsReady())
}

type failingCloser struct {
	Computation
}

func (failingCloser) Close() error {
	panic("close exploded")
}

func TestCloseReportsCloseFailures(t *testing.T) {
	t.Parallel()

	w := newTestWheel(t, DefaultConfig())

	_, err := w.Handle().SpawnDefault(failingCloser{Computation: parked(nil)})
	require.NoError(t, err)

	err = w.Close()

	var panicErr errors.PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "close exploded", panicErr.Value)
}

func TestCloseFromTaskDropsAfterPass(t *testing.T) {
	t.Parallel()

	w := newTestWheel(t, DefaultConfig())
	h := w.Handle()

	var closeErr error

	closer, err := h.SpawnDefault(ComputationFunc(func(*Waker) Result {
		closeErr = w.Close()
		return Ready("closed")
	}))
	require.NoError(t, err)

	laterPolls := 0
	later, err := h.SpawnDefault(yielder(3, nil, &laterPolls))
	require.NoError(t, err)

	assert.True(t, w.Poll(nil).IsReady())
	require.NoError(t, closeErr)
	assert.False(t, h.Valid())
	assert.Equal(t, 0, laterPolls)

	out, err := h.Outcome(closer)
	require.NoError(t, err)
	assert.Equal(t, Finished, out.Reason)

	out, err = h.Outcome(later)
	require.NoError(t, err)
	assert.Equal(t, Cancelled, out.Reason)
}

func TestCloseFromAnotherGoroutineDuringPass(t *testing.T) {
	t.Parallel()

	w := newTestWheel(t, DefaultConfig())
	h := w.Handle()

	entered := make(chan struct{})
	closed := make(chan error, 1)

	_, err := h.Spawn(Named("busy"), ComputationFunc(func(*Waker) Result {
		close(entered)

		if err := <-closed; err != nil {
			return Fail(err)
		}

		return Pending()
	}))
	require.NoError(t, err)

	recorder := &closeRecorder{Computation: parked(nil)}
	victim, err := h.SpawnDefault(recorder)
	require.NoError(t, err)

	go func() {
		<-entered
		closed <- w.Close()
	}()

	assert.True(t, w.Poll(nil).IsReady())
	assert.True(t, recorder.closed)
	assert.False(t, h.Valid())

	out, err := h.Outcome(victim)
	require.NoError(t, err)
	assert.Equal(t, Cancelled, out.Reason)
	assert.Equal(t, uint64(0), out.Polls)

	stats := h.Stats()
	assert.Equal(t, 0, stats.Registered)
	assert.Equal(t, uint64(2), stats.Cancelled)
}

func TestCloseRecordsRunTime(t *testing.T) {
	t.Parallel()

	w := newTestWheel(t, DefaultConfig())

	id, err := w.Handle().SpawnDefault(parked(nil))
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	require.NoError(t, w.Close())

	out, err := w.Handle().Outcome(id)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, out.Ran, time.Millisecond)
}
