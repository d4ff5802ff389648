package sched

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleTransitions(t *testing.T) {
	t.Parallel()

	w := newTestWheel(t, DefaultConfig())
	h := w.Handle()

	id, err := h.SpawnDefault(parked(nil))
	require.NoError(t, err)

	require.ErrorIs(t, h.Resume(id), ErrInvalidTransition)

	require.NoError(t, h.Suspend(id))
	require.ErrorIs(t, h.Suspend(id), ErrInvalidTransition)

	require.NoError(t, h.Resume(id))

	require.NoError(t, h.Cancel(id))
	require.NoError(t, h.Cancel(id))
	require.ErrorIs(t, h.Suspend(id), ErrInvalidTransition)
	require.ErrorIs(t, h.Resume(id), ErrInvalidTransition)

	state, err := h.State(id)
	require.NoError(t, err)
	assert.Equal(t, CancelRequested, state)

	assert.True(t, w.Poll(nil).IsReady())

	require.ErrorIs(t, h.Cancel(id), ErrNotFound)
	require.ErrorIs(t, h.Wake(id), ErrNotFound)
}

func TestHandleUnknownID(t *testing.T) {
	t.Parallel()

	h := newTestWheel(t, DefaultConfig()).Handle()

	testCases := []struct {
		name string
		op   func(TaskID) error
	}{
		{"cancel", h.Cancel},
		{"suspend", h.Suspend},
		{"resume", h.Resume},
		{"wake", h.Wake},
		{"state", func(id TaskID) error { _, err := h.State(id); return err }},
		{"name", func(id TaskID) error { _, err := h.Name(id); return err }},
		{"outcome", func(id TaskID) error { _, err := h.Outcome(id); return err }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.ErrorIs(t, tc.op(TaskID(99)), ErrNotFound)
		})
	}
}

func TestHandleSuspendWaitingTask(t *testing.T) {
	t.Parallel()

	w := newTestWheel(t, DefaultConfig())
	h := w.Handle()

	polls := 0
	id, err := h.SpawnDefault(parked(&polls))
	require.NoError(t, err)

	assert.False(t, w.Poll(nil).IsReady())

	require.NoError(t, h.Suspend(id))

	// A wake does not bring a suspended task back.
	require.NoError(t, h.Wake(id))

	state, err := h.State(id)
	require.NoError(t, err)
	assert.Equal(t, Suspended, state)

	assert.False(t, w.Poll(nil).IsReady())
	assert.Equal(t, 1, polls)

	require.NoError(t, h.Resume(id))
	assert.False(t, w.Poll(nil).IsReady())
	assert.Equal(t, 2, polls)
}

func TestHandleSuspendSelf(t *testing.T) {
	t.Parallel()

	w := newTestWheel(t, DefaultConfig())
	h := w.Handle()

	polls := 0
	id, err := h.SpawnDefault(ComputationFunc(func(wk *Waker) Result {
		polls++
		if polls > 1 {
			return Ready(nil)
		}

		wk.Wake()

		if err := wk.Handle().Suspend(wk.ID()); err != nil {
			return Fail(err)
		}

		return Pending()
	}))
	require.NoError(t, err)

	assert.False(t, w.Poll(nil).IsReady())

	state, err := h.State(id)
	require.NoError(t, err)
	assert.Equal(t, Suspended, state)

	require.NoError(t, h.Resume(id))
	assert.True(t, w.Poll(nil).IsReady())
}

func TestHandleNamesAndLookup(t *testing.T) {
	t.Parallel()

	h := newTestWheel(t, DefaultConfig()).Handle()

	first, err := h.Spawn(Named("sensor"), parked(nil))
	require.NoError(t, err)
	_, err = h.Spawn(Named("sensor"), parked(nil))
	require.NoError(t, err)
	anon, err := h.SpawnDefault(parked(nil))
	require.NoError(t, err)

	found, ok := h.Lookup("sensor")
	require.True(t, ok)
	assert.Equal(t, first, found)

	_, ok = h.Lookup("missing")
	assert.False(t, ok)

	name, err := h.Name(anon)
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestHandleGroups(t *testing.T) {
	t.Parallel()

	w := newTestWheel(t, DefaultConfig())
	h := w.Handle()

	for range 3 {
		_, err := h.Spawn(InGroup("io"), parked(nil))
		require.NoError(t, err)
	}

	lone, err := h.SpawnDefault(yielder(0, nil, nil))
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"io": 3, DefaultGroup: 1}, h.Stats().Groups)

	n, err := h.SuspendGroup("io")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, h.Stats().Suspended)

	n, err = h.SuspendGroup("io")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = h.ResumeGroup("io")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = h.CancelGroup("io")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, h.Stats().Cancelling)

	assert.True(t, w.Poll(nil).IsReady())

	out, err := h.Outcome(lone)
	require.NoError(t, err)
	assert.Equal(t, DefaultGroup, out.Group)
	assert.Equal(t, uint64(3), h.Stats().Cancelled)
}

func TestHandleSpawnNil(t *testing.T) {
	t.Parallel()

	h := newTestWheel(t, DefaultConfig()).Handle()

	_, err := h.SpawnDefault(nil)
	require.Error(t, err)
}

func TestHandleCloneAndSame(t *testing.T) {
	t.Parallel()

	a := newTestWheel(t, DefaultConfig())
	b := newTestWheel(t, DefaultConfig())

	h := a.Handle()

	assert.True(t, h.Same(h.Clone()))
	assert.False(t, h.Same(b.Handle()))
	assert.False(t, Handle{}.Valid())
	assert.True(t, h.Valid())
}

func TestHandleConcurrentSpawn(t *testing.T) {
	t.Parallel()

	w := newTestWheel(t, DefaultConfig())
	h := w.Handle()

	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 10 {
				_, err := h.SpawnDefault(yielder(1, nil, nil))
				assert.NoError(t, err)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, 80, h.Stats().Registered)

	drive(t, w, 3)
	assert.Equal(t, uint64(80), h.Stats().Finished)
}
