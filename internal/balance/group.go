package balance

import (
	"io"
	"sync"
	"time"

	"ticksched/internal/sched"
)

// Group wraps computations so that, run on the same wheel, they share time in
// proportion to their slots. A member that is ahead of the others skips its
// turn by yielding without polling the computation it wraps.
type Group struct {
	mu     sync.Mutex
	timing *TimingGroup
	clock  Clock
}

// NewGroup creates a group measuring time with clock.
func NewGroup(clock Clock) *Group {
	if clock == nil {
		clock = SystemClock{}
	}

	return &Group{timing: NewTimingGroup(), clock: clock}
}

// Wrap adds comp to the group with the given number of slots.
func (g *Group) Wrap(slots uint16, comp sched.Computation) (sched.Computation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	key, err := g.timing.Add(slots)
	if err != nil {
		return nil, err
	}

	return &member{group: g, key: key, comp: comp}, nil
}

// Len returns the number of members still in the group.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.timing.Len()
}

func (g *Group) canExecute(key int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.timing.CanExecute(key)
}

func (g *Group) update(key int, start time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.timing.Update(key, g.clock.Now()-start)
}

func (g *Group) remove(key int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.timing.Remove(key)
}

type member struct {
	group *Group
	key   int
	comp  sched.Computation
	left  bool
}

func (m *member) Poll(w *sched.Waker) sched.Result {
	if !m.group.canExecute(m.key) {
		w.Wake()
		return sched.Pending()
	}

	start := m.group.clock.Now()
	res := m.comp.Poll(w)
	m.group.update(m.key, start)

	if res.IsReady() {
		m.leave()
	}

	return res
}

func (m *member) leave() {
	if !m.left {
		m.left = true
		m.group.remove(m.key)
	}
}

// Close leaves the group and closes the wrapped computation if it can be closed.
func (m *member) Close() error {
	m.leave()

	if c, ok := m.comp.(io.Closer); ok {
		return c.Close()
	}

	return nil
}
