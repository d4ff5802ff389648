// Package balance shares run time between a group of tasks in proportion to
// the time slots assigned to each of them.
package balance

import (
	"time"

	"ticksched/internal/errors"
)

// ErrZeroSlots is returned when a member is added with no time slots.
var ErrZeroSlots = errors.Sentinel("time slot count is zero")

// Clock returns a monotonic reading. Only differences between two readings
// are used.
type Clock interface {
	Now() time.Duration
}

var epoch = time.Now()

// SystemClock reads the monotonic wall clock.
type SystemClock struct{}

// Now returns the time elapsed since the package was loaded.
func (SystemClock) Now() time.Duration { return time.Since(epoch) }

type entry struct {
	sum   time.Duration
	slots uint16
}

func (e entry) proportional() time.Duration {
	return e.sum / time.Duration(e.slots)
}

// TimingGroup tracks how much run time each member used relative to its slots.
type TimingGroup struct {
	entries map[int]*entry
	nextKey int
	max     time.Duration
}

// NewTimingGroup creates an empty group.
func NewTimingGroup() *TimingGroup {
	return &TimingGroup{entries: make(map[int]*entry)}
}

// Add registers a member with the given number of slots and returns its key.
func (g *TimingGroup) Add(slots uint16) (int, error) {
	if slots == 0 {
		return 0, errors.WithStackTrace(ErrZeroSlots)
	}

	key := g.nextKey
	g.nextKey++
	g.entries[key] = &entry{slots: slots}

	return key, nil
}

// Remove forgets a member. Unknown keys are ignored.
func (g *TimingGroup) Remove(key int) {
	delete(g.entries, key)

	if len(g.entries) == 0 {
		g.max = 0
	}
}

// Slots returns the slot count of a member.
func (g *TimingGroup) Slots(key int) (uint16, bool) {
	e, ok := g.entries[key]
	if !ok {
		return 0, false
	}

	return e.slots, true
}

// Len returns the number of members.
func (g *TimingGroup) Len() int { return len(g.entries) }

// CanExecute reports whether the member may run now. The member that used the
// most time per slot waits while anyone is behind it, and once some member
// has fallen below 90% of the maximum only members under that bound run.
func (g *TimingGroup) CanExecute(key int) bool {
	this, ok := g.entries[key]
	if !ok {
		return true
	}

	thisDur := this.proportional()

	if thisDur == g.max {
		for k, e := range g.entries {
			if k != key && e.proportional() != thisDur {
				return false
			}
		}
	}

	minBound := g.max * 9 / 10

	if g.minimum() <= minBound {
		return thisDur <= minBound
	}

	return true
}

// Update adds dur to the run time of a member.
func (g *TimingGroup) Update(key int, dur time.Duration) {
	e, ok := g.entries[key]
	if !ok {
		return
	}

	e.sum += dur
	g.max = max(g.max, e.proportional())
}

func (g *TimingGroup) minimum() time.Duration {
	first := true

	var least time.Duration

	for _, e := range g.entries {
		if p := e.proportional(); first || p < least {
			least = p
			first = false
		}
	}

	return least
}
