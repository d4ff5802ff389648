// internal/job/tickclock.go

package job

import (
	"sync"
	"sync/atomic"
	"time"
)

// Clock is the external time source tasks busy-wait on.
type Clock interface {
	// Count returns the number of ticks elapsed so far.
	Count() int64
}

// TickClock counts ticks of a real ticker atomically. Tasks busy-wait on it;
// the wheel itself never looks at time.
type TickClock struct {
	count atomic.Int64
	stop  chan struct{}
	once  sync.Once
}

// NewTickClock creates a clock that does not tick until Start.
func NewTickClock() *TickClock {
	return &TickClock{stop: make(chan struct{})}
}

// Start begins counting ticks at the given interval.
func (c *TickClock) Start(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.count.Add(1)
			case <-c.stop:
				return
			}
		}
	}()
}

// Stop signals the clock to stop counting. It is safe to call more than once.
func (c *TickClock) Stop() {
	c.once.Do(func() { close(c.stop) })
}

// Count returns the current tick count atomically.
func (c *TickClock) Count() int64 {
	return c.count.Load()
}

// ManualClock only advances when told to. Tests and simulations drive it from
// inside tasks.
type ManualClock struct {
	count atomic.Int64
}

// Advance moves the clock n ticks forward.
func (c *ManualClock) Advance(n int64) {
	c.count.Add(n)
}

// Count returns the current tick count.
func (c *ManualClock) Count() int64 {
	return c.count.Load()
}
