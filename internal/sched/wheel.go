// internal/sched/wheel.go

package sched

import (
	"runtime"
	"sync"
	"time"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ticksched/internal/errors"
	"ticksched/internal/logging"
)

// Wheel is a single-threaded round-robin scheduler for cooperative tasks.
//
// Each Poll runs one pass: it captures the ids of all Runnable tasks, in
// spawn order, and polls each of them once. Tasks spawned, woken or resumed
// during a pass are first polled on the next one. A Wheel is itself a
// Computation, so it can be driven by Run, by any other poll loop, or spawned
// as a task of another Wheel.
//
//	   Poll
//	    |
//	+---v---+     +-----+-----+-----+-----+
//	| 0x1   | <-- | 0x2 | 0x3 | 0x4 | 0x5 |  runnable snapshot
//	+-------+     +-----+-----+-----+-----+
//	    |
//	  ready? --yes--> removed, outcome kept
//	    | no
//	  woken during poll? --yes--> Runnable (next pass)
//	    | no
//	  Waiting until Handle.Wake
//
// Tasks are controlled through a Handle, which may be used from inside tasks
// and from other goroutines. A Wheel that becomes unreachable is closed by the
// garbage collector; handles alone do not keep it open.
type Wheel struct {
	core   *core
	handle Handle
}

// core is the state shared by a Wheel and all of its handles.
type core struct {
	mu sync.Mutex

	name     string
	cfg      Config
	reg      *registry
	outcomes *linkedhashmap.Map // TaskID -> Outcome, oldest first
	log      logrus.FieldLogger
	observer Observer

	current TaskID
	polling bool
	closed  bool

	// outer is the waker of whoever polls the wheel. It is fired when the wheel
	// went idle and a handle operation made progress possible again.
	outer     *Waker
	idle      bool
	fireOuter bool

	events []StatusEvent
	drops  []*task

	passes    uint64
	polls     uint64
	finished  uint64
	cancelled uint64
	faulted   uint64
	faults    *errors.MultiError
}

// Option configures a Wheel.
type Option func(c *core)

// WithLogger makes the wheel log through logger instead of a logger built from Config.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *core) {
		c.log = logger
	}
}

// WithObserver attaches an observer for status events.
func WithObserver(observer Observer) Option {
	return func(c *core) {
		c.observer = observer
	}
}

// New creates a new Wheel with the given configuration.
func New(cfg Config, opts ...Option) *Wheel {
	cfg = cfg.sanitized()

	name := cfg.Name
	if name == "" {
		name = uuid.NewString()[:8]
	}

	c := &core{
		name:     name,
		cfg:      cfg,
		reg:      newRegistry(cfg.IDLimit),
		outcomes: linkedhashmap.New(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.log == nil {
		c.log = logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	c.log = c.log.WithField("wheel", name)

	w := &Wheel{core: c, handle: Handle{c: c}}

	// A wheel dropped without Close still releases its tasks, including the
	// goroutines parked by coroutine tasks. Handles keep only the core alive.
	runtime.SetFinalizer(w, func(w *Wheel) {
		if err := w.core.close(); err != nil {
			w.core.log.WithError(err).Warn("closing unreachable wheel")
		}
	})

	return w
}

// NewWheel creates a Wheel with the default configuration.
func NewWheel() *Wheel {
	return New(DefaultConfig())
}

// Handle returns a handle to spawn and control tasks of w.
func (w *Wheel) Handle() Handle { return w.handle }

// Name returns the name used for w in logs.
func (w *Wheel) Name() string { return w.core.name }

// Poll runs one round-robin pass over the runnable tasks.
//
// It reports Ready once no task is left. Otherwise it reports Pending and
// either wakes outer straight away, when some task is still runnable, or
// keeps outer and wakes it as soon as a task becomes runnable again.
func (w *Wheel) Poll(outer *Waker) Result {
	c := w.core

	c.mu.Lock()

	if c.polling {
		c.unlock()
		return Fail(errors.WithStackTrace(ErrReentrantPoll))
	}

	c.outer = outer
	c.idle = false

	if c.reg.len() == 0 {
		c.unlock()
		return Ready(nil)
	}

	c.polling = true
	c.passes++

	c.reapCancelled()

	snapshot := c.reg.runnable()
	if len(snapshot) == 0 {
		c.emit(StatusIdle, nil, nil)
	}

	for _, id := range snapshot {
		if c.closed {
			break
		}

		t, ok := c.reg.get(id)
		if !ok {
			continue
		}

		switch t.state {
		case CancelRequested:
			c.finish(t, Cancelled, nil, nil)
			continue
		case Runnable:
		default:
			continue
		}

		t.wake = false
		t.polls++
		c.polls++
		c.current = id
		comp, waker := t.comp, &t.waker
		c.emit(StatusDispatch, t, nil)

		c.unlock()
		res, fault := pollTask(comp, waker)
		c.mu.Lock()

		c.current = 0
		c.settle(t, res, fault)
	}

	c.reapCancelled()
	c.polling = false

	if c.closed {
		// Closed during the pass: drop what is left now that nothing is being polled.
		c.drops = append(c.drops, c.dropAll()...)
	}

	if c.reg.len() == 0 {
		c.unlock()
		return Ready(nil)
	}

	if c.reg.count(Runnable) > 0 {
		c.fireOuter = true
	} else {
		c.idle = true
	}

	c.unlock()

	return Pending()
}

// pollTask polls comp once. A panic is recovered and returned as fault.
func pollTask(comp Computation, w *Waker) (res Result, fault error) {
	defer errors.Recover(func(cause error) {
		fault = cause
	})

	return comp.Poll(w), nil
}

// settle applies the outcome of polling t. Must be called with c.mu held.
func (c *core) settle(t *task, res Result, fault error) {
	switch {
	case fault != nil:
		c.finish(t, Faulted, nil, fault)
	case res.IsReady() && res.Err() != nil:
		t.comp = nil
		c.finish(t, Faulted, nil, res.Err())
	case res.IsReady():
		t.comp = nil
		c.finish(t, Finished, res.Value(), nil)
	case t.state == CancelRequested:
		c.finish(t, Cancelled, nil, nil)
	case t.state == Runnable && t.wake:
		// Woken while it was being polled, e.g. by Yield.
		c.emit(StatusYield, t, nil)
	case t.state == Runnable:
		t.state = Waiting
		c.emit(StatusWait, t, nil)
	}
}

// reapCancelled drops every task waiting for its cancellation to be applied.
func (c *core) reapCancelled() {
	for _, id := range c.reg.inState(CancelRequested) {
		if t, ok := c.reg.get(id); ok && id != c.current {
			c.finish(t, Cancelled, nil, nil)
		}
	}
}

// finish removes t from the registry and records its outcome. Computations of
// cancelled or panicked tasks are dropped once the lock is released.
func (c *core) finish(t *task, reason Reason, value any, err error) {
	c.reg.remove(t.id)
	t.state = Completed

	if t.comp != nil {
		c.drops = append(c.drops, t)
	}

	c.keep(t.outcome(reason, value, err))

	log := c.taskLog(t)

	switch reason {
	case Finished:
		c.finished++
		log.Debug("task finished")
		c.emit(StatusFinish, t, nil)
	case Cancelled:
		c.cancelled++
		log.Debug("task cancelled")
		c.emit(StatusCancel, t, nil)
	case Faulted:
		c.faulted++
		c.faults = c.faults.Append(errors.Errorf("task %s: %w", t.id, err))
		log.Warnf("task faulted: %s", errors.ErrorWithStackTrace(err))
		c.emit(StatusFault, t, err)
	}
}

// keep stores an outcome, evicting the oldest one above capacity.
func (c *core) keep(o Outcome) {
	c.outcomes.Put(o.ID, o)

	for c.outcomes.Size() > c.cfg.OutcomeCapacity {
		it := c.outcomes.Iterator()
		if !it.Next() {
			return
		}

		c.outcomes.Remove(it.Key())
	}
}

func (c *core) taskLog(t *task) logrus.FieldLogger {
	fields := logrus.Fields{"task": t.id.String(), "group": t.group}
	if t.name != "" {
		fields["name"] = t.name
	}

	return c.log.WithFields(fields)
}

func (c *core) emit(kind StatusKind, t *task, err error) {
	if c.observer == nil {
		return
	}

	ev := StatusEvent{
		Time: time.Now(),
		Kind: kind,
		Pass: c.passes,
		Err:  err,
	}

	if t != nil {
		ev.TaskID = t.id
		ev.Name = t.name
		ev.Group = t.group
		ev.Polls = t.polls
	}

	c.events = append(c.events, ev)
}

// kick notes that the wheel can make progress again. If it was idle, its
// outer waker is fired on unlock.
func (c *core) kick() {
	if c.idle && !c.polling {
		c.idle = false
		c.fireOuter = true
	}
}

// unlock releases c.mu and then runs everything that may call back into user
// code: dropping computations, delivering events and waking the outer driver.
func (c *core) unlock() {
	events, drops := c.events, c.drops
	c.events, c.drops = nil, nil

	var outer *Waker
	if c.fireOuter {
		outer = c.outer
		c.fireOuter = false
	}

	observer := c.observer

	c.mu.Unlock()

	for _, t := range drops {
		if err := t.drop(); err != nil {
			c.taskLog(t).WithError(err).Warnf("dropping task\n%s", errors.StackTrace(err))
		}
	}

	if observer != nil {
		for _, ev := range events {
			observer(ev)
		}
	}

	outer.Wake()
}
