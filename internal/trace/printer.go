package trace

import (
	"fmt"
	"io"
	"strings"

	"ticksched/internal/sched"
)

// Clock is the tick source shown next to every printed event.
type Clock interface {
	Count() int64
}

// Printer writes a human readable line per status event. Idle events are
// skipped to keep the output short.
type Printer struct {
	out   io.Writer
	clock Clock
}

// NewPrinter prints to out. clock may be nil.
func NewPrinter(out io.Writer, clock Clock) *Printer {
	return &Printer{out: out, clock: clock}
}

// Observe prints ev.
func (p *Printer) Observe(ev sched.StatusEvent) {
	if ev.Kind == sched.StatusIdle {
		return
	}

	var tick int64
	if p.clock != nil {
		tick = p.clock.Count()
	}

	line := fmt.Sprintf("%s = Tick: %07d Pass: %05d [%s] => Task: %-6s %-10s polls=%d",
		ev.Time.Format("Jan 02 15:04:05.000"),
		tick,
		ev.Pass,
		center(ev.Kind.String(), 10),
		ev.TaskID,
		ev.Name,
		ev.Polls,
	)

	if ev.Err != nil {
		line += " err=" + ev.Err.Error()
	}

	fmt.Fprintln(p.out, line)
}

func center(str string, width int) string {
	if len(str) >= width {
		return str
	}

	spaces := (width - len(str)) / 2

	return strings.Repeat(" ", spaces) + str + strings.Repeat(" ", width-spaces-len(str))
}

// Tee fans one event out to several observers, in order. Nil observers are skipped.
func Tee(observers ...sched.Observer) sched.Observer {
	return func(ev sched.StatusEvent) {
		for _, o := range observers {
			if o != nil {
				o(ev)
			}
		}
	}
}
