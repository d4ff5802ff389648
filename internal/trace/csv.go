// Package trace records wheel status events as CSV or prints them to a console.
package trace

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"ticksched/internal/errors"
	"ticksched/internal/sched"
)

var header = []string{"timestamp", "pass", "event", "task_id", "name", "group", "polls", "error"}

// Recorder writes one CSV row per status event.
type Recorder struct {
	mu     sync.Mutex
	w      *csv.Writer
	closer io.Closer
	err    error
}

// NewCSV writes the header to w and returns a Recorder appending to it.
func NewCSV(w io.Writer) (*Recorder, error) {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return nil, errors.WithStackTrace(err)
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return nil, errors.WithStackTrace(err)
	}

	return &Recorder{w: cw}, nil
}

// CreateCSV creates (or truncates) the file at path and records into it.
// Close the Recorder to close the file.
func CreateCSV(path string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}

	r, err := NewCSV(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	r.closer = f

	return r, nil
}

// Observe records ev. It can be passed to sched.WithObserver. The first write
// error is kept and returned by Close; later events are dropped.
func (r *Recorder) Observe(ev sched.StatusEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return
	}

	var msg string
	if ev.Err != nil {
		msg = ev.Err.Error()
	}

	rec := []string{
		ev.Time.Format(time.RFC3339Nano),
		strconv.FormatUint(ev.Pass, 10),
		ev.Kind.String(),
		idString(ev.TaskID),
		ev.Name,
		ev.Group,
		strconv.FormatUint(ev.Polls, 10),
		msg,
	}

	if err := r.w.Write(rec); err != nil {
		r.err = errors.WithStackTrace(err)
		return
	}

	r.w.Flush()
	r.err = errors.WithStackTrace(r.w.Error())
}

// Close flushes pending rows and closes the underlying file, if any.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.w.Flush()

	var errs *errors.MultiError

	if r.err != nil {
		errs = errs.Append(r.err)
	}

	if err := r.w.Error(); err != nil && r.err == nil {
		errs = errs.Append(errors.WithStackTrace(err))
	}

	if r.closer != nil {
		if err := r.closer.Close(); err != nil {
			errs = errs.Append(errors.WithStackTrace(err))
		}

		r.closer = nil
	}

	return errs.ErrorOrNil()
}

func idString(id sched.TaskID) string {
	if id == 0 {
		return ""
	}

	return id.String()
}
