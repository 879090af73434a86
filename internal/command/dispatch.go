package command

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dshills/dcon/logging"
)

// Sink receives dispatch output. The console routes it through the output
// arbiter so handler output never corrupts the prompt line.
type Sink interface {
	Log(level logging.Level, msg string)
}

// Result is the completion of an asynchronous command.
type Result struct {
	JobID   string
	Command string
	Output  string
	Err     error
}

// Dispatcher resolves submitted lines against a Registry and invokes the
// matched handler. Synchronous handlers run inline under panic recovery;
// asynchronous handlers are spawned and report through Results.
type Dispatcher struct {
	reg  *Registry
	sink Sink

	results chan Result
	done    chan struct{}

	jobs      atomic.Int64
	closeOnce sync.Once
}

// NewDispatcher creates a dispatcher reporting through sink.
func NewDispatcher(reg *Registry, sink Sink) *Dispatcher {
	return &Dispatcher{
		reg:     reg,
		sink:    sink,
		results: make(chan Result, 64),
		done:    make(chan struct{}),
	}
}

// Results delivers async command completions to the console loop.
func (d *Dispatcher) Results() <-chan Result {
	return d.results
}

// Jobs reports the number of in-flight asynchronous commands.
func (d *Dispatcher) Jobs() int {
	return int(d.jobs.Load())
}

// Close detaches outstanding async commands: they keep running, but their
// completions are discarded instead of blocking on a loop that no longer
// reads them.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() { close(d.done) })
}

// Dispatch splits line into whitespace-delimited tokens (no quoting) and
// routes the first token to its handler. A handler failure or panic is
// reported as an error-severity log line and never escapes to the loop.
func (d *Dispatcher) Dispatch(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	name, args := fields[0], fields[1:]

	e, ok := d.reg.lookup(name)
	if !ok {
		d.dispatchUnknown(name, line)
		return
	}

	switch e.kind {
	case kindSync:
		d.runSync(name, e.sync, args)
	case kindAsync:
		d.spawnAsync(name, e.async, args)
	}
}

// dispatchUnknown invokes the fallback for an unrecognized command.
func (d *Dispatcher) dispatchUnknown(name, line string) {
	syncFn, asyncFn := d.reg.unknownHandlers()
	switch {
	case asyncFn != nil:
		d.spawnUnknown(name, asyncFn, line)
	case syncFn != nil:
		if out := syncFn(line); out != "" {
			d.sink.Log(logging.LevelInfo, out)
		}
	default:
		d.sink.Log(logging.LevelError, fmt.Sprintf("unknown command: %q", name))
	}
}

// spawnUnknown runs the async fallback on its own goroutine, delivering
// its outcome through the same results channel as named async commands.
func (d *Dispatcher) spawnUnknown(name string, h AsyncUnknownHandler, line string) {
	id := uuid.NewString()[:8]

	d.jobs.Add(1)
	go func() {
		defer d.jobs.Add(-1)
		out, err := protect(name, func() (string, error) {
			return h(context.Background(), line)
		})

		select {
		case d.results <- Result{JobID: id, Command: name, Output: out, Err: err}:
		case <-d.done:
		}
	}()
}

// runSync invokes a synchronous handler inline.
func (d *Dispatcher) runSync(name string, h SyncHandler, args []string) {
	out, err := protect(name, func() (string, error) { return h(args) })
	if err != nil {
		d.sink.Log(logging.LevelError, fmt.Sprintf("command %q: %v", name, err))
		return
	}
	if out != "" {
		d.sink.Log(logging.LevelInfo, out)
	}
}

// spawnAsync starts an asynchronous handler on its own goroutine, tagged
// with a short job id so its eventual output can be tied back to the
// invocation.
func (d *Dispatcher) spawnAsync(name string, h AsyncHandler, args []string) {
	id := uuid.NewString()[:8]
	d.sink.Log(logging.LevelInfo, fmt.Sprintf("command %q started in the background (job %s)", name, id))

	d.jobs.Add(1)
	go func() {
		defer d.jobs.Add(-1)
		out, err := protect(name, func() (string, error) {
			return h(context.Background(), args)
		})

		select {
		case d.results <- Result{JobID: id, Command: name, Output: out, Err: err}:
		case <-d.done:
			// Console is gone; detach and discard.
		}
	}()
}

// protect runs fn, converting a panic into an error at the dispatch
// boundary so a bad handler cannot take the console down.
func protect(name string, fn func() (string, error)) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("command %q panicked: %v", name, r)
		}
	}()
	return fn()
}
