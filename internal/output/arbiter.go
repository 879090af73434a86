// Package output serializes every write to the terminal.
//
// Log lines and prompt redraws race from multiple goroutines: the console
// loop, synchronous handlers, and async command completions. The Arbiter is
// the sole writer; all output funnels through a single channel into one
// goroutine, and each request is emitted with a single Write call so no two
// writers can interleave bytes.
package output

import (
	"io"
	"strings"
	"sync"
	"sync/atomic"
)

// requestKind selects what a queued request emits.
type requestKind int

const (
	kindLog requestKind = iota
	kindRedraw
	kindSync
)

// request is one unit of terminal output.
type request struct {
	kind requestKind
	text string
	ack  chan struct{}
}

// Arbiter owns the terminal output stream.
type Arbiter struct {
	w      io.Writer
	redraw func() string

	reqs chan request
	quit chan struct{}
	wg   sync.WaitGroup

	closed    atomic.Bool
	closeOnce sync.Once

	dropped   atomic.Uint64
	writeErrs atomic.Uint64
}

// NewArbiter creates an arbiter writing to w. The redraw provider returns
// the rendered prompt line to restore after each log write; it must be safe
// to call from the arbiter goroutine.
func NewArbiter(w io.Writer, redraw func() string) *Arbiter {
	a := &Arbiter{
		w:      w,
		redraw: redraw,
		reqs:   make(chan request, 256),
		quit:   make(chan struct{}),
	}
	a.wg.Add(1)
	go a.run()
	return a
}

// Log queues a rendered log line. The line is written atomically together
// with a clear of the in-progress input line before it and a prompt redraw
// after it. Late writes after Close are dropped, never a panic.
func (a *Arbiter) Log(rendered string) {
	a.enqueue(request{kind: kindLog, text: rendered})
}

// Redraw queues a repaint of the prompt line.
func (a *Arbiter) Redraw() {
	a.enqueue(request{kind: kindRedraw})
}

// Sync blocks until every previously queued request has been written.
// Returns immediately once the arbiter is closed, even when a racing
// Close stopped the goroutine between the enqueue and the ack.
func (a *Arbiter) Sync() {
	if a.closed.Load() {
		return
	}
	ack := make(chan struct{})
	a.enqueue(request{kind: kindSync, ack: ack})
	select {
	case <-ack:
	case <-a.quit:
	}
}

// Close stops the writer goroutine after draining queued requests. Safe to
// call more than once.
func (a *Arbiter) Close() {
	a.closeOnce.Do(func() {
		a.closed.Store(true)
		close(a.quit)
		a.wg.Wait()
	})
}

// Dropped reports how many requests were discarded (queue full or closed).
func (a *Arbiter) Dropped() uint64 {
	return a.dropped.Load()
}

// WriteErrors reports how many terminal writes failed. Failures are
// best-effort: counted and dropped, never surfaced into the console loop.
func (a *Arbiter) WriteErrors() uint64 {
	return a.writeErrs.Load()
}

func (a *Arbiter) enqueue(r request) {
	if a.closed.Load() {
		a.dropped.Add(1)
		if r.ack != nil {
			close(r.ack)
		}
		return
	}
	select {
	case a.reqs <- r:
	default:
		a.dropped.Add(1)
		if r.ack != nil {
			close(r.ack)
		}
	}
}

// run consumes requests until Close, then drains whatever is queued.
func (a *Arbiter) run() {
	defer a.wg.Done()
	for {
		select {
		case r := <-a.reqs:
			a.emit(r)
		case <-a.quit:
			for {
				select {
				case r := <-a.reqs:
					a.emit(r)
				default:
					return
				}
			}
		}
	}
}

// emit writes one request. The whole payload goes out in a single Write so
// a concurrent producer can never split it.
func (a *Arbiter) emit(r request) {
	switch r.kind {
	case kindSync:
		close(r.ack)
		return
	case kindRedraw:
		a.write(a.redraw())
	case kindLog:
		var b strings.Builder
		b.WriteString("\r\x1b[2K")
		b.WriteString(normalize(r.text))
		b.WriteString("\r\n")
		b.WriteString(a.redraw())
		a.write(b.String())
	}
}

func (a *Arbiter) write(s string) {
	if s == "" {
		return
	}
	if _, err := io.WriteString(a.w, s); err != nil {
		a.writeErrs.Add(1)
	}
}

// normalize rewrites bare LFs as CRLF; in raw mode a lone LF does not return
// the carriage.
func normalize(s string) string {
	if !strings.Contains(s, "\n") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}
