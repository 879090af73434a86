package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/dshills/dcon/internal/command"
	"github.com/dshills/dcon/internal/key"
	"github.com/dshills/dcon/internal/line"
	"github.com/dshills/dcon/internal/output"
	"github.com/dshills/dcon/logging"
)

// flushInterval bounds how long an incomplete escape sequence can sit
// in the decoder before it is resolved as a literal key.
const flushInterval = 50 * time.Millisecond

// Run takes over the terminal and processes input until the user exits
// with Ctrl+D, a confirmed Ctrl+C, or end of input. It returns an error
// only when raw mode cannot be entered; everything after that point is
// handled inside the loop. The terminal is restored on every exit path.
func (c *Console) Run(welcome, farewell string) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer c.running.Store(false)

	if c.tc != nil {
		if err := c.tc.Enter(); err != nil {
			return fmt.Errorf("entering raw mode: %w", err)
		}
	}

	arb := output.NewArbiter(c.out, c.renderLine)
	c.mu.Lock()
	c.arb = arb
	c.mu.Unlock()

	defer func() {
		if n := c.disp.Jobs(); n > 0 {
			c.Warnf("%d background command(s) still running, detaching", n)
		}
		c.mu.Lock()
		c.arb = nil
		c.mu.Unlock()
		c.disp.Close()
		arb.Close()
		if c.tc != nil {
			c.tc.Restore()
		}
		if farewell != "" {
			fmt.Fprintln(c.out, farewell)
		}
	}()

	if welcome != "" {
		c.emit(logging.LevelInfo, welcome)
	}
	arb.Redraw()

	chunks := make(chan []byte, 8)
	readerDone := make(chan struct{})
	defer close(readerDone)
	go c.readInput(chunks, readerDone)

	dec := key.NewDecoder()
	flush := time.NewTicker(flushInterval)
	defer flush.Stop()

	// armedUntil is non-zero while a Ctrl+C exit confirmation is live.
	var armedUntil time.Time

	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				// Stream end: resolve any half-received escape
				// sequence before leaving.
				for _, ev := range dec.Flush() {
					if c.handleEvent(ev, &armedUntil) {
						return nil
					}
				}
				return nil
			}
			for _, ev := range dec.Feed(chunk) {
				if c.handleEvent(ev, &armedUntil) {
					return nil
				}
			}

		case <-flush.C:
			if dec.Pending() == 0 {
				continue
			}
			for _, ev := range dec.Flush() {
				if c.handleEvent(ev, &armedUntil) {
					return nil
				}
			}

		case res := <-c.disp.Results():
			c.logResult(res)
		}
	}
}

// readInput pumps raw bytes from the input stream into the event loop.
// The channel closes at end of input. When the loop exits first, done
// unblocks the pending send so the goroutine does not outlive Run with
// a claim on the input stream.
func (c *Console) readInput(chunks chan<- []byte, done <-chan struct{}) {
	buf := make([]byte, 256)
	for {
		n, err := c.in.Read(buf)
		if n > 0 {
			select {
			case <-done:
				return
			default:
			}
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case chunks <- chunk:
			case <-done:
				return
			}
		}
		if err != nil {
			close(chunks)
			return
		}
	}
}

// handleEvent applies one decoded key event. It returns true when the
// loop should terminate.
func (c *Console) handleEvent(ev key.Event, armedUntil *time.Time) bool {
	isCtrlC := ev.IsCtrl('c')
	if !isCtrlC {
		// Any other key withdraws a pending exit confirmation.
		*armedUntil = time.Time{}
	}

	switch {
	case isCtrlC:
		if !armedUntil.IsZero() && time.Now().Before(*armedUntil) {
			return true
		}
		c.lineMu.Lock()
		c.editor.Clear()
		c.hist.Reset()
		c.lineMu.Unlock()
		c.emit(logging.LevelWarn, fmt.Sprintf("Press Ctrl+C again within %s to exit", c.window))
		*armedUntil = time.Now().Add(c.window)
		return false

	case ev.IsCtrl('d'):
		return true
	}

	switch ev.Key {
	case key.KeyEnter:
		c.submitLine()
		return false

	case key.KeyBackspace:
		c.editLine(func(e *line.Editor) { e.Backspace() })
	case key.KeyDelete:
		c.editLine(func(e *line.Editor) { e.DeleteForward() })
	case key.KeyLeft:
		c.editLine(func(e *line.Editor) { e.MoveLeft() })
	case key.KeyRight:
		c.editLine(func(e *line.Editor) { e.MoveRight() })
	case key.KeyHome:
		c.editLine(func(e *line.Editor) { e.MoveHome() })
	case key.KeyEnd:
		c.editLine(func(e *line.Editor) { e.MoveEnd() })

	case key.KeyUp:
		c.lineMu.Lock()
		if text, ok := c.hist.Up(c.editor.Snapshot()); ok {
			c.editor.Set(text)
		}
		c.lineMu.Unlock()
		c.redraw()

	case key.KeyDown:
		c.lineMu.Lock()
		if res, ok := c.hist.Down(); ok {
			c.editor.Restore(line.Snapshot{Text: res.Text, Cursor: res.Cursor})
		}
		c.lineMu.Unlock()
		c.redraw()

	case key.KeyRune:
		if ev.IsChar() {
			c.editLine(func(e *line.Editor) { e.Insert(ev.Rune) })
		}
	}
	return false
}

// editLine mutates the line editor under lock and repaints.
func (c *Console) editLine(fn func(*line.Editor)) {
	c.lineMu.Lock()
	fn(c.editor)
	c.lineMu.Unlock()
	c.redraw()
}

// submitLine takes the current buffer, echoes it, appends it to
// history, and dispatches it. Blank lines just repaint the prompt.
func (c *Console) submitLine() {
	c.lineMu.Lock()
	text := c.editor.Text()
	c.editor.Clear()
	c.lineMu.Unlock()

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		c.redraw()
		return
	}

	c.lineMu.Lock()
	c.hist.Append(trimmed)
	c.lineMu.Unlock()

	if arb := c.arbiter(); arb != nil {
		arb.Log(c.promptValue() + trimmed)
	}
	c.disp.Dispatch(trimmed)
}

// logResult reports an async command completion.
func (c *Console) logResult(res command.Result) {
	switch {
	case res.Err != nil:
		c.Error(fmt.Sprintf("command %q failed (job %s): %v", res.Command, res.JobID, res.Err))
	case res.Output != "":
		c.Info(fmt.Sprintf("[job %s] %s", res.JobID, res.Output))
	default:
		c.Info(fmt.Sprintf("command %q finished (job %s)", res.Command, res.JobID))
	}
}
