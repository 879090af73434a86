// Package term controls the terminal mode for the console.
package term

import (
	"errors"
	"fmt"
	"sync"

	xterm "golang.org/x/term"
)

// ErrNotTerminal indicates the input descriptor is not attached to a tty.
var ErrNotTerminal = errors.New("not a terminal")

// Controller switches a terminal into raw mode and guarantees the original
// mode is restored exactly once, whichever exit path runs first.
type Controller struct {
	fd    int
	state *xterm.State

	restoreOnce sync.Once
	restoreErr  error

	// Indirection for tests; defaults target golang.org/x/term.
	isTerminal func(fd int) bool
	makeRaw    func(fd int) (*xterm.State, error)
	restore    func(fd int, st *xterm.State) error
	size       func(fd int) (int, int, error)
}

// NewController creates a controller for the given file descriptor.
func NewController(fd int) *Controller {
	return &Controller{
		fd:         fd,
		isTerminal: xterm.IsTerminal,
		makeRaw:    xterm.MakeRaw,
		restore:    xterm.Restore,
		size:       xterm.GetSize,
	}
}

// Enter switches the terminal to raw (non-canonical, no-echo) mode and saves
// the prior state. Failure here is fatal to the console run and is returned
// to the caller before any input is read.
func (c *Controller) Enter() error {
	if !c.isTerminal(c.fd) {
		return fmt.Errorf("entering raw mode on fd %d: %w", c.fd, ErrNotTerminal)
	}

	st, err := c.makeRaw(c.fd)
	if err != nil {
		return fmt.Errorf("entering raw mode on fd %d: %w", c.fd, err)
	}
	c.state = st
	return nil
}

// Restore puts the terminal back into its saved mode. It runs at most once;
// later calls return the first result. Calling Restore without a prior
// successful Enter is a no-op.
func (c *Controller) Restore() error {
	c.restoreOnce.Do(func() {
		if c.state == nil {
			return
		}
		c.restoreErr = c.restore(c.fd, c.state)
	})
	return c.restoreErr
}

// Active reports whether raw mode was entered.
func (c *Controller) Active() bool {
	return c.state != nil
}

// Size returns the terminal dimensions.
func (c *Controller) Size() (width, height int, err error) {
	return c.size(c.fd)
}
