package console

import (
	"context"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/dcon/internal/command"
	"github.com/dshills/dcon/internal/history"
	"github.com/dshills/dcon/internal/line"
	"github.com/dshills/dcon/internal/output"
	"github.com/dshills/dcon/internal/term"
	"github.com/dshills/dcon/logging"
)

// Handler is a synchronous command handler. Its return value is logged
// at info severity when non-empty.
type Handler func(args []string) (string, error)

// AsyncHandler runs on its own goroutine; its result is reported back
// through the console when it completes.
type AsyncHandler func(ctx context.Context, args []string) (string, error)

// Console is an interactive command console bound to a terminal.
// All exported methods are safe for concurrent use.
type Console struct {
	// mu guards prompt and arb.
	mu     sync.Mutex
	prompt string
	arb    *output.Arbiter

	// lineMu guards editor and hist. The output arbiter reads them
	// through renderLine while the event loop mutates them.
	lineMu sync.Mutex
	editor *line.Editor
	hist   *history.Store

	reg  *command.Registry
	disp *command.Dispatcher
	fmtr *logging.Formatter
	tc   *term.Controller

	in  io.Reader
	out io.Writer

	minLevel  logging.Level
	window    time.Duration
	histLimit int
	color     bool
	customIO  bool

	running atomic.Bool
}

// New creates a console with the given options. The zero configuration
// reads from stdin, writes to stdout, and uses a "> " prompt.
func New(opts ...Option) *Console {
	c := &Console{
		prompt:    "> ",
		in:        os.Stdin,
		out:       os.Stdout,
		minLevel:  logging.LevelInfo,
		window:    5 * time.Second,
		histLimit: 1000,
		color:     true,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.editor = line.NewEditor()
	c.hist = history.NewStore(c.histLimit)
	c.reg = command.NewRegistry()
	c.disp = command.NewDispatcher(c.reg, c)
	c.fmtr = logging.NewFormatter(c.color)
	if !c.customIO {
		c.tc = term.NewController(int(os.Stdin.Fd()))
	}
	return c
}

// RegisterCommand registers a synchronous command handler. Registering
// a name twice replaces the earlier handler.
func (c *Console) RegisterCommand(name string, h Handler) {
	c.reg.Register(name, command.SyncHandler(h))
}

// RegisterAsyncCommand registers a command that runs in the background.
func (c *Console) RegisterAsyncCommand(name string, h AsyncHandler) {
	c.reg.RegisterAsync(name, command.AsyncHandler(h))
}

// UnregisterCommand removes a command.
func (c *Console) UnregisterCommand(name string) {
	c.reg.Unregister(name)
}

// SetUnknownCommandHandler installs a fallback invoked with the full
// submitted line when its first token matches no registered command.
// Replaces any async fallback.
func (c *Console) SetUnknownCommandHandler(fn func(line string) string) {
	c.reg.SetUnknown(fn)
}

// SetAsyncUnknownCommandHandler installs an asynchronous fallback for
// unmatched lines. It runs off the console loop like an async command,
// so it may block on I/O; its result is reported when it completes.
// Replaces any synchronous fallback.
func (c *Console) SetAsyncUnknownCommandHandler(fn func(ctx context.Context, line string) (string, error)) {
	c.reg.SetUnknownAsync(fn)
}

// Commands lists registered command names in sorted order.
func (c *Console) Commands() []string {
	return c.reg.Names()
}

// SetPrompt replaces the prompt and redraws the input line.
func (c *Console) SetPrompt(prompt string) {
	c.mu.Lock()
	c.prompt = prompt
	c.mu.Unlock()
	c.redraw()
}

// promptValue returns the current prompt.
func (c *Console) promptValue() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prompt
}

// renderLine is the arbiter's redraw provider. It runs on the arbiter
// goroutine, so the line state is read under lock.
func (c *Console) renderLine() string {
	c.lineMu.Lock()
	defer c.lineMu.Unlock()
	return c.editor.Render(c.promptValue())
}

// redraw asks the arbiter to repaint the input line. A no-op before
// Run and after teardown.
func (c *Console) redraw() {
	c.mu.Lock()
	arb := c.arb
	c.mu.Unlock()
	if arb != nil {
		arb.Redraw()
	}
}

// arbiter returns the active arbiter, or nil outside Run.
func (c *Console) arbiter() *output.Arbiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.arb
}
