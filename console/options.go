package console

import (
	"io"
	"time"

	"github.com/dshills/dcon/config"
	"github.com/dshills/dcon/logging"
)

// Option configures a Console.
type Option func(*Console)

// WithPrompt sets the input prompt.
func WithPrompt(prompt string) Option {
	return func(c *Console) {
		c.prompt = prompt
	}
}

// WithWriter redirects console output. Setting a custom writer disables
// raw-mode terminal handling, which makes the console drivable from
// tests and non-tty environments.
func WithWriter(w io.Writer) Option {
	return func(c *Console) {
		c.out = w
		c.customIO = true
	}
}

// WithInput redirects console input. Like WithWriter, this disables
// raw-mode terminal handling.
func WithInput(r io.Reader) Option {
	return func(c *Console) {
		c.in = r
		c.customIO = true
	}
}

// WithHistoryLimit caps the number of retained history entries.
func WithHistoryLimit(n int) Option {
	return func(c *Console) {
		if n > 0 {
			c.histLimit = n
		}
	}
}

// WithCtrlCWindow sets how long a Ctrl+C exit confirmation stays armed.
func WithCtrlCWindow(d time.Duration) Option {
	return func(c *Console) {
		if d > 0 {
			c.window = d
		}
	}
}

// WithColor enables or disables colored log output.
func WithColor(enable bool) Option {
	return func(c *Console) {
		c.color = enable
	}
}

// WithLogLevel sets the minimum severity emitted.
func WithLogLevel(level logging.Level) Option {
	return func(c *Console) {
		c.minLevel = level
	}
}

// WithConfig applies a loaded configuration. Later options override
// individual fields.
func WithConfig(cfg config.Config) Option {
	return func(c *Console) {
		if cfg.Prompt != "" {
			c.prompt = cfg.Prompt
		}
		c.color = cfg.Color
		if cfg.HistoryLimit > 0 {
			c.histLimit = cfg.HistoryLimit
		}
		if cfg.CtrlCWindow > 0 {
			c.window = cfg.CtrlCWindow.Std()
		}
		c.minLevel = logging.ParseLevel(cfg.LogLevel)
	}
}
