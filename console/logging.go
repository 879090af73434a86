package console

import (
	"fmt"

	"github.com/dshills/dcon/logging"
)

// Log emits a message at the given severity. Safe from any goroutine,
// including command handlers. Before Run it writes plainly to the
// output; after teardown messages are dropped.
func (c *Console) Log(level logging.Level, msg string) {
	if level < c.minLevel {
		return
	}
	c.emit(level, msg)
}

// emit writes a line regardless of the configured minimum level. The
// loop uses it for messages the user must always see, like the welcome
// line and the exit confirmation prompt.
func (c *Console) emit(level logging.Level, msg string) {
	l := logging.NewLine(level, msg)
	if arb := c.arbiter(); arb != nil {
		arb.Log(c.fmtr.Format(l))
		return
	}
	fmt.Fprintln(c.out, logging.FormatPlain(l))
}

// Logf is Log with fmt.Sprintf formatting.
func (c *Console) Logf(level logging.Level, format string, args ...any) {
	c.Log(level, fmt.Sprintf(format, args...))
}

// Debug logs at debug severity.
func (c *Console) Debug(msg string) { c.Log(logging.LevelDebug, msg) }

// Info logs at info severity.
func (c *Console) Info(msg string) { c.Log(logging.LevelInfo, msg) }

// Warn logs at warn severity.
func (c *Console) Warn(msg string) { c.Log(logging.LevelWarn, msg) }

// Error logs at error severity.
func (c *Console) Error(msg string) { c.Log(logging.LevelError, msg) }

// Critical logs at critical severity.
func (c *Console) Critical(msg string) { c.Log(logging.LevelCritical, msg) }

// Debugf logs a formatted message at debug severity.
func (c *Console) Debugf(format string, args ...any) { c.Logf(logging.LevelDebug, format, args...) }

// Infof logs a formatted message at info severity.
func (c *Console) Infof(format string, args ...any) { c.Logf(logging.LevelInfo, format, args...) }

// Warnf logs a formatted message at warn severity.
func (c *Console) Warnf(format string, args ...any) { c.Logf(logging.LevelWarn, format, args...) }

// Errorf logs a formatted message at error severity.
func (c *Console) Errorf(format string, args ...any) { c.Logf(logging.LevelError, format, args...) }

// Criticalf logs a formatted message at critical severity.
func (c *Console) Criticalf(format string, args ...any) {
	c.Logf(logging.LevelCritical, format, args...)
}
