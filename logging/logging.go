// Package logging defines log severities and renders console log lines.
package logging

import (
	"fmt"
	"strings"
	"time"
)

// Level represents the severity of a log line.
type Level int

const (
	// LevelDebug is for detailed debugging information.
	LevelDebug Level = iota
	// LevelInfo is for general informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
	// LevelCritical is for unrecoverable conditions.
	LevelCritical
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a string into a Level. Unrecognized strings parse as
// LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "critical":
		return LevelCritical
	default:
		return LevelInfo
	}
}

// Line is a single log entry: produced by a caller, rendered once, and
// handed to the output arbiter.
type Line struct {
	Level   Level
	Message string

	// Module optionally names the subsystem that produced the line.
	Module string

	// Time defaults to the formatting time when zero.
	Time time.Time
}

// NewLine creates a log line stamped with the current time.
func NewLine(level Level, message string) Line {
	return Line{Level: level, Message: message, Time: time.Now()}
}

// label builds the bracketed level token, e.g. "INFO" or "db/WARN".
func (l Line) label() string {
	if l.Module != "" {
		return l.Module + "/" + l.Level.String()
	}
	return l.Level.String()
}

// timestamp returns the HH:MM:SS stamp for the line.
func (l Line) timestamp() string {
	ts := l.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	return ts.Format("15:04:05")
}

// FormatPlain renders the line without color:
// "[15:04:05] [INFO] message". Multiline messages are rendered one stamped
// line per message line.
func FormatPlain(l Line) string {
	return formatLines(l, func(body string) string {
		return fmt.Sprintf("[%s] [%s] %s", l.timestamp(), l.label(), body)
	})
}

// formatLines applies render to each line of a possibly multiline message.
func formatLines(l Line, render func(body string) string) string {
	if !strings.Contains(l.Message, "\n") {
		return render(l.Message)
	}
	parts := strings.Split(l.Message, "\n")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = render(p)
	}
	return strings.Join(out, "\n")
}
