package logging

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Severity colors follow the usual daemon console palette: info green,
// warn yellow, error red, critical magenta, debug dim.
var (
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	criticalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	debugStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	stampStyle    = lipgloss.NewStyle().Faint(true)
)

// levelStyle returns the lipgloss style for a severity.
func levelStyle(l Level) lipgloss.Style {
	switch l {
	case LevelWarn:
		return warnStyle
	case LevelError:
		return errorStyle
	case LevelCritical:
		return criticalStyle
	case LevelDebug:
		return debugStyle
	default:
		return infoStyle
	}
}

// Formatter renders log lines for the terminal.
type Formatter struct {
	color bool
}

// NewFormatter creates a formatter. With color disabled it falls back to
// FormatPlain output.
func NewFormatter(color bool) *Formatter {
	return &Formatter{color: color}
}

// Format renders a line. Debug lines are rendered entirely in the debug
// style; other severities color only the level token.
func (f *Formatter) Format(l Line) string {
	if !f.color {
		return FormatPlain(l)
	}

	if l.Level == LevelDebug {
		return formatLines(l, func(body string) string {
			return debugStyle.Render(fmt.Sprintf("[%s] [%s] %s", l.timestamp(), l.label(), body))
		})
	}

	style := levelStyle(l.Level)
	return formatLines(l, func(body string) string {
		return fmt.Sprintf("%s [%s] %s",
			stampStyle.Render("["+l.timestamp()+"]"),
			style.Render(l.label()),
			body)
	})
}
