// Package line implements the in-progress input buffer and its rendering.
package line

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Editor owns the current input buffer and cursor position. The cursor is a
// rune offset in [0, len(buffer)]; every operation maintains that invariant.
type Editor struct {
	buf    []rune
	cursor int
}

// Snapshot captures the buffer and cursor so history navigation can restore
// in-progress edits exactly.
type Snapshot struct {
	Text   string
	Cursor int
}

// NewEditor creates an empty editor.
func NewEditor() *Editor {
	return &Editor{}
}

// Insert places r at the cursor and advances the cursor past it.
func (e *Editor) Insert(r rune) {
	e.buf = append(e.buf[:e.cursor], append([]rune{r}, e.buf[e.cursor:]...)...)
	e.cursor++
}

// Backspace deletes the rune before the cursor. No-op at offset zero.
func (e *Editor) Backspace() {
	if e.cursor == 0 {
		return
	}
	e.buf = append(e.buf[:e.cursor-1], e.buf[e.cursor:]...)
	e.cursor--
}

// DeleteForward deletes the rune at the cursor. No-op at end of buffer.
func (e *Editor) DeleteForward() {
	if e.cursor >= len(e.buf) {
		return
	}
	e.buf = append(e.buf[:e.cursor], e.buf[e.cursor+1:]...)
}

// MoveLeft moves the cursor one rune left, clamped at zero.
func (e *Editor) MoveLeft() {
	if e.cursor > 0 {
		e.cursor--
	}
}

// MoveRight moves the cursor one rune right, clamped at the buffer length.
func (e *Editor) MoveRight() {
	if e.cursor < len(e.buf) {
		e.cursor++
	}
}

// MoveHome moves the cursor to the start of the buffer.
func (e *Editor) MoveHome() {
	e.cursor = 0
}

// MoveEnd moves the cursor past the last rune.
func (e *Editor) MoveEnd() {
	e.cursor = len(e.buf)
}

// Set replaces the buffer content and moves the cursor to the end. Used when
// recalling a history entry.
func (e *Editor) Set(text string) {
	e.buf = []rune(text)
	e.cursor = len(e.buf)
}

// Clear empties the buffer and resets the cursor.
func (e *Editor) Clear() {
	e.buf = e.buf[:0]
	e.cursor = 0
}

// Text returns the buffer content.
func (e *Editor) Text() string {
	return string(e.buf)
}

// Cursor returns the cursor offset in runes.
func (e *Editor) Cursor() int {
	return e.cursor
}

// Len returns the buffer length in runes.
func (e *Editor) Len() int {
	return len(e.buf)
}

// Empty reports whether the buffer has no content.
func (e *Editor) Empty() bool {
	return len(e.buf) == 0
}

// Snapshot captures the current buffer and cursor.
func (e *Editor) Snapshot() Snapshot {
	return Snapshot{Text: string(e.buf), Cursor: e.cursor}
}

// Restore replaces the buffer and cursor from a snapshot, clamping the
// cursor into range.
func (e *Editor) Restore(s Snapshot) {
	e.buf = []rune(s.Text)
	e.cursor = s.Cursor
	if e.cursor < 0 {
		e.cursor = 0
	}
	if e.cursor > len(e.buf) {
		e.cursor = len(e.buf)
	}
}

// Render builds the escape string that repaints the prompt line: return to
// column zero, clear the line, write prompt and buffer, then step the
// terminal cursor back to the logical offset. Wide runes are measured with
// runewidth so the visual column stays aligned.
func (e *Editor) Render(prompt string) string {
	var b strings.Builder
	b.WriteString("\r\x1b[2K")
	b.WriteString(prompt)
	b.WriteString(string(e.buf))

	col := runewidth.StringWidth(prompt) + runewidth.StringWidth(string(e.buf[:e.cursor]))
	b.WriteString("\r")
	if col > 0 {
		fmt.Fprintf(&b, "\x1b[%dC", col)
	}
	return b.String()
}
