package key

import (
	"strings"
	"unicode"
)

// Event represents a single decoded key press.
type Event struct {
	// Key identifies the key pressed.
	Key Key

	// Rune is the character for KeyRune events.
	Rune rune

	// Modifiers contains the active modifier keys.
	Modifiers Modifier
}

// NewRuneEvent creates a key event for a character.
func NewRuneEvent(r rune, mods Modifier) Event {
	return Event{Key: KeyRune, Rune: r, Modifiers: mods}
}

// NewSpecialEvent creates a key event for a special key.
func NewSpecialEvent(key Key, mods Modifier) Event {
	return Event{Key: key, Modifiers: mods}
}

// IsRune returns true if this is a character key event.
func (e Event) IsRune() bool {
	return e.Key == KeyRune && e.Rune != 0
}

// IsChar returns true if this is a printable, unmodified character.
func (e Event) IsChar() bool {
	return e.IsRune() && e.Modifiers.IsEmpty() && unicode.IsPrint(e.Rune)
}

// IsCtrl returns true if this is the given letter with Control held,
// e.g. IsCtrl('c') matches Ctrl+C.
func (e Event) IsCtrl(r rune) bool {
	return e.Key == KeyRune && e.Rune == r && e.Modifiers.HasCtrl()
}

// String returns a canonical string representation,
// e.g. "a", "Ctrl+c", "Up", "Alt+Enter".
func (e Event) String() string {
	var parts []string
	if mods := e.Modifiers.String(); mods != "" {
		parts = append(parts, mods)
	}

	switch e.Key {
	case KeyRune:
		if e.Rune == ' ' {
			parts = append(parts, "Space")
		} else {
			parts = append(parts, string(e.Rune))
		}
	default:
		parts = append(parts, e.Key.String())
	}

	return strings.Join(parts, "+")
}
