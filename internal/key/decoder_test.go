package key

import (
	"reflect"
	"testing"
)

func TestDecoderPrintable(t *testing.T) {
	d := NewDecoder()
	events := d.Feed([]byte("hi!"))

	want := []Event{
		NewRuneEvent('h', ModNone),
		NewRuneEvent('i', ModNone),
		NewRuneEvent('!', ModNone),
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("Feed(\"hi!\") = %v, want %v", events, want)
	}
	if d.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", d.Pending())
	}
}

func TestDecoderControlBytes(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  Event
	}{
		{"enter CR", []byte{0x0d}, NewSpecialEvent(KeyEnter, ModNone)},
		{"enter LF", []byte{0x0a}, NewSpecialEvent(KeyEnter, ModNone)},
		{"tab", []byte{0x09}, NewSpecialEvent(KeyTab, ModNone)},
		{"backspace DEL", []byte{0x7f}, NewSpecialEvent(KeyBackspace, ModNone)},
		{"backspace BS", []byte{0x08}, NewSpecialEvent(KeyBackspace, ModNone)},
		{"ctrl-c", []byte{0x03}, NewRuneEvent('c', ModCtrl)},
		{"ctrl-d", []byte{0x04}, NewRuneEvent('d', ModCtrl)},
		{"ctrl-a", []byte{0x01}, NewRuneEvent('a', ModCtrl)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder()
			events := d.Feed(tt.input)
			if len(events) != 1 || events[0] != tt.want {
				t.Errorf("Feed(%v) = %v, want [%v]", tt.input, events, tt.want)
			}
		})
	}
}

func TestDecoderEscapeSequences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Event
	}{
		{"up", "\x1b[A", NewSpecialEvent(KeyUp, ModNone)},
		{"down", "\x1b[B", NewSpecialEvent(KeyDown, ModNone)},
		{"right", "\x1b[C", NewSpecialEvent(KeyRight, ModNone)},
		{"left", "\x1b[D", NewSpecialEvent(KeyLeft, ModNone)},
		{"home", "\x1b[H", NewSpecialEvent(KeyHome, ModNone)},
		{"end", "\x1b[F", NewSpecialEvent(KeyEnd, ModNone)},
		{"delete", "\x1b[3~", NewSpecialEvent(KeyDelete, ModNone)},
		{"home tilde", "\x1b[1~", NewSpecialEvent(KeyHome, ModNone)},
		{"end tilde", "\x1b[4~", NewSpecialEvent(KeyEnd, ModNone)},
		{"pageup", "\x1b[5~", NewSpecialEvent(KeyPageUp, ModNone)},
		{"pagedown", "\x1b[6~", NewSpecialEvent(KeyPageDown, ModNone)},
		{"ss3 up", "\x1bOA", NewSpecialEvent(KeyUp, ModNone)},
		{"ss3 end", "\x1bOF", NewSpecialEvent(KeyEnd, ModNone)},
		{"unknown tilde", "\x1b[19~", NewSpecialEvent(KeyUnknown, ModNone)},
		{"unknown final", "\x1b[Z", NewSpecialEvent(KeyUnknown, ModNone)},
		{"alt-x", "\x1bx", NewRuneEvent('x', ModAlt)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder()
			events := d.Feed([]byte(tt.input))
			if len(events) != 1 || events[0] != tt.want {
				t.Errorf("Feed(%q) = %v, want [%v]", tt.input, events, tt.want)
			}
			if d.Pending() != 0 {
				t.Errorf("Pending() = %d after %q, want 0", d.Pending(), tt.input)
			}
		})
	}
}

func TestDecoderSplitSequence(t *testing.T) {
	d := NewDecoder()

	if events := d.Feed([]byte{0x1b}); len(events) != 0 {
		t.Fatalf("Feed(ESC) = %v, want no events yet", events)
	}
	if events := d.Feed([]byte{'['}); len(events) != 0 {
		t.Fatalf("Feed('[') = %v, want no events yet", events)
	}

	events := d.Feed([]byte{'A'})
	want := NewSpecialEvent(KeyUp, ModNone)
	if len(events) != 1 || events[0] != want {
		t.Errorf("Feed('A') = %v, want [%v]", events, want)
	}
}

func TestDecoderSplitUTF8(t *testing.T) {
	raw := []byte("é") // two bytes
	d := NewDecoder()

	if events := d.Feed(raw[:1]); len(events) != 0 {
		t.Fatalf("Feed(partial rune) = %v, want no events yet", events)
	}

	events := d.Feed(raw[1:])
	want := NewRuneEvent('é', ModNone)
	if len(events) != 1 || events[0] != want {
		t.Errorf("Feed(rest of rune) = %v, want [%v]", events, want)
	}
}

func TestDecoderWideRune(t *testing.T) {
	d := NewDecoder()
	events := d.Feed([]byte("日本"))
	want := []Event{
		NewRuneEvent('日', ModNone),
		NewRuneEvent('本', ModNone),
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("Feed(\"日本\") = %v, want %v", events, want)
	}
}

func TestDecoderFlushLoneEscape(t *testing.T) {
	d := NewDecoder()
	d.Feed([]byte{0x1b})

	events := d.Flush()
	want := NewSpecialEvent(KeyEscape, ModNone)
	if len(events) != 1 || events[0] != want {
		t.Errorf("Flush() = %v, want [%v]", events, want)
	}
	if d.Pending() != 0 {
		t.Errorf("Pending() = %d after Flush, want 0", d.Pending())
	}
}

func TestDecoderFlushIncompleteCSI(t *testing.T) {
	d := NewDecoder()
	d.Feed([]byte{0x1b, '[', '1'})

	events := d.Flush()
	if len(events) != 3 {
		t.Fatalf("Flush() produced %d events, want 3 (one per pending byte)", len(events))
	}
	for i, ev := range events {
		if ev.Key != KeyUnknown {
			t.Errorf("Flush()[%d] = %v, want KeyUnknown", i, ev)
		}
	}
}

func TestDecoderFlushEmpty(t *testing.T) {
	d := NewDecoder()
	if events := d.Flush(); events != nil {
		t.Errorf("Flush() on empty decoder = %v, want nil", events)
	}
}

func TestDecoderMixedChunk(t *testing.T) {
	d := NewDecoder()
	events := d.Feed([]byte("ab\x1b[C\rc"))

	want := []Event{
		NewRuneEvent('a', ModNone),
		NewRuneEvent('b', ModNone),
		NewSpecialEvent(KeyRight, ModNone),
		NewSpecialEvent(KeyEnter, ModNone),
		NewRuneEvent('c', ModNone),
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("Feed(mixed) = %v, want %v", events, want)
	}
}
