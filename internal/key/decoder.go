package key

import "unicode/utf8"

// Decoder turns a raw terminal byte stream into key events.
//
// The decoder is stateless apart from a pending buffer holding the tail of
// an escape sequence (or UTF-8 rune) that was split across reads. Callers
// feed chunks as they arrive and call Flush when no more input is
// immediately available, which resolves any incomplete sequence rather than
// waiting for bytes that may never come.
type Decoder struct {
	pending []byte
}

// NewDecoder creates an empty decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends a raw input chunk and returns all completely decoded events.
// Bytes forming an incomplete trailing sequence are retained for the next
// Feed or Flush.
func (d *Decoder) Feed(chunk []byte) []Event {
	d.pending = append(d.pending, chunk...)

	var events []Event
	for len(d.pending) > 0 {
		ev, n, ok := decodeOne(d.pending)
		if !ok {
			break
		}
		events = append(events, ev)
		d.pending = d.pending[n:]
	}
	return events
}

// Flush resolves any incomplete pending sequence. A lone ESC becomes an
// Escape key; any other remainder is emitted as KeyUnknown events so no
// input is silently lost. Called when the input stream goes idle or ends.
func (d *Decoder) Flush() []Event {
	if len(d.pending) == 0 {
		return nil
	}

	var events []Event
	if len(d.pending) == 1 && d.pending[0] == 0x1b {
		events = append(events, NewSpecialEvent(KeyEscape, ModNone))
	} else {
		for range d.pending {
			events = append(events, NewSpecialEvent(KeyUnknown, ModNone))
		}
	}
	d.pending = d.pending[:0]
	return events
}

// Pending reports how many undecoded bytes are buffered.
func (d *Decoder) Pending() int {
	return len(d.pending)
}

// decodeOne decodes a single event from the front of buf. It returns the
// consumed byte count, or ok=false when buf holds the start of a sequence
// that needs more bytes.
func decodeOne(buf []byte) (Event, int, bool) {
	b := buf[0]

	switch {
	case b == 0x1b:
		return decodeEscape(buf)
	case b == '\r' || b == '\n':
		return NewSpecialEvent(KeyEnter, ModNone), 1, true
	case b == '\t':
		return NewSpecialEvent(KeyTab, ModNone), 1, true
	case b == 0x7f || b == 0x08:
		return NewSpecialEvent(KeyBackspace, ModNone), 1, true
	case b >= 0x01 && b <= 0x1a:
		// Control bytes map to Ctrl+letter (0x03 = Ctrl+C, 0x04 = Ctrl+D).
		return NewRuneEvent(rune('a'+b-0x01), ModCtrl), 1, true
	case b < 0x20:
		return NewSpecialEvent(KeyUnknown, ModNone), 1, true
	}

	return decodeRune(buf)
}

// decodeEscape decodes an escape sequence starting at buf[0] == ESC.
func decodeEscape(buf []byte) (Event, int, bool) {
	if len(buf) < 2 {
		return Event{}, 0, false
	}

	switch buf[1] {
	case '[':
		return decodeCSI(buf)
	case 'O':
		return decodeSS3(buf)
	}

	// ESC-prefixed printable: Alt+key.
	if buf[1] >= 0x20 && buf[1] < 0x7f {
		return NewRuneEvent(rune(buf[1]), ModAlt), 2, true
	}

	// Bare Escape followed by something the decoder will handle on its own.
	return NewSpecialEvent(KeyEscape, ModNone), 1, true
}

// decodeCSI decodes an "ESC [ params final" control sequence.
func decodeCSI(buf []byte) (Event, int, bool) {
	i := 2
	for i < len(buf) && buf[i] >= 0x20 && buf[i] <= 0x3f {
		i++
	}
	if i >= len(buf) {
		return Event{}, 0, false
	}

	final := buf[i]
	params := string(buf[2:i])
	n := i + 1

	switch final {
	case 'A':
		return NewSpecialEvent(KeyUp, ModNone), n, true
	case 'B':
		return NewSpecialEvent(KeyDown, ModNone), n, true
	case 'C':
		return NewSpecialEvent(KeyRight, ModNone), n, true
	case 'D':
		return NewSpecialEvent(KeyLeft, ModNone), n, true
	case 'H':
		return NewSpecialEvent(KeyHome, ModNone), n, true
	case 'F':
		return NewSpecialEvent(KeyEnd, ModNone), n, true
	case '~':
		return tildeEvent(params), n, true
	}

	return NewSpecialEvent(KeyUnknown, ModNone), n, true
}

// tildeEvent maps "ESC [ N ~" sequences to keys.
func tildeEvent(params string) Event {
	switch params {
	case "1", "7":
		return NewSpecialEvent(KeyHome, ModNone)
	case "3":
		return NewSpecialEvent(KeyDelete, ModNone)
	case "4", "8":
		return NewSpecialEvent(KeyEnd, ModNone)
	case "5":
		return NewSpecialEvent(KeyPageUp, ModNone)
	case "6":
		return NewSpecialEvent(KeyPageDown, ModNone)
	default:
		return NewSpecialEvent(KeyUnknown, ModNone)
	}
}

// decodeSS3 decodes "ESC O x" sequences used by application cursor mode.
func decodeSS3(buf []byte) (Event, int, bool) {
	if len(buf) < 3 {
		return Event{}, 0, false
	}

	switch buf[2] {
	case 'A':
		return NewSpecialEvent(KeyUp, ModNone), 3, true
	case 'B':
		return NewSpecialEvent(KeyDown, ModNone), 3, true
	case 'C':
		return NewSpecialEvent(KeyRight, ModNone), 3, true
	case 'D':
		return NewSpecialEvent(KeyLeft, ModNone), 3, true
	case 'H':
		return NewSpecialEvent(KeyHome, ModNone), 3, true
	case 'F':
		return NewSpecialEvent(KeyEnd, ModNone), 3, true
	default:
		return NewSpecialEvent(KeyUnknown, ModNone), 3, true
	}
}

// decodeRune decodes a UTF-8 rune from the front of buf.
func decodeRune(buf []byte) (Event, int, bool) {
	if !utf8.FullRune(buf) && len(buf) < utf8.UTFMax {
		return Event{}, 0, false
	}

	r, size := utf8.DecodeRune(buf)
	if r == utf8.RuneError && size == 1 {
		return NewSpecialEvent(KeyUnknown, ModNone), 1, true
	}
	return NewRuneEvent(r, ModNone), size, true
}
