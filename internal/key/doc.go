// Package key defines the key event model and the raw byte-stream decoder.
//
// Events are produced by feeding raw terminal input (as read in raw mode)
// to a Decoder, which recognizes printable runes, control bytes, and the
// standard CSI/SS3 escape sequences for cursor and editing keys. Sequences
// split across reads are reassembled; sequences that never complete are
// resolved by Flush so the console loop never blocks on a half-received
// escape.
package key
