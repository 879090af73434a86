// Package console provides an interactive command console for
// long-running daemon processes.
//
// A Console owns the terminal while Run is active: it switches the tty
// into raw mode, decodes keystrokes into line edits and history
// navigation, dispatches submitted lines to registered command handlers,
// and interleaves log output from any goroutine with the live input
// line without corrupting either.
package console
