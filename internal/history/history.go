// Package history stores submitted console lines and supports cursor-based
// navigation over them.
package history

import "github.com/dshills/dcon/internal/line"

// notNavigating marks the navigation cursor as inactive.
const notNavigating = -1

// Store is an append-only sequence of submitted lines plus a navigation
// cursor. Entries are immutable once appended; recalling an entry hands the
// caller a copy to edit. When navigation begins the live buffer is
// snapshotted so moving back past the newest entry restores in-progress
// edits exactly, cursor included.
type Store struct {
	entries []string
	limit   int
	index   int
	saved   line.Snapshot
}

// NewStore creates a history store. A limit of zero or less means unbounded.
func NewStore(limit int) *Store {
	return &Store{limit: limit, index: notNavigating}
}

// Append adds a submitted line to the end and resets navigation. Duplicates
// are kept; resubmitting a recalled entry appends it again. When the
// configured limit is exceeded the oldest entries are dropped.
func (s *Store) Append(entry string) {
	s.entries = append(s.entries, entry)
	if s.limit > 0 && len(s.entries) > s.limit {
		s.entries = s.entries[len(s.entries)-s.limit:]
	}
	s.Reset()
}

// Up moves to the previous (older) entry and returns a copy of it. When not
// yet navigating it saves the live buffer snapshot and starts at the newest
// entry. At the oldest entry it stays there, returning the same entry. In an
// empty history it reports ok=false and touches nothing.
func (s *Store) Up(live line.Snapshot) (string, bool) {
	if len(s.entries) == 0 {
		return "", false
	}

	switch {
	case s.index == notNavigating:
		s.saved = live
		s.index = len(s.entries) - 1
	case s.index > 0:
		s.index--
	}
	return s.entries[s.index], true
}

// Result is what Down navigation yields: either an older entry's text or,
// when moving past the newest entry, the restored live snapshot.
type Result struct {
	Text   string
	Cursor int
	Live   bool
}

// Down moves to the next (newer) entry. Moving past the newest entry
// restores the pre-navigation snapshot and clears navigation state. Reports
// ok=false when not navigating.
func (s *Store) Down() (Result, bool) {
	if s.index == notNavigating {
		return Result{}, false
	}

	if s.index < len(s.entries)-1 {
		s.index++
		entry := s.entries[s.index]
		return Result{Text: entry, Cursor: len([]rune(entry))}, true
	}

	saved := s.saved
	s.Reset()
	return Result{Text: saved.Text, Cursor: saved.Cursor, Live: true}, true
}

// Reset clears the navigation cursor and the saved snapshot.
func (s *Store) Reset() {
	s.index = notNavigating
	s.saved = line.Snapshot{}
}

// Navigating reports whether a navigation cursor is active.
func (s *Store) Navigating() bool {
	return s.index != notNavigating
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Entries returns a copy of the stored lines, oldest first.
func (s *Store) Entries() []string {
	out := make([]string, len(s.entries))
	copy(out, s.entries)
	return out
}
