// Package command routes submitted console lines to registered handlers.
package command

import (
	"context"
	"sort"
	"sync"
)

// SyncHandler runs inline on the console loop and returns text to display.
type SyncHandler func(args []string) (string, error)

// AsyncHandler runs on its own goroutine; its result is delivered back to
// the console loop when it completes.
type AsyncHandler func(ctx context.Context, args []string) (string, error)

// UnknownHandler is invoked with the full submitted line when no command
// matches its first token. The returned text is displayed to the user.
type UnknownHandler func(line string) string

// AsyncUnknownHandler is the asynchronous fallback variant. It runs on
// its own goroutine so it can perform I/O, and its result is delivered
// back to the console loop like any other async command.
type AsyncUnknownHandler func(ctx context.Context, line string) (string, error)

// handlerKind tags the variant stored for a name.
type handlerKind int

const (
	kindSync handlerKind = iota
	kindAsync
)

// entry holds one registered handler.
type entry struct {
	kind  handlerKind
	sync  SyncHandler
	async AsyncHandler
}

// Registry maps command names to handlers. Names are case-sensitive and
// unique; registering a name again replaces the prior handler.
type Registry struct {
	mu           sync.RWMutex
	entries      map[string]entry
	unknown      UnknownHandler
	unknownAsync AsyncUnknownHandler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds or replaces a synchronous handler.
func (r *Registry) Register(name string, h SyncHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = entry{kind: kindSync, sync: h}
}

// RegisterAsync adds or replaces an asynchronous handler.
func (r *Registry) RegisterAsync(name string, h AsyncHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = entry{kind: kindAsync, async: h}
}

// Unregister removes a handler by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, name)
}

// SetUnknown installs the fallback for unrecognized commands. A nil handler
// reverts to the default error log. Replaces any async fallback; like
// named commands, the last registration wins.
func (r *Registry) SetUnknown(h UnknownHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unknown = h
	r.unknownAsync = nil
}

// SetUnknownAsync installs an asynchronous fallback for unrecognized
// commands, replacing any synchronous one.
func (r *Registry) SetUnknownAsync(h AsyncUnknownHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unknownAsync = h
	r.unknown = nil
}

// Has reports whether a handler is registered for name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Names returns all registered command names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// lookup fetches the entry for name.
func (r *Registry) lookup(name string) (entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// unknownHandlers returns the installed fallbacks; at most one is
// non-nil.
func (r *Registry) unknownHandlers() (UnknownHandler, AsyncUnknownHandler) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.unknown, r.unknownAsync
}
