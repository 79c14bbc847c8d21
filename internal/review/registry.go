package review

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrSessionNotFound is returned for unknown or expired session IDs
var ErrSessionNotFound = errors.New("review session not found")

// DefaultSessionTTL is how long an untouched session is kept
const DefaultSessionTTL = 2 * time.Hour

type registryEntry struct {
	mu      sync.Mutex
	session *Session
	touched time.Time
}

// Registry keeps live review sessions in memory and hands each one to a
// single caller at a time.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*registryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewRegistry creates a registry that evicts sessions idle for longer than ttl
func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Registry{
		entries: make(map[string]*registryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Add registers a session under its ID
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[s.ID] = &registryEntry{session: s, touched: r.now()}
}

// With runs fn with exclusive access to the session
func (r *Registry) With(id string, fn func(*Session) error) error {
	r.mu.Lock()
	entry, ok := r.entries[id]
	if ok && r.now().Sub(entry.touched) > r.ttl {
		delete(r.entries, id)
		ok = false
	}
	if ok {
		entry.touched = r.now()
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return fn(entry.session)
}

// Remove forgets a session
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep evicts expired sessions and returns how many were removed
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	now := r.now()
	for id, entry := range r.entries {
		if now.Sub(entry.touched) > r.ttl {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}
