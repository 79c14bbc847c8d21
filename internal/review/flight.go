package review

import (
	"errors"
	"sync"
)

// ErrInFlight is returned when an action is already running for a key
var ErrInFlight = errors.New("operation already in progress")

// Flight tracks which logical actions are currently running so a second
// submission is refused instead of issued concurrently.
type Flight struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

// NewFlight creates an empty in-flight tracker
func NewFlight() *Flight {
	return &Flight{busy: make(map[string]struct{})}
}

// TryBegin marks key as running. It returns ok=false if key is already
// running. release must be called exactly once when the action ends, whether
// it failed or not.
func (f *Flight) TryBegin(key string) (release func(), ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, running := f.busy[key]; running {
		return func() {}, false
	}
	f.busy[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.busy, key)
			f.mu.Unlock()
		})
	}, true
}

// Busy reports whether key is currently running
func (f *Flight) Busy(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, running := f.busy[key]
	return running
}

// Key builds a flight key for an action on a subject
func Key(action, subject string) string {
	return action + ":" + subject
}
