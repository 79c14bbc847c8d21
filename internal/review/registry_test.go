package review

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_WithAndExpiry(t *testing.T) {
	r := NewRegistry(time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	s := NewSession(sampleResult())
	r.Add(s)
	assert.Equal(t, 1, r.Len())

	err := r.With(s.ID, func(got *Session) error {
		assert.Same(t, s, got)
		return got.UpdateEdit("Skills", 0, "Helm")
	})
	require.NoError(t, err)

	sentinel := errors.New("boom")
	assert.ErrorIs(t, r.With(s.ID, func(*Session) error { return sentinel }), sentinel)

	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, r.With(s.ID, func(*Session) error { return nil }), ErrSessionNotFound)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_Sweep(t *testing.T) {
	r := NewRegistry(time.Minute)
	now := time.Now()
	r.now = func() time.Time { return now }

	a, b := NewSession(sampleResult()), NewSession(sampleResult())
	r.Add(a)
	now = now.Add(45 * time.Second)
	r.Add(b)
	now = now.Add(30 * time.Second)

	assert.Equal(t, 1, r.Sweep())
	assert.NoError(t, r.With(b.ID, func(*Session) error { return nil }))

	r.Remove(b.ID)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_SerialisesAccess(t *testing.T) {
	r := NewRegistry(0)
	s := NewSession(sampleResult())
	r.Add(s)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.With(s.ID, func(s *Session) error {
				return s.UpdateEdit("Skills", 0, "x")
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, "x", s.Sections()[1].Edits[0].NewContent)
}

func TestFlight(t *testing.T) {
	f := NewFlight()
	key := Key("apply", "session-1")

	release, ok := f.TryBegin(key)
	require.True(t, ok)
	assert.True(t, f.Busy(key))

	_, ok = f.TryBegin(key)
	assert.False(t, ok, "second submission must be refused")

	_, ok = f.TryBegin(Key("save", "session-1"))
	assert.True(t, ok, "different actions are independent")

	release()
	release()
	assert.False(t, f.Busy(key))

	_, ok = f.TryBegin(key)
	assert.True(t, ok)
}
