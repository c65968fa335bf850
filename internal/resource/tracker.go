// Package resource tracks ephemeral, blob-backed handles (the equivalent of
// browser object URLs). Every handle handed out by [Tracker.Acquire] stays
// live until [Tracker.Release] is called for it; at quiescence the live set
// must be empty.
package resource

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/backmassage/pixshift/internal/media"
)

// Handle is an opaque reference to a live blob. The zero value means "no
// handle" and is never live.
type Handle string

const handlePrefix = "blob:"

// IsZero reports whether h is the empty handle.
func (h Handle) IsZero() bool { return h == "" }

// Valid reports whether h has the shape of a handle minted by a Tracker.
func (h Handle) Valid() bool {
	return strings.HasPrefix(string(h), handlePrefix) && len(h) > len(handlePrefix)
}

// Tracker owns the set of live handles. All methods are goroutine-safe.
type Tracker struct {
	mu   sync.Mutex
	live map[Handle]media.Blob

	acquired int
	released int
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{live: make(map[Handle]media.Blob)}
}

// Acquire records blob under a fresh handle and returns it.
func (t *Tracker) Acquire(blob media.Blob) Handle {
	h := Handle(handlePrefix + uuid.NewString())
	t.mu.Lock()
	defer t.mu.Unlock()
	t.live[h] = blob
	t.acquired++
	return h
}

// Release revokes h. Unknown, empty and already released handles are ignored.
func (t *Tracker) Release(h Handle) {
	if h.IsZero() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.live[h]; !ok {
		return
	}
	delete(t.live, h)
	t.released++
}

// Resolve returns the blob behind a live handle.
func (t *Tracker) Resolve(h Handle) (media.Blob, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, ok := t.live[h]
	return b, ok
}

// Live returns the number of handles acquired and not yet released.
func (t *Tracker) Live() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.live)
}

// Stats returns lifetime acquire and release counts.
func (t *Tracker) Stats() (acquired, released int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.acquired, t.released
}

// ReleaseAll revokes every live handle and returns how many were released.
// Used at shutdown so the quiescence invariant holds even if a caller leaked.
func (t *Tracker) ReleaseAll() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.live)
	for h := range t.live {
		delete(t.live, h)
	}
	t.released += n
	return n
}
