package naming

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// CollisionResolver tracks output paths claimed by entries and resolves
// duplicates by appending " (N)" before the extension. All methods are
// goroutine-safe.
type CollisionResolver struct {
	mu       sync.Mutex
	owners   map[string]string // output path → owner key that claimed it
	counters map[string]int    // requested path → next counter
}

// NewCollisionResolver creates a ready-to-use resolver.
func NewCollisionResolver() *CollisionResolver {
	return &CollisionResolver{
		owners:   make(map[string]string),
		counters: make(map[string]int),
	}
}

// Resolve returns the final output path for owner. If requested is unclaimed
// (or already owned by owner) it is returned unchanged; otherwise a numbered
// variant is generated. taken, when non-nil, reports paths that are occupied
// outside the resolver (for example existing files on disk).
func (cr *CollisionResolver) Resolve(owner, requested string, taken func(string) bool) string {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if cr.available(owner, requested, taken) {
		cr.owners[requested] = owner
		return requested
	}

	dir := filepath.Dir(requested)
	base := filepath.Base(requested)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	counter := cr.counters[requested]
	if counter == 0 {
		counter = 1
	}

	for {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, counter, ext))
		if cr.available(owner, candidate, taken) {
			cr.counters[requested] = counter + 1
			cr.owners[candidate] = owner
			return candidate
		}
		counter++
	}
}

// Release forgets every path claimed by owner.
func (cr *CollisionResolver) Release(owner string) {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	for path, o := range cr.owners {
		if o == owner {
			delete(cr.owners, path)
		}
	}
}

func (cr *CollisionResolver) available(owner, path string, taken func(string) bool) bool {
	if o, exists := cr.owners[path]; exists {
		return o == owner
	}
	return taken == nil || !taken(path)
}
