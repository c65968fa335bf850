package formats

import (
	"context"
	"sync"
)

// Prober reports whether a format can actually be encoded in this process.
type Prober interface {
	ProbeFormatSupport(ctx context.Context, f OutputFormat) bool
}

// Negotiator caches which catalog formats the prober accepts. The probe runs
// at most once per catalog; replacing the catalog with a different one
// invalidates the cache.
type Negotiator struct {
	mu       sync.Mutex
	prober   Prober
	catalog  []OutputFormat
	cached   []OutputFormat
	probed   bool
	fellBack bool
}

// NewNegotiator creates a negotiator over a copy of catalog.
func NewNegotiator(p Prober, catalog []OutputFormat) *Negotiator {
	return &Negotiator{
		prober:  p,
		catalog: append([]OutputFormat(nil), catalog...),
	}
}

// setCatalog replaces the catalog. The probe cache is dropped only when the
// new catalog differs from the current one.
func (n *Negotiator) setCatalog(catalog []OutputFormat) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if sameFormats(n.catalog, catalog) {
		return
	}
	n.catalog = append([]OutputFormat(nil), catalog...)
	n.cached = nil
	n.probed = false
	n.fellBack = false
}

// Supported returns the encodable formats in catalog order. When nothing
// probes as encodable the first catalog entry is returned unconditionally;
// [Negotiator.FellBack] reports that case.
func (n *Negotiator) Supported(ctx context.Context) []OutputFormat {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.probed {
		n.cached, n.fellBack = n.probe(ctx)
		n.probed = true
	}
	return append([]OutputFormat(nil), n.cached...)
}

// FellBack reports whether the last probe found no encodable format and the
// catalog's first entry was substituted without confirmation.
func (n *Negotiator) FellBack() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.fellBack
}

func (n *Negotiator) probe(ctx context.Context) ([]OutputFormat, bool) {
	var supported []OutputFormat
	for _, f := range n.catalog {
		if n.prober != nil && n.prober.ProbeFormatSupport(ctx, f) {
			supported = append(supported, f)
		}
	}
	if len(supported) > 0 || len(n.catalog) == 0 {
		return supported, false
	}
	return []OutputFormat{n.catalog[0]}, true
}

func sameFormats(a, b []OutputFormat) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
