package pipeline

import (
	"github.com/backmassage/pixshift/internal/media"
	"github.com/backmassage/pixshift/internal/resource"
)

// Registry holds the entries of the current selection in insertion order.
// Every handle an entry references was acquired from the registry's tracker
// and is released through it when the entry is disposed. Registry is not
// safe for concurrent use; the session serializes access.
type Registry struct {
	tracker *resource.Tracker
	entries []*Entry
	nextID  int
	running bool
}

// NewRegistry returns an empty registry releasing handles through tracker.
func NewRegistry(tracker *resource.Tracker) *Registry {
	return &Registry{tracker: tracker}
}

// Add creates an entry for file with the next id. Ids are never reused.
// newTile, when non-nil, builds the entry's tile from its id.
func (r *Registry) Add(file media.File, newTile func(id int) Tile) *Entry {
	r.nextID++
	var tile Tile = nopTile{}
	if newTile != nil {
		if t := newTile(r.nextID); t != nil {
			tile = t
		}
	}
	e := &Entry{ID: r.nextID, File: file, tile: tile}
	r.entries = append(r.entries, e)
	return e
}

// Get returns the entry with id, or nil.
func (r *Registry) Get(id int) *Entry {
	for _, e := range r.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// Len returns the number of entries.
func (r *Registry) Len() int { return len(r.entries) }

// Entries returns the entries in insertion order. The slice is a copy.
func (r *Registry) Entries() []*Entry {
	return append([]*Entry(nil), r.entries...)
}

// Pending returns entries that are neither converted nor failed.
func (r *Registry) Pending() []*Entry {
	return r.filter((*Entry).Pending)
}

// Converted returns entries with a downloadable output.
func (r *Registry) Converted() []*Entry {
	return r.filter((*Entry).Downloadable)
}

// FailedCount returns the number of failed entries.
func (r *Registry) FailedCount() int {
	return len(r.filter(func(e *Entry) bool { return e.Failed }))
}

// Files returns the file descriptors in insertion order.
func (r *Registry) Files() []media.File {
	files := make([]media.File, len(r.entries))
	for i, e := range r.entries {
		files[i] = e.File
	}
	return files
}

func (r *Registry) filter(keep func(*Entry) bool) []*Entry {
	var out []*Entry
	for _, e := range r.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// SetRunning marks whether a conversion run is iterating the registry.
func (r *Registry) SetRunning(running bool) { r.running = running }

// Running reports whether a conversion run is active.
func (r *Registry) Running() bool { return r.running }

// AttachPreview stores blob as e's preview, releasing any previous one.
func (r *Registry) AttachPreview(e *Entry, blob media.Blob) resource.Handle {
	r.tracker.Release(e.Preview)
	e.Preview = r.tracker.Acquire(blob)
	e.PreviewState = PreviewReady
	return e.Preview
}

// MarkConverted stores blob as e's output, releasing any previous one.
func (r *Registry) MarkConverted(e *Entry, blob media.Blob, outputName string) {
	r.tracker.Release(e.Output)
	e.Output = r.tracker.Acquire(blob)
	e.OutputName = outputName
	e.Converted = true
	e.Failed = false
}

// MarkFailed records a conversion failure for e.
func (r *Registry) MarkFailed(e *Entry) {
	r.tracker.Release(e.Output)
	e.Output = ""
	e.OutputName = ""
	e.Converted = false
	e.Failed = true
}

// ResetOutputs returns every entry to pending and releases all outputs.
func (r *Registry) ResetOutputs() {
	for _, e := range r.entries {
		r.tracker.Release(e.Output)
		e.Output = ""
		e.OutputName = ""
		e.Converted = false
		e.Failed = false
	}
}

// Remove disposes the entry with id. It refuses while a run is active.
func (r *Registry) Remove(id int) error {
	if r.running {
		return ErrConversionRunning
	}
	for i, e := range r.entries {
		if e.ID == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			r.dispose(e)
			return nil
		}
	}
	return ErrUnknownEntry
}

// Clear disposes every entry. It refuses while a run is active.
func (r *Registry) Clear() error {
	if r.running {
		return ErrConversionRunning
	}
	for _, e := range r.entries {
		r.dispose(e)
	}
	r.entries = nil
	return nil
}

func (r *Registry) dispose(e *Entry) {
	r.tracker.Release(e.Preview)
	r.tracker.Release(e.Output)
	e.Preview = ""
	e.Output = ""
	e.tile.Dispose()
}
