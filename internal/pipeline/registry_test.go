package pipeline

import (
	"errors"
	"testing"

	"github.com/backmassage/pixshift/internal/media"
	"github.com/backmassage/pixshift/internal/resource"
)

func TestRegistry_Lifecycle(t *testing.T) {
	tr := resource.NewTracker()
	r := NewRegistry(tr)
	files := pngs("a.png", "b.png", "c.png")
	var tiles []*fakeTile
	for _, f := range files {
		r.Add(f, func(int) Tile {
			tile := &fakeTile{name: f.Name}
			tiles = append(tiles, tile)
			return tile
		})
	}
	if r.Len() != 3 || r.Get(2).File.Name != "b.png" {
		t.Fatalf("registry = %d entries", r.Len())
	}

	for _, e := range r.Entries() {
		r.AttachPreview(e, media.Blob{MediaType: "image/png", Data: []byte("p")})
	}
	r.MarkConverted(r.Get(1), media.Blob{MediaType: "image/jpeg", Data: []byte("o")}, "a.jpg")
	r.MarkFailed(r.Get(2))

	if n := len(r.Pending()); n != 1 {
		t.Errorf("pending = %d, want 1", n)
	}
	if n := len(r.Converted()); n != 1 {
		t.Errorf("converted = %d, want 1", n)
	}
	if r.FailedCount() != 1 {
		t.Errorf("failed = %d, want 1", r.FailedCount())
	}
	if tr.Live() != 4 {
		t.Errorf("live = %d, want 4", tr.Live())
	}

	// A second conversion of the same entry replaces its output.
	r.MarkConverted(r.Get(1), media.Blob{MediaType: "image/jpeg", Data: []byte("o2")}, "a.jpg")
	if tr.Live() != 4 {
		t.Errorf("live after re-convert = %d, want 4", tr.Live())
	}

	r.SetRunning(true)
	if err := r.Remove(1); !errors.Is(err, ErrConversionRunning) {
		t.Errorf("Remove while running = %v", err)
	}
	if err := r.Clear(); !errors.Is(err, ErrConversionRunning) {
		t.Errorf("Clear while running = %v", err)
	}
	r.SetRunning(false)

	if err := r.Remove(1); err != nil {
		t.Fatal(err)
	}
	if !tiles[0].disposed || tr.Live() != 2 {
		t.Errorf("Remove did not dispose: live = %d", tr.Live())
	}
	if err := r.Clear(); err != nil {
		t.Fatal(err)
	}
	if tr.Live() != 0 || r.Len() != 0 {
		t.Errorf("Clear left live = %d, len = %d", tr.Live(), r.Len())
	}

	next := r.Add(files[0], nil)
	if next.ID != 4 {
		t.Errorf("id after clear = %d, want 4", next.ID)
	}
}

func TestRegistry_ResetOutputs(t *testing.T) {
	tr := resource.NewTracker()
	r := NewRegistry(tr)
	a := r.Add(pngs("a.png")[0], nil)
	b := r.Add(pngs("b.png")[0], nil)
	r.MarkConverted(a, media.Blob{Data: []byte("o")}, "a.jpg")
	r.MarkFailed(b)

	r.ResetOutputs()
	if !a.Pending() || !b.Pending() || a.OutputName != "" {
		t.Errorf("entries not reset: %+v %+v", a, b)
	}
	if tr.Live() != 0 {
		t.Errorf("live = %d, want 0", tr.Live())
	}
}
