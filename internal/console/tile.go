package console

import (
	"os"
	"path/filepath"

	"github.com/backmassage/pixshift/internal/naming"
	"github.com/backmassage/pixshift/internal/resource"
)

// Tile is the console stand-in for one entry's preview card. Download
// actions and flags are guarded by the owning view's mutex.
type Tile struct {
	view *View
	id   int
	name string

	previewPath    string
	fallback       string
	processing     bool
	removeDisabled bool
	download       func()
	disposed       bool
}

// SetPreview queues the preview image for writing to the preview directory,
// if one is configured. Only the newest preview per path is written.
func (t *Tile) SetPreview(h resource.Handle, name string) {
	v := t.view
	if v.previewDir == "" || v.tracker == nil {
		return
	}
	blob, ok := v.tracker.Resolve(h)
	if !ok {
		return
	}
	path := naming.OutputPath(v.previewDir, naming.OutputName(name, "preview.png"))

	v.mu.Lock()
	v.gen++
	gen := v.gen
	v.previewGen[path] = gen
	v.mu.Unlock()

	v.writes.Add(1)
	go func() {
		defer v.writes.Done()
		t.writePreview(path, gen, blob.Data)
	}()
}

func (t *Tile) writePreview(path string, gen uint64, data []byte) {
	v := t.view
	v.writeMu.Lock()
	defer v.writeMu.Unlock()

	v.mu.Lock()
	skip := t.disposed || v.previewGen[path] != gen
	v.mu.Unlock()
	if skip {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		v.log.Warn("Preview for %s not saved: %v", t.name, err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		v.log.Warn("Preview for %s not saved: %v", t.name, err)
		return
	}
	v.mu.Lock()
	t.previewPath = path
	v.mu.Unlock()
	v.log.Debug(v.verbose, "Preview %s", path)
}

// SetFallback reports text in place of the preview.
func (t *Tile) SetFallback(text string) {
	t.view.mu.Lock()
	t.fallback = text
	t.view.mu.Unlock()
	t.view.log.Warn("%s: %s", t.name, text)
}

// SetProcessing marks the tile busy.
func (t *Tile) SetProcessing(on bool) {
	t.view.mu.Lock()
	t.processing = on
	t.view.mu.Unlock()
	if on {
		t.view.log.Debug(t.view.verbose, "Processing %s", t.name)
	}
}

// ShowDownload offers action as the tile's download control.
func (t *Tile) ShowDownload(action func()) {
	t.view.mu.Lock()
	defer t.view.mu.Unlock()
	t.download = action
}

// HideDownload withdraws the download control.
func (t *Tile) HideDownload() {
	t.view.mu.Lock()
	defer t.view.mu.Unlock()
	t.download = nil
}

// SetRemoveDisabled toggles the remove control.
func (t *Tile) SetRemoveDisabled(disabled bool) {
	t.view.mu.Lock()
	defer t.view.mu.Unlock()
	t.removeDisabled = disabled
}

// Dispose detaches the tile from its view.
func (t *Tile) Dispose() {
	t.view.mu.Lock()
	t.disposed = true
	t.download = nil
	t.view.mu.Unlock()
	t.view.drop(t.id)
}
