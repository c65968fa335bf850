package console

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/backmassage/pixshift/internal/media"
	"github.com/backmassage/pixshift/internal/naming"
	"github.com/backmassage/pixshift/internal/pipeline"
	"github.com/backmassage/pixshift/internal/resource"
)

// DiskWriter implements pipeline.Downloader by saving each output into a
// directory. Two outputs of one run that map to the same name get a
// " (N)" suffix; a file left by an earlier run is kept unless overwrite is
// set.
type DiskWriter struct {
	dir       string
	overwrite bool
	log       pipeline.Logger
	resolver  *naming.CollisionResolver

	mu      sync.Mutex
	written []string
	skipped []string
	bytes   int64
}

// NewDiskWriter returns a writer saving into dir.
func NewDiskWriter(dir string, overwrite bool, log pipeline.Logger) *DiskWriter {
	return &DiskWriter{
		dir:       dir,
		overwrite: overwrite,
		log:       log,
		resolver:  naming.NewCollisionResolver(),
	}
}

// Trigger writes blob under name. The handle identifies the output, so a
// repeated download of the same output reuses its path.
func (w *DiskWriter) Trigger(ctx context.Context, h resource.Handle, name string, blob media.Blob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	requested := naming.OutputPath(w.dir, name)

	if !w.overwrite && fileExists(requested) && !w.claimed(requested) {
		w.log.Warn("Skipping %s: already exists (use --force to overwrite)", requested)
		w.mu.Lock()
		w.skipped = append(w.skipped, requested)
		w.mu.Unlock()
		return nil
	}

	path := w.resolver.Resolve(string(h), requested, w.takenBySibling)
	if err := writeAtomic(path, blob.Data); err != nil {
		w.resolver.Release(string(h))
		return err
	}

	w.mu.Lock()
	w.written = append(w.written, path)
	w.bytes += blob.Size()
	w.mu.Unlock()
	w.log.Success("Saved %s", path)
	return nil
}

// Written returns the paths saved so far, in order.
func (w *DiskWriter) Written() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.written...)
}

// Skipped returns the paths left untouched because they already existed.
func (w *DiskWriter) Skipped() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.skipped...)
}

// Bytes returns the total size written.
func (w *DiskWriter) Bytes() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.bytes
}

// claimed reports whether path was written by this writer.
func (w *DiskWriter) claimed(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range w.written {
		if p == path {
			return true
		}
	}
	return false
}

// takenBySibling treats files on disk as occupied only when overwriting is
// off; with overwrite on, stale files from earlier runs are replaced.
func (w *DiskWriter) takenBySibling(path string) bool {
	if w.overwrite {
		return false
	}
	return fileExists(path) && !w.claimed(path)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// writeAtomic writes data to a temp file next to path and renames it into
// place.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".pixshift-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
