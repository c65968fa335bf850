package console

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/backmassage/pixshift/internal/codec"
	"github.com/backmassage/pixshift/internal/config"
	"github.com/backmassage/pixshift/internal/logging"
	"github.com/backmassage/pixshift/internal/media"
	"github.com/backmassage/pixshift/internal/pipeline"
	"github.com/backmassage/pixshift/internal/resource"
)

func newTestLogger(t *testing.T) (*logging.Logger, *bytes.Buffer) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorNever
	l, err := logging.NewLogger(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	l.SetOutput(&out, &out)
	return l, &out
}

func pngFile(t *testing.T, name string, w, h int) media.File {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 80, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return media.FromBytes(name, "image/png", buf.Bytes())
}

// --- View tests ---

func TestView_StatusLoggedOncePerChange(t *testing.T) {
	log, out := newTestLogger(t)
	v := NewView(ViewOptions{Log: log})
	v.SetStatus("Ready.")
	v.SetStatus("Ready.")
	v.SetStatus("")
	v.SetStatus("Done.")

	if n := strings.Count(out.String(), "Ready."); n != 1 {
		t.Errorf("status logged %d times, want 1:\n%s", n, out.String())
	}
	if v.Status() != "Done." {
		t.Errorf("Status() = %q", v.Status())
	}
}

func TestView_Progress(t *testing.T) {
	log, _ := newTestLogger(t)
	var bars bytes.Buffer
	v := NewView(ViewOptions{Log: log, Out: &bars})
	v.SetProgress(0, 2)
	v.SetProgress(1, 2)
	v.SetProgress(1, 2)
	v.SetProgress(2, 2)

	lines := strings.Split(strings.TrimSpace(bars.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d progress lines, want 3:\n%s", len(lines), bars.String())
	}
	if !strings.HasSuffix(lines[2], "2/2") {
		t.Errorf("last line = %q", lines[2])
	}
}

func TestTile_Lifecycle(t *testing.T) {
	log, out := newTestLogger(t)
	tr := resource.NewTracker()
	dir := t.TempDir()
	v := NewView(ViewOptions{Log: log, Tracker: tr, PreviewDir: dir})

	tile := v.NewTile(1, "holiday.jpg").(*Tile)
	h := tr.Acquire(media.Blob{MediaType: "image/png", Data: []byte("png")})
	tile.SetPreview(h, "holiday.jpg")
	v.Flush()
	if data, err := os.ReadFile(filepath.Join(dir, "holiday.preview.png")); err != nil || string(data) != "png" {
		t.Errorf("preview file = %q, %v", data, err)
	}

	tile.SetFallback("Conversion failed")
	if !strings.Contains(out.String(), "holiday.jpg: Conversion failed") {
		t.Errorf("fallback not logged:\n%s", out.String())
	}

	called := false
	tile.ShowDownload(func() { called = true })
	actions := v.DownloadActions()
	if len(actions) != 1 {
		t.Fatalf("actions = %d, want 1", len(actions))
	}
	actions[0]()
	if !called {
		t.Error("download action not wired")
	}

	tile.Dispose()
	if v.Tiles() != 0 || len(v.DownloadActions()) != 0 {
		t.Errorf("disposed tile still registered")
	}
}

func TestTile_PreviewWrittenOutsideViewLock(t *testing.T) {
	log, _ := newTestLogger(t)
	tr := resource.NewTracker()
	dir := t.TempDir()
	v := NewView(ViewOptions{Log: log, Tracker: tr, PreviewDir: dir})
	tile := v.NewTile(1, "holiday.jpg").(*Tile)

	// Stall the writer; SetPreview and the rest of the view must not wait on it.
	v.writeMu.Lock()
	done := make(chan struct{})
	go func() {
		tile.SetPreview(tr.Acquire(media.Blob{Data: []byte("first")}), "holiday.jpg")
		tile.SetPreview(tr.Acquire(media.Blob{Data: []byte("second")}), "holiday.jpg")
		v.SetStatus("still responsive")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		v.writeMu.Unlock()
		t.Fatal("SetPreview blocked on a pending file write")
	}
	path := filepath.Join(dir, "holiday.preview.png")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("preview written before the writer ran: %v", err)
	}
	v.writeMu.Unlock()
	v.Flush()

	data, err := os.ReadFile(path)
	if err != nil || string(data) != "second" {
		t.Errorf("preview file = %q, %v; want newest preview", data, err)
	}
	if v.Status() != "still responsive" {
		t.Errorf("status = %q", v.Status())
	}
}

func TestTile_PreviewSkippedAfterDispose(t *testing.T) {
	log, _ := newTestLogger(t)
	tr := resource.NewTracker()
	dir := t.TempDir()
	v := NewView(ViewOptions{Log: log, Tracker: tr, PreviewDir: dir})
	tile := v.NewTile(1, "gone.png").(*Tile)

	v.writeMu.Lock()
	tile.SetPreview(tr.Acquire(media.Blob{Data: []byte("png")}), "gone.png")
	tile.Dispose()
	v.writeMu.Unlock()
	v.Flush()

	if _, err := os.Stat(filepath.Join(dir, "gone.preview.png")); !os.IsNotExist(err) {
		t.Errorf("preview for disposed tile written: %v", err)
	}
}

// --- DiskWriter tests ---

func TestDiskWriter_CollisionsAndReuse(t *testing.T) {
	log, _ := newTestLogger(t)
	dir := t.TempDir()
	w := NewDiskWriter(dir, false, log)
	tr := resource.NewTracker()
	ctx := context.Background()

	first := tr.Acquire(media.Blob{Data: []byte("one")})
	second := tr.Acquire(media.Blob{Data: []byte("two")})
	if err := w.Trigger(ctx, first, "photo.webp", media.Blob{Data: []byte("one")}); err != nil {
		t.Fatal(err)
	}
	if err := w.Trigger(ctx, second, "photo.webp", media.Blob{Data: []byte("two")}); err != nil {
		t.Fatal(err)
	}
	// Downloading the same output again reuses its path.
	if err := w.Trigger(ctx, first, "photo.webp", media.Blob{Data: []byte("one")}); err != nil {
		t.Fatal(err)
	}

	want := []string{
		filepath.Join(dir, "photo.webp"),
		filepath.Join(dir, "photo (1).webp"),
		filepath.Join(dir, "photo.webp"),
	}
	got := w.Written()
	if len(got) != len(want) {
		t.Fatalf("written = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("written[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if data, _ := os.ReadFile(want[1]); string(data) != "two" {
		t.Errorf("second output content = %q", data)
	}
}

func TestDiskWriter_ExistingFiles(t *testing.T) {
	tests := []struct {
		name      string
		overwrite bool
		wantData  string
		wantSkip  int
	}{
		{"skip existing", false, "old", 1},
		{"force overwrite", true, "new", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, _ := newTestLogger(t)
			dir := t.TempDir()
			path := filepath.Join(dir, "a.png")
			if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
				t.Fatal(err)
			}
			w := NewDiskWriter(dir, tt.overwrite, log)
			h := resource.NewTracker().Acquire(media.Blob{Data: []byte("new")})
			if err := w.Trigger(context.Background(), h, "a.png", media.Blob{Data: []byte("new")}); err != nil {
				t.Fatal(err)
			}
			if data, _ := os.ReadFile(path); string(data) != tt.wantData {
				t.Errorf("content = %q, want %q", data, tt.wantData)
			}
			if len(w.Skipped()) != tt.wantSkip {
				t.Errorf("skipped = %v", w.Skipped())
			}
		})
	}
}

func TestDiskWriter_FlattensNames(t *testing.T) {
	log, _ := newTestLogger(t)
	dir := t.TempDir()
	w := NewDiskWriter(dir, false, log)
	h := resource.NewTracker().Acquire(media.Blob{Data: []byte("x")})
	if err := w.Trigger(context.Background(), h, "../escape.png", media.Blob{Data: []byte("x")}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".._escape.png")); err != nil {
		t.Errorf("flattened output missing: %v", err)
	}
}

// --- End to end ---

func TestSession_EndToEnd(t *testing.T) {
	log, _ := newTestLogger(t)
	outDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Format = "jpeg"
	cfg.DownloadInterval = time.Millisecond
	cfg.PreviewMaxEdge = 16
	// The corrupt file must reach conversion, so skip the measuring pass.
	cfg.Features.SelectionLimits = false

	tracker := resource.NewTracker()
	view := NewView(ViewOptions{Log: log, Tracker: tracker})
	writer := NewDiskWriter(outDir, false, log)
	ctx := context.Background()
	s, err := pipeline.NewSession(ctx, pipeline.Options{
		Config:     &cfg,
		Engine:     codec.NewEngine(),
		View:       view,
		Downloader: writer,
		Tracker:    tracker,
		Log:        log,
	})
	if err != nil {
		t.Fatal(err)
	}

	files := []media.File{
		pngFile(t, "wide.png", 64, 32),
		pngFile(t, "tall.png", 20, 40),
		media.FromBytes("broken.png", "image/png", []byte("not a png")),
		media.FromBytes("notes.txt", "text/plain", []byte("hello")),
	}
	if err := s.Select(ctx, files); err != nil {
		t.Fatalf("Select: %v", err)
	}
	stats, err := s.Convert(ctx)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if stats.Converted != 2 || stats.Failed != 1 || stats.Skipped != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if err := s.Primary(ctx); err != nil {
		t.Fatalf("Primary: %v", err)
	}
	for _, name := range []string{"wide.jpg", "tall.jpg"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
	if view.Status() != "Download started for 2 files." {
		t.Errorf("status = %q", view.Status())
	}
	s.Clear()
	if tracker.Live() != 0 {
		t.Errorf("live handles after Clear = %d", tracker.Live())
	}
}
