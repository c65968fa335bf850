package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/backmassage/pixshift/internal/codec"
	"github.com/backmassage/pixshift/internal/config"
	"github.com/backmassage/pixshift/internal/formats"
	"github.com/backmassage/pixshift/internal/media"
	"github.com/backmassage/pixshift/internal/naming"
	"github.com/backmassage/pixshift/internal/resource"
)

// --- Engine double ---

type fakeEngine struct {
	mu          sync.Mutex
	dims        map[string]media.Dimensions
	unreadable  map[string]bool // fails Measure
	noPreview   map[string]bool
	failConvert map[string]bool
	unencodable map[string]bool // format ids that fail the probe

	measureHook func(ctx context.Context, f media.File) error
	previewHook func(f media.File)
	convertHook func(ctx context.Context, f media.File)

	measured  []string
	previewed []string
	converted []string
	probes    int
	targets   []codec.Target
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		dims:        map[string]media.Dimensions{},
		unreadable:  map[string]bool{},
		noPreview:   map[string]bool{},
		failConvert: map[string]bool{},
		unencodable: map[string]bool{},
	}
}

func (e *fakeEngine) Measure(ctx context.Context, f media.File) (media.Dimensions, error) {
	e.mu.Lock()
	e.measured = append(e.measured, f.Name)
	hook := e.measureHook
	d, ok := e.dims[f.Name]
	bad := e.unreadable[f.Name]
	e.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, f); err != nil {
			return media.Dimensions{}, err
		}
	}
	if bad {
		return media.Dimensions{}, &codec.DecodeError{Name: f.Name, Err: errors.New("corrupt")}
	}
	if !ok {
		d = media.Dimensions{Width: 100, Height: 100}
	}
	return d, nil
}

func (e *fakeEngine) DecodeToPreview(ctx context.Context, f media.File, maxEdge int) (media.Blob, error) {
	e.mu.Lock()
	e.previewed = append(e.previewed, f.Name)
	hook := e.previewHook
	bad := e.noPreview[f.Name]
	e.mu.Unlock()

	if hook != nil {
		hook(f)
	}
	if bad {
		return media.Blob{}, &codec.DecodeError{Name: f.Name, Err: errors.New("corrupt")}
	}
	return media.Blob{MediaType: "image/png", Data: []byte("preview:" + f.Name)}, nil
}

func (e *fakeEngine) Convert(ctx context.Context, f media.File, t codec.Target) (codec.Result, error) {
	e.mu.Lock()
	e.converted = append(e.converted, f.Name)
	e.targets = append(e.targets, t)
	hook := e.convertHook
	bad := e.failConvert[f.Name]
	e.mu.Unlock()

	if hook != nil {
		hook(ctx, f)
	}
	if bad {
		return codec.Result{}, &codec.DecodeError{Name: f.Name, Err: errors.New("corrupt")}
	}
	return codec.Result{
		OutputName: naming.OutputName(f.Name, t.Format.Extension),
		Blob:       media.Blob{MediaType: t.Format.MimeType, Data: []byte("out:" + f.Name)},
	}, nil
}

func (e *fakeEngine) ProbeFormatSupport(ctx context.Context, f formats.OutputFormat) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.probes++
	return !e.unencodable[f.ID]
}

func (e *fakeEngine) convertCalls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.converted...)
}

func (e *fakeEngine) measureCalls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.measured...)
}

// --- View doubles ---

type fakeView struct {
	mu        sync.Mutex
	statuses  []string
	tiles     map[int]*fakeTile
	tileNames []string
	progress  [][2]int
}

func newFakeView() *fakeView { return &fakeView{tiles: map[int]*fakeTile{}} }

func (v *fakeView) NewTile(id int, name string) Tile {
	v.mu.Lock()
	defer v.mu.Unlock()
	t := &fakeTile{name: name}
	v.tiles[id] = t
	v.tileNames = append(v.tileNames, name)
	return t
}

func (v *fakeView) SetStatus(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.statuses = append(v.statuses, text)
}

func (v *fakeView) SetProgress(done, total int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.progress = append(v.progress, [2]int{done, total})
}

func (v *fakeView) tile(t *testing.T, id int) *fakeTile {
	t.Helper()
	v.mu.Lock()
	defer v.mu.Unlock()
	tile, ok := v.tiles[id]
	if !ok {
		t.Fatalf("no tile for entry %d", id)
	}
	return tile
}

func (v *fakeView) names() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.tileNames...)
}

type fakeTile struct {
	name           string
	preview        resource.Handle
	fallback       string
	processing     bool
	download       func()
	removeDisabled bool
	disposed       bool
}

func (t *fakeTile) SetPreview(h resource.Handle, _ string) { t.preview = h }
func (t *fakeTile) SetFallback(text string)               { t.fallback = text }
func (t *fakeTile) SetProcessing(on bool)                 { t.processing = on }
func (t *fakeTile) ShowDownload(action func())            { t.download = action }
func (t *fakeTile) HideDownload()                         { t.download = nil }
func (t *fakeTile) SetRemoveDisabled(disabled bool)       { t.removeDisabled = disabled }
func (t *fakeTile) Dispose()                              { t.disposed = true }

type fakeDownloader struct {
	mu    sync.Mutex
	names []string
	at    []time.Time
}

func (d *fakeDownloader) Trigger(_ context.Context, h resource.Handle, name string, blob media.Blob) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !h.Valid() || len(blob.Data) == 0 {
		return errors.New("invalid download")
	}
	d.names = append(d.names, name)
	d.at = append(d.at, time.Now())
	return nil
}

// --- Helpers ---

type harness struct {
	s    *Session
	eng  *fakeEngine
	view *fakeView
	dl   *fakeDownloader
	cfg  *config.Config
}

func newHarness(t *testing.T, eng *fakeEngine, mutate func(*config.Config)) *harness {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DownloadInterval = time.Millisecond
	if mutate != nil {
		mutate(&cfg)
	}
	if eng == nil {
		eng = newFakeEngine()
	}
	view := newFakeView()
	dl := &fakeDownloader{}
	s, err := NewSession(context.Background(), Options{
		Config:     &cfg,
		Engine:     eng,
		View:       view,
		Downloader: dl,
	})
	if err != nil {
		t.Fatal(err)
	}
	return &harness{s: s, eng: eng, view: view, dl: dl, cfg: &cfg}
}

func pngs(names ...string) []media.File {
	files := make([]media.File, len(names))
	for i, n := range names {
		files[i] = media.FromBytes(n, "image/png", []byte("data:"+n))
	}
	return files
}

func textFiles(names ...string) []media.File {
	files := make([]media.File, len(names))
	for i, n := range names {
		files[i] = media.FromBytes(n, "text/plain", []byte("text"))
	}
	return files
}

func entryNames(snap Snapshot) []string {
	names := make([]string, len(snap.Entries))
	for i, e := range snap.Entries {
		names[i] = e.File.Name
	}
	return names
}

func sliceEqual(a, b []string) bool {
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
