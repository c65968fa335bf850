// Package console is the line-oriented front end of the converter: it
// renders session status and progress through the logger, stands in for
// preview tiles, and saves downloads to the output directory.
package console

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/backmassage/pixshift/internal/display"
	"github.com/backmassage/pixshift/internal/pipeline"
	"github.com/backmassage/pixshift/internal/resource"
)

// View implements pipeline.View and pipeline.ProgressView. Its methods are
// called with the session lock held and never call back into the session.
// Preview files are written in the background; Flush waits for them.
type View struct {
	mu sync.Mutex

	// writeMu serializes preview writes. It is taken before mu, never after.
	writeMu    sync.Mutex
	writes     sync.WaitGroup
	previewGen map[string]uint64
	gen        uint64

	log     pipeline.Logger
	out     io.Writer
	bar     *display.ProgressBar
	tracker *resource.Tracker
	verbose bool

	previewDir string
	tiles      map[int]*Tile
	status     string
	lastDone   int
}

// ViewOptions configures a View. Log is required. Out receives progress
// bars; a nil Out disables them. PreviewDir, when set, receives a PNG per
// generated preview.
type ViewOptions struct {
	Log        pipeline.Logger
	Out        io.Writer
	Tracker    *resource.Tracker
	PreviewDir string
	Verbose    bool
}

// NewView builds a console view.
func NewView(opts ViewOptions) *View {
	v := &View{
		log:        opts.Log,
		out:        opts.Out,
		tracker:    opts.Tracker,
		previewDir: opts.PreviewDir,
		verbose:    opts.Verbose,
		tiles:      make(map[int]*Tile),
		previewGen: make(map[string]uint64),
		lastDone:   -1,
	}
	if v.out != nil {
		v.bar = display.NewProgressBar(40)
	}
	return v
}

// NewTile registers a tile for entry id.
func (v *View) NewTile(id int, name string) pipeline.Tile {
	v.mu.Lock()
	defer v.mu.Unlock()
	t := &Tile{view: v, id: id, name: name}
	v.tiles[id] = t
	return t
}

// SetStatus logs text when it changes. Empty text clears the line silently.
func (v *View) SetStatus(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if text == v.status {
		return
	}
	v.status = text
	if text == "" || v.log == nil {
		return
	}
	v.log.Info("%s", text)
}

// Status returns the last status line.
func (v *View) Status() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

// SetProgress prints a bar each time the done count advances.
func (v *View) SetProgress(done, total int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.bar == nil || done == v.lastDone {
		return
	}
	v.lastDone = done
	fmt.Fprintln(v.out, v.bar.Render(done, total))
}

// DownloadActions returns the download actions currently offered by tiles,
// in entry order.
func (v *View) DownloadActions() []func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	ids := make([]int, 0, len(v.tiles))
	for id, t := range v.tiles {
		if t.download != nil {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	actions := make([]func(), len(ids))
	for i, id := range ids {
		actions[i] = v.tiles[id].download
	}
	return actions
}

// Tiles returns the number of live tiles.
func (v *View) Tiles() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.tiles)
}

// Flush blocks until every queued preview write has finished.
func (v *View) Flush() {
	v.writes.Wait()
}

func (v *View) tile(id int) *Tile {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tiles[id]
}

func (v *View) drop(id int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.tiles, id)
}
