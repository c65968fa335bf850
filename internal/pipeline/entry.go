package pipeline

import (
	"github.com/backmassage/pixshift/internal/media"
	"github.com/backmassage/pixshift/internal/resource"
)

// PreviewState tracks the preview stage for one entry.
type PreviewState int

const (
	PreviewNone PreviewState = iota
	PreviewReady
	PreviewUnavailable
)

// Status is the conversion stage of an entry.
type Status int

const (
	StatusPending Status = iota
	StatusConverted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusConverted:
		return "converted"
	case StatusFailed:
		return "failed"
	}
	return "pending"
}

// Entry is one selected file moving through the pipeline. Converted and
// Failed are never both true.
type Entry struct {
	ID           int
	File         media.File
	Preview      resource.Handle
	PreviewState PreviewState
	Output       resource.Handle
	OutputName   string
	Converted    bool
	Failed       bool

	tile Tile
}

// Pending reports whether the entry still awaits conversion.
func (e *Entry) Pending() bool { return !e.Converted && !e.Failed }

// Status returns the entry's conversion stage.
func (e *Entry) Status() Status {
	switch {
	case e.Converted:
		return StatusConverted
	case e.Failed:
		return StatusFailed
	}
	return StatusPending
}

// Downloadable reports whether the entry has a converted output to save.
func (e *Entry) Downloadable() bool {
	return e.Converted && e.Output.Valid()
}
