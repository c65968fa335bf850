package pipeline

import (
	"errors"
	"fmt"

	"github.com/backmassage/pixshift/internal/display"
)

var (
	// ErrNoFilesSelected is returned when a selection event carries no files.
	ErrNoFilesSelected = errors.New("no files selected")
	// ErrNoSupportedFiles is returned when every file of a selection was skipped.
	ErrNoSupportedFiles = errors.New("no supported files")
	// ErrNoOutputFormat is returned when no output format can be offered.
	ErrNoOutputFormat = errors.New("no output format available")
	// ErrNothingToConvert is returned when Convert finds no pending entries.
	ErrNothingToConvert = errors.New("nothing to convert")
	// ErrConversionRunning is returned by actions refused while a run is active.
	ErrConversionRunning = errors.New("conversion in progress")
	// ErrCancelled marks work abandoned because its token went stale. It is
	// never surfaced as a status message.
	ErrCancelled = errors.New("cancelled")
	// ErrUnknownEntry is returned for an entry id that is not in the registry.
	ErrUnknownEntry = errors.New("unknown entry")
	// ErrNotConverted is returned when downloading an entry without output.
	ErrNotConverted = errors.New("entry has no converted output")
	// ErrDownloadDisabled is returned when the requested download mode is off.
	ErrDownloadDisabled = errors.New("download mode disabled")
	// ErrUnknownFormat is returned by SetFormat for ids not currently offered.
	ErrUnknownFormat = errors.New("unknown output format")
)

// LimitKind names the selection limit that was exceeded.
type LimitKind int

const (
	LimitCount LimitKind = iota
	LimitBytes
	LimitMegapixels
)

func (k LimitKind) String() string {
	switch k {
	case LimitCount:
		return "count"
	case LimitBytes:
		return "bytes"
	case LimitMegapixels:
		return "megapixels"
	}
	return "unknown"
}

// LimitError rejects a whole selection. Actual is the total that tripped the
// limit (for megapixels, the running total at the file that tripped it).
type LimitError struct {
	Kind   LimitKind
	Limit  float64
	Actual float64
}

func (e *LimitError) Error() string {
	switch e.Kind {
	case LimitCount:
		return fmt.Sprintf("selection has %d files (limit %d)", int(e.Actual), int(e.Limit))
	case LimitBytes:
		return fmt.Sprintf("selection is %d bytes (limit %d)", int64(e.Actual), int64(e.Limit))
	default:
		return fmt.Sprintf("selection is %.1f megapixels (limit %.1f)", e.Actual, e.Limit)
	}
}

// Message is the user-facing explanation of the rejection.
func (e *LimitError) Message() string {
	switch e.Kind {
	case LimitCount:
		return fmt.Sprintf("Too many files selected: %d (limit: %d).", int(e.Actual), int(e.Limit))
	case LimitBytes:
		return fmt.Sprintf("Selection is too large: %s (limit: %s).",
			display.FormatBytes(int64(e.Actual)), display.FormatBytes(int64(e.Limit)))
	default:
		return fmt.Sprintf("Selection exceeds the pixel budget: %s (limit: %s).",
			display.FormatMegapixels(e.Actual), display.FormatMegapixels(e.Limit))
	}
}

// MeasurementError rejects a selection because one file could not be
// measured.
type MeasurementError struct {
	Name string
	Err  error
}

func (e *MeasurementError) Error() string {
	return fmt.Sprintf("measure %s: %v", e.Name, e.Err)
}

func (e *MeasurementError) Unwrap() error { return e.Err }

// Message is the user-facing explanation of the rejection.
func (e *MeasurementError) Message() string {
	return fmt.Sprintf("Could not read image dimensions for %s.", e.Name)
}
