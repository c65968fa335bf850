package pipeline

import (
	"context"

	"github.com/backmassage/pixshift/internal/codec"
	"github.com/backmassage/pixshift/internal/formats"
	"github.com/backmassage/pixshift/internal/media"
	"github.com/backmassage/pixshift/internal/resource"
)

// Engine is the decode/encode collaborator. *codec.Engine implements it.
type Engine interface {
	Measure(ctx context.Context, f media.File) (media.Dimensions, error)
	DecodeToPreview(ctx context.Context, f media.File, maxEdge int) (media.Blob, error)
	Convert(ctx context.Context, f media.File, t codec.Target) (codec.Result, error)
	ProbeFormatSupport(ctx context.Context, f formats.OutputFormat) bool
}

// View is the UI collaborator. Its methods are called with the session lock
// held and must not call back into the session synchronously.
type View interface {
	NewTile(entryID int, name string) Tile
	SetStatus(text string)
}

// ProgressView is optionally implemented by a View to show run progress.
type ProgressView interface {
	SetProgress(done, total int)
}

// Tile is the per-entry UI capability.
type Tile interface {
	SetPreview(h resource.Handle, name string)
	SetFallback(text string)
	SetProcessing(on bool)
	ShowDownload(action func())
	HideDownload()
	SetRemoveDisabled(disabled bool)
	Dispose()
}

// Downloader saves a converted blob under name.
type Downloader interface {
	Trigger(ctx context.Context, h resource.Handle, name string, blob media.Blob) error
}

// Logger is the leveled logger used for diagnostics. *logging.Logger
// implements it.
type Logger interface {
	Info(format string, args ...interface{})
	Success(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	Debug(verbose bool, format string, args ...interface{})
}

type nopView struct{}

func (nopView) NewTile(int, string) Tile { return nopTile{} }
func (nopView) SetStatus(string)         {}

type nopTile struct{}

func (nopTile) SetPreview(resource.Handle, string) {}
func (nopTile) SetFallback(string)                 {}
func (nopTile) SetProcessing(bool)                 {}
func (nopTile) ShowDownload(func())                {}
func (nopTile) HideDownload()                      {}
func (nopTile) SetRemoveDisabled(bool)             {}
func (nopTile) Dispose()                           {}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})        {}
func (nopLogger) Success(string, ...interface{})     {}
func (nopLogger) Warn(string, ...interface{})        {}
func (nopLogger) Error(string, ...interface{})       {}
func (nopLogger) Debug(bool, string, ...interface{}) {}
