package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/backmassage/pixshift/internal/config"
	"github.com/backmassage/pixshift/internal/formats"
	"github.com/backmassage/pixshift/internal/media"
	"github.com/backmassage/pixshift/internal/resource"
)

// Mode is the primary action of the session.
type Mode string

const (
	ModeConvert  Mode = "convert"
	ModeDownload Mode = "download"
)

// RunState is the state of the most recent conversion run.
type RunState string

const (
	RunIdle      RunState = "idle"
	RunRunning   RunState = "running"
	RunCompleted RunState = "completed"
	RunCancelled RunState = "cancelled"
)

// Options wires a session to its collaborators. Engine and Config are
// required; the rest default to no-ops (Tracker to a fresh tracker).
type Options struct {
	Config     *config.Config
	Engine     Engine
	View       View
	Downloader Downloader
	Tracker    *resource.Tracker
	Log        Logger
}

// Session is the state of one converter instance: the current selection, the
// conversion run and the derived UI state. All exported methods are safe for
// concurrent use. Blocking actions (Select, Convert, DownloadAll) release the
// lock while the engine works, so Cancel, Clear and Snapshot stay responsive.
type Session struct {
	mu sync.Mutex

	cfg        *config.Config
	engine     *surface
	view       View
	progress   ProgressView
	downloader Downloader
	log        Logger

	tracker    *resource.Tracker
	registry   *Registry
	negotiator *formats.Negotiator
	validator  *Validator

	selection  Sequence
	conversion Sequence

	run     RunState
	mode    Mode
	format  string
	skipped int
	status  string
}

// NewSession builds a session and probes which output formats the engine
// can encode. ctx bounds the probe only.
func NewSession(ctx context.Context, opts Options) (*Session, error) {
	if opts.Config == nil || opts.Engine == nil {
		return nil, errors.New("pipeline: config and engine are required")
	}
	s := &Session{
		cfg:        opts.Config,
		engine:     &surface{eng: opts.Engine},
		view:       opts.View,
		downloader: opts.Downloader,
		log:        opts.Log,
		tracker:    opts.Tracker,
		run:        RunIdle,
		mode:       ModeConvert,
		format:     opts.Config.Format,
	}
	if s.view == nil {
		s.view = nopView{}
	}
	if pv, ok := s.view.(ProgressView); ok {
		s.progress = pv
	}
	if s.log == nil {
		s.log = nopLogger{}
	}
	if s.tracker == nil {
		s.tracker = resource.NewTracker()
	}
	s.registry = NewRegistry(s.tracker)
	s.validator = NewValidator(s.cfg.Limits, s.cfg.Features.SelectionLimits, s.cfg.SupportedInputExtensions, s.engine)
	s.negotiator = formats.NewNegotiator(s.engine, s.cfg.OutputFormats)

	supported := s.negotiator.Supported(ctx)
	if s.negotiator.FellBack() {
		s.log.Warn("No output format probed as encodable; falling back to %s", supported[0].Label)
	}

	s.mu.Lock()
	s.syncFormat()
	s.mu.Unlock()
	return s, nil
}

// Tracker returns the resource tracker owning every preview and output handle.
func (s *Session) Tracker() *resource.Tracker { return s.tracker }

// Select replaces the current selection with files: it cancels an active
// run, disposes the old entries, validates the new batch, creates entries
// and generates previews. It returns when previews are done or the
// selection has been superseded (ErrCancelled).
func (s *Session) Select(ctx context.Context, files []media.File) error {
	s.mu.Lock()
	if len(files) == 0 {
		s.setStatus("No files selected.")
		s.mu.Unlock()
		return ErrNoFilesSelected
	}
	if s.registry.Running() && s.cfg.Features.LockInputDuringConversion {
		s.mu.Unlock()
		return ErrConversionRunning
	}

	tok := s.selection.Next(ctx)
	s.abortRunLocked()
	s.skipped = 0
	s.setMode(ModeConvert)
	_ = s.registry.Clear()
	s.mu.Unlock()

	res, err := s.validator.Validate(tok, files)

	s.mu.Lock()
	if !tok.IsCurrent() {
		s.mu.Unlock()
		return ErrCancelled
	}
	s.skipped = res.Skipped
	if err != nil {
		s.setStatus(rejectionMessage(err, res.Skipped))
		s.mu.Unlock()
		s.log.Warn("Selection rejected: %v", err)
		return err
	}

	for _, f := range res.Supported {
		s.registry.Add(f, func(id int) Tile { return s.newTile(id, f.Name) })
	}
	s.syncFormat()
	s.setStatus(fmt.Sprintf("Preparing previews for %d file(s)...", s.registry.Len()))
	s.mu.Unlock()

	s.generatePreviews(tok)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !tok.IsCurrent() {
		return ErrCancelled
	}
	s.refreshReadyStatus()
	return nil
}

func (s *Session) newTile(id int, name string) Tile {
	t := s.view.NewTile(id, name)
	if t == nil {
		return nopTile{}
	}
	return t
}

// rejectionMessage turns a validation error into a status line.
func rejectionMessage(err error, skipped int) string {
	var le *LimitError
	var me *MeasurementError
	switch {
	case errors.Is(err, ErrNoSupportedFiles):
		if skipped > 0 {
			return fmt.Sprintf("Please add supported image files. %d skipped.", skipped)
		}
		return "Please add supported image files."
	case errors.As(err, &le):
		return le.Message()
	case errors.As(err, &me):
		return me.Message()
	}
	return fmt.Sprintf("Selection rejected: %v.", err)
}

// Clear drops the whole selection. An active run is cancelled first.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Invalidate()
	s.abortRunLocked()
	s.skipped = 0
	s.setMode(ModeConvert)
	_ = s.registry.Clear()
	s.refreshReadyStatus()
}

// Remove drops one entry. It is refused while a run is active.
func (s *Session) Remove(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.registry.Remove(id); err != nil {
		return err
	}
	if s.registry.Len() == 0 {
		s.skipped = 0
		s.setMode(ModeConvert)
	}
	s.syncFormat()
	s.refreshReadyStatus()
	return nil
}

// SetFormat selects the output format. Changing it after a conversion resets
// every entry to pending.
func (s *Session) SetFormat(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.registry.Running() {
		return ErrConversionRunning
	}
	if _, ok := formats.ByID(id, s.offeredFormats()); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, id)
	}
	s.format = id
	if len(s.registry.Converted()) > 0 || s.mode == ModeDownload {
		s.resetConverted()
		s.setStatus("Output format changed. Click Convert to re-run.")
		return nil
	}
	s.refreshReadyStatus()
	return nil
}

// resetConverted returns every entry to pending and the session to convert
// mode.
func (s *Session) resetConverted() {
	s.registry.ResetOutputs()
	for _, e := range s.registry.Entries() {
		e.tile.HideDownload()
		e.tile.SetRemoveDisabled(false)
		e.tile.SetProcessing(false)
	}
	s.run = RunIdle
	s.setMode(ModeConvert)
}

// Primary performs the primary action: download in download mode, convert
// otherwise.
func (s *Session) Primary(ctx context.Context) error {
	s.mu.Lock()
	mode := s.mode
	s.mu.Unlock()
	if mode == ModeDownload {
		return s.DownloadAll(ctx)
	}
	_, err := s.Convert(ctx)
	return err
}

// Snapshot is a read-only copy of the session state for rendering.
type Snapshot struct {
	Entries  []Entry
	Mode     Mode
	Run      RunState
	Controls Controls
	Formats  []formats.OutputFormat
	Format   string
	Status   string
	Skipped  int
}

// Controls is the enablement of the UI controls.
type Controls struct {
	ConvertEnabled bool
	ConvertLabel   string
	ClearEnabled   bool
	FormatEnabled  bool
	InputEnabled   bool
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.registry.Entries()
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = *e
		out[i].tile = nil
	}
	return Snapshot{
		Entries:  out,
		Mode:     s.mode,
		Run:      s.run,
		Controls: s.controls(),
		Formats:  s.offeredFormats(),
		Format:   s.format,
		Status:   s.status,
		Skipped:  s.skipped,
	}
}

func (s *Session) controls() Controls {
	offered := s.offeredFormats()
	hasEntries := s.registry.Len() > 0
	c := Controls{ConvertLabel: s.primaryLabel(), InputEnabled: true}
	if s.registry.Running() {
		c.InputEnabled = !s.cfg.Features.LockInputDuringConversion
		return c
	}
	if s.mode == ModeDownload {
		c.ConvertEnabled = len(s.registry.Converted()) > 0 && s.cfg.Features.BulkDownload
	} else {
		c.ConvertEnabled = len(s.registry.Pending()) > 0 && len(offered) > 0
	}
	c.ClearEnabled = hasEntries
	c.FormatEnabled = hasEntries && len(offered) > 0
	return c
}

func (s *Session) primaryLabel() string {
	labels := s.cfg.Labels
	if s.mode != ModeDownload {
		return labels.Convert
	}
	if len(s.registry.Converted()) > 1 {
		return labels.DownloadAll
	}
	return labels.Download
}

// offeredFormats is the negotiated list, minus the input's own format for a
// single-entry selection.
func (s *Session) offeredFormats() []formats.OutputFormat {
	supported := s.negotiator.Supported(context.Background())
	if !s.cfg.Features.SingleFileFormatFiltering {
		return supported
	}
	return formats.FilterForSelection(supported, s.registry.Files())
}

// syncFormat keeps the selected format within the offered list, falling
// back to the first offered format.
func (s *Session) syncFormat() {
	offered := s.offeredFormats()
	if _, ok := formats.ByID(s.format, offered); ok {
		return
	}
	if len(offered) > 0 {
		s.format = offered[0].ID
	}
}

func (s *Session) selectedFormat() (formats.OutputFormat, bool) {
	s.syncFormat()
	return formats.ByID(s.format, s.offeredFormats())
}

func (s *Session) setMode(m Mode) { s.mode = m }

func (s *Session) setStatus(text string) {
	s.status = text
	s.view.SetStatus(text)
}

func (s *Session) refreshReadyStatus() {
	if s.registry.Running() {
		return
	}
	if s.registry.Len() == 0 {
		s.setStatus("")
		return
	}
	offered := s.offeredFormats()
	s.syncFormat()
	skipped := ""
	if s.skipped > 0 {
		skipped = fmt.Sprintf(", %d skipped", s.skipped)
	}

	if s.mode == ModeDownload {
		n := len(s.registry.Converted())
		label, what := s.cfg.Labels.Download, "the file"
		if n > 1 {
			label, what = s.cfg.Labels.DownloadAll, "all files"
		}
		s.setStatus(fmt.Sprintf("Conversion complete: %d ready%s. Click %s to save %s.", n, skipped, label, what))
		return
	}
	if len(offered) == 0 {
		s.setStatus("No alternative target format is available for this file.")
		return
	}
	label := "unknown"
	if f, ok := formats.ByID(s.format, offered); ok {
		label = f.Label
	}
	s.setStatus(fmt.Sprintf("Ready: %d file(s) to convert%s. Target format: %s.",
		len(s.registry.Pending()), skipped, label))
}
