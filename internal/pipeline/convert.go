package pipeline

import (
	"context"
	"fmt"

	"github.com/backmassage/pixshift/internal/codec"
	"github.com/backmassage/pixshift/internal/display"
)

// Convert runs the conversion orchestrator over the pending entries. It
// returns ErrConversionRunning when a run is already active (nothing is
// touched), ErrNothingToConvert or ErrNoOutputFormat when the run cannot
// start, and ErrCancelled when the run was superseded or cancelled; the
// entries keep whatever state they reached.
func (s *Session) Convert(ctx context.Context) (RunStats, error) {
	s.mu.Lock()
	if s.registry.Running() {
		s.mu.Unlock()
		return RunStats{}, ErrConversionRunning
	}
	pending := s.registry.Pending()
	if len(pending) == 0 {
		s.mu.Unlock()
		return RunStats{}, ErrNothingToConvert
	}
	format, ok := s.selectedFormat()
	if !ok {
		s.setStatus("No alternative target format is available for this file.")
		s.mu.Unlock()
		return RunStats{}, ErrNoOutputFormat
	}

	tok := s.conversion.Next(ctx)
	s.run = RunRunning
	s.registry.SetRunning(true)
	for _, e := range s.registry.Entries() {
		e.tile.SetRemoveDisabled(true)
		e.tile.HideDownload()
	}

	stats := RunStats{Total: len(pending), Skipped: s.skipped}
	target := codec.Target{Format: format, Quality: s.cfg.Quality}
	s.reportProgress(&stats, format.Label)
	s.mu.Unlock()

	s.log.Info("Converting %d file(s) to %s", stats.Total, format.Label)

	for _, queued := range pending {
		s.mu.Lock()
		if !tok.IsCurrent() {
			s.abandonRun(tok)
			s.mu.Unlock()
			return stats, ErrCancelled
		}
		e := s.registry.Get(queued.ID)
		if e == nil {
			s.mu.Unlock()
			continue
		}
		e.tile.SetProcessing(true)
		file := e.File
		s.mu.Unlock()

		res, err := s.engine.Convert(tok.Context(), file, target)

		s.mu.Lock()
		if !tok.IsCurrent() {
			s.abandonRun(tok)
			s.mu.Unlock()
			return stats, ErrCancelled
		}
		if err != nil {
			s.registry.MarkFailed(e)
			e.tile.SetFallback("Conversion failed")
			stats.Failed++
			s.log.Error("%s: %v", file.Name, err)
		} else {
			s.registry.MarkConverted(e, res.Blob, res.OutputName)
			stats.Converted++
			stats.TotalInputBytes += file.Size
			stats.TotalOutputBytes += res.Blob.Size()
			s.log.Debug(s.cfg.Verbose, "%s -> %s (%s, %s)", file.Name, res.OutputName,
				display.FormatBytes(res.Blob.Size()), display.FormatBytesWithSign(res.Blob.Size()-file.Size))
		}
		e.tile.SetProcessing(false)
		s.reportProgress(&stats, format.Label)
		s.mu.Unlock()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !tok.IsCurrent() {
		s.abandonRun(tok)
		return stats, ErrCancelled
	}
	s.finishRun(&stats)
	return stats, nil
}

func (s *Session) reportProgress(stats *RunStats, label string) {
	s.setStatus(fmt.Sprintf("Converting %d/%d file(s) to %s...", stats.Converted, stats.Total, label))
	if s.progress != nil {
		s.progress.SetProgress(stats.Done(), stats.Total)
	}
}

// finishRun moves a run that reached the end of its loop to completed.
func (s *Session) finishRun(stats *RunStats) {
	s.run = RunCompleted
	s.registry.SetRunning(false)

	converted := s.registry.Converted()
	tileDownloads := s.cfg.Features.TileDownloads &&
		(len(converted) > 1 || !s.cfg.Features.BulkDownload)
	for _, e := range s.registry.Entries() {
		if e.Converted && tileDownloads {
			id := e.ID
			e.tile.ShowDownload(func() { _ = s.Download(context.Background(), id) })
		} else {
			e.tile.HideDownload()
		}
	}

	if len(converted) > 0 {
		s.setMode(ModeDownload)
	} else {
		s.setMode(ModeConvert)
	}

	summary := fmt.Sprintf("Done: %d converted", stats.Converted)
	if stats.Failed > 0 {
		summary += fmt.Sprintf(", %d failed", stats.Failed)
	}
	if s.skipped > 0 {
		summary += fmt.Sprintf(", %d skipped", s.skipped)
	}
	s.setStatus(summary + ".")
	s.refreshReadyStatus()
}

// Cancel stops the active run. Entries keep the state they reached. It
// reports whether a run was active.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.registry.Running() {
		return false
	}
	s.abortRunLocked()
	converted := len(s.registry.Converted())
	s.setStatus(fmt.Sprintf("Conversion cancelled: %d converted, %d pending.",
		converted, len(s.registry.Pending())))
	return true
}

// abandonRun cleans up after a run whose signal was raised by its parent
// context rather than by Cancel, Clear or a new selection. Those paths
// advance the counter first, so a matching counter means the run still owns
// the session state.
func (s *Session) abandonRun(tok *Token) {
	if s.conversion.Value() == tok.Value() {
		s.abortRunLocked()
	}
}

// abortRunLocked invalidates the active run, if any, and releases the
// registry for mutation. The run's loop exits at its next token check.
func (s *Session) abortRunLocked() {
	if !s.registry.Running() {
		return
	}
	s.conversion.Invalidate()
	s.registry.SetRunning(false)
	s.run = RunCancelled
	for _, e := range s.registry.Entries() {
		e.tile.SetProcessing(false)
		e.tile.SetRemoveDisabled(false)
	}
	s.log.Warn("Conversion cancelled")
}
