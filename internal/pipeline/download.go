package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/backmassage/pixshift/internal/media"
	"github.com/backmassage/pixshift/internal/resource"
)

type pendingDownload struct {
	id     int
	handle resource.Handle
	name   string
}

// DownloadAll triggers a download for every converted entry, paced by the
// configured interval. Entries removed or re-converted meanwhile are skipped.
func (s *Session) DownloadAll(ctx context.Context) error {
	s.mu.Lock()
	if s.registry.Running() {
		s.mu.Unlock()
		return ErrConversionRunning
	}
	if !s.cfg.Features.BulkDownload {
		s.mu.Unlock()
		return ErrDownloadDisabled
	}
	var queue []pendingDownload
	for _, e := range s.registry.Converted() {
		queue = append(queue, pendingDownload{id: e.ID, handle: e.Output, name: e.OutputName})
	}
	s.mu.Unlock()

	if len(queue) == 0 {
		return ErrNotConverted
	}

	limiter := rate.NewLimiter(rate.Every(s.cfg.DownloadInterval), 1)
	started := 0
	for _, d := range queue {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		blob, ok := s.resolveOutput(d)
		if !ok {
			continue
		}
		if err := s.trigger(ctx, d, blob); err != nil {
			s.log.Error("Download of %s failed: %v", d.name, err)
			continue
		}
		started++
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if started > 1 {
		s.setStatus(fmt.Sprintf("Download started for %d files.", started))
	} else if started == 1 {
		s.setStatus("Download started.")
	}
	return nil
}

// Download triggers the download of one converted entry.
func (s *Session) Download(ctx context.Context, id int) error {
	s.mu.Lock()
	if s.registry.Running() {
		s.mu.Unlock()
		return ErrConversionRunning
	}
	e := s.registry.Get(id)
	if e == nil {
		s.mu.Unlock()
		return ErrUnknownEntry
	}
	if !e.Downloadable() {
		s.mu.Unlock()
		return ErrNotConverted
	}
	d := pendingDownload{id: e.ID, handle: e.Output, name: e.OutputName}
	s.mu.Unlock()

	blob, ok := s.resolveOutput(d)
	if !ok {
		return ErrNotConverted
	}
	return s.trigger(ctx, d, blob)
}

// resolveOutput re-checks that the entry still owns the handle and returns
// its blob.
func (s *Session) resolveOutput(d pendingDownload) (media.Blob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.registry.Get(d.id)
	if e == nil || e.Output != d.handle {
		return media.Blob{}, false
	}
	return s.tracker.Resolve(d.handle)
}

func (s *Session) trigger(ctx context.Context, d pendingDownload, blob media.Blob) error {
	if s.downloader == nil {
		return ErrDownloadDisabled
	}
	return s.downloader.Trigger(ctx, d.handle, d.name, blob)
}
