package pipeline

// generatePreviews walks the entries present when it starts, in registry
// order, and attaches a preview to each. A decode failure only marks that
// entry's tile; entries removed meanwhile are skipped; a stale token stops
// the walk before any further mutation.
func (s *Session) generatePreviews(tok *Token) {
	s.mu.Lock()
	entries := s.registry.Entries()
	maxEdge := s.cfg.PreviewMaxEdge
	s.mu.Unlock()

	for _, queued := range entries {
		s.mu.Lock()
		if !tok.IsCurrent() {
			s.mu.Unlock()
			return
		}
		if s.registry.Get(queued.ID) == nil {
			s.mu.Unlock()
			continue
		}
		file := queued.File
		s.mu.Unlock()

		blob, err := s.engine.DecodeToPreview(tok.Context(), file, maxEdge)

		s.mu.Lock()
		if !tok.IsCurrent() {
			s.mu.Unlock()
			return
		}
		e := s.registry.Get(queued.ID)
		switch {
		case e == nil:
		case err != nil:
			e.PreviewState = PreviewUnavailable
			e.tile.SetFallback("Preview unavailable")
			s.log.Debug(s.cfg.Verbose, "Preview failed for %s: %v", file.Name, err)
		default:
			h := s.registry.AttachPreview(e, blob)
			e.tile.SetPreview(h, file.Name)
		}
		s.mu.Unlock()
	}
}
