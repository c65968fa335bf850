package pipeline

import (
	"context"
	"sync"

	"github.com/backmassage/pixshift/internal/codec"
	"github.com/backmassage/pixshift/internal/formats"
	"github.com/backmassage/pixshift/internal/media"
)

// surface serializes every engine call. Decode and encode share one
// non-reentrant rendering surface, including across a cancelled run and the
// run that replaced it.
type surface struct {
	mu  sync.Mutex
	eng Engine
}

func (s *surface) Measure(ctx context.Context, f media.File) (media.Dimensions, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng.Measure(ctx, f)
}

func (s *surface) DecodeToPreview(ctx context.Context, f media.File, maxEdge int) (media.Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng.DecodeToPreview(ctx, f, maxEdge)
}

func (s *surface) Convert(ctx context.Context, f media.File, t codec.Target) (codec.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng.Convert(ctx, f, t)
}

func (s *surface) ProbeFormatSupport(ctx context.Context, f formats.OutputFormat) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng.ProbeFormatSupport(ctx, f)
}
