package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
)

// Sequence mints monotonically increasing tokens. Minting a new token (or
// invalidating the sequence) raises the abort signal of the previous one.
type Sequence struct {
	mu      sync.Mutex
	value   atomic.Uint64
	current *Token
}

// Token is one value of a Sequence plus a cancellation signal scoped to the
// work started under it.
type Token struct {
	seq    *Sequence
	value  uint64
	ctx    context.Context
	cancel context.CancelFunc
}

// Next mints a new current token whose signal derives from parent.
func (s *Sequence) Next(parent context.Context) *Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.Raise()
	}
	ctx, cancel := context.WithCancel(parent)
	t := &Token{seq: s, value: s.value.Add(1), ctx: ctx, cancel: cancel}
	s.current = t
	return t
}

// Invalidate advances the counter without minting a token, so every
// outstanding token becomes stale.
func (s *Sequence) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.Raise()
		s.current = nil
	}
	s.value.Add(1)
}

// Value returns the current counter value.
func (s *Sequence) Value() uint64 { return s.value.Load() }

// IsCurrent reports whether t is still the newest token of its sequence and
// its signal has not been raised.
func (t *Token) IsCurrent() bool {
	return t.ctx.Err() == nil && t.seq.value.Load() == t.value
}

// Raise signals cancellation to everything running under t.
func (t *Token) Raise() { t.cancel() }

// Context carries t's abort signal into engine calls.
func (t *Token) Context() context.Context { return t.ctx }

// Value returns the counter value t was minted with.
func (t *Token) Value() uint64 { return t.value }
