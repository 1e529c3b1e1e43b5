package unicrew

import (
	"context"
	"sync"
)

// Searcher coalesces keystroke-driven lookups: starting a new lookup cancels
// the prior in-flight one, so only the latest input produces a result.
// Superseded calls fail with context.Canceled; cancelled requests bypass the
// 401 refresh protocol, so an abandoned search can never log the user out or
// trigger a token refresh.
type Searcher struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// Do runs fn under a context that the next Do call cancels.
func (s *Searcher) Do(ctx context.Context, fn func(context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.gen++
	gen := s.gen
	s.cancel = cancel
	s.mu.Unlock()

	err := fn(ctx)

	s.mu.Lock()
	if s.gen == gen {
		s.cancel = nil
	}
	s.mu.Unlock()
	cancel()
	return err
}

// Stop cancels any in-flight lookup.
func (s *Searcher) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
}
