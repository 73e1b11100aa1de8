package session

import (
	"context"
	"errors"
	"sync"

	"github.com/Brawl345/epicture/model"
)

var ErrSuperseded = errors.New("result superseded by a newer query")

// Screen guards one view against stale results: starting a query cancels
// the previous one, and a result that arrives after a newer query was
// issued is discarded.
type Screen struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

func (s *Screen) begin(parent context.Context) (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	s.seq++
	s.cancel = cancel
	return ctx, s.seq
}

func (s *Screen) finish(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.seq {
		return false
	}
	s.cancel()
	s.cancel = nil
	return true
}

// Do runs fn as the newest query of this screen.
func (s *Screen) Do(ctx context.Context, fn func(ctx context.Context) ([]model.ImageItem, error)) ([]model.ImageItem, error) {
	ctx, seq := s.begin(ctx)
	images, err := fn(ctx)
	if !s.finish(seq) {
		return nil, ErrSuperseded
	}
	return images, err
}

// Leave cancels the in-flight query, e.g. when navigating away.
func (s *Screen) Leave() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.seq++
}
