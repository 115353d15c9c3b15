package room

import (
	"context"
	"time"
)

// Run executes room mutations one at a time until ctx is done. Every exported method of the
// service blocks until Run picks its mutation up.
func (s *service) Run(ctx context.Context) {
	defer close(s.done)

	s.logger.InfoContext(ctx, "room event loop started")
	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "room event loop stopped")
			return
		case fn := <-s.events:
			fn()
		}
	}
}

// do runs fn on the event loop and returns its error. Once fn is accepted it always completes,
// so a cancelled ctx only aborts the wait for a free loop.
func (s *service) do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	task := func() {
		result <- fn()
	}

	select {
	case s.events <- task:
	case <-s.done:
		return ErrServiceStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	return <-result
}

// EvictRooms sweeps the registry with its eviction policy.
func (s *service) EvictRooms(ctx context.Context) ([]string, error) {
	var evicted []string
	err := s.do(ctx, func() error {
		evicted = s.roomRepo.Evict(s.now())
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(evicted) > 0 {
		s.logger.InfoContext(ctx, "rooms evicted", "rooms", evicted)
	}

	return evicted, nil
}

// RunJanitor calls EvictRooms every interval until ctx is done.
func (s *service) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.EvictRooms(ctx); err != nil {
				s.logger.DebugContext(ctx, "failed to evict rooms", "error", err)
			}
		}
	}
}
