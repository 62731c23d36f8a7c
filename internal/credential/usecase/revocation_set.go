package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// revocationSet is the in-memory mirror of the stored revocation ids.
// Lookups are on the verification hot path, so reads take an RLock and the
// set is rebuilt wholesale on refresh.
type revocationSet struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

func newRevocationSet() *revocationSet {
	return &revocationSet{ids: make(map[string]struct{})}
}

func (s *revocationSet) contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

func (s *revocationSet) add(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = struct{}{}
}

func (s *revocationSet) replace(ids []string) {
	next := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		next[id] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = next
}

// StartRevocationRefresher reloads the revocation set on the given interval
// until ctx is cancelled. A failed refresh keeps the previous set; the next
// tick retries.
func StartRevocationRefresher(
	ctx context.Context,
	useCase UseCase,
	interval time.Duration,
	logger *slog.Logger,
) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := useCase.RefreshRevocations(ctx); err != nil {
					logger.Error("revocation refresh failed", "error", err)
				}
			}
		}
	}()
}
