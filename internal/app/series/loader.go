// Package series turns stored observations into resampled and derived rate
// series for display.
package series

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ymakhloufi/ratewatch/internal/pkg/model"
	"go.uber.org/zap"
)

type Store interface {
	ListObservations(ctx context.Context) ([]model.Observation, error)
}

// Loader reads all observations date-ascending, memoizing the result for a
// freshness window. Refresh is never automatic beyond TTL expiry; Invalidate
// is the user-initiated force refresh.
type Loader struct {
	store  Store
	ttl    time.Duration
	logger *zap.Logger

	mu        sync.Mutex
	cached    []model.Observation
	fetchedAt time.Time

	now func() time.Time // injectable clock for testing
}

func NewLoader(store Store, ttl time.Duration, logger *zap.Logger) *Loader {
	return &Loader{
		store:  store,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Load returns the cached observations while fresh, otherwise re-reads the
// store. A failed read is ErrSourceUnavailable; the stale cache entry is left
// untouched so an explicit retry can still work from a cold start.
func (l *Loader) Load(ctx context.Context) ([]model.Observation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fresh() {
		l.logger.Debug("serving observations from cache", zap.Int("count", len(l.cached)))
		return l.cached, nil
	}

	obs, err := l.store.ListObservations(ctx)
	if err != nil {
		l.logger.Error("failed to load observations", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", model.ErrSourceUnavailable, err)
	}

	l.cached = obs
	l.fetchedAt = l.now()
	l.logger.Info("loaded observations", zap.Int("count", len(obs)))
	return obs, nil
}

// Invalidate drops the cache so the next Load hits the store.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cached = nil
	l.fetchedAt = time.Time{}
	l.logger.Info("loader cache invalidated")
}

func (l *Loader) fresh() bool {
	if l.fetchedAt.IsZero() {
		return false
	}
	return l.now().Sub(l.fetchedAt) < l.ttl
}
