// Package feed ingests rate observations from external sources into the store.
package feed

import (
	"context"
	"sync"

	"github.com/ymakhloufi/ratewatch/internal/pkg/model"
	"go.uber.org/zap"
)

type Store interface {
	UpsertObservation(ctx context.Context, obs model.Observation) error
}

// Feed is one source of rate observations. Implementations log their own
// failures and simply stop emitting; a dead source never aborts the run.
type Feed interface {
	Fetch(ctx context.Context, out chan<- model.Observation)
}

type Service struct {
	store  Store
	feeds  []Feed
	logger *zap.Logger
}

func NewService(store Store, feeds []Feed, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		feeds:  feeds,
		logger: logger,
	}
}

// Run fetches every feed once and upserts the results. Insert-if-absent
// store semantics make repeated runs idempotent.
func (s *Service) Run(ctx context.Context) {
	var wg sync.WaitGroup
	objChan := make(chan model.Observation)

	for _, f := range s.feeds {
		wg.Add(1)
		go func(f Feed) {
			defer wg.Done()
			f.Fetch(ctx, objChan)
		}(f)
	}

	done := make(chan struct{})
	go s.recv(ctx, objChan, done)

	wg.Wait()
	s.logger.Info("all feeds finished, closing channel")
	close(objChan)
	<-done
}

func (s *Service) recv(ctx context.Context, c <-chan model.Observation, done chan<- struct{}) {
	defer close(done)
	s.logger.Info("starting feed receiver")

	for obs := range c {
		if err := s.store.UpsertObservation(ctx, obs); err != nil {
			s.logger.Error("failed to upsert observation", zap.Any("observation", obs), zap.Error(err))
			continue
		}
		s.logger.Debug("upserted observation",
			zap.String("day", obs.Date.String()),
			zap.String("entity", string(obs.Entity)),
			zap.String("rate", obs.Rate.String()))
	}
}
