package series

import (
	"context"

	"github.com/ymakhloufi/ratewatch/internal/pkg/model"
	"go.uber.org/zap"
)

// Service composes the view pipeline: load, resample, derive, reshape. Every
// call recomputes from the loader; nothing derived is ever persisted.
type Service struct {
	loader       *Loader
	reducer      model.Reducer
	derivedLabel model.Entity
	logger       *zap.Logger
}

func NewService(loader *Loader, reducer model.Reducer, derivedLabel model.Entity, logger *zap.Logger) *Service {
	return &Service{
		loader:       loader,
		reducer:      reducer,
		derivedLabel: derivedLabel,
		logger:       logger,
	}
}

// DerivedLabel returns the entity label used for the personal-rate series.
func (s *Service) DerivedLabel() model.Entity {
	return s.derivedLabel
}

// View resamples every entity's series to the requested period and appends
// the personal-rate series derived from the resampled base series.
func (s *Service) View(ctx context.Context, period model.Period, cfg model.DiscountConfig) ([]Row, error) {
	observations, err := s.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	if len(observations) == 0 {
		return nil, model.ErrEmptyResult
	}

	resampled, entities := ResampleAll(observations, period, s.reducer)

	allSeries := make([][]model.Observation, 0, len(entities)+1)
	for _, entity := range entities {
		allSeries = append(allSeries, resampled[entity])
	}
	allSeries = append(allSeries, Derive(resampled[cfg.BaseEntity], cfg, s.derivedLabel))

	rows := ToRows(allSeries...)
	s.logger.Debug("built view",
		zap.String("period", string(period)),
		zap.String("base", string(cfg.BaseEntity)),
		zap.Int("rows", len(rows)))
	return rows, nil
}

// Summary builds the latest-rates header for the dashboard.
func (s *Service) Summary(ctx context.Context, cfg model.DiscountConfig) (Summary, error) {
	observations, err := s.loader.Load(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Latest(observations, cfg, s.derivedLabel)
}

// Refresh drops the loader cache; the next request re-reads the store.
func (s *Service) Refresh() {
	s.loader.Invalidate()
}
