package feed

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/ymakhloufi/ratewatch/internal/pkg/model"
	"go.uber.org/zap"
)

var _ Feed = &SeedFeed{}

// seedBases are the published rates the synthetic history oscillates around.
var seedBases = map[model.Entity]decimal.Decimal{
	"MUFG":     decimal.RequireFromString("2.475"),
	"Yokohama": decimal.RequireFromString("2.680"),
	"Johoku":   decimal.RequireFromString("2.975"),
	"BOJ":      decimal.RequireFromString("0.250"),
}

var seedDefaultBase = decimal.RequireFromString("2.500")

// seedSteps is the repeating offset cycle, advanced every four weeks.
var seedSteps = []decimal.Decimal{
	decimal.Zero,
	decimal.RequireFromString("0.025"),
	decimal.RequireFromString("0.050"),
	decimal.RequireFromString("0.025"),
}

// SeedFeed emits a deterministic synthetic rate history ending on a fixed
// date. The same date always yields the same rate, so re-seeding is a no-op
// against the insert-if-absent store.
type SeedFeed struct {
	entities []model.Entity
	days     int
	end      civil.Date
	logger   *zap.Logger
}

func NewSeedFeed(entities []model.Entity, days int, end civil.Date, logger *zap.Logger) *SeedFeed {
	return &SeedFeed{entities: entities, days: days, end: end, logger: logger}
}

func (f *SeedFeed) Fetch(ctx context.Context, out chan<- model.Observation) {
	f.logger.Info("seeding synthetic history",
		zap.Int("days", f.days), zap.Int("entities", len(f.entities)))

	for offset := f.days - 1; offset >= 0; offset-- {
		day := f.end.AddDays(-offset)
		for _, entity := range f.entities {
			select {
			case <-ctx.Done():
				f.logger.Warn("seed feed cancelled", zap.Error(ctx.Err()))
				return
			case out <- model.Observation{Date: day, Entity: entity, Rate: seedRate(entity, day)}:
			}
		}
	}
}

// seedRate is a pure function of (entity, date).
func seedRate(entity model.Entity, day civil.Date) decimal.Decimal {
	base, ok := seedBases[entity]
	if !ok {
		base = seedDefaultBase
	}
	epochDays := day.In(time.UTC).Unix() / 86400
	step := seedSteps[(epochDays/28)%int64(len(seedSteps))]
	return base.Add(step)
}
