package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/ymakhloufi/ratewatch/internal/pkg/model"
	"go.uber.org/zap"
)

const observationsDDL = `
CREATE TABLE IF NOT EXISTS observations (
    day    date          NOT NULL,
    entity text          NOT NULL,
    rate   numeric(8, 4) NOT NULL CHECK (rate >= 0),
    PRIMARY KEY (day, entity)
)`

// Postgres persists Observations in a single (day, entity, rate) table.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) *Postgres {
	return &Postgres{pool: pool, logger: logger}
}

// Migrate creates the observations table when it does not exist yet.
func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, observationsDDL); err != nil {
		return fmt.Errorf("failed to migrate observations table: %w", err)
	}
	return nil
}

// UpsertObservation inserts an observation unless one already exists for its
// (day, entity) key. First write wins; re-ingesting the same day is a no-op.
func (s *Postgres) UpsertObservation(ctx context.Context, obs model.Observation) error {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO observations (day, entity, rate) VALUES ($1, $2, $3)
		 ON CONFLICT (day, entity) DO NOTHING`,
		obs.Date.String(), string(obs.Entity), obs.Rate.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert observation %v: %w", obs, err)
	}
	if tag.RowsAffected() == 0 {
		s.logger.Debug("observation already present, skipped",
			zap.String("day", obs.Date.String()), zap.String("entity", string(obs.Entity)))
	}
	return nil
}

// ListObservations returns all observations ordered by day then entity.
func (s *Postgres) ListObservations(ctx context.Context) ([]model.Observation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT day, entity, rate::text FROM observations ORDER BY day, entity`)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	var out []model.Observation
	for rows.Next() {
		var (
			day     time.Time
			entity  string
			rateStr string
		)
		if err := rows.Scan(&day, &entity, &rateStr); err != nil {
			return nil, fmt.Errorf("failed to scan observation row: %w", err)
		}
		rate, err := decimal.NewFromString(rateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse rate '%s' for entity '%s': %w", rateStr, entity, err)
		}
		out = append(out, model.Observation{
			Date:   civil.DateOf(day),
			Entity: model.Entity(entity),
			Rate:   rate,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate observation rows: %w", err)
	}
	return out, nil
}

func (s *Postgres) Close() {
	s.pool.Close()
}
