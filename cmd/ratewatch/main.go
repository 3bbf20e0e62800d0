package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/ymakhloufi/ratewatch/internal/app/feed"
	"github.com/ymakhloufi/ratewatch/internal/app/series"
	"github.com/ymakhloufi/ratewatch/internal/app/web"
	"github.com/ymakhloufi/ratewatch/internal/pkg/config"
	"github.com/ymakhloufi/ratewatch/internal/pkg/logging"
	"github.com/ymakhloufi/ratewatch/internal/pkg/model"
	"github.com/ymakhloufi/ratewatch/internal/pkg/store"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "ratewatch.toml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	noErr(err)

	logger, err := logging.New(cfg.Logging.Level)
	noErr(err)
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()

	obsStore, closeStore := newStore(ctx, cfg, logger)
	defer closeStore()

	entities := make([]model.Entity, 0, len(cfg.Feed.Entities))
	for _, e := range cfg.Feed.Entities {
		entities = append(entities, model.Entity(e))
	}

	// initial population: seed synthetic history when configured, then run
	// the external feeds once
	today := civil.DateOf(time.Now())
	if cfg.Store.DSN == "memory" && cfg.Feed.SeedDays > 0 {
		seeder := feed.NewService(obsStore,
			[]feed.Feed{feed.NewSeedFeed(entities, cfg.Feed.SeedDays, today, logger.Named("SeedFeed"))},
			logger.Named("Seeder"))
		seeder.Run(ctx)
	}

	ingester := feed.NewService(obsStore, dailyFeeds(cfg, entities, today, logger), logger.Named("Ingester"))
	ingester.Run(ctx)

	reducer, err := model.ParseReducer(cfg.Series.Reducer)
	noErr(err)
	maxDiscount, err := decimal.NewFromString(cfg.Series.MaxDiscount)
	noErr(err)

	loader := series.NewLoader(obsStore, cfg.Series.GetCacheTTL(), logger.Named("Loader"))
	svc := series.NewService(loader, reducer, model.Entity(cfg.Series.DerivedLabel), logger.Named("Series Svc"))

	defaultBase := model.Entity("")
	if len(entities) > 0 {
		defaultBase = entities[0]
	}

	srv := web.NewServer(cfg.Server.Host, cfg.Server.Port, svc, ingester, defaultBase, maxDiscount, logger.Named("Web"))

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}()

	if err := srv.Start(); err != nil {
		logger.Info("server stopped", zap.Error(err))
	}
}

// dailyFeeds builds the feeds the manual ingest action runs: the configured
// external sources, plus a one-day seed so "ingest latest" always appends
// today's row per entity if absent.
func dailyFeeds(cfg *config.Config, entities []model.Entity, today civil.Date, logger *zap.Logger) []feed.Feed {
	var feeds []feed.Feed
	if cfg.Feed.SheetURL != "" {
		feeds = append(feeds, feed.NewSheetFeed(cfg.Feed.SheetURL, logger.Named("SheetFeed")))
	}
	if cfg.Feed.ScrapeURL != "" {
		feeds = append(feeds, feed.NewScrapeFeed(cfg.Feed.ScrapeURL, model.Entity(cfg.Feed.ScrapeEntity), logger.Named("ScrapeFeed")))
	}
	if len(feeds) == 0 {
		feeds = append(feeds, feed.NewSeedFeed(entities, 1, today, logger.Named("SeedFeed")))
	}
	return feeds
}

type observationStore interface {
	feed.Store
	series.Store
}

func newStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (observationStore, func()) {
	if cfg.Store.DSN == "memory" {
		return store.NewMemory(), func() {}
	}

	pool, err := pgxpool.Connect(ctx, cfg.Store.DSN)
	noErr(err)
	pgStore := store.NewPostgres(pool, logger.Named("PG Store"))
	noErr(pgStore.Migrate(ctx))
	return pgStore, pgStore.Close
}

func noErr(err error) {
	if err != nil {
		panic("failed to initialize something important: " + err.Error())
	}
}
