// Command ingest runs the configured feeds once and exits. Useful from cron
// when the dashboard shouldn't own the ingest schedule.
package main

import (
	"context"
	"flag"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/ymakhloufi/ratewatch/internal/app/feed"
	"github.com/ymakhloufi/ratewatch/internal/pkg/config"
	"github.com/ymakhloufi/ratewatch/internal/pkg/logging"
	"github.com/ymakhloufi/ratewatch/internal/pkg/model"
	"github.com/ymakhloufi/ratewatch/internal/pkg/store"
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

	pool, err := pgxpool.Connect(ctx, cfg.Store.DSN)
	noErr(err)
	pgStore := store.NewPostgres(pool, logger.Named("PG Store"))
	noErr(pgStore.Migrate(ctx))
	defer pgStore.Close()

	var feeds []feed.Feed
	if cfg.Feed.SheetURL != "" {
		feeds = append(feeds, feed.NewSheetFeed(cfg.Feed.SheetURL, logger.Named("SheetFeed")))
	}
	if cfg.Feed.ScrapeURL != "" {
		feeds = append(feeds, feed.NewScrapeFeed(cfg.Feed.ScrapeURL, model.Entity(cfg.Feed.ScrapeEntity), logger.Named("ScrapeFeed")))
	}
	if len(feeds) == 0 {
		entities := make([]model.Entity, 0, len(cfg.Feed.Entities))
		for _, e := range cfg.Feed.Entities {
			entities = append(entities, model.Entity(e))
		}
		feeds = append(feeds, feed.NewSeedFeed(entities, 1, civil.DateOf(time.Now()), logger.Named("SeedFeed")))
	}

	svc := feed.NewService(pgStore, feeds, logger.Named("Ingest Svc"))
	svc.Run(ctx)
}

func noErr(err error) {
	if err != nil {
		panic("failed to initialize something important: " + err.Error())
	}
}
