package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/catalog"
	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/fetch"
	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/profile"
	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/repository"
	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/service"
	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/source"
	"github.com/FACorreiaa/box-office-tracker/pkg/config"
	"github.com/FACorreiaa/box-office-tracker/pkg/metrics"
	"github.com/FACorreiaa/box-office-tracker/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Logger *slog.Logger

	Pool  *pgxpool.Pool     // Optional: nil if POSTGRES_ENABLED is false
	Store *repository.Store // Optional: nil if POSTGRES_ENABLED is false

	Sources  *storage.LocalStorage
	Exports  *storage.LocalStorage
	Profiles *profile.Table
	Catalog  *catalog.Index
	Metrics  *metrics.Metrics
	Crawler  *fetch.Crawler

	Pipeline *service.Pipeline
	Loader   *source.Loader
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if cfg.Database.Enabled {
		if err := deps.initDatabase(ctx); err != nil {
			return nil, fmt.Errorf("failed to init database: %w", err)
		}
	}

	if err := deps.initStorage(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	if err := deps.initServices(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	logger.Debug("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase connects to PostgreSQL and runs migrations
func (d *Dependencies) initDatabase(ctx context.Context) error {
	poolCfg, err := pgxpool.ParseConfig(d.Config.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to parse dsn: %w", err)
	}
	poolCfg.MaxConns = 4
	poolCfg.MaxConnLifetime = 5 * time.Minute
	poolCfg.MaxConnIdleTime = 10 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err := repository.Migrate(ctx, pool); err != nil {
		pool.Close()
		return err
	}

	d.Pool = pool
	d.Store = repository.NewStore(pool)
	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

func (d *Dependencies) initStorage() error {
	sources, err := storage.NewLocalStorage(d.Config.Batch.SourceDir)
	if err != nil {
		return err
	}
	exports, err := storage.NewLocalStorage(d.Config.Batch.OutputDir)
	if err != nil {
		return err
	}
	d.Sources = sources
	d.Exports = exports
	return nil
}

// initServices initializes the catalog, crawler and pipeline
func (d *Dependencies) initServices() error {
	profiles, err := profile.Default()
	if err != nil {
		return fmt.Errorf("failed to load format profiles: %w", err)
	}
	d.Profiles = profiles

	index, err := catalog.Open(d.Config.Catalog.Path)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	d.Catalog = index

	crawler, err := fetch.NewCrawler(nil, d.Sources, fetch.Options{
		ListingURL:    d.Config.Fetch.ListingURL,
		LinkSelector:  d.Config.Fetch.LinkSelector,
		RatePerSecond: d.Config.Fetch.RatePerSecond,
		UserAgent:     d.Config.Fetch.UserAgent,
		Limit:         d.Config.Fetch.Limit,
	}, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to init crawler: %w", err)
	}
	d.Crawler = crawler

	d.Metrics = metrics.New()
	d.Loader = source.NewLoader()

	// Keep the interface nil when persistence is off.
	var store service.RecordStore
	if d.Store != nil {
		store = d.Store
	}
	d.Pipeline = service.NewPipeline(d.Profiles, store, d.Catalog, d.Metrics, d.Logger, d.Config.Batch.Workers)

	return nil
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.Catalog != nil {
		if err := d.Catalog.Close(); err != nil {
			d.Logger.Warn("failed to close catalog", slog.Any("error", err))
		}
	}
	if d.Pool != nil {
		d.Pool.Close()
	}
	d.Logger.Debug("cleanup completed")
}
