// Package app wires stores, repositories and usecases from config.
// Both the API server and catalogctl build on it.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/catalogdex/internal/config"
	dbPostgres "github.com/kailas-cloud/catalogdex/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/catalogdex/internal/db/redis"
	"github.com/kailas-cloud/catalogdex/internal/domain"
	"github.com/kailas-cloud/catalogdex/internal/metrics"
	catalogrepo "github.com/kailas-cloud/catalogdex/internal/repository/catalog"
	countsrepo "github.com/kailas-cloud/catalogdex/internal/repository/counts"
	datasetrepo "github.com/kailas-cloud/catalogdex/internal/repository/dataset"
	relationshiprepo "github.com/kailas-cloud/catalogdex/internal/repository/relationship"
	searchrepo "github.com/kailas-cloud/catalogdex/internal/repository/search"
	cataloguc "github.com/kailas-cloud/catalogdex/internal/usecase/catalog"
	datasetuc "github.com/kailas-cloud/catalogdex/internal/usecase/dataset"
	healthuc "github.com/kailas-cloud/catalogdex/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/catalogdex/internal/usecase/indexing"
	recountuc "github.com/kailas-cloud/catalogdex/internal/usecase/recount"
	searchuc "github.com/kailas-cloud/catalogdex/internal/usecase/search"
)

// App holds the wired services.
type App struct {
	Search    *searchuc.Service
	Datasets  *datasetuc.Service
	Indexing  *indexinguc.Service
	Catalogs  *cataloguc.Service
	Recount   *recountuc.Service
	Scheduler *recountuc.Scheduler
	Health    *healthuc.Service

	redis    *dbRedis.Store
	postgres *dbPostgres.Store
	logger   *zap.Logger
}

// New connects to Redis (and Postgres when a DSN is configured) and builds every usecase.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	domain.KeyPrefix = cfg.Storage.KeyPrefix
	metrics.RegisterCatalogMetrics()

	redis, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create redis store: %w", err)
	}
	readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := redis.WaitForReady(ctx, readiness); err != nil {
		redis.Close()
		return nil, fmt.Errorf("redis not ready: %w", err)
	}

	a := &App{redis: redis, logger: logger}

	var (
		rels    datasetuc.Relationships
		ratings searchuc.RatingsProvider
	)
	pingers := map[string]healthuc.Pinger{"redis": redis}
	if cfg.Postgres.DSN != "" {
		pg, err := dbPostgres.NewStore(ctx, dbPostgres.Config{
			DSN:            cfg.Postgres.DSN,
			MaxConns:       cfg.Postgres.MaxConns,
			ConnectTimeout: time.Duration(cfg.Postgres.ConnectTimeoutSec) * time.Second,
		})
		if err != nil {
			redis.Close()
			return nil, fmt.Errorf("create postgres store: %w", err)
		}
		a.postgres = pg
		repo := relationshiprepo.New(pg)
		rels, ratings = repo, repo
		pingers["postgres"] = pg
	} else {
		logger.Warn("postgres dsn not set, subscriber and rating lookups disabled")
	}

	catalogs := catalogrepo.New(redis)
	datasets := datasetrepo.New(redis)
	index := searchrepo.New(redis)
	counts := countsrepo.New(redis)

	a.Recount = recountuc.New(catalogs, index, counts)
	a.Scheduler, err = recountuc.NewScheduler(
		a.Recount, cfg.Indexing.RecountWorkers, cfg.Indexing.RecountTimeout(), logger,
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create recount pool: %w", err)
	}

	a.Search = searchuc.New(index, catalogs, ratings, logger, searchuc.Config{
		BucketLimit:        cfg.Search.FacetBucketLimit,
		RatingsConcurrency: cfg.Search.RatingsConcurrency,
	})
	a.Datasets = datasetuc.New(datasets, a.Search, rels, logger)
	a.Indexing = indexinguc.New(datasets, catalogs, a.Scheduler, logger, indexinguc.Config{
		BulkWait:     cfg.Indexing.BulkWait(),
		PollInterval: cfg.Indexing.PollInterval(),
	})
	a.Catalogs = cataloguc.New(catalogs, a.Scheduler)
	a.Health = healthuc.New(pingers)

	return a, nil
}

// Shutdown drains queued recounts, then closes the stores.
func (a *App) Shutdown(timeout time.Duration) {
	if a.Scheduler != nil {
		if err := a.Scheduler.Release(timeout); err != nil {
			a.logger.Warn("recount pool did not drain", zap.Error(err))
		}
	}
	a.Close()
}

// Close closes the stores without waiting for recounts.
func (a *App) Close() {
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}
