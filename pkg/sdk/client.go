package catalogdex

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/catalogdex/internal/app"
	"github.com/kailas-cloud/catalogdex/internal/config"
	domcat "github.com/kailas-cloud/catalogdex/internal/domain/catalog"
	"github.com/kailas-cloud/catalogdex/internal/domain/catalog/field"
	domds "github.com/kailas-cloud/catalogdex/internal/domain/dataset"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/request"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/result"
	datasetuc "github.com/kailas-cloud/catalogdex/internal/usecase/dataset"
	healthuc "github.com/kailas-cloud/catalogdex/internal/usecase/health"
)

// Внутренние интерфейсы для подмены в тестах.
type searchUseCase interface {
	Search(ctx context.Context, partition string, req *request.Request) (result.Envelope, error)
}

type datasetUseCase interface {
	Get(ctx context.Context, partition, id, userID string) (datasetuc.View, error)
	Subscribers(ctx context.Context, partition, id string) ([]string, error)
}

type indexingUseCase interface {
	CreateMany(ctx context.Context, partition string, docs []domds.Document) (bool, error)
	CreateOne(ctx context.Context, partition string, doc domds.Document) (string, error)
	UpdateOne(ctx context.Context, partition, id string, doc domds.Document) error
	DeleteOne(ctx context.Context, partition, id string) error
}

type catalogUseCase interface {
	Put(
		ctx context.Context, partition string, path domcat.Path,
		fields []field.Field, categories []domcat.Category,
	) (domcat.Metadata, error)
	Get(ctx context.Context, partition string, path domcat.Path) (domcat.Metadata, error)
	List(ctx context.Context, partition string) ([]domcat.Metadata, error)
}

type recountUseCase interface {
	Recount(ctx context.Context, partition string) error
	Counts(ctx context.Context, partition string) (map[string]int64, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the catalogdex SDK entry point.
type Client struct {
	app        *app.App
	searchSvc  searchUseCase
	datasetSvc datasetUseCase
	indexSvc   indexingUseCase
	catalogSvc catalogUseCase
	recountSvc recountUseCase
	healthSvc  healthUseCase
	obs        *observer
}

// New connects to the configured stores and wires the usecases.
// The provided context is used for the initial readiness checks.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cc := &clientConfig{}
	for _, o := range opts {
		o.apply(cc)
	}
	if len(cc.addrs) == 0 {
		return nil, errors.New("catalogdex: redis address required (use WithRedis)")
	}

	cfg := buildConfig(cc)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("catalogdex: %w", err)
	}

	obs, err := newObserver(cc.logger, cc.metricsReg)
	if err != nil {
		return nil, err
	}

	logger := cc.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	a, err := app.New(ctx, &cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("catalogdex: %w", err)
	}

	return &Client{
		app:        a,
		searchSvc:  a.Search,
		datasetSvc: a.Datasets,
		indexSvc:   a.Indexing,
		catalogSvc: a.Catalogs,
		recountSvc: a.Recount,
		healthSvc:  a.Health,
		obs:        obs,
	}, nil
}

// buildConfig maps options onto the server configuration and fills defaults.
func buildConfig(cc *clientConfig) config.Config {
	var cfg config.Config
	cfg.HTTP.Port = 8080 // not served
	cfg.Database.Addrs = cc.addrs
	cfg.Database.Password = cc.password
	cfg.Postgres.DSN = cc.dsn
	cfg.Storage.KeyPrefix = cc.keyPrefix
	if ms := int(cc.bulkWait.Milliseconds()); ms > 0 {
		cfg.Indexing.BulkWaitMs = ms
		cfg.Indexing.PollIntervalMs = min(ms, 100)
	}
	cfg.Indexing.RecountWorkers = cc.recountWorkers
	cfg.ApplyDefaults()
	return cfg
}

// Close drains queued recounts and releases all resources.
func (c *Client) Close() {
	if c.app != nil {
		c.app.Shutdown(defaultDrainTimeout)
	}
}

// Search returns the search service for a partition.
func (c *Client) Search(partition string) *SearchService {
	return &SearchService{partition: partition, svc: c.searchSvc, obs: c.obs}
}

// Datasets returns the dataset service for a partition.
func (c *Client) Datasets(partition string) *DatasetService {
	return &DatasetService{
		partition: partition,
		reads:     c.datasetSvc,
		writes:    c.indexSvc,
		obs:       c.obs,
	}
}

// Catalogs returns the catalog metadata service for a partition.
func (c *Client) Catalogs(partition string) *CatalogService {
	return &CatalogService{
		partition: partition,
		svc:       c.catalogSvc,
		recount:   c.recountSvc,
		obs:       c.obs,
	}
}
