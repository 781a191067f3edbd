package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/catalogdex/internal/domain"
	domcat "github.com/kailas-cloud/catalogdex/internal/domain/catalog"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/request"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/result"
)

// DefaultRatingsConcurrency bounds parallel rating lookups per page.
const DefaultRatingsConcurrency = 8

// Config tunes the search service.
type Config struct {
	BucketLimit        int
	RatingsConcurrency int
}

// Service compiles catalog search requests and enriches the results.
type Service struct {
	index    Index
	catalogs CatalogReader
	ratings  RatingsProvider
	logger   *zap.Logger
	cfg      Config
}

// New creates a search service. ratings may be nil, then no rating is joined.
func New(index Index, catalogs CatalogReader, ratings RatingsProvider, logger *zap.Logger, cfg Config) *Service {
	if cfg.RatingsConcurrency <= 0 {
		cfg.RatingsConcurrency = DefaultRatingsConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{index: index, catalogs: catalogs, ratings: ratings, logger: logger, cfg: cfg}
}

// Search runs the request and joins ratings onto the page.
func (s *Service) Search(ctx context.Context, partition string, req *request.Request) (result.Envelope, error) {
	env, err := s.Run(ctx, partition, req)
	if err != nil {
		return result.Envelope{}, err
	}
	return s.joinRatings(ctx, partition, env), nil
}

// Run resolves the catalog, compiles the expression and aggregations, queries
// the index and shapes the envelope. It does not touch the relationship store.
func (s *Service) Run(ctx context.Context, partition string, req *request.Request) (result.Envelope, error) {
	if err := domain.ValidatePartition(partition); err != nil {
		return result.Envelope{}, err
	}

	scope := domcat.ExtractPath(req.Catalog())
	meta, err := s.catalogs.Get(ctx, partition, scope)
	if err != nil {
		return result.Envelope{}, fmt.Errorf("get catalog: %w", err)
	}

	expr, err := buildExpression(meta, req, scope)
	if err != nil {
		return result.Envelope{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	aggs, err := buildAggregations(meta.FilterFields(), s.cfg.BucketLimit)
	if err != nil {
		return result.Envelope{}, fmt.Errorf("%w: %w", domain.ErrInvalidSchema, err)
	}

	raw, err := s.index.Search(ctx, partition, expr, aggs, req.From(), req.Size())
	if err != nil {
		return result.Envelope{}, fmt.Errorf("search index: %w", err)
	}

	return transform(partition, raw, aggs, req.ExcludeID()), nil
}
