package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/catalogdex/internal/domain"
	domcat "github.com/kailas-cloud/catalogdex/internal/domain/catalog"
	"github.com/kailas-cloud/catalogdex/internal/domain/catalog/field"
)

// Service handles catalog metadata registration.
type Service struct {
	repo    Repository
	recount RecountScheduler
	now     func() time.Time
}

// New creates a catalog service.
func New(repo Repository, recount RecountScheduler) *Service {
	return &Service{repo: repo, recount: recount, now: time.Now}
}

// Put validates and registers catalog metadata, creating or extending the
// partition index, then queues a recount.
func (s *Service) Put(
	ctx context.Context, partition string, path domcat.Path,
	fields []field.Field, categories []domcat.Category,
) (domcat.Metadata, error) {
	if err := domain.ValidatePartition(partition); err != nil {
		return domcat.Metadata{}, err
	}

	meta, err := domcat.NewMetadata(path, fields, categories, s.now().UnixMilli())
	if err != nil {
		return domcat.Metadata{}, fmt.Errorf("validate catalog: %w: %w", domain.ErrInvalidSchema, err)
	}

	if err := s.repo.Put(ctx, partition, meta); err != nil {
		return domcat.Metadata{}, fmt.Errorf("put catalog: %w", err)
	}

	s.recount.Schedule(ctx, partition)
	return meta, nil
}

// Get retrieves catalog metadata by path.
func (s *Service) Get(ctx context.Context, partition string, path domcat.Path) (domcat.Metadata, error) {
	if err := domain.ValidatePartition(partition); err != nil {
		return domcat.Metadata{}, err
	}
	meta, err := s.repo.Get(ctx, partition, path)
	if err != nil {
		return domcat.Metadata{}, fmt.Errorf("get catalog: %w", err)
	}
	return meta, nil
}

// List returns every registered catalog of a partition.
func (s *Service) List(ctx context.Context, partition string) ([]domcat.Metadata, error) {
	if err := domain.ValidatePartition(partition); err != nil {
		return nil, err
	}
	metas, err := s.repo.List(ctx, partition)
	if err != nil {
		return nil, fmt.Errorf("list catalogs: %w", err)
	}
	return metas, nil
}

// Reindex rebuilds the partition index from every registered catalog.
// Needed after the base document schema changes. Search and counts see a
// partial index until the rescan finishes, so no recount is queued here.
func (s *Service) Reindex(ctx context.Context, partition string) (int, error) {
	if err := domain.ValidatePartition(partition); err != nil {
		return 0, err
	}
	n, err := s.repo.Reindex(ctx, partition)
	if err != nil {
		return 0, fmt.Errorf("reindex: %w", err)
	}
	return n, nil
}
