package recount

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/catalogdex/internal/domain"
	domcat "github.com/kailas-cloud/catalogdex/internal/domain/catalog"
	domds "github.com/kailas-cloud/catalogdex/internal/domain/dataset"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/filter"
)

// Service maintains the denormalized per-category document counts.
type Service struct {
	catalogs CatalogLister
	index    Counter
	counts   CountsStore
}

// New creates a recount service.
func New(catalogs CatalogLister, index Counter, counts CountsStore) *Service {
	return &Service{catalogs: catalogs, index: index, counts: counts}
}

// Recount counts the documents under every category node of every registered
// catalog and replaces the partition's counts.
func (s *Service) Recount(ctx context.Context, partition string) error {
	if err := domain.ValidatePartition(partition); err != nil {
		return err
	}

	metas, err := s.catalogs.List(ctx, partition)
	if err != nil {
		return fmt.Errorf("list catalogs: %w", err)
	}

	counts := make(map[string]int64)
	for _, meta := range metas {
		for _, path := range meta.Paths() {
			if _, done := counts[path.String()]; done {
				continue
			}
			n, err := s.countPath(ctx, partition, path)
			if err != nil {
				return err
			}
			counts[path.String()] = int64(n)
		}
	}

	if err := s.counts.Replace(ctx, partition, counts); err != nil {
		return fmt.Errorf("store counts: %w", err)
	}
	return nil
}

// Counts returns the last computed per-category counts.
func (s *Service) Counts(ctx context.Context, partition string) (map[string]int64, error) {
	if err := domain.ValidatePartition(partition); err != nil {
		return nil, err
	}
	counts, err := s.counts.Get(ctx, partition)
	if err != nil {
		return nil, fmt.Errorf("get counts: %w", err)
	}
	return counts, nil
}

func (s *Service) countPath(ctx context.Context, partition string, path domcat.Path) (int, error) {
	scope, err := filter.NewScope(domds.FieldCatalogPath, path.String())
	if err != nil {
		return 0, fmt.Errorf("scope %s: %w", path, err)
	}
	expr, err := filter.NewExpression(nil, []filter.Condition{scope}, nil)
	if err != nil {
		return 0, fmt.Errorf("scope %s: %w", path, err)
	}
	n, err := s.index.Count(ctx, partition, expr)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", path, err)
	}
	return n, nil
}
