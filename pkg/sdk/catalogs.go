package catalogdex

import (
	"context"
	"fmt"
	"time"

	domcat "github.com/kailas-cloud/catalogdex/internal/domain/catalog"
	"github.com/kailas-cloud/catalogdex/internal/domain/catalog/field"
)

// CatalogService manages catalog metadata and category counts within a partition.
type CatalogService struct {
	partition string
	svc       catalogUseCase
	recount   recountUseCase
	obs       *observer
}

// Put registers or replaces the metadata of the catalog at path.
func (s *CatalogService) Put(
	ctx context.Context, path string, fields []Field, categories []Category,
) (_ CatalogInfo, err error) {
	start := time.Now()
	defer func() { s.obs.observe("catalog.put", s.partition, start, err) }()

	ff, err := toInternalFields(fields)
	if err != nil {
		return CatalogInfo{}, fmt.Errorf("put catalog: %w", err)
	}
	meta, err := s.svc.Put(ctx, s.partition, domcat.Path(path), ff, toInternalCategories(categories))
	if err != nil {
		return CatalogInfo{}, fmt.Errorf("put catalog: %w", err)
	}
	return fromInternalMetadata(meta), nil
}

// Get returns the metadata registered for path.
func (s *CatalogService) Get(ctx context.Context, path string) (_ CatalogInfo, err error) {
	start := time.Now()
	defer func() { s.obs.observe("catalog.get", s.partition, start, err) }()

	meta, err := s.svc.Get(ctx, s.partition, domcat.Path(path))
	if err != nil {
		return CatalogInfo{}, fmt.Errorf("get catalog: %w", err)
	}
	return fromInternalMetadata(meta), nil
}

// List returns every catalog registered in the partition.
func (s *CatalogService) List(ctx context.Context) (_ []CatalogInfo, err error) {
	start := time.Now()
	defer func() { s.obs.observe("catalog.list", s.partition, start, err) }()

	metas, err := s.svc.List(ctx, s.partition)
	if err != nil {
		return nil, fmt.Errorf("list catalogs: %w", err)
	}
	out := make([]CatalogInfo, len(metas))
	for i, m := range metas {
		out[i] = fromInternalMetadata(m)
	}
	return out, nil
}

// Recount recomputes per-category document counts synchronously.
func (s *CatalogService) Recount(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("catalog.recount", s.partition, start, err) }()

	if err = s.recount.Recount(ctx, s.partition); err != nil {
		return fmt.Errorf("recount: %w", err)
	}
	return nil
}

// Counts returns the last computed document count per category path.
func (s *CatalogService) Counts(ctx context.Context) (_ map[string]int64, err error) {
	start := time.Now()
	defer func() { s.obs.observe("catalog.counts", s.partition, start, err) }()

	counts, err := s.recount.Counts(ctx, s.partition)
	if err != nil {
		return nil, fmt.Errorf("get counts: %w", err)
	}
	return counts, nil
}

func toInternalFields(fields []Field) ([]field.Field, error) {
	out := make([]field.Field, len(fields))
	for i, f := range fields {
		var err error
		out[i], err = field.New(f.Name, field.Kind(f.Kind))
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
	}
	return out, nil
}

func toInternalCategories(nodes []Category) []domcat.Category {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]domcat.Category, len(nodes))
	for i, n := range nodes {
		out[i] = domcat.Category{
			Path:     domcat.Path(n.Path),
			Name:     n.Name,
			Children: toInternalCategories(n.Children),
		}
	}
	return out
}

func fromInternalCategories(nodes []domcat.Category) []Category {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]Category, len(nodes))
	for i, n := range nodes {
		out[i] = Category{Path: n.Path.String(), Name: n.Name, Children: fromInternalCategories(n.Children)}
	}
	return out
}

func fromInternalMetadata(m domcat.Metadata) CatalogInfo {
	fields := make([]Field, len(m.Fields()))
	for i, f := range m.Fields() {
		fields[i] = Field{Name: f.Name(), Kind: FieldKind(f.Kind())}
	}
	return CatalogInfo{
		Path:       m.Path().String(),
		Fields:     fields,
		Categories: fromInternalCategories(m.Categories()),
		UpdatedAt:  m.UpdatedAt(),
	}
}
