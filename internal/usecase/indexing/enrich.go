package indexing

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/catalogdex/internal/domain"
	domcat "github.com/kailas-cloud/catalogdex/internal/domain/catalog"
	domds "github.com/kailas-cloud/catalogdex/internal/domain/dataset"
)

// enricher denormalizes documents before they are written. Metadata lookups
// are cached for the lifetime of one call.
type enricher struct {
	catalogs CatalogReader
	cache    map[domcat.Path]*domcat.Metadata
}

func newEnricher(catalogs CatalogReader) *enricher {
	return &enricher{catalogs: catalogs, cache: make(map[domcat.Path]*domcat.Metadata)}
}

// enrich fills category names from the metadata tree and writes catalog_path and title_sort.
func (e *enricher) enrich(ctx context.Context, partition string, doc domds.Document) (domds.Document, error) {
	refs := doc.Categories()
	if len(refs) > 0 {
		named := make([]domds.CategoryRef, len(refs))
		for i, ref := range refs {
			named[i] = ref
			if ref.Name != "" {
				continue
			}
			meta, err := e.metadata(ctx, partition, domcat.ExtractPath(ref.Path))
			if err != nil {
				return domds.Document{}, err
			}
			if meta == nil {
				continue
			}
			if node, ok := meta.Lookup(domcat.Path(ref.Path)); ok {
				named[i].Name = node.Name
			}
		}
		doc = doc.WithCategories(named)
	}

	doc = doc.With(domds.FieldCatalogPath, domcat.DocumentPath(doc).String())
	doc = doc.With(domds.FieldTitleSort, domds.NormalizeTitle(doc.Title()))
	return doc, nil
}

// metadata returns nil for an unregistered catalog.
func (e *enricher) metadata(ctx context.Context, partition string, path domcat.Path) (*domcat.Metadata, error) {
	if m, ok := e.cache[path]; ok {
		return m, nil
	}
	meta, err := e.catalogs.Get(ctx, partition, path)
	switch {
	case errors.Is(err, domain.ErrCatalogNotFound):
		e.cache[path] = nil
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("get catalog %s: %w", path, err)
	}
	e.cache[path] = &meta
	return &meta, nil
}
