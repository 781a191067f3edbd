package dataset

import (
	"context"
	"errors"

	"github.com/kailas-cloud/catalogdex/internal/domain"
	domcat "github.com/kailas-cloud/catalogdex/internal/domain/catalog"
	domds "github.com/kailas-cloud/catalogdex/internal/domain/dataset"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/request"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/result"
)

// RelatedSize is the number of related datasets returned with a fetch.
const RelatedSize = 5

// related finds datasets in the same catalog sharing all of the document's tags.
// A partition without an index or catalog yields no related items.
func (s *Service) related(ctx context.Context, partition string, doc domds.Document) ([]result.Item, error) {
	params := request.Params{
		Catalog:   domcat.DocumentPath(doc).String(),
		ExcludeID: doc.ID(),
		Size:      RelatedSize,
	}
	if tags := doc.Tags(); len(tags) > 0 {
		params.Facets = map[string]request.Selection{domds.FieldTags: request.Multi(tags)}
	}

	req, err := request.New(params)
	if err != nil {
		return nil, err
	}

	env, err := s.search.Run(ctx, partition, &req)
	if err != nil {
		if errors.Is(err, domain.ErrCatalogNotFound) || errors.Is(err, domain.ErrIndexUnavailable) {
			return []result.Item{}, nil
		}
		return nil, err
	}

	items := env.Items()
	if len(items) > RelatedSize {
		items = items[:RelatedSize]
	}
	return items, nil
}
