package catalogdex

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/catalogdex/internal/domain/search/request"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/result"
)

// SearchService runs searches within a single partition.
type SearchService struct {
	partition string
	svc       searchUseCase
	obs       *observer
}

// Do runs q and joins ratings onto the hits.
func (s *SearchService) Do(ctx context.Context, q Query) (_ SearchResult, err error) {
	start := time.Now()
	defer func() { s.obs.observe("search", s.partition, start, err) }()

	req, err := toInternalRequest(q)
	if err != nil {
		return SearchResult{}, fmt.Errorf("search: %w", err)
	}
	env, err := s.svc.Search(ctx, s.partition, &req)
	if err != nil {
		return SearchResult{}, fmt.Errorf("search: %w", err)
	}
	return SearchResult{
		Items:  fromInternalItems(env.Items()),
		Total:  env.Total(),
		Facets: env.Facets(),
	}, nil
}

func toInternalRequest(q Query) (request.Request, error) {
	facets := make(map[string]request.Selection, len(q.Facets)+len(q.AllOf))
	for name, v := range q.Facets {
		facets[name] = request.Single(v)
	}
	for name, vs := range q.AllOf {
		if _, dup := facets[name]; dup {
			return request.Request{}, fmt.Errorf("facet %q set both as single value and all-of", name)
		}
		facets[name] = request.Multi(vs)
	}
	return request.New(request.Params{
		Term:      q.Term,
		Scope:     q.Scope,
		Catalog:   q.Catalog,
		Facets:    facets,
		ExcludeID: q.ExcludeID,
		From:      q.From,
		Size:      q.Size,
	})
}

func fromInternalItems(items []result.Item) []Document {
	out := make([]Document, len(items))
	for i := range items {
		out[i] = Document(items[i].Document())
	}
	return out
}
