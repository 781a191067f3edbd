package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/catalogdex/internal/db"
	"github.com/kailas-cloud/catalogdex/internal/domain"
	"github.com/kailas-cloud/catalogdex/internal/domain/dataset"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/aggregation"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/filter"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/result"
)

// jsonRoot is the field FT.SEARCH uses for the whole JSON document.
const jsonRoot = "$"

// store is the consumer interface for search operations (ISP).
type store interface {
	Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, q *db.CountQuery) (int, error)
}

// Repo runs expressions against a partition index.
type Repo struct {
	store store
}

// New creates a search repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Search returns one page of hits with the requested facet buckets.
// Without a text clause every hit scores the same, so the index orders the
// whole result set by title_sort before paging.
func (r *Repo) Search(
	ctx context.Context, partition string,
	expr filter.Expression, aggs aggregation.Request, from, size int,
) (result.Raw, error) {
	q := &db.SearchQuery{
		IndexName:    indexName(partition),
		Expression:   expr,
		Aggregations: aggs,
		Offset:       from,
		Limit:        size,
		ReturnFields: []string{jsonRoot},
	}
	if len(expr.Text()) == 0 {
		q.SortBy = dataset.FieldTitleSort
	}

	sr, err := r.store.Search(ctx, q)
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return result.Raw{}, domain.ErrIndexUnavailable
		}
		return result.Raw{}, fmt.Errorf("search %s: %w", partition, err)
	}
	return parseResult(sr, partition), nil
}

// Count returns the number of documents matching expr.
func (r *Repo) Count(ctx context.Context, partition string, expr filter.Expression) (int, error) {
	n, err := r.store.SearchCount(ctx, &db.CountQuery{IndexName: indexName(partition), Expression: expr})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return 0, domain.ErrIndexUnavailable
		}
		return 0, fmt.Errorf("search count %s: %w", partition, err)
	}
	return n, nil
}

// parseResult decodes the JSON body of every entry. An undecodable body keeps only the id.
func parseResult(sr *db.SearchResult, partition string) result.Raw {
	if sr == nil {
		return result.Raw{}
	}

	prefix := fmt.Sprintf("%s%s:doc:", domain.KeyPrefix, partition)
	hits := make([]result.Hit, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id := strings.TrimPrefix(entry.Key, prefix)

		var fields map[string]any
		if body := entry.Fields[jsonRoot]; body != "" {
			if err := json.Unmarshal([]byte(body), &fields); err != nil {
				fields = nil
			}
		}
		if fields == nil {
			fields = make(map[string]any, 1)
		}
		if _, ok := fields["id"]; !ok {
			fields["id"] = id
		}

		hits = append(hits, result.Hit{ID: id, Score: entry.Score, Fields: fields})
	}

	return result.Raw{Total: sr.Total, Hits: hits, Buckets: sr.Aggregations}
}

func indexName(partition string) string {
	return fmt.Sprintf("%s%s:idx", domain.KeyPrefix, partition)
}
