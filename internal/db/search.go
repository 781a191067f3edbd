package db

import (
	"github.com/kailas-cloud/catalogdex/internal/domain/search/aggregation"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/filter"
)

// SearchQuery is the input for a scored, paginated search with optional facets.
type SearchQuery struct {
	IndexName    string
	Expression   filter.Expression
	Aggregations aggregation.Request
	Offset       int
	Limit        int
	ReturnFields []string
	// SortBy orders hits ascending by a sortable attribute instead of by score.
	SortBy string
}

// CountQuery counts documents matching an expression.
type CountQuery struct {
	IndexName  string
	Expression filter.Expression
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
	// Aggregations holds buckets keyed by aggregation name.
	// A requested aggregation missing here had no response.
	Aggregations map[string][]aggregation.Bucket
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// IndexInfo is the indexing state reported by FT.INFO.
type IndexInfo struct {
	NumDocs        int64
	Indexing       bool
	PercentIndexed float64
}

// Idle reports whether the index has caught up with every written document.
func (i IndexInfo) Idle() bool {
	return !i.Indexing && i.PercentIndexed >= 1
}
