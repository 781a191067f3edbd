package search

import (
	"cmp"
	"slices"

	"github.com/kailas-cloud/catalogdex/internal/domain/dataset"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/aggregation"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/result"
)

// transform shapes a raw index response into the envelope.
// Items are ordered by score desc, then title_sort asc; for filter-only queries
// the index already returns that order across pages. Facet keys are exactly
// the requested aggregation names; a missing aggregation yields an empty list.
func transform(partition string, raw result.Raw, aggs aggregation.Request, excludeID string) result.Envelope {
	items := make([]result.Item, 0, len(raw.Hits))
	for _, h := range raw.Hits {
		if excludeID != "" && h.ID == excludeID {
			continue
		}
		fields := h.Fields
		if fields == nil {
			fields = map[string]any{dataset.FieldID: h.ID}
		}
		items = append(items, result.NewItem(partition, h.Score, fields))
	}

	slices.SortStableFunc(items, func(a, b result.Item) int {
		if c := cmp.Compare(b.Score(), a.Score()); c != 0 {
			return c
		}
		return cmp.Compare(sortKey(a), sortKey(b))
	})

	facets := make(map[string][]string, len(aggs.Terms()))
	for _, name := range aggs.Names() {
		facets[name] = bucketKeys(raw.Buckets[name])
	}

	return result.NewEnvelope(items, raw.Total, facets)
}

func bucketKeys(buckets []aggregation.Bucket) []string {
	sorted := slices.Clone(buckets)
	slices.SortStableFunc(sorted, func(a, b aggregation.Bucket) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})

	keys := make([]string, 0, len(sorted))
	for _, b := range sorted {
		keys = append(keys, b.Key)
	}
	return keys
}

// sortKey prefers the stored title_sort and falls back to the normalized title.
func sortKey(it result.Item) string {
	fields := it.Fields()
	if s, ok := fields[dataset.FieldTitleSort].(string); ok {
		return s
	}
	t, _ := fields[dataset.FieldTitle].(string)
	return dataset.NormalizeTitle(t)
}
