package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/catalogdex/internal/db"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/aggregation"
)

// countAlias is the REDUCE COUNT alias used by facet aggregations.
const countAlias = "count"

// maxFacetGroups bounds the groups one FT.AGGREGATE returns. Array fields group
// by value combination, so the facet size is applied after expandKey merges them.
const maxFacetGroups = 10000

// Search runs a scored FT.SEARCH and one FT.AGGREGATE per requested facet
// in a single pipeline round-trip.
func (s *Store) Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Offset < 0 || q.Limit < 0 {
		return nil, fmt.Errorf("offset and limit must not be negative")
	}

	query := buildQuery(q.Expression)
	terms := q.Aggregations.Terms()

	cmds := make(rueidis.Commands, 0, 1+len(terms))
	cmds = append(cmds, s.b().Arbitrary("FT.SEARCH").Args(searchArgs(q, query)...).Build())
	for _, t := range terms {
		cmds = append(cmds, s.b().Arbitrary("FT.AGGREGATE").Args(aggregateArgs(q.IndexName, query, t)...).Build())
	}

	results := s.client.DoMulti(ctx, cmds...)

	raw, err := results[0].ToArray()
	if err != nil {
		if isUnknownIndex(err) {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	res, err := parseSearchResult(raw)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	res.Aggregations = make(map[string][]aggregation.Bucket, len(terms))
	for i, t := range terms {
		buckets, err := parseAggregation(results[i+1], t)
		if err != nil {
			return nil, &db.Error{Op: db.OpAggregate, Err: fmt.Errorf("%s: %w", t.Name, err)}
		}
		res.Aggregations[t.Name] = buckets
	}

	return res, nil
}

// SearchCount returns the number of documents matching an expression.
func (s *Store) SearchCount(ctx context.Context, q *db.CountQuery) (int, error) {
	if q.IndexName == "" {
		return 0, fmt.Errorf("index name is required")
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(
		q.IndexName, buildQuery(q.Expression), "LIMIT", "0", "0", "DIALECT", "2",
	).Build()

	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isUnknownIndex(err) {
			return 0, db.ErrIndexNotFound
		}
		return 0, &db.Error{Op: db.OpSearch, Err: err}
	}
	if len(raw) == 0 {
		return 0, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("parse total: %w", err)}
	}
	return int(total), nil
}

func searchArgs(q *db.SearchQuery, query string) []string {
	args := []string{q.IndexName, query, "WITHSCORES"}
	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)))
		args = append(args, q.ReturnFields...)
	}
	if q.SortBy != "" {
		args = append(args, "SORTBY", q.SortBy, "ASC")
	}
	return append(args,
		"LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit),
		"DIALECT", "2",
	)
}

func aggregateArgs(index, query string, t aggregation.Terms) []string {
	field := "@" + t.Field
	return []string{
		index, query,
		"LOAD", "1", field,
		"GROUPBY", "1", field,
		"REDUCE", "COUNT", "0", "AS", countAlias,
		"LIMIT", "0", strconv.Itoa(max(t.Size, maxFacetGroups)),
		"DIALECT", "2",
	}
}

// parseSearchResult parses a WITHSCORES reply: [total, key, score, [field, value, ...], ...].
func parseSearchResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	entries := make([]db.SearchEntry, 0, (len(raw)-1)/3)
	for i := 1; i+1 < len(raw); i += 3 {
		key, err := raw[i].ToString()
		if err != nil {
			return nil, fmt.Errorf("parse key: %w", err)
		}
		score, err := raw[i+1].AsFloat64()
		if err != nil {
			return nil, fmt.Errorf("parse score for %s: %w", key, err)
		}

		var fields map[string]string
		if i+2 < len(raw) {
			if pairs, err := raw[i+2].ToArray(); err == nil {
				fields = parseFieldPairs(pairs)
			}
		}

		entries = append(entries, db.SearchEntry{Key: key, Score: score, Fields: fields})
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		k, err := fields[j].ToString()
		if err != nil {
			continue
		}
		v, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[k] = v
	}
	return m
}

// parseAggregation turns an FT.AGGREGATE reply into buckets sorted by count desc, key asc.
// Multi-valued JSON fields may group under a serialized array key; those are split
// and their counts merged per value. An unknown field yields no buckets.
func parseAggregation(res rueidis.RedisResult, t aggregation.Terms) ([]aggregation.Bucket, error) {
	_, rows, err := res.AsFtAggregate()
	if err != nil {
		if isRedisErr(err, "not loaded nor in schema", "unknown property", "no such property") {
			return []aggregation.Bucket{}, nil
		}
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		n, err := strconv.ParseInt(row[countAlias], 10, 64)
		if err != nil {
			continue
		}
		for _, key := range expandKey(row[t.Field]) {
			counts[key] += n
		}
	}

	buckets := make([]aggregation.Bucket, 0, len(counts))
	for k, n := range counts {
		buckets = append(buckets, aggregation.Bucket{Key: k, Count: n})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Key < buckets[j].Key
	})

	if t.Size > 0 && len(buckets) > t.Size {
		buckets = buckets[:t.Size]
	}
	return buckets, nil
}

// expandKey splits a group key that holds a JSON array into its non-empty values.
func expandKey(key string) []string {
	if key == "" {
		return nil
	}
	if !strings.HasPrefix(key, "[") {
		return []string{key}
	}

	var values []any
	if err := json.Unmarshal([]byte(key), &values); err != nil {
		return []string{key}
	}

	out := make([]string, 0, len(values))
	for _, v := range values {
		var s string
		switch x := v.(type) {
		case string:
			s = x
		case nil:
			continue
		default:
			s = fmt.Sprint(x)
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
