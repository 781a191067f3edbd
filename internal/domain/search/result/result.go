package result

import (
	"maps"

	"github.com/kailas-cloud/catalogdex/internal/domain/search/aggregation"
)

// Result envelope keys added to every item.
const (
	KeyIndex  = "index"
	KeyRating = "rating"
)

// Rating is the average rating of a dataset.
type Rating struct {
	Average float64
	Count   int64
}

// Item is one search hit: stored fields plus the partition it came from.
type Item struct {
	partition string
	score     float64
	fields    map[string]any
	rating    *Rating
}

// NewItem creates a search hit.
func NewItem(partition string, score float64, fields map[string]any) Item {
	return Item{partition: partition, score: score, fields: fields}
}

// ID returns the dataset identifier.
func (i *Item) ID() string {
	id, _ := i.fields["id"].(string)
	return id
}

// Partition returns the source partition.
func (i *Item) Partition() string { return i.partition }

// Score returns the relevance score.
func (i *Item) Score() float64 { return i.score }

// Fields returns the stored fields.
func (i *Item) Fields() map[string]any { return i.fields }

// Rating returns the joined rating, nil when not joined or lookup failed.
func (i *Item) Rating() *Rating { return i.rating }

// WithRating returns a copy of the item carrying r.
func (i Item) WithRating(r Rating) Item {
	i.rating = &r
	return i
}

// Document renders the item as the caller sees it: stored fields, index and rating.
func (i *Item) Document() map[string]any {
	out := maps.Clone(i.fields)
	if out == nil {
		out = make(map[string]any, 2)
	}
	out[KeyIndex] = i.partition
	if i.rating != nil {
		out[KeyRating] = map[string]any{
			"average": i.rating.Average,
			"count":   i.rating.Count,
		}
	}
	return out
}

// Envelope is the uniform search response.
type Envelope struct {
	items  []Item
	total  int
	facets map[string][]string
}

// NewEnvelope creates a result envelope.
func NewEnvelope(items []Item, total int, facets map[string][]string) Envelope {
	if facets == nil {
		facets = map[string][]string{}
	}
	return Envelope{items: items, total: total, facets: facets}
}

// Items returns the ordered hits.
func (e *Envelope) Items() []Item { return e.items }

// Total returns the total number of matching documents.
func (e *Envelope) Total() int { return e.total }

// Facets returns field name to distinct values present among matches.
func (e *Envelope) Facets() map[string][]string { return e.facets }

// WithItems returns a copy of the envelope with items replaced.
func (e Envelope) WithItems(items []Item) Envelope {
	e.items = items
	return e
}

// Hit is one index hit before transformation.
type Hit struct {
	ID     string
	Score  float64
	Fields map[string]any
}

// Raw is an index response before transformation.
// Buckets is keyed by aggregation name; a requested aggregation may be absent.
type Raw struct {
	Total   int
	Hits    []Hit
	Buckets map[string][]aggregation.Bucket
}
