package search

import (
	"testing"

	"github.com/kailas-cloud/catalogdex/internal/domain/search/aggregation"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/result"
)

func TestTransform_OrdersByScoreThenTitleSort(t *testing.T) {
	raw := result.Raw{
		Total: 4,
		Hits: []result.Hit{
			{ID: "c", Score: 1, Fields: map[string]any{"id": "c", "title_sort": "zeta"}},
			{ID: "b", Score: 2, Fields: map[string]any{"id": "b", "title_sort": "beta"}},
			{ID: "a", Score: 2, Fields: map[string]any{"id": "a", "title_sort": "alpha"}},
			{ID: "d", Score: 1, Fields: map[string]any{"id": "d", "title": "  Eta  Data "}},
		},
	}

	env := transform("market", raw, aggregation.Request{}, "")

	want := []string{"a", "b", "d", "c"}
	items := env.Items()
	if len(items) != len(want) {
		t.Fatalf("got %d items, want %d", len(items), len(want))
	}
	for i, id := range want {
		if items[i].ID() != id {
			t.Errorf("items[%d] = %s, want %s", i, items[i].ID(), id)
		}
	}
	if env.Total() != 4 {
		t.Errorf("total = %d", env.Total())
	}
}

func TestTransform_AddsIndexToDocument(t *testing.T) {
	env := transform("market", result.Raw{Hits: []result.Hit{{ID: "a", Score: 1}}}, aggregation.Request{}, "")

	doc := env.Items()[0].Document()
	if doc[result.KeyIndex] != "market" {
		t.Errorf("index = %v", doc[result.KeyIndex])
	}
	if doc["id"] != "a" {
		t.Errorf("id = %v", doc["id"])
	}
}

func TestTransform_Facets(t *testing.T) {
	aggs, err := aggregation.NewRequest([]string{"tags", "format"}, 10)
	if err != nil {
		t.Fatalf("aggregation.NewRequest: %v", err)
	}
	raw := result.Raw{Buckets: map[string][]aggregation.Bucket{
		"tags":  {{Key: "b", Count: 1}, {Key: "a", Count: 1}, {Key: "c", Count: 3}},
		"extra": {{Key: "x", Count: 1}},
	}}

	env := transform("market", raw, aggs, "")

	facets := env.Facets()
	if len(facets) != 2 {
		t.Fatalf("facet keys = %v, want exactly tags and format", facets)
	}
	got := facets["tags"]
	if len(got) != 3 || got[0] != "c" || got[1] != "a" || got[2] != "b" {
		t.Errorf("tags = %v, want [c a b]", got)
	}
	if f, ok := facets["format"]; !ok || f == nil || len(f) != 0 {
		t.Errorf("format = %#v, want empty list", f)
	}
}
