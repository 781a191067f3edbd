package result

import "testing"

func TestItem_Document(t *testing.T) {
	it := NewItem("marketplace", 1.5, map[string]any{"id": "d1", "title": "Bank"})
	doc := it.Document()
	if doc["index"] != "marketplace" {
		t.Errorf("index = %v", doc["index"])
	}
	if _, ok := doc["rating"]; ok {
		t.Error("rating must be absent when not joined")
	}
	if _, ok := it.Fields()["index"]; ok {
		t.Error("Document() must not mutate stored fields")
	}
	if it.ID() != "d1" {
		t.Errorf("ID() = %q", it.ID())
	}
}

func TestItem_WithRating(t *testing.T) {
	it := NewItem("p", 0, map[string]any{"id": "d1"})
	rated := it.WithRating(Rating{Average: 4.5, Count: 2})
	if it.Rating() != nil {
		t.Error("WithRating mutated the original item")
	}
	r, ok := rated.Document()["rating"].(map[string]any)
	if !ok {
		t.Fatalf("rating missing: %v", rated.Document())
	}
	if r["average"] != 4.5 || r["count"] != int64(2) {
		t.Errorf("rating = %v", r)
	}
}

func TestNewEnvelope_NilFacets(t *testing.T) {
	env := NewEnvelope(nil, 0, nil)
	if env.Facets() == nil {
		t.Error("Facets() must not be nil")
	}
}
