package search

import (
	"context"
	"testing"

	"github.com/kailas-cloud/catalogdex/internal/db"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/filter"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchFn      func(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
	searchCountFn func(ctx context.Context, q *db.CountQuery) (int, error)
}

func (m *mockStore) Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchCount(ctx context.Context, q *db.CountQuery) (int, error) {
	if m.searchCountFn != nil {
		return m.searchCountFn(ctx, q)
	}
	return 0, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms)
	return repo, ms
}

func mustScope(t *testing.T, path string) filter.Expression {
	t.Helper()
	c, err := filter.NewScope("catalog_path", path)
	if err != nil {
		t.Fatalf("NewScope: %v", err)
	}
	e, err := filter.NewExpression(nil, []filter.Condition{c}, nil)
	if err != nil {
		t.Fatalf("NewExpression: %v", err)
	}
	return e
}
