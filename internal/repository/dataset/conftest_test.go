package dataset

import (
	"context"
	"testing"

	"github.com/kailas-cloud/catalogdex/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	jsonSetFn      func(ctx context.Context, key, path string, data []byte, mode db.SetMode) error
	jsonSetMultiFn func(ctx context.Context, items []db.JSONSetItem) error
	jsonGetFn      func(ctx context.Context, key string, paths ...string) ([]byte, error)
	delFn          func(ctx context.Context, key string) (bool, error)
	indexInfoFn    func(ctx context.Context, name string) (db.IndexInfo, error)
}

func (m *mockStore) JSONSet(ctx context.Context, key, path string, data []byte, mode db.SetMode) error {
	if m.jsonSetFn != nil {
		return m.jsonSetFn(ctx, key, path, data, mode)
	}
	return nil
}

func (m *mockStore) JSONSetMulti(ctx context.Context, items []db.JSONSetItem) error {
	if m.jsonSetMultiFn != nil {
		return m.jsonSetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	if m.jsonGetFn != nil {
		return m.jsonGetFn(ctx, key, paths...)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) Del(ctx context.Context, key string) (bool, error) {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return true, nil
}

func (m *mockStore) IndexInfo(ctx context.Context, name string) (db.IndexInfo, error) {
	if m.indexInfoFn != nil {
		return m.indexInfoFn(ctx, name)
	}
	return db.IndexInfo{PercentIndexed: 1}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms)
	repo.newID = func() string { return "11111111-2222-3333-4444-555555555555" }
	return repo, ms
}
