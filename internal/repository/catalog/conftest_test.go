package catalog

import (
	"context"
	"testing"

	"github.com/kailas-cloud/catalogdex/internal/db"
	domcat "github.com/kailas-cloud/catalogdex/internal/domain/catalog"
	"github.com/kailas-cloud/catalogdex/internal/domain/catalog/field"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetFn         func(ctx context.Context, key string, fields map[string]string) error
	hgetAllFn      func(ctx context.Context, key string) (map[string]string, error)
	hgetAllMultiFn func(ctx context.Context, keys []string) ([]map[string]string, error)
	delFn          func(ctx context.Context, key string) (bool, error)
	saddFn         func(ctx context.Context, key string, members ...string) error
	smembersFn     func(ctx context.Context, key string) ([]string, error)
	createIndexFn  func(ctx context.Context, def *db.IndexDefinition) error
	alterIndexFn   func(ctx context.Context, name string, f db.IndexField) error
	dropIndexFn    func(ctx context.Context, name string) error
	indexExistsFn  func(ctx context.Context, name string) (bool, error)
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMultiFn != nil {
		return m.hgetAllMultiFn(ctx, keys)
	}
	return make([]map[string]string, len(keys)), nil
}

func (m *mockStore) Del(ctx context.Context, key string) (bool, error) {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return true, nil
}

func (m *mockStore) SAdd(ctx context.Context, key string, members ...string) error {
	if m.saddFn != nil {
		return m.saddFn(ctx, key, members...)
	}
	return nil
}

func (m *mockStore) SMembers(ctx context.Context, key string) ([]string, error) {
	if m.smembersFn != nil {
		return m.smembersFn(ctx, key)
	}
	return nil, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) AlterIndex(ctx context.Context, name string, f db.IndexField) error {
	if m.alterIndexFn != nil {
		return m.alterIndexFn(ctx, name, f)
	}
	return nil
}

func (m *mockStore) DropIndex(ctx context.Context, name string) error {
	if m.dropIndexFn != nil {
		return m.dropIndexFn(ctx, name)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}

func testMetadata(t *testing.T) domcat.Metadata {
	t.Helper()
	return domcat.ReconstructMetadata(
		"0.1",
		[]field.Field{
			field.Reconstruct("title", field.TextIndexed),
			field.Reconstruct("description", field.TextIndexed),
			field.Reconstruct("tags", field.FilterIndexed),
			field.Reconstruct("license", field.FilterIndexed),
		},
		[]domcat.Category{
			{Path: "0.1.4", Name: "Finance", Children: []domcat.Category{
				{Path: "0.1.4.2", Name: "Banking"},
			}},
		},
		1700000000000,
	)
}
