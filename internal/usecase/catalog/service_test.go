package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/catalogdex/internal/domain"
	domcat "github.com/kailas-cloud/catalogdex/internal/domain/catalog"
	"github.com/kailas-cloud/catalogdex/internal/domain/catalog/field"
)

// --- Mocks ---

type mockRepo struct {
	putErr  error
	getMeta domcat.Metadata
	getErr  error
	list    []domcat.Metadata
	listErr error
	fields  int
	reErr   error

	putCalled bool
	lastPut   domcat.Metadata
}

func (m *mockRepo) Put(_ context.Context, _ string, meta domcat.Metadata) error {
	m.putCalled = true
	m.lastPut = meta
	return m.putErr
}

func (m *mockRepo) Get(_ context.Context, _ string, _ domcat.Path) (domcat.Metadata, error) {
	return m.getMeta, m.getErr
}

func (m *mockRepo) List(_ context.Context, _ string) ([]domcat.Metadata, error) {
	return m.list, m.listErr
}

func (m *mockRepo) Reindex(_ context.Context, _ string) (int, error) {
	return m.fields, m.reErr
}

type mockScheduler struct {
	calls int
}

func (m *mockScheduler) Schedule(_ context.Context, _ string) { m.calls++ }

func testFields() []field.Field {
	return []field.Field{
		field.Reconstruct("title", field.TextIndexed),
		field.Reconstruct("tags", field.FilterIndexed),
	}
}

// --- Tests ---

func TestPut_Success(t *testing.T) {
	repo := &mockRepo{}
	sched := &mockScheduler{}
	svc := New(repo, sched)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }

	meta, err := svc.Put(context.Background(), "market", "0.1", testFields(), []domcat.Category{
		{Path: "0.1.4", Name: "Finance"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.UpdatedAt() != 1700000000000 {
		t.Errorf("updatedAt = %d", meta.UpdatedAt())
	}
	if !repo.putCalled || repo.lastPut.Path() != "0.1" {
		t.Error("expected repo.Put with the catalog")
	}
	if sched.calls != 1 {
		t.Errorf("recount scheduled %d times, want 1", sched.calls)
	}
}

func TestPut_InvalidSchema(t *testing.T) {
	repo := &mockRepo{}
	sched := &mockScheduler{}
	svc := New(repo, sched)

	_, err := svc.Put(context.Background(), "market", "0.1", testFields(), []domcat.Category{
		{Path: "0.2.1", Name: "Elsewhere"},
	})
	if !errors.Is(err, domain.ErrInvalidSchema) {
		t.Fatalf("expected ErrInvalidSchema, got %v", err)
	}
	if repo.putCalled || sched.calls != 0 {
		t.Error("invalid metadata must not be stored")
	}
}

func TestPut_RepoError(t *testing.T) {
	sched := &mockScheduler{}
	svc := New(&mockRepo{putErr: domain.ErrInvalidSchema}, sched)

	if _, err := svc.Put(context.Background(), "market", "0.1", testFields(), nil); !errors.Is(err, domain.ErrInvalidSchema) {
		t.Fatalf("expected ErrInvalidSchema, got %v", err)
	}
	if sched.calls != 0 {
		t.Error("recount must not run after a failed put")
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := New(&mockRepo{getErr: domain.ErrCatalogNotFound}, &mockScheduler{})

	_, err := svc.Get(context.Background(), "market", "0.9")
	if !errors.Is(err, domain.ErrCatalogNotFound) {
		t.Fatalf("expected ErrCatalogNotFound, got %v", err)
	}
}

func TestList(t *testing.T) {
	metas := []domcat.Metadata{domcat.ReconstructMetadata("0.1", testFields(), nil, 0)}
	svc := New(&mockRepo{list: metas}, &mockScheduler{})

	got, err := svc.List(context.Background(), "market")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 catalog, got %d", len(got))
	}

	if _, err := svc.List(context.Background(), "bad name"); !errors.Is(err, domain.ErrInvalidPartition) {
		t.Errorf("expected ErrInvalidPartition, got %v", err)
	}
}

func TestReindex(t *testing.T) {
	tests := []struct {
		name      string
		partition string
		repo      *mockRepo
		wantErr   error
	}{
		{"rebuilt", "market", &mockRepo{fields: 4}, nil},
		{"no catalogs", "market", &mockRepo{reErr: domain.ErrCatalogNotFound}, domain.ErrCatalogNotFound},
		{"bad partition", "", &mockRepo{}, domain.ErrInvalidPartition},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sched := &mockScheduler{}
			n, err := New(tc.repo, sched).Reindex(context.Background(), tc.partition)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
			} else if err != nil || n != tc.repo.fields {
				t.Fatalf("Reindex = %d, %v", n, err)
			}
			if sched.calls != 0 {
				t.Errorf("recount scheduled %d times during reindex", sched.calls)
			}
		})
	}
}
