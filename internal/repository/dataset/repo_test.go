package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/kailas-cloud/catalogdex/internal/db"
	"github.com/kailas-cloud/catalogdex/internal/domain"
	domds "github.com/kailas-cloud/catalogdex/internal/domain/dataset"
)

const testID = "11111111-2222-3333-4444-555555555555"

func TestCreate_AssignsIDWithNX(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.jsonSetFn = func(_ context.Context, key, path string, data []byte, mode db.SetMode) error {
		if key != "catalogdex:market:doc:"+testID {
			t.Errorf("unexpected key: %s", key)
		}
		if path != "$" || mode != db.SetIfAbsent {
			t.Errorf("unexpected path/mode: %s %v", path, mode)
		}
		var body map[string]any
		if err := json.Unmarshal(data, &body); err != nil {
			t.Fatalf("body: %v", err)
		}
		if _, ok := body["id"]; ok {
			t.Error("caller id must not be stored")
		}
		if body["title"] != "World Bank" {
			t.Errorf("unexpected body: %v", body)
		}
		return nil
	}

	doc := domds.Reconstruct(map[string]any{"id": "caller", "title": "World Bank"})
	id, err := repo.Create(context.Background(), "market", doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != testID {
		t.Errorf("unexpected id: %s", id)
	}
}

func TestCreate_Collision(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.jsonSetFn = func(_ context.Context, _, _ string, _ []byte, _ db.SetMode) error {
		return db.ErrKeyExists
	}
	_, err := repo.Create(context.Background(), "market", domds.Reconstruct(map[string]any{"title": "x"}))
	if !errors.Is(err, db.ErrKeyExists) {
		t.Fatalf("expected ErrKeyExists, got %v", err)
	}
}

func TestSetID_PartialUpdate(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.jsonSetFn = func(_ context.Context, _, path string, data []byte, mode db.SetMode) error {
		if path != "$.id" {
			t.Errorf("unexpected path: %s", path)
		}
		if string(data) != `"abc"` {
			t.Errorf("unexpected data: %s", data)
		}
		if mode != db.SetAlways {
			t.Errorf("unexpected mode: %v", mode)
		}
		return nil
	}

	if err := repo.SetID(context.Background(), "market", "abc"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetID_MissingDocument(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.jsonSetFn = func(_ context.Context, _, _ string, _ []byte, _ db.SetMode) error {
		return db.ErrKeyNotFound
	}

	err := repo.SetID(context.Background(), "market", "abc")
	if !errors.Is(err, domain.ErrDatasetNotFound) {
		t.Fatalf("expected ErrDatasetNotFound, got %v", err)
	}
}

func TestPut_Missing(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.jsonSetFn = func(_ context.Context, _, _ string, _ []byte, _ db.SetMode) error {
		return db.ErrKeyNotFound
	}
	err := repo.Put(context.Background(), "market", "nope", domds.Reconstruct(map[string]any{"title": "x"}))
	if !errors.Is(err, domain.ErrDatasetNotFound) {
		t.Fatalf("expected ErrDatasetNotFound, got %v", err)
	}
}

func TestPut_KeepsID(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.jsonSetFn = func(_ context.Context, _, _ string, data []byte, _ db.SetMode) error {
		var body map[string]any
		_ = json.Unmarshal(data, &body)
		if body["id"] != "d1" {
			t.Errorf("expected id d1 in body, got %v", body["id"])
		}
		return nil
	}
	if err := repo.Put(context.Background(), "market", "d1", domds.Reconstruct(map[string]any{"title": "x"})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.delFn = func(_ context.Context, key string) (bool, error) {
		return key == "catalogdex:market:doc:d1", nil
	}

	if err := repo.Delete(context.Background(), "market", "d1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Delete(context.Background(), "market", "d2"); !errors.Is(err, domain.ErrDatasetNotFound) {
		t.Fatalf("expected ErrDatasetNotFound, got %v", err)
	}
}

func TestGet(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.jsonGetFn = func(_ context.Context, key string, paths ...string) ([]byte, error) {
		if len(paths) != 0 {
			t.Errorf("expected root get, got paths %v", paths)
		}
		return []byte(`{"id":"d1","title":"World Bank","tags":["finance"]}`), nil
	}

	doc, err := repo.Get(context.Background(), "market", "d1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID() != "d1" || doc.Title() != "World Bank" || len(doc.Tags()) != 1 {
		t.Errorf("unexpected document: %v", doc.Fields())
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, err := repo.Get(context.Background(), "market", "d1")
	if !errors.Is(err, domain.ErrDatasetNotFound) {
		t.Fatalf("expected ErrDatasetNotFound, got %v", err)
	}
}

func TestBulkWrite(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.jsonSetMultiFn = func(_ context.Context, items []db.JSONSetItem) error {
		if len(items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(items))
		}
		if items[1].Key != "catalogdex:market:doc:b" || items[1].Path != "$" {
			t.Errorf("unexpected item: %+v", items[1])
		}
		return nil
	}

	job, err := repo.BulkWrite(context.Background(), "market", []domds.Document{
		domds.Reconstruct(map[string]any{"id": "a"}),
		domds.Reconstruct(map[string]any{"id": "b"}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Partition != "market" || job.Size != 2 {
		t.Errorf("unexpected job: %+v", job)
	}
}

func TestBulkWrite_RequiresID(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, err := repo.BulkWrite(context.Background(), "market", []domds.Document{
		domds.Reconstruct(map[string]any{"title": "no id"}),
	})
	if !errors.Is(err, domain.ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
}

func TestJobStage(t *testing.T) {
	tests := []struct {
		name string
		info db.IndexInfo
		err  error
		want domds.Stage
		werr error
	}{
		{"idle", db.IndexInfo{PercentIndexed: 1}, nil, domds.StageIndexed, nil},
		{"indexing", db.IndexInfo{Indexing: true, PercentIndexed: 0.4}, nil, domds.StageIndexing, nil},
		{"no_index", db.IndexInfo{}, db.ErrIndexNotFound, "", domain.ErrIndexUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo, ms := newTestRepo(t)
			ms.indexInfoFn = func(_ context.Context, name string) (db.IndexInfo, error) {
				if name != "catalogdex:market:idx" {
					t.Errorf("unexpected index: %s", name)
				}
				return tc.info, tc.err
			}
			got, err := repo.JobStage(context.Background(), domds.Job{Partition: "market"})
			if !errors.Is(err, tc.werr) {
				t.Fatalf("err = %v, want %v", err, tc.werr)
			}
			if got != tc.want {
				t.Errorf("stage = %q, want %q", got, tc.want)
			}
		})
	}
}
