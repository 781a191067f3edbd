package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kailas-cloud/catalogdex/internal/db"
	"github.com/kailas-cloud/catalogdex/internal/domain"
	domds "github.com/kailas-cloud/catalogdex/internal/domain/dataset"
)

// store is the consumer interface for dataset documents (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte, mode db.SetMode) error
	JSONSetMulti(ctx context.Context, items []db.JSONSetItem) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) (bool, error)
	IndexInfo(ctx context.Context, name string) (db.IndexInfo, error)
}

// Repo stores dataset documents as RedisJSON values under the partition prefix.
type Repo struct {
	store store
	newID func() string
}

// New creates a dataset repository.
func New(s store) *Repo {
	return &Repo{store: s, newID: uuid.NewString}
}

// Create writes a new document under a freshly assigned id and returns the id.
// A caller-supplied id is dropped from the body; SetID writes the assigned one.
func (r *Repo) Create(ctx context.Context, partition string, doc domds.Document) (string, error) {
	id := r.newID()
	fields := doc.Fields()
	delete(fields, domds.FieldID)
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}

	key := docKey(partition, id)
	if err := r.store.JSONSet(ctx, key, "$", data, db.SetIfAbsent); err != nil {
		return "", fmt.Errorf("json.set %s: %w", key, err)
	}
	return id, nil
}

// SetID writes the assigned id into an existing document ($.id).
// $.id is absent after Create, so the write is unconditional; a missing
// document is rejected by the store because non-root paths need a root.
func (r *Repo) SetID(ctx context.Context, partition, id string) error {
	key := docKey(partition, id)
	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("marshal id: %w", err)
	}
	if err := r.store.JSONSet(ctx, key, "$."+domds.FieldID, data, db.SetAlways); err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.ErrDatasetNotFound
		}
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

// Put replaces an existing document.
func (r *Repo) Put(ctx context.Context, partition, id string, doc domds.Document) error {
	key := docKey(partition, id)
	data, err := json.Marshal(doc.WithID(id))
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	if err := r.store.JSONSet(ctx, key, "$", data, db.SetIfPresent); err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.ErrDatasetNotFound
		}
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

// Delete removes a document.
func (r *Repo) Delete(ctx context.Context, partition, id string) error {
	key := docKey(partition, id)
	existed, err := r.store.Del(ctx, key)
	if err != nil {
		return fmt.Errorf("unlink %s: %w", key, err)
	}
	if !existed {
		return domain.ErrDatasetNotFound
	}
	return nil
}

// Get returns a document by id.
func (r *Repo) Get(ctx context.Context, partition, id string) (domds.Document, error) {
	key := docKey(partition, id)
	raw, err := r.store.JSONGet(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domds.Document{}, domain.ErrDatasetNotFound
		}
		return domds.Document{}, fmt.Errorf("json.get %s: %w", key, err)
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return domds.Document{}, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	if _, ok := fields[domds.FieldID]; !ok {
		fields[domds.FieldID] = id
	}
	return domds.Reconstruct(fields), nil
}

// BulkWrite pipelines root writes for documents that already carry an id.
// The returned job is polled with JobStage.
func (r *Repo) BulkWrite(ctx context.Context, partition string, docs []domds.Document) (domds.Job, error) {
	items := make([]db.JSONSetItem, len(docs))
	for i, doc := range docs {
		if doc.ID() == "" {
			return domds.Job{}, fmt.Errorf("%w: document %d has no id", domain.ErrInvalidDocument, i)
		}
		data, err := json.Marshal(doc)
		if err != nil {
			return domds.Job{}, fmt.Errorf("marshal document %d: %w", i, err)
		}
		items[i] = db.JSONSetItem{Key: docKey(partition, doc.ID()), Path: "$", Data: data}
	}

	if err := r.store.JSONSetMulti(ctx, items); err != nil {
		return domds.Job{}, fmt.Errorf("bulk json.set %s: %w", partition, err)
	}
	return domds.Job{Partition: partition, Size: len(docs)}, nil
}

// JobStage reports whether the partition index has caught up with a bulk write.
func (r *Repo) JobStage(ctx context.Context, job domds.Job) (domds.Stage, error) {
	info, err := r.store.IndexInfo(ctx, indexName(job.Partition))
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return "", domain.ErrIndexUnavailable
		}
		return "", fmt.Errorf("ft.info %s: %w", job.Partition, err)
	}
	if info.Idle() {
		return domds.StageIndexed, nil
	}
	return domds.StageIndexing, nil
}

func docKey(partition, id string) string {
	return fmt.Sprintf("%s%s:doc:%s", domain.KeyPrefix, partition, id)
}

func indexName(partition string) string {
	return fmt.Sprintf("%s%s:idx", domain.KeyPrefix, partition)
}
