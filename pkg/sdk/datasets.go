package catalogdex

import (
	"context"
	"fmt"
	"time"

	domds "github.com/kailas-cloud/catalogdex/internal/domain/dataset"
)

// DatasetService reads and writes datasets within a single partition.
type DatasetService struct {
	partition string
	reads     datasetUseCase
	writes    indexingUseCase
	obs       *observer
}

// Get fetches a dataset with subscribers, related datasets and rating.
// userID may be empty; Subscribed is then false.
func (s *DatasetService) Get(ctx context.Context, id, userID string) (_ DatasetView, err error) {
	start := time.Now()
	defer func() { s.obs.observe("dataset.get", s.partition, start, err) }()

	v, err := s.reads.Get(ctx, s.partition, id, userID)
	if err != nil {
		return DatasetView{}, fmt.Errorf("get dataset: %w", err)
	}
	view := DatasetView{
		Dataset:       Document(v.Document.Fields()),
		Catalog:       v.Catalog.String(),
		SubscriberIDs: v.SubscriberIDs,
		Related:       fromInternalItems(v.Related),
		Subscribed:    v.Subscribed,
	}
	if v.Rating != nil {
		view.Rating = &Rating{Average: v.Rating.Average, Count: v.Rating.Count}
	}
	return view, nil
}

// Subscribers lists the users subscribed to a dataset.
func (s *DatasetService) Subscribers(ctx context.Context, id string) (_ []string, err error) {
	start := time.Now()
	defer func() { s.obs.observe("dataset.subscribers", s.partition, start, err) }()

	ids, err := s.reads.Subscribers(ctx, s.partition, id)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	return ids, nil
}

// CreateMany bulk-writes docs and reports whether they became searchable
// within the configured wait.
func (s *DatasetService) CreateMany(ctx context.Context, docs []Document) (_ bool, err error) {
	start := time.Now()
	defer func() { s.obs.observe("dataset.create_many", s.partition, start, err) }()

	internal := make([]domds.Document, len(docs))
	for i, d := range docs {
		if internal[i], err = domds.New(d); err != nil {
			return false, fmt.Errorf("create datasets: document %d: %w", i, err)
		}
	}
	indexed, err := s.writes.CreateMany(ctx, s.partition, internal)
	if err != nil {
		return false, fmt.Errorf("create datasets: %w", err)
	}
	return indexed, nil
}

// Create indexes one dataset and returns its id.
func (s *DatasetService) Create(ctx context.Context, doc Document) (_ string, err error) {
	start := time.Now()
	defer func() { s.obs.observe("dataset.create", s.partition, start, err) }()

	d, err := domds.New(doc)
	if err != nil {
		return "", fmt.Errorf("create dataset: %w", err)
	}
	id, err := s.writes.CreateOne(ctx, s.partition, d)
	if err != nil {
		return "", fmt.Errorf("create dataset: %w", err)
	}
	return id, nil
}

// Update replaces the dataset stored under id.
func (s *DatasetService) Update(ctx context.Context, id string, doc Document) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("dataset.update", s.partition, start, err) }()

	d, err := domds.New(doc)
	if err != nil {
		return fmt.Errorf("update dataset: %w", err)
	}
	if err = s.writes.UpdateOne(ctx, s.partition, id, d); err != nil {
		return fmt.Errorf("update dataset: %w", err)
	}
	return nil
}

// Delete removes a dataset.
func (s *DatasetService) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("dataset.delete", s.partition, start, err) }()

	if err = s.writes.DeleteOne(ctx, s.partition, id); err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}
	return nil
}
