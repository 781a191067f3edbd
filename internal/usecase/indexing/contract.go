package indexing

import (
	"context"

	domcat "github.com/kailas-cloud/catalogdex/internal/domain/catalog"
	domds "github.com/kailas-cloud/catalogdex/internal/domain/dataset"
)

// Repository writes dataset documents to the partition index.
type Repository interface {
	Create(ctx context.Context, partition string, doc domds.Document) (string, error)
	SetID(ctx context.Context, partition, id string) error
	Put(ctx context.Context, partition, id string, doc domds.Document) error
	Delete(ctx context.Context, partition, id string) error
	BulkWrite(ctx context.Context, partition string, docs []domds.Document) (domds.Job, error)
	JobStage(ctx context.Context, job domds.Job) (domds.Stage, error)
}

// CatalogReader reads catalog metadata for categorization.
type CatalogReader interface {
	Get(ctx context.Context, partition string, path domcat.Path) (domcat.Metadata, error)
}

// RecountScheduler queues an asynchronous recount of a partition.
type RecountScheduler interface {
	Schedule(ctx context.Context, partition string)
}
