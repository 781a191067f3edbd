package catalog

import (
	"context"

	domcat "github.com/kailas-cloud/catalogdex/internal/domain/catalog"
)

// Repository defines the storage contract for catalog metadata.
type Repository interface {
	Put(ctx context.Context, partition string, meta domcat.Metadata) error
	Get(ctx context.Context, partition string, path domcat.Path) (domcat.Metadata, error)
	List(ctx context.Context, partition string) ([]domcat.Metadata, error)
	Reindex(ctx context.Context, partition string) (int, error)
}

// RecountScheduler queues an asynchronous recount of a partition.
type RecountScheduler interface {
	Schedule(ctx context.Context, partition string)
}
