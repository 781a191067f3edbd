package dataset

import (
	"context"

	domds "github.com/kailas-cloud/catalogdex/internal/domain/dataset"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/request"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/result"
)

// Repository reads dataset documents.
type Repository interface {
	Get(ctx context.Context, partition, id string) (domds.Document, error)
}

// Searcher runs a compiled search without side-data joins.
type Searcher interface {
	Run(ctx context.Context, partition string, req *request.Request) (result.Envelope, error)
}

// Relationships reads subscriptions and ratings.
type Relationships interface {
	Subscribers(ctx context.Context, partition, datasetID string) ([]string, error)
	IsSubscribed(ctx context.Context, partition, datasetID, userID string) (bool, error)
	AverageRating(ctx context.Context, partition, datasetID string) (result.Rating, error)
}
