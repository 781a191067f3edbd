package relationship

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kailas-cloud/catalogdex/internal/domain/search/result"
)

// Tables are owned by the subscription service; this repo only reads them.
const (
	subscribersSQL = `SELECT DISTINCT user_id FROM subscriptions
WHERE partition = $1 AND dataset_id = $2
ORDER BY user_id`

	isSubscribedSQL = `SELECT EXISTS (
	SELECT 1 FROM subscriptions
	WHERE partition = $1 AND dataset_id = $2 AND user_id = $3
)`

	averageRatingSQL = `SELECT COALESCE(AVG(score), 0)::float8, COUNT(*)
FROM ratings
WHERE partition = $1 AND dataset_id = $2`
)

// querier is the consumer interface over a pgx pool (ISP).
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repo reads subscriptions and ratings from the relationship store.
type Repo struct {
	db querier
}

// New creates a relationship repository.
func New(q querier) *Repo {
	return &Repo{db: q}
}

// Subscribers returns the set of user ids subscribed to a dataset, sorted.
// Repeated subscription rows yield one id.
func (r *Repo) Subscribers(ctx context.Context, partition, datasetID string) ([]string, error) {
	rows, err := r.db.Query(ctx, subscribersSQL, partition, datasetID)
	if err != nil {
		return nil, fmt.Errorf("query subscribers %s/%s: %w", partition, datasetID, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan subscribers %s/%s: %w", partition, datasetID, err)
	}
	return ids, nil
}

// IsSubscribed reports whether userID is subscribed to a dataset.
func (r *Repo) IsSubscribed(ctx context.Context, partition, datasetID, userID string) (bool, error) {
	var ok bool
	if err := r.db.QueryRow(ctx, isSubscribedSQL, partition, datasetID, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("query subscription %s/%s: %w", partition, datasetID, err)
	}
	return ok, nil
}

// AverageRating returns the mean score and number of ratings of a dataset.
// An unrated dataset has a zero rating.
func (r *Repo) AverageRating(ctx context.Context, partition, datasetID string) (result.Rating, error) {
	var rating result.Rating
	err := r.db.QueryRow(ctx, averageRatingSQL, partition, datasetID).Scan(&rating.Average, &rating.Count)
	if err != nil {
		return result.Rating{}, fmt.Errorf("query rating %s/%s: %w", partition, datasetID, err)
	}
	return rating, nil
}
