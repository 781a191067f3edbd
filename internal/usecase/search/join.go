package search

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/catalogdex/internal/domain/search/result"
	"github.com/kailas-cloud/catalogdex/internal/metrics"
)

// joinRatings merges the average rating into every item in parallel, keeping order.
// A failed lookup leaves the item without a rating; the page itself never fails.
func (s *Service) joinRatings(ctx context.Context, partition string, env result.Envelope) result.Envelope {
	if s.ratings == nil || len(env.Items()) == 0 {
		return env
	}

	items := append([]result.Item(nil), env.Items()...)

	var g errgroup.Group
	g.SetLimit(s.cfg.RatingsConcurrency)
	for i := range items {
		id := items[i].ID()
		if id == "" {
			continue
		}
		g.Go(func() error {
			r, err := s.ratings.AverageRating(ctx, partition, id)
			if err != nil {
				metrics.RatingLookupFailuresTotal.Inc()
				s.logger.Warn("rating lookup failed",
					zap.String("partition", partition),
					zap.String("dataset_id", id),
					zap.Error(err),
				)
				return nil
			}
			items[i] = items[i].WithRating(r)
			return nil
		})
	}
	_ = g.Wait()

	return env.WithItems(items)
}
