package dataset

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/catalogdex/internal/domain"
	domcat "github.com/kailas-cloud/catalogdex/internal/domain/catalog"
	domds "github.com/kailas-cloud/catalogdex/internal/domain/dataset"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/result"
	"github.com/kailas-cloud/catalogdex/internal/metrics"
)

// View is a fetched dataset with its side data.
type View struct {
	Document      domds.Document
	Catalog       domcat.Path
	SubscriberIDs []string
	Related       []result.Item
	Rating        *result.Rating
	Subscribed    bool
}

// Service serves single-dataset reads.
type Service struct {
	repo   Repository
	search Searcher
	rels   Relationships
	logger *zap.Logger
}

// New creates a dataset service. rels may be nil when no relationship
// store is configured: subscribers are then empty and rating is omitted.
func New(repo Repository, search Searcher, rels Relationships, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, search: search, rels: rels, logger: logger}
}

// Get fetches a dataset, its subscribers, related items and rating.
// userID may be empty, then Subscribed is false.
func (s *Service) Get(ctx context.Context, partition, id, userID string) (View, error) {
	if err := domain.ValidatePartition(partition); err != nil {
		return View{}, err
	}

	doc, err := s.repo.Get(ctx, partition, id)
	if err != nil {
		return View{}, fmt.Errorf("get dataset: %w", err)
	}
	view := View{Document: doc, Catalog: domcat.DocumentPath(doc)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := s.related(gctx, partition, doc)
		if err != nil {
			return fmt.Errorf("related datasets: %w", err)
		}
		view.Related = items
		return nil
	})
	if s.rels == nil {
		if err := g.Wait(); err != nil {
			return View{}, err
		}
		view.SubscriberIDs = []string{}
		return view, nil
	}

	g.Go(func() error {
		subs, err := s.rels.Subscribers(gctx, partition, id)
		if err != nil {
			return fmt.Errorf("list subscribers: %w", err)
		}
		view.SubscriberIDs = subs
		return nil
	})
	g.Go(func() error {
		r, err := s.rels.AverageRating(gctx, partition, id)
		if err != nil {
			metrics.RatingLookupFailuresTotal.Inc()
			s.logger.Warn("rating lookup failed",
				zap.String("partition", partition),
				zap.String("dataset_id", id),
				zap.Error(err),
			)
			return nil
		}
		view.Rating = &r
		return nil
	})
	if userID != "" {
		g.Go(func() error {
			ok, err := s.rels.IsSubscribed(gctx, partition, id, userID)
			if err != nil {
				return fmt.Errorf("check subscription: %w", err)
			}
			view.Subscribed = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return View{}, err
	}

	if view.SubscriberIDs == nil {
		view.SubscriberIDs = []string{}
	}
	return view, nil
}

// Subscribers lists the users subscribed to an existing dataset.
func (s *Service) Subscribers(ctx context.Context, partition, id string) ([]string, error) {
	if err := domain.ValidatePartition(partition); err != nil {
		return nil, err
	}
	if _, err := s.repo.Get(ctx, partition, id); err != nil {
		return nil, fmt.Errorf("get dataset: %w", err)
	}
	if s.rels == nil {
		return []string{}, nil
	}

	subs, err := s.rels.Subscribers(ctx, partition, id)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	if subs == nil {
		subs = []string{}
	}
	return subs, nil
}
