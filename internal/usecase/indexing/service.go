package indexing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/catalogdex/internal/domain"
	domds "github.com/kailas-cloud/catalogdex/internal/domain/dataset"
	"github.com/kailas-cloud/catalogdex/internal/metrics"
)

// Bulk wait defaults.
const (
	DefaultBulkWait     = 5000 * time.Millisecond
	DefaultPollInterval = 100 * time.Millisecond
	// MaxBulkSize caps the documents accepted by one bulk write.
	MaxBulkSize = 1000
)

// Config tunes the bulk wait.
type Config struct {
	BulkWait     time.Duration
	PollInterval time.Duration
}

// Service coordinates index mutations and the follow-up recount.
type Service struct {
	repo     Repository
	catalogs CatalogReader
	recount  RecountScheduler
	logger   *zap.Logger
	cfg      Config
	newID    func() string
}

// New creates an indexing service.
func New(repo Repository, catalogs CatalogReader, recount RecountScheduler, logger *zap.Logger, cfg Config) *Service {
	if cfg.BulkWait <= 0 {
		cfg.BulkWait = DefaultBulkWait
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		catalogs: catalogs,
		recount:  recount,
		logger:   logger,
		cfg:      cfg,
		newID:    uuid.NewString,
	}
}

// CreateMany enriches and writes docs in one pipelined batch, then waits for
// the index to catch up. It returns false, nil when indexing did not finish
// within the configured bound. The recount is queued only once indexed.
func (s *Service) CreateMany(ctx context.Context, partition string, docs []domds.Document) (bool, error) {
	if err := domain.ValidatePartition(partition); err != nil {
		return false, err
	}
	if len(docs) == 0 {
		return false, fmt.Errorf("%w: no documents", domain.ErrInvalidRequest)
	}
	if len(docs) > MaxBulkSize {
		return false, fmt.Errorf("%w: too many documents (max %d)", domain.ErrInvalidRequest, MaxBulkSize)
	}

	e := newEnricher(s.catalogs)
	prepared := make([]domds.Document, len(docs))
	for i, doc := range docs {
		if doc.ID() == "" {
			doc = doc.WithID(s.newID())
		}
		enriched, err := e.enrich(ctx, partition, doc)
		if err != nil {
			return false, fmt.Errorf("enrich document %d: %w", i, err)
		}
		prepared[i] = enriched
	}

	job, err := s.repo.BulkWrite(ctx, partition, prepared)
	if err != nil {
		return false, fmt.Errorf("bulk write: %w", err)
	}
	metrics.BulkDocumentsTotal.Add(float64(len(prepared)))

	indexed, err := s.waitIndexed(ctx, job)
	if err != nil {
		metrics.BulkWaitTotal.WithLabelValues("error").Inc()
		return false, fmt.Errorf("wait indexed: %w", err)
	}
	if !indexed {
		metrics.BulkWaitTotal.WithLabelValues("timeout").Inc()
		s.logger.Warn("bulk write not indexed in time",
			zap.String("partition", partition),
			zap.Int("documents", job.Size),
			zap.Duration("wait", s.cfg.BulkWait),
		)
		return false, nil
	}

	metrics.BulkWaitTotal.WithLabelValues("indexed").Inc()
	s.recount.Schedule(ctx, partition)
	return true, nil
}

// waitIndexed polls the job stage until indexed or the bulk wait elapses.
func (s *Service) waitIndexed(ctx context.Context, job domds.Job) (bool, error) {
	deadline := time.NewTimer(s.cfg.BulkWait)
	defer deadline.Stop()
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		stage, err := s.repo.JobStage(ctx, job)
		if err != nil {
			return false, err
		}
		if stage == domds.StageIndexed {
			return true, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-deadline.C:
			return false, nil
		case <-ticker.C:
		}
	}
}

// CreateOne writes doc under a store-assigned id, records the id in the
// document and queues a recount.
func (s *Service) CreateOne(ctx context.Context, partition string, doc domds.Document) (string, error) {
	if err := domain.ValidatePartition(partition); err != nil {
		return "", err
	}

	enriched, err := newEnricher(s.catalogs).enrich(ctx, partition, doc)
	if err != nil {
		return "", fmt.Errorf("enrich document: %w", err)
	}

	id, err := s.repo.Create(ctx, partition, enriched)
	if err != nil {
		return "", fmt.Errorf("create dataset: %w", err)
	}
	if err := s.repo.SetID(ctx, partition, id); err != nil {
		return "", fmt.Errorf("set dataset id: %w", err)
	}

	s.recount.Schedule(ctx, partition)
	return id, nil
}

// UpdateOne replaces an existing document and queues a recount.
func (s *Service) UpdateOne(ctx context.Context, partition, id string, doc domds.Document) error {
	if err := domain.ValidatePartition(partition); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("%w: id is required", domain.ErrInvalidRequest)
	}

	enriched, err := newEnricher(s.catalogs).enrich(ctx, partition, doc)
	if err != nil {
		return fmt.Errorf("enrich document: %w", err)
	}
	if err := s.repo.Put(ctx, partition, id, enriched); err != nil {
		return fmt.Errorf("update dataset: %w", err)
	}

	s.recount.Schedule(ctx, partition)
	return nil
}

// DeleteOne removes a document and queues a recount.
func (s *Service) DeleteOne(ctx context.Context, partition, id string) error {
	if err := domain.ValidatePartition(partition); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, partition, id); err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}

	s.recount.Schedule(ctx, partition)
	return nil
}
