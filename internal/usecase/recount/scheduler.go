package recount

import (
	"context"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/catalogdex/internal/metrics"
)

// Defaults for the recount pool.
const (
	DefaultWorkers = 4
	DefaultTimeout = 30 * time.Second
)

// Recounter recomputes the counts of one partition.
type Recounter interface {
	Recount(ctx context.Context, partition string) error
}

// Scheduler runs recounts on a bounded worker pool. Submissions return no handle;
// failures are logged and counted.
//
// A partition holds at most one job. Schedules that arrive while its job is
// queued or running are folded into a single rerun after the current pass.
type Scheduler struct {
	pool    *ants.Pool
	wg      sync.WaitGroup
	svc     Recounter
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.Mutex
	active map[string]bool
	rerun  map[string]bool
}

// NewScheduler creates a pool of workers. A full pool rejects new jobs instead of blocking.
func NewScheduler(svc Recounter, workers int, timeout time.Duration, logger *zap.Logger) (*Scheduler, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	pool, err := ants.NewPool(workers,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p any) {
			metrics.RecountTotal.WithLabelValues("error").Inc()
			logger.Error("recount panicked", zap.Any("panic", p))
		}),
	)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		pool:    pool,
		svc:     svc,
		timeout: timeout,
		logger:  logger,
		active:  make(map[string]bool),
		rerun:   make(map[string]bool),
	}, nil
}

// Schedule queues a recount of partition. It detaches from ctx cancellation
// and applies its own timeout. A full pool rejects only partitions that have
// no job yet.
func (s *Scheduler) Schedule(ctx context.Context, partition string) {
	s.mu.Lock()
	if s.active[partition] {
		s.rerun[partition] = true
		s.mu.Unlock()
		metrics.RecountTotal.WithLabelValues("coalesced").Inc()
		return
	}
	s.active[partition] = true
	s.mu.Unlock()

	jobCtx := context.WithoutCancel(ctx)

	s.wg.Add(1)
	err := s.pool.Submit(func() {
		defer s.wg.Done()
		s.drain(jobCtx, partition)
	})
	if err != nil {
		s.wg.Done()
		s.forget(partition)
		metrics.RecountTotal.WithLabelValues("rejected").Inc()
		s.logger.Warn("recount rejected", zap.String("partition", partition), zap.Error(err))
	}
}

// drain recounts partition until no rerun is pending.
func (s *Scheduler) drain(ctx context.Context, partition string) {
	defer func() {
		if p := recover(); p != nil {
			s.forget(partition)
			panic(p)
		}
	}()
	for {
		s.recount(ctx, partition)
		if !s.takeRerun(partition) {
			return
		}
	}
}

func (s *Scheduler) recount(ctx context.Context, partition string) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := s.svc.Recount(ctx, partition)
	metrics.RecountDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RecountTotal.WithLabelValues("error").Inc()
		s.logger.Warn("recount failed", zap.String("partition", partition), zap.Error(err))
		return
	}
	metrics.RecountTotal.WithLabelValues("ok").Inc()
}

// takeRerun consumes a pending rerun. Without one the partition is released
// under the same lock, so a concurrent Schedule starts a fresh job.
func (s *Scheduler) takeRerun(partition string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rerun[partition] {
		delete(s.rerun, partition)
		return true
	}
	delete(s.active, partition)
	return false
}

func (s *Scheduler) forget(partition string) {
	s.mu.Lock()
	delete(s.active, partition)
	delete(s.rerun, partition)
	s.mu.Unlock()
}

// Wait blocks until every queued recount has finished or ctx is done.
func (s *Scheduler) Wait(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Release stops the pool, waiting up to timeout for running jobs.
func (s *Scheduler) Release(timeout time.Duration) error {
	return s.pool.ReleaseTimeout(timeout)
}
