package counts

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/catalogdex/internal/domain"
)

// store is the consumer interface for count operations (ISP).
type store interface {
	ReplaceHash(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// Store keeps the denormalized per-category document counts of a partition in one hash.
type Store struct {
	store store
}

// New creates a counts store.
func New(s store) *Store {
	return &Store{store: s}
}

// Replace swaps the partition's counts in one transaction.
func (s *Store) Replace(ctx context.Context, partition string, counts map[string]int64) error {
	fields := make(map[string]string, len(counts))
	for path, n := range counts {
		fields[path] = strconv.FormatInt(n, 10)
	}
	if err := s.store.ReplaceHash(ctx, countsKey(partition), fields); err != nil {
		return fmt.Errorf("replace counts %s: %w", partition, err)
	}
	return nil
}

// Get returns category path to document count. Unparsable entries are skipped.
func (s *Store) Get(ctx context.Context, partition string) (map[string]int64, error) {
	m, err := s.store.HGetAll(ctx, countsKey(partition))
	if err != nil {
		return nil, fmt.Errorf("hgetall counts %s: %w", partition, err)
	}
	out := make(map[string]int64, len(m))
	for path, v := range m {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		out[path] = n
	}
	return out, nil
}

func countsKey(partition string) string {
	return fmt.Sprintf("%s%s:counts", domain.KeyPrefix, partition)
}
