package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/catalogdex/internal/db"
)

// JSONSet stores a JSON value at the given key and path.
// SetIfAbsent maps to NX (ErrKeyExists when taken), SetIfPresent to XX (ErrKeyNotFound when missing).
// A non-root path on a missing key is ErrKeyNotFound in every mode.
func (s *Store) JSONSet(ctx context.Context, key, path string, data []byte, mode db.SetMode) error {
	args := []string{path, string(data)}
	switch mode {
	case db.SetIfAbsent:
		args = append(args, "NX")
	case db.SetIfPresent:
		args = append(args, "XX")
	}

	cmd := s.b().Arbitrary("JSON.SET").Keys(key).Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			if mode == db.SetIfAbsent {
				return db.ErrKeyExists
			}
			return db.ErrKeyNotFound
		}
		if isMissingRoot(err) {
			return db.ErrKeyNotFound
		}
		return &db.Error{Op: db.OpJSONSet, Err: err}
	}
	return nil
}

// JSONSetMulti writes multiple root documents in a single DoMulti round-trip.
// The first failed item is reported; earlier items stay written.
func (s *Store) JSONSetMulti(ctx context.Context, items []db.JSONSetItem) error {
	if len(items) == 0 {
		return nil
	}

	cmds := make(rueidis.Commands, len(items))
	for i, item := range items {
		path := item.Path
		if path == "" {
			path = "$"
		}
		cmds[i] = s.b().Arbitrary("JSON.SET").Keys(item.Key).Args(path, string(item.Data)).Build()
	}

	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpJSONSet, Err: fmt.Errorf("key %s: %w", items[i].Key, err)}
		}
	}
	return nil
}

// JSONGet retrieves a JSON document by key and optional paths.
// Without paths the root value is returned as-is.
func (s *Store) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	cmd := s.b().Arbitrary("JSON.GET").Keys(key).Args(paths...).Build()
	raw, err := s.do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpJSONGet, Err: err}
	}
	if raw == "" {
		return nil, db.ErrKeyNotFound
	}
	return []byte(raw), nil
}
