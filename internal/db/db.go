package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade; consumers declare narrow sub-interfaces
type Store interface {
	Pinger
	HashStore
	SetStore
	JSONStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	ReplaceHash(ctx context.Context, key string, fields map[string]string) error
	Del(ctx context.Context, key string) (bool, error)
}

// SetStore provides set operations.
type SetStore interface {
	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// SetMode controls JSON.SET existence conditions.
type SetMode int

const (
	// SetAlways writes unconditionally.
	SetAlways SetMode = iota
	// SetIfAbsent writes only when the key does not exist (NX).
	SetIfAbsent
	// SetIfPresent writes only when the key already exists (XX).
	SetIfPresent
)

// JSONSetItem holds a single key+path+data triple for pipelined JSON.SET.
type JSONSetItem struct {
	Key  string
	Path string
	Data []byte
}

// JSONStore provides JSON document operations.
type JSONStore interface {
	JSONSet(ctx context.Context, key, path string, data []byte, mode SetMode) error
	JSONSetMulti(ctx context.Context, items []JSONSetItem) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) (bool, error)
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	AlterIndex(ctx context.Context, name string, field IndexField) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	IndexInfo(ctx context.Context, name string) (IndexInfo, error)
}

// Searcher provides search operations over FT indexes.
type Searcher interface {
	Search(ctx context.Context, q *SearchQuery) (*SearchResult, error)
	SearchCount(ctx context.Context, q *CountQuery) (int, error)
}
