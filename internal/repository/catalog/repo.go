package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/kailas-cloud/catalogdex/internal/db"
	"github.com/kailas-cloud/catalogdex/internal/domain"
	domcat "github.com/kailas-cloud/catalogdex/internal/domain/catalog"
	"github.com/kailas-cloud/catalogdex/internal/domain/catalog/field"
)

// store is the consumer interface for catalog metadata (ISP).
//
//nolint:interfacebloat // catalog repo needs hash + set + index management operations
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) (bool, error)
	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	AlterIndex(ctx context.Context, name string, f db.IndexField) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Repo stores catalog metadata and keeps the partition index schema in line with it.
type Repo struct {
	store store
}

// New creates a catalog repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Put registers or replaces catalog metadata: HSET metadata, then create or extend the
// partition index, then add the path to the partition's catalog set.
// On index failure the previous metadata is restored.
func (r *Repo) Put(ctx context.Context, partition string, meta domcat.Metadata) error {
	others, err := r.List(ctx, partition)
	if err != nil {
		return err
	}
	if err := checkKinds(meta, others); err != nil {
		return err
	}

	key := metaKey(partition, meta.Path())
	backup, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return fmt.Errorf("hgetall catalog %s: %w", meta.Path(), err)
	}

	hashData, err := metadataToHash(meta)
	if err != nil {
		return err
	}

	if err := r.store.HSet(ctx, key, hashData); err != nil {
		return fmt.Errorf("hset catalog %s: %w", meta.Path(), err)
	}

	// FT.CREATE / FT.ALTER; restore previous metadata on error
	if err := r.ensureIndex(ctx, partition, meta.Fields()); err != nil {
		return errors.Join(err, r.restore(ctx, key, backup))
	}

	if err := r.store.SAdd(ctx, catalogsKey(partition), meta.Path().String()); err != nil {
		return fmt.Errorf("sadd catalog %s: %w", meta.Path(), err)
	}
	return nil
}

// Get returns the metadata registered for a catalog path.
func (r *Repo) Get(ctx context.Context, partition string, path domcat.Path) (domcat.Metadata, error) {
	m, err := r.store.HGetAll(ctx, metaKey(partition, path))
	if err != nil {
		return domcat.Metadata{}, fmt.Errorf("hgetall catalog %s: %w", path, err)
	}
	if len(m) == 0 {
		return domcat.Metadata{}, domain.ErrCatalogNotFound
	}
	return metadataFromHash(m)
}

// List returns every catalog registered in the partition, sorted by path.
func (r *Repo) List(ctx context.Context, partition string) ([]domcat.Metadata, error) {
	paths, err := r.store.SMembers(ctx, catalogsKey(partition))
	if err != nil {
		return nil, fmt.Errorf("smembers catalogs: %w", err)
	}
	if len(paths) == 0 {
		return []domcat.Metadata{}, nil
	}

	keys := make([]string, len(paths))
	for i, p := range paths {
		keys[i] = metaKey(partition, domcat.Path(p))
	}

	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi catalogs: %w", err)
	}

	out := make([]domcat.Metadata, 0, len(results))
	for i, m := range results {
		if len(m) == 0 {
			continue
		}
		meta, err := metadataFromHash(m)
		if err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", keys[i], err)
		}
		out = append(out, meta)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path() < out[j].Path() })
	return out, nil
}

// Reindex drops the partition index and recreates it from the fields of every
// registered catalog. Documents are kept and rescanned by the index.
// It returns the number of indexed catalog fields.
func (r *Repo) Reindex(ctx context.Context, partition string) (int, error) {
	metas, err := r.List(ctx, partition)
	if err != nil {
		return 0, err
	}
	if len(metas) == 0 {
		return 0, domain.ErrCatalogNotFound
	}

	var fields []field.Field
	seen := make(map[string]bool)
	for _, m := range metas {
		for _, f := range m.Fields() {
			if seen[f.Name()] {
				continue
			}
			seen[f.Name()] = true
			fields = append(fields, f)
		}
	}

	def, err := buildIndex(partition, fields)
	if err != nil {
		return 0, fmt.Errorf("build index: %w", err)
	}

	idx := indexName(partition)
	if err := r.store.DropIndex(ctx, idx); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return 0, fmt.Errorf("drop index %s: %w", idx, err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		return 0, fmt.Errorf("create index %s: %w", idx, err)
	}
	return len(fields), nil
}

func (r *Repo) ensureIndex(ctx context.Context, partition string, fields []field.Field) error {
	idx := indexName(partition)

	exists, err := r.store.IndexExists(ctx, idx)
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	if !exists {
		def, err := buildIndex(partition, fields)
		if err != nil {
			return fmt.Errorf("build index: %w", err)
		}
		err = r.store.CreateIndex(ctx, def)
		if err == nil {
			return nil
		}
		if !errors.Is(err, db.ErrIndexExists) {
			return fmt.Errorf("create index %s: %w", idx, err)
		}
		// created concurrently, fall through to FT.ALTER
	}

	for _, f := range fields {
		err := r.store.AlterIndex(ctx, idx, indexField(f))
		if err != nil && !errors.Is(err, db.ErrFieldExists) {
			return fmt.Errorf("alter index %s add %s: %w", idx, f.Name(), err)
		}
	}
	return nil
}

func (r *Repo) restore(ctx context.Context, key string, backup map[string]string) error {
	if len(backup) == 0 {
		_, err := r.store.Del(ctx, key)
		return err
	}
	return r.store.HSet(ctx, key, backup)
}

// checkKinds rejects a field declared with another kind by a sibling catalog:
// all catalogs of a partition share one index schema.
func checkKinds(meta domcat.Metadata, others []domcat.Metadata) error {
	kinds := make(map[string]field.Kind)
	owners := make(map[string]domcat.Path)
	for _, o := range others {
		if o.Path() == meta.Path() {
			continue
		}
		for _, f := range o.Fields() {
			kinds[f.Name()] = f.Kind()
			owners[f.Name()] = o.Path()
		}
	}
	for _, f := range meta.Fields() {
		if k, ok := kinds[f.Name()]; ok && k != f.Kind() {
			return fmt.Errorf("%w: field %q is %s in catalog %s",
				domain.ErrInvalidSchema, f.Name(), k, owners[f.Name()])
		}
	}
	return nil
}

// Key patterns: catalogdex:{partition}:catalog:{path}, catalogdex:{partition}:catalogs,
// catalogdex:{partition}:idx, catalogdex:{partition}:doc:

func metaKey(partition string, path domcat.Path) string {
	return fmt.Sprintf("%s%s:catalog:%s", domain.KeyPrefix, partition, path)
}

func catalogsKey(partition string) string {
	return fmt.Sprintf("%s%s:catalogs", domain.KeyPrefix, partition)
}

func indexName(partition string) string {
	return fmt.Sprintf("%s%s:idx", domain.KeyPrefix, partition)
}

func docPrefix(partition string) string {
	return fmt.Sprintf("%s%s:doc:", domain.KeyPrefix, partition)
}
