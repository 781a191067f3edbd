package redis

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/catalogdex/internal/db"
)

// CreateIndex creates an FT index from the given definition.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := buildCreateArgs(def)
	if err != nil {
		return err
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// AlterIndex adds one field to an existing index schema.
func (s *Store) AlterIndex(ctx context.Context, name string, field db.IndexField) error {
	fieldArgs, err := buildFieldArgs(&field)
	if err != nil {
		return err
	}
	args := append([]string{name, "SCHEMA", "ADD"}, fieldArgs...)

	cmd := s.b().Arbitrary("FT.ALTER").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		switch {
		case isRedisErr(err, "duplicate field"):
			return db.ErrFieldExists
		case isUnknownIndex(err):
			return db.ErrIndexNotFound
		}
		return &db.Error{Op: db.OpAlterIndex, Err: err}
	}
	return nil
}

// DropIndex removes an FT index by name. Documents are kept.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	cmd := s.b().Arbitrary("FT.DROPINDEX").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isUnknownIndex(err) {
			return db.ErrIndexNotFound
		}
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}
	return nil
}

// IndexExists checks index existence via FT.INFO; "unknown index name" means absent.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	_, err := s.IndexInfo(ctx, name)
	if errors.Is(err, db.ErrIndexNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IndexInfo reads document count and background indexing progress via FT.INFO.
func (s *Store) IndexInfo(ctx context.Context, name string) (db.IndexInfo, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isUnknownIndex(err) {
			return db.IndexInfo{}, db.ErrIndexNotFound
		}
		return db.IndexInfo{}, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return parseIndexInfo(raw), nil
}

// parseIndexInfo reads the flat [key, value, ...] FT.INFO reply. Unknown keys are ignored.
func parseIndexInfo(raw []rueidis.RedisMessage) db.IndexInfo {
	var info db.IndexInfo
	for i := 0; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		switch key {
		case "num_docs":
			if v, err := raw[i+1].AsInt64(); err == nil {
				info.NumDocs = v
			}
		case "indexing":
			if v, err := raw[i+1].AsInt64(); err == nil {
				info.Indexing = v != 0
			}
		case "percent_indexed":
			if v, err := raw[i+1].AsFloat64(); err == nil {
				info.PercentIndexed = v
			}
		}
	}
	return info
}

func buildCreateArgs(idx *db.IndexDefinition) ([]string, error) {
	if idx.Name == "" {
		return nil, errors.New("index name is required")
	}
	if len(idx.Fields) == 0 {
		return nil, errors.New("at least one field is required")
	}

	args := []string{idx.Name}

	storage := idx.StorageType
	if storage == "" {
		storage = db.StorageHash
	}
	args = append(args, "ON", string(storage))

	if len(idx.Prefixes) > 0 {
		args = append(args, "PREFIX", strconv.Itoa(len(idx.Prefixes)))
		args = append(args, idx.Prefixes...)
	}

	args = append(args, "SCHEMA")

	for i := range idx.Fields {
		fieldArgs, err := buildFieldArgs(&idx.Fields[i])
		if err != nil {
			return nil, err
		}
		args = append(args, fieldArgs...)
	}

	return args, nil
}

func buildFieldArgs(f *db.IndexField) ([]string, error) {
	if f.Name == "" {
		return nil, errors.New("field name is required")
	}

	args := []string{f.Name}

	if f.Alias != "" {
		args = append(args, "AS", f.Alias)
	}

	switch f.Type {
	case db.IndexFieldNumeric:
		args = append(args, "NUMERIC")

	case db.IndexFieldText:
		args = append(args, "TEXT")

	case db.IndexFieldTag:
		args = append(args, "TAG")
		if f.TagSeparator != "" {
			args = append(args, "SEPARATOR", f.TagSeparator)
		}
		if f.TagCaseSensitive {
			args = append(args, "CASESENSITIVE")
		}

	default:
		return nil, errors.New("unknown field type")
	}

	if f.Sortable {
		args = append(args, "SORTABLE")
	}

	return args, nil
}
