package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"

	domcat "github.com/kailas-cloud/catalogdex/internal/domain/catalog"
	"github.com/kailas-cloud/catalogdex/internal/domain/catalog/field"
)

// fieldRow is the JSON-serializable representation of a field for HSET.
type fieldRow struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// categoryRow is the JSON-serializable representation of a category node.
type categoryRow struct {
	Path     string        `json:"path"`
	Name     string        `json:"name"`
	Children []categoryRow `json:"children,omitempty"`
}

// metadataToHash converts catalog metadata to a map for HSET.
func metadataToHash(meta domcat.Metadata) (map[string]string, error) {
	rows := make([]fieldRow, len(meta.Fields()))
	for i, f := range meta.Fields() {
		rows[i] = fieldRow{Name: f.Name(), Kind: string(f.Kind())}
	}
	fieldsJSON, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("marshal fields: %w", err)
	}
	categoriesJSON, err := json.Marshal(toRows(meta.Categories()))
	if err != nil {
		return nil, fmt.Errorf("marshal categories: %w", err)
	}
	return map[string]string{
		"path":            meta.Path().String(),
		"fields_json":     string(fieldsJSON),
		"categories_json": string(categoriesJSON),
		"updated_at":      strconv.FormatInt(meta.UpdatedAt(), 10),
	}, nil
}

// metadataFromHash hydrates catalog metadata from an HGETALL result map.
func metadataFromHash(m map[string]string) (domcat.Metadata, error) {
	var rows []fieldRow
	if s := m["fields_json"]; s != "" {
		if err := json.Unmarshal([]byte(s), &rows); err != nil {
			return domcat.Metadata{}, fmt.Errorf("unmarshal fields: %w", err)
		}
	}
	fields := make([]field.Field, len(rows))
	for i, r := range rows {
		fields[i] = field.Reconstruct(r.Name, field.Kind(r.Kind))
	}

	var cats []categoryRow
	if s := m["categories_json"]; s != "" {
		if err := json.Unmarshal([]byte(s), &cats); err != nil {
			return domcat.Metadata{}, fmt.Errorf("unmarshal categories: %w", err)
		}
	}

	var updatedAt int64
	if s := m["updated_at"]; s != "" {
		parsed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return domcat.Metadata{}, fmt.Errorf("invalid updated_at: %w", err)
		}
		updatedAt = parsed
	}

	return domcat.ReconstructMetadata(domcat.Path(m["path"]), fields, fromRows(cats), updatedAt), nil
}

func toRows(nodes []domcat.Category) []categoryRow {
	rows := make([]categoryRow, len(nodes))
	for i, n := range nodes {
		rows[i] = categoryRow{Path: n.Path.String(), Name: n.Name, Children: toRows(n.Children)}
	}
	return rows
}

func fromRows(rows []categoryRow) []domcat.Category {
	if len(rows) == 0 {
		return nil
	}
	nodes := make([]domcat.Category, len(rows))
	for i, r := range rows {
		nodes[i] = domcat.Category{Path: domcat.Path(r.Path), Name: r.Name, Children: fromRows(r.Children)}
	}
	return nodes
}
