package dataset

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"
)

// Persisted field names.
const (
	FieldID          = "id"
	FieldCategories  = "categories"
	FieldTags        = "tags"
	FieldTitle       = "title"
	FieldTitleSort   = "title_sort"
	FieldCatalogPath = "catalog_path"
)

// MaxDocumentSize is the maximum encoded document size in bytes.
const MaxDocumentSize = 163840 // 160KB

// CategoryRef is one category assignment of a document.
type CategoryRef struct {
	Path string `json:"path"`
	Name string `json:"name,omitempty"`
}

// Document is a dataset document: an open field set plus the store-assigned id.
type Document struct {
	fields map[string]any
}

// New validates and creates a Document.
// Fields must be non-empty and categories, when present, must be a list of objects with a path.
func New(fields map[string]any) (Document, error) {
	if len(fields) == 0 {
		return Document{}, fmt.Errorf("document has no fields")
	}
	if raw, ok := fields[FieldID]; ok {
		if _, isStr := raw.(string); !isStr {
			return Document{}, fmt.Errorf("id must be a string")
		}
	}
	if _, err := parseCategories(fields[FieldCategories]); err != nil {
		return Document{}, err
	}
	return Document{fields: maps.Clone(fields)}, nil
}

// Parse decodes a JSON object into a validated Document.
func Parse(data []byte) (Document, error) {
	if len(data) > MaxDocumentSize {
		return Document{}, fmt.Errorf("document too large (max %d bytes)", MaxDocumentSize)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return Document{}, fmt.Errorf("decode document: %w", err)
	}
	return New(fields)
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(fields map[string]any) Document {
	return Document{fields: fields}
}

// ID returns the document identifier, empty before the store assigns one.
func (d Document) ID() string {
	id, _ := d.fields[FieldID].(string)
	return id
}

// Fields returns a shallow copy of the document fields.
func (d Document) Fields() map[string]any { return maps.Clone(d.fields) }

// Title returns the title field, if it is a string.
func (d Document) Title() string {
	t, _ := d.fields[FieldTitle].(string)
	return t
}

// Tags returns the tags field as strings; non-string entries are skipped.
func (d Document) Tags() []string {
	switch v := d.fields[FieldTags].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, t := range v {
			if s, ok := t.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}

// Categories returns the category assignments in document order.
func (d Document) Categories() []CategoryRef {
	refs, _ := parseCategories(d.fields[FieldCategories])
	return refs
}

// CategoryPaths returns the path of every category assignment, in order.
func (d Document) CategoryPaths() []string {
	refs := d.Categories()
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.Path
	}
	return out
}

// With returns a copy of the document with one field set.
func (d Document) With(key string, value any) Document {
	fields := maps.Clone(d.fields)
	if fields == nil {
		fields = make(map[string]any, 1)
	}
	fields[key] = value
	return Document{fields: fields}
}

// WithID returns a copy of the document carrying id.
func (d Document) WithID(id string) Document { return d.With(FieldID, id) }

// WithCategories returns a copy of the document with its category list replaced.
func (d Document) WithCategories(refs []CategoryRef) Document {
	list := make([]any, len(refs))
	for i, r := range refs {
		m := map[string]any{"path": r.Path}
		if r.Name != "" {
			m["name"] = r.Name
		}
		list[i] = m
	}
	return d.With(FieldCategories, list)
}

// MarshalJSON encodes the document fields.
func (d Document) MarshalJSON() ([]byte, error) {
	if d.fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d.fields)
}

// NormalizeTitle produces the tie-break sort key: lower-cased, trimmed, single-spaced.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

func parseCategories(raw any) ([]CategoryRef, error) {
	if raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case []CategoryRef:
		return v, nil
	case []any:
		refs := make([]CategoryRef, 0, len(v))
		for i, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("categories[%d] must be an object", i)
			}
			path, _ := m["path"].(string)
			if path == "" {
				return nil, fmt.Errorf("categories[%d].path is required", i)
			}
			name, _ := m["name"].(string)
			refs = append(refs, CategoryRef{Path: path, Name: name})
		}
		return refs, nil
	default:
		return nil, fmt.Errorf("categories must be a list")
	}
}
