package catalog

import (
	"fmt"

	"github.com/kailas-cloud/catalogdex/internal/domain/catalog/field"
)

// MaxFields caps the number of fields a catalog can declare.
const MaxFields = 64

// Category is a node of the category tree.
type Category struct {
	Path     Path
	Name     string
	Children []Category
}

// Metadata describes one catalog: its searchable fields and category tree fragment.
type Metadata struct {
	path       Path
	fields     []field.Field
	categories []Category
	updatedAt  int64
}

// NewMetadata validates and creates catalog metadata.
// Category paths must be the catalog path itself or descend from it.
func NewMetadata(path Path, fields []field.Field, categories []Category, updatedAt int64) (Metadata, error) {
	if path == "" {
		return Metadata{}, fmt.Errorf("catalog path is required")
	}
	if ExtractPath(path.String()) != path {
		return Metadata{}, fmt.Errorf("catalog path %q must have one or two numeric segments", path)
	}
	if len(fields) > MaxFields {
		return Metadata{}, fmt.Errorf("too many fields (max %d)", MaxFields)
	}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Name()] {
			return Metadata{}, fmt.Errorf("duplicate field name: %s", f.Name())
		}
		seen[f.Name()] = true
	}
	if err := validateTree(path, categories); err != nil {
		return Metadata{}, err
	}
	return Metadata{path: path, fields: fields, categories: categories, updatedAt: updatedAt}, nil
}

// ReconstructMetadata creates Metadata without validation (storage hydration).
func ReconstructMetadata(path Path, fields []field.Field, categories []Category, updatedAt int64) Metadata {
	return Metadata{path: path, fields: fields, categories: categories, updatedAt: updatedAt}
}

// Path returns the catalog path.
func (m Metadata) Path() Path { return m.path }

// Fields returns all declared fields.
func (m Metadata) Fields() []field.Field { return m.fields }

// Categories returns the category tree fragment.
func (m Metadata) Categories() []Category { return m.categories }

// UpdatedAt returns the last registration time in unix millis.
func (m Metadata) UpdatedAt() int64 { return m.updatedAt }

// TextFields returns the names of text-indexed fields, in declaration order.
func (m Metadata) TextFields() []string {
	text, _ := m.split()
	return text
}

// FilterFields returns the names of filter-indexed fields, in declaration order.
func (m Metadata) FilterFields() []string {
	_, filters := m.split()
	return filters
}

func (m Metadata) split() (text, filters []string) {
	for _, f := range m.fields {
		switch f.Kind() {
		case field.TextIndexed:
			text = append(text, f.Name())
		case field.FilterIndexed:
			filters = append(filters, f.Name())
		}
	}
	return text, filters
}

// Lookup finds a category node by its full path.
func (m Metadata) Lookup(p Path) (Category, bool) {
	return lookup(m.categories, p)
}

// Paths returns the catalog path followed by every category path in the tree, depth-first.
func (m Metadata) Paths() []Path {
	out := []Path{m.path}
	var walk func(nodes []Category)
	walk = func(nodes []Category) {
		for _, n := range nodes {
			if n.Path != m.path {
				out = append(out, n.Path)
			}
			walk(n.Children)
		}
	}
	walk(m.categories)
	return out
}

func lookup(nodes []Category, p Path) (Category, bool) {
	for _, n := range nodes {
		if n.Path == p {
			return n, true
		}
		if p.IsDescendantOf(n.Path) {
			if c, ok := lookup(n.Children, p); ok {
				return c, true
			}
		}
	}
	return Category{}, false
}

func validateTree(root Path, nodes []Category) error {
	for _, n := range nodes {
		if n.Path == "" {
			return fmt.Errorf("category path is required")
		}
		if n.Path != root && !n.Path.IsDescendantOf(root) {
			return fmt.Errorf("category %q is outside catalog %q", n.Path, root)
		}
		for _, c := range n.Children {
			if !c.Path.IsDescendantOf(n.Path) {
				return fmt.Errorf("category %q is not a child of %q", c.Path, n.Path)
			}
		}
		if err := validateTree(root, n.Children); err != nil {
			return err
		}
	}
	return nil
}
