package field

import "fmt"

// Kind is how a catalog field participates in search.
type Kind string

// Field kinds. The set is closed: every switch over Kind must handle both.
const (
	// TextIndexed fields take part in phrase-prefix full-text matching.
	TextIndexed Kind = "text"
	// FilterIndexed fields take part in exact-value filters and facets.
	FilterIndexed Kind = "filter"
)

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	switch k {
	case TextIndexed, FilterIndexed:
		return true
	default:
		return false
	}
}

// Names reserved by the document layout and the result envelope.
var reservedFieldNames = map[string]bool{
	"id": true, "index": true, "categories": true, "catalog_path": true,
	"title_sort": true, "rating": true,
}

// Field is an immutable value object describing one catalog field.
type Field struct {
	name string
	kind Kind
}

// New validates and creates a Field.
// Name: [a-zA-Z0-9_], 1-64 chars, not reserved.
func New(name string, k Kind) (Field, error) {
	if name == "" {
		return Field{}, fmt.Errorf("field name is required")
	}
	if len(name) > 64 {
		return Field{}, fmt.Errorf("field name %q too long (max 64)", name)
	}
	if !isIdent(name) {
		return Field{}, fmt.Errorf("field name %q must be alphanumeric with underscores", name)
	}
	if reservedFieldNames[name] {
		return Field{}, fmt.Errorf("field name %q is reserved", name)
	}
	if !k.IsValid() {
		return Field{}, fmt.Errorf("invalid field kind %q for %q", k, name)
	}
	return Field{name: name, kind: k}, nil
}

// Reconstruct creates a Field without validation (storage hydration).
func Reconstruct(name string, k Kind) Field {
	return Field{name: name, kind: k}
}

// Name returns the field name.
func (f Field) Name() string { return f.name }

// Kind returns the field kind.
func (f Field) Kind() Kind { return f.kind }

func isIdent(s string) bool {
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !isAlpha && !isDigit && r != '_' {
			return false
		}
	}
	return true
}
