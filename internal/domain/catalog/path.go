package catalog

import "strings"

// DefaultPath is the catalog scope used when no category is available.
const DefaultPath Path = "0.1"

// Path is a dot-separated category coordinate, e.g. "0.1".
// Resolved paths have at most two segments.
type Path string

// String returns the path as a plain string.
func (p Path) String() string { return string(p) }

// Segments splits the path on dots.
func (p Path) Segments() []string {
	if p == "" {
		return nil
	}
	return strings.Split(string(p), ".")
}

// IsDescendantOf reports whether p is a strict descendant of parent.
func (p Path) IsDescendantOf(parent Path) bool {
	return strings.HasPrefix(string(p), string(parent)+".")
}

// ExtractPath resolves a raw category path to its two-level catalog scope.
// Absent or malformed input degrades to DefaultPath.
func ExtractPath(raw string) Path {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultPath
	}
	segs := strings.Split(raw, ".")
	if len(segs) > 2 {
		segs = segs[:2]
	}
	for _, s := range segs {
		if !isNumeric(s) {
			return DefaultPath
		}
	}
	return Path(strings.Join(segs, "."))
}

// PathSource exposes the category paths assigned to a document, in order.
type PathSource interface {
	CategoryPaths() []string
}

// DocumentPath resolves the catalog scope of a document from its first category.
func DocumentPath(doc PathSource) Path {
	paths := doc.CategoryPaths()
	if len(paths) == 0 {
		return DefaultPath
	}
	return ExtractPath(paths[0])
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
