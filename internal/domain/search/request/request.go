package request

import (
	"fmt"
	"maps"
)

// Search parameter limits.
const (
	// MaxTermLength is the maximum allowed length of a text term.
	MaxTermLength = 1024
	DefaultSize   = 20
	MaxSize       = 100
	// MaxWindow bounds from+size, deep pagination is rejected.
	MaxWindow = 10000
)

// Selection is a facet selection: a single value or a set of values that must all match.
type Selection struct {
	values []string
	multi  bool
}

// Single selects one exact value.
func Single(v string) Selection { return Selection{values: []string{v}} }

// Multi selects a set of values that must all be present.
func Multi(vs []string) Selection { return Selection{values: vs, multi: true} }

// Values returns the selected values.
func (s Selection) Values() []string { return s.values }

// IsMulti reports whether this is a multi-valued selection.
func (s Selection) IsMulti() bool { return s.multi }

// IsEmpty reports whether the selection carries no usable value.
func (s Selection) IsEmpty() bool {
	for _, v := range s.values {
		if v != "" {
			return false
		}
	}
	return true
}

// Params are the raw caller inputs for a search.
type Params struct {
	Term      string
	Scope     string
	Catalog   string
	Facets    map[string]Selection
	ExcludeID string
	From      int
	Size      int
}

// Request is a validated search request.
type Request struct {
	term      string
	scope     string
	catalog   string
	facets    map[string]Selection
	excludeID string
	from      int
	size      int
}

// New validates and normalizes search parameters.
// Defaults: size=20. Size is clamped to MaxSize.
func New(p Params) (Request, error) {
	if len(p.Term) > MaxTermLength {
		return Request{}, fmt.Errorf("term too long (max %d chars)", MaxTermLength)
	}
	if len(p.Scope) > MaxTermLength {
		return Request{}, fmt.Errorf("scope too long (max %d chars)", MaxTermLength)
	}
	if p.From < 0 {
		return Request{}, fmt.Errorf("from must not be negative")
	}
	size := p.Size
	if size < 0 {
		return Request{}, fmt.Errorf("size must not be negative")
	}
	if size == 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}
	if p.From+size > MaxWindow {
		return Request{}, fmt.Errorf("from+size must not exceed %d", MaxWindow)
	}

	facets := make(map[string]Selection, len(p.Facets))
	for k, sel := range p.Facets {
		if k == "" {
			return Request{}, fmt.Errorf("facet name is required")
		}
		if sel.IsEmpty() {
			continue
		}
		facets[k] = sel
	}

	return Request{
		term:      p.Term,
		scope:     p.Scope,
		catalog:   p.Catalog,
		facets:    facets,
		excludeID: p.ExcludeID,
		from:      p.From,
		size:      size,
	}, nil
}

// Term returns the primary free-text term.
func (r *Request) Term() string { return r.term }

// Scope returns the secondary free-text term.
func (r *Request) Scope() string { return r.scope }

// Catalog returns the caller-supplied category path override, may be empty.
func (r *Request) Catalog() string { return r.catalog }

// Facet returns the selection for a facet field.
func (r *Request) Facet(name string) (Selection, bool) {
	s, ok := r.facets[name]
	return s, ok
}

// Facets returns a copy of all facet selections.
func (r *Request) Facets() map[string]Selection { return maps.Clone(r.facets) }

// ExcludeID returns the document id to exclude, may be empty.
func (r *Request) ExcludeID() string { return r.excludeID }

// From returns the result offset.
func (r *Request) From() int { return r.from }

// Size returns the page size.
func (r *Request) Size() int { return r.size }
