package catalogdex

// Document is an open field set. "id" is assigned by the store when absent;
// "categories" is a list of {"path", "name"} objects.
type Document map[string]any

// FieldKind defines how a catalog field takes part in search.
type FieldKind string

// Field kind constants.
const (
	FieldText   FieldKind = "text"
	FieldFilter FieldKind = "filter"
)

// Field is a catalog field declaration.
type Field struct {
	Name string
	Kind FieldKind
}

// Category is a node of a catalog's category tree.
type Category struct {
	Path     string
	Name     string
	Children []Category
}

// CatalogInfo is registered catalog metadata.
type CatalogInfo struct {
	Path       string
	Fields     []Field
	Categories []Category
	UpdatedAt  int64
}

// Query is a search request. Facets select one exact value per field;
// AllOf requires every listed value to be present.
type Query struct {
	Term      string
	Scope     string
	Catalog   string
	Facets    map[string]string
	AllOf     map[string][]string
	ExcludeID string
	From      int
	Size      int
}

// Rating is a dataset's average rating.
type Rating struct {
	Average float64
	Count   int64
}

// SearchResult is one page of hits with facet values.
// Each item carries its stored fields plus "index" and, when joined, "rating".
type SearchResult struct {
	Items  []Document
	Total  int
	Facets map[string][]string
}

// DatasetView is a dataset with its side data.
type DatasetView struct {
	Dataset       Document
	Catalog       string
	SubscriberIDs []string
	Related       []Document
	Rating        *Rating
	Subscribed    bool
}
