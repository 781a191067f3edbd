package catalog

import (
	"github.com/kailas-cloud/catalogdex/internal/db"
	"github.com/kailas-cloud/catalogdex/internal/domain/catalog/field"
	"github.com/kailas-cloud/catalogdex/internal/domain/dataset"
)

// buildIndex creates the partition index: the fixed document layout plus one
// attribute per catalog field.
func buildIndex(partition string, fields []field.Field) (*db.IndexDefinition, error) {
	b := db.NewIndex(indexName(partition)).
		OnJSON().
		Prefix(docPrefix(partition)).
		TagAs("$."+dataset.FieldID, dataset.FieldID).
		TagAs("$."+dataset.FieldCategories+"[*].path", dataset.FieldCatalogPath).
		SortableTagAs("$."+dataset.FieldTitleSort, dataset.FieldTitleSort)

	for _, f := range fields {
		b = b.Field(indexField(f))
	}
	return b.Build()
}

// indexField maps a catalog field to its index attribute: text fields are
// full-text searchable, filter fields are exact-match tags.
func indexField(f field.Field) db.IndexField {
	path := "$." + f.Name()
	switch f.Kind() {
	case field.TextIndexed:
		return db.JSONText(path, f.Name())
	case field.FilterIndexed:
		return db.JSONTag(path, f.Name())
	default:
		return db.JSONTag(path, f.Name())
	}
}
