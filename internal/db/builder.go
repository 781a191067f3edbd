package db

import "strings"

// IndexBuilder is a fluent builder for FT index definitions.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts building an FT index definition.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{
		def: IndexDefinition{
			Name:        name,
			StorageType: StorageHash,
		},
	}
}

// OnJSON sets the index storage type to JSON.
func (b *IndexBuilder) OnJSON() *IndexBuilder {
	b.def.StorageType = StorageJSON
	return b
}

// Prefix adds key prefixes to the index.
func (b *IndexBuilder) Prefix(prefixes ...string) *IndexBuilder {
	b.def.Prefixes = append(b.def.Prefixes, prefixes...)
	return b
}

// Field appends a prepared field.
func (b *IndexBuilder) Field(f IndexField) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, f)
	return b
}

// Numeric adds a NUMERIC field to the index.
func (b *IndexBuilder) Numeric(name string) *IndexBuilder {
	return b.Field(IndexField{Name: name, Type: IndexFieldNumeric})
}

// Tag adds a TAG field to the index.
func (b *IndexBuilder) Tag(name string) *IndexBuilder {
	return b.Field(IndexField{Name: name, Type: IndexFieldTag})
}

// TagAs adds a TAG field addressed by alias, e.g. a JSONPath.
func (b *IndexBuilder) TagAs(path, alias string) *IndexBuilder {
	return b.Field(JSONTag(path, alias))
}

// SortableTagAs adds a TAG field that FT.SEARCH can SORTBY.
func (b *IndexBuilder) SortableTagAs(path, alias string) *IndexBuilder {
	f := JSONTag(path, alias)
	f.Sortable = true
	return b.Field(f)
}

// TextAs adds a TEXT field addressed by alias.
func (b *IndexBuilder) TextAs(path, alias string) *IndexBuilder {
	return b.Field(JSONText(path, alias))
}

// Text adds a TEXT field to the index.
func (b *IndexBuilder) Text(name string) *IndexBuilder {
	return b.Field(IndexField{Name: name, Type: IndexFieldText})
}

// Build validates and returns the index definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	return &b.def, nil
}

// MustBuild calls Build and panics on error.
func (b *IndexBuilder) MustBuild() *IndexDefinition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

// JSONTag is a case-sensitive TAG over a JSONPath, separated by "|" so commas stay in values.
func JSONTag(path, alias string) IndexField {
	return IndexField{
		Name:             path,
		Alias:            alias,
		Type:             IndexFieldTag,
		TagSeparator:     "|",
		TagCaseSensitive: true,
	}
}

// JSONText is a TEXT field over a JSONPath.
func JSONText(path, alias string) IndexField {
	return IndexField{Name: path, Alias: alias, Type: IndexFieldText}
}

// String returns a debug representation resembling the FT.CREATE command.
func (idx *IndexDefinition) String() string {
	parts := []string{"FT.CREATE", idx.Name}
	if idx.StorageType != "" {
		parts = append(parts, "ON", string(idx.StorageType))
	}
	if len(idx.Prefixes) > 0 {
		parts = append(parts, "PREFIX")
		parts = append(parts, idx.Prefixes...)
	}
	parts = append(parts, "SCHEMA")
	for i := range idx.Fields {
		f := &idx.Fields[i]
		parts = append(parts, f.Name)
		if f.Alias != "" {
			parts = append(parts, "AS", f.Alias)
		}
		switch f.Type {
		case IndexFieldTag:
			parts = append(parts, "TAG")
		case IndexFieldNumeric:
			parts = append(parts, "NUMERIC")
		case IndexFieldText:
			parts = append(parts, "TEXT")
		}
		if f.Sortable {
			parts = append(parts, "SORTABLE")
		}
	}
	return strings.Join(parts, " ")
}
