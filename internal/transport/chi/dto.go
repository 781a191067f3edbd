package chi

import (
	"encoding/json"
	"fmt"

	domcat "github.com/kailas-cloud/catalogdex/internal/domain/catalog"
	"github.com/kailas-cloud/catalogdex/internal/domain/catalog/field"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/request"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/result"
	datasetuc "github.com/kailas-cloud/catalogdex/internal/usecase/dataset"
)

// ErrorCode is a machine-readable error code in error responses.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeInvalidDocument  ErrorCode = "invalid_document"
	ErrorCodeInvalidPartition ErrorCode = "invalid_partition"
	ErrorCodeDatasetNotFound  ErrorCode = "dataset_not_found"
	ErrorCodeCatalogNotFound  ErrorCode = "catalog_not_found"
	ErrorCodeNotFound         ErrorCode = "not_found"
	ErrorCodeIndexUnavailable ErrorCode = "index_unavailable"
	ErrorCodeStoreUnavailable ErrorCode = "store_unavailable"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchRequest is the body of POST .../datasets/search.
// A facet value is either a string (single) or an array of strings (all-of).
type SearchRequest struct {
	Term      string                     `json:"term"`
	Scope     string                     `json:"scope"`
	Catalog   string                     `json:"catalog"`
	Facets    map[string]json.RawMessage `json:"facets"`
	ExcludeID string                     `json:"exclude_id"`
	From      *int                       `json:"from"`
	Size      *int                       `json:"size"`
}

// SearchResponse is the result envelope.
type SearchResponse struct {
	Items  []map[string]any    `json:"items"`
	Total  int                 `json:"total"`
	Facets map[string][]string `json:"facets"`
	From   int                 `json:"from"`
	Size   int                 `json:"size"`
}

// RatingResponse is the average rating of a dataset.
type RatingResponse struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

// DatasetResponse is a fetched dataset with side data.
type DatasetResponse struct {
	Dataset       map[string]any   `json:"dataset"`
	Catalog       string           `json:"catalog"`
	SubscriberIDs []string         `json:"subscriberIds"`
	Related       []map[string]any `json:"related"`
	Rating        *RatingResponse  `json:"rating,omitempty"`
	Subscribed    bool             `json:"subscribed"`
}

// SubscribersResponse lists subscribed user ids.
type SubscribersResponse struct {
	SubscriberIDs []string `json:"subscriberIds"`
}

// CreateResponse carries the store-assigned id.
type CreateResponse struct {
	ID string `json:"id"`
}

// BulkResponse reports whether a bulk write became searchable in time.
type BulkResponse struct {
	Indexed bool `json:"indexed"`
	Count   int  `json:"count"`
}

// FieldDefinition declares one catalog field.
type FieldDefinition struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// CategoryNode is one node of a category tree.
type CategoryNode struct {
	Path     string         `json:"path"`
	Name     string         `json:"name"`
	Children []CategoryNode `json:"children,omitempty"`
}

// CatalogRequest is the body of PUT .../catalogs/{path}.
type CatalogRequest struct {
	Fields     []FieldDefinition `json:"fields"`
	Categories []CategoryNode    `json:"categories"`
}

// CatalogResponse is registered catalog metadata.
type CatalogResponse struct {
	Path       string            `json:"path"`
	Fields     []FieldDefinition `json:"fields"`
	Categories []CategoryNode    `json:"categories"`
	UpdatedAt  int64             `json:"updated_at"`
}

// CountsResponse maps category paths to document counts.
type CountsResponse struct {
	Partition string           `json:"partition"`
	Counts    map[string]int64 `json:"counts"`
}

// HealthResponse is the aggregated health report.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func selectionFromJSON(name string, raw json.RawMessage) (request.Selection, error) {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return request.Single(single), nil
	}
	var multi []string
	if err := json.Unmarshal(raw, &multi); err != nil {
		return request.Selection{}, fmt.Errorf("facet %q must be a string or an array of strings", name)
	}
	return request.Multi(multi), nil
}

func selectionFromQuery(values []string) request.Selection {
	if len(values) == 1 {
		return request.Single(values[0])
	}
	return request.Multi(values)
}

func envelopeToResponse(env *result.Envelope, from, size int) SearchResponse {
	return SearchResponse{
		Items:  itemsToDocuments(env.Items()),
		Total:  env.Total(),
		Facets: env.Facets(),
		From:   from,
		Size:   size,
	}
}

func itemsToDocuments(items []result.Item) []map[string]any {
	out := make([]map[string]any, len(items))
	for i := range items {
		out[i] = items[i].Document()
	}
	return out
}

func viewToResponse(v *datasetuc.View) DatasetResponse {
	resp := DatasetResponse{
		Dataset:       v.Document.Fields(),
		Catalog:       v.Catalog.String(),
		SubscriberIDs: v.SubscriberIDs,
		Related:       itemsToDocuments(v.Related),
		Subscribed:    v.Subscribed,
	}
	if v.Rating != nil {
		resp.Rating = &RatingResponse{Average: v.Rating.Average, Count: v.Rating.Count}
	}
	return resp
}

func fieldsFromRequest(defs []FieldDefinition) ([]field.Field, error) {
	fields := make([]field.Field, 0, len(defs))
	for _, d := range defs {
		f, err := field.New(d.Name, field.Kind(d.Kind))
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func categoriesFromRequest(nodes []CategoryNode) []domcat.Category {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]domcat.Category, len(nodes))
	for i, n := range nodes {
		out[i] = domcat.Category{
			Path:     domcat.Path(n.Path),
			Name:     n.Name,
			Children: categoriesFromRequest(n.Children),
		}
	}
	return out
}

func categoriesToResponse(nodes []domcat.Category) []CategoryNode {
	out := make([]CategoryNode, len(nodes))
	for i, n := range nodes {
		out[i] = CategoryNode{
			Path:     n.Path.String(),
			Name:     n.Name,
			Children: categoriesToResponse(n.Children),
		}
	}
	return out
}

func catalogToResponse(m domcat.Metadata) CatalogResponse {
	fields := make([]FieldDefinition, len(m.Fields()))
	for i, f := range m.Fields() {
		fields[i] = FieldDefinition{Name: f.Name(), Kind: string(f.Kind())}
	}
	return CatalogResponse{
		Path:       m.Path().String(),
		Fields:     fields,
		Categories: categoriesToResponse(m.Categories()),
		UpdatedAt:  m.UpdatedAt(),
	}
}
