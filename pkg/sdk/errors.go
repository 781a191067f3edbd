package catalogdex

import "github.com/kailas-cloud/catalogdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrDatasetNotFound  = domain.ErrDatasetNotFound
	ErrCatalogNotFound  = domain.ErrCatalogNotFound
	ErrInvalidRequest   = domain.ErrInvalidRequest
	ErrInvalidDocument  = domain.ErrInvalidDocument
	ErrInvalidSchema    = domain.ErrInvalidSchema
	ErrInvalidPartition = domain.ErrInvalidPartition
	ErrIndexUnavailable = domain.ErrIndexUnavailable
)
