package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrDatasetNotFound signals a missing dataset document.
	ErrDatasetNotFound = errors.New("dataset not found")
	// ErrCatalogNotFound signals that no metadata is registered for a catalog path.
	ErrCatalogNotFound = errors.New("catalog not found")
	// ErrInvalidRequest signals malformed caller input.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidDocument signals a dataset document that cannot be indexed.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrInvalidSchema signals invalid catalog metadata.
	ErrInvalidSchema = errors.New("invalid schema")
	// ErrInvalidPartition signals an empty or malformed partition name.
	ErrInvalidPartition = errors.New("invalid partition")
	// ErrIndexUnavailable signals that the partition index does not exist yet.
	ErrIndexUnavailable = errors.New("index unavailable")
)
