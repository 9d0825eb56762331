package vector

import "errors"

var (
	// ErrNotFound is returned when a document is not found in the vector store.
	ErrNotFound = errors.New("document not found")

	// ErrConfig is returned for configuration-level failures: a missing
	// embedding provider or a vector whose dimensionality does not match
	// the index. Distinct from ErrNotFound so callers can fail fast.
	ErrConfig = errors.New("vector store misconfigured")

	// ErrEmbedding is returned when embedding generation fails.
	ErrEmbedding = errors.New("embedding failed")

	// ErrConnection is returned when the vector store connection fails.
	ErrConnection = errors.New("vector store connection failed")
)
