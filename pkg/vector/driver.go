// Package vector provides interfaces and implementations for namespaced
// vector storage.
package vector

import "context"

// MetadataTextKey is the reserved metadata key under which drivers persist
// the original text of a record, so retrieval never needs a second store.
const MetadataTextKey = "text"

// Document represents a stored item with its embedding and metadata.
type Document struct {
	// ID is a unique identifier for the document within its namespace.
	ID string

	// Text is the original text the embedding was computed from.
	Text string

	// Embedding is the vector representation of the document content.
	// Immutable once written; edits re-embed into a fresh record.
	Embedding []float32

	// Metadata holds open caller-supplied attributes.
	Metadata map[string]string
}

// QueryResult represents a search result with similarity score.
type QueryResult struct {
	Document

	// Score represents the similarity score (higher = more similar).
	// Scores are monotonically consistent within a driver regardless of
	// the backend's native distance metric.
	Score float32
}

// Driver handles storage and retrieval of vector embeddings. Records live
// in namespaces: logical partitions isolating one purpose's records
// (chunks, entities, relations) from another's.
type Driver interface {
	// Upsert stores documents with their embeddings, overwriting any
	// record with the same id in the namespace.
	Upsert(ctx context.Context, namespace string, docs []Document) error

	// Query finds the topK most similar documents to the given embedding
	// within the namespace, ranked by descending similarity.
	Query(ctx context.Context, namespace string, embedding []float32, topK int) ([]QueryResult, error)

	// Fetch retrieves a single document by id. Returns ErrNotFound when
	// the namespace has no record with that id.
	Fetch(ctx context.Context, namespace, id string) (*Document, error)

	// Delete removes documents by their IDs. Deleting an absent id is not
	// an error.
	Delete(ctx context.Context, namespace string, ids []string) error

	// Close releases any resources held by the driver.
	Close() error
}
