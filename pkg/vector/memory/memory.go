// Package memory provides an in-process implementation of the vector.Driver
// interface using brute-force cosine similarity. It is the reference
// implementation and the backend used by unit tests; production deployments
// use the sqlite-vec, chroma, or qdrant drivers.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/noemaco/noema/pkg/vector"
)

// Driver implements vector.Driver using in-process data structures.
type Driver struct {
	dimensions uint
	logger     *zap.Logger

	mu sync.RWMutex

	// namespaces maps namespace -> id -> stored document.
	namespaces map[string]map[string]vector.Document
}

// Config holds configuration for the in-memory vector driver.
type Config struct {
	// Dimensions is the required embedding length. Vectors of any other
	// length are rejected with vector.ErrConfig.
	Dimensions uint
}

// NewDriver creates an in-memory vector driver.
func NewDriver(c Config, logger *zap.Logger) (*Driver, error) {
	if c.Dimensions == 0 {
		return nil, fmt.Errorf("%w: embedding dimensions cannot be 0", vector.ErrConfig)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Driver{
		dimensions: c.Dimensions,
		logger:     logger,
		namespaces: make(map[string]map[string]vector.Document),
	}, nil
}

func (d *Driver) checkDimensions(v []float32) error {
	if uint(len(v)) != d.dimensions {
		return fmt.Errorf("%w: embedding has %d dimensions, index configured for %d",
			vector.ErrConfig, len(v), d.dimensions)
	}
	return nil
}

// Upsert stores documents, overwriting records with the same id.
func (d *Driver) Upsert(_ context.Context, namespace string, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	for _, doc := range docs {
		if err := d.checkDimensions(doc.Embedding); err != nil {
			return err
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ns, ok := d.namespaces[namespace]
	if !ok {
		ns = make(map[string]vector.Document)
		d.namespaces[namespace] = ns
	}

	for _, doc := range docs {
		ns[doc.ID] = copyDocument(doc)
	}

	d.logger.Debug("upserted documents",
		zap.String("namespace", namespace),
		zap.Int("count", len(docs)),
	)

	return nil
}

// Query ranks all records in the namespace by cosine similarity.
func (d *Driver) Query(_ context.Context, namespace string, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if err := d.checkDimensions(embedding); err != nil {
		return nil, err
	}

	if topK <= 0 {
		topK = 10
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	var results []vector.QueryResult
	for _, doc := range d.namespaces[namespace] {
		results = append(results, vector.QueryResult{
			Document: copyDocument(doc),
			Score:    cosine(embedding, doc.Embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		// Stable ordering for equal scores.
		return results[i].ID < results[j].ID
	})

	if len(results) > topK {
		results = results[:topK]
	}

	return results, nil
}

// Fetch retrieves a single document by id.
func (d *Driver) Fetch(_ context.Context, namespace, id string) (*vector.Document, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	doc, ok := d.namespaces[namespace][id]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", vector.ErrNotFound, namespace, id)
	}

	out := copyDocument(doc)
	return &out, nil
}

// Delete removes documents by id. Absent ids are ignored.
func (d *Driver) Delete(_ context.Context, namespace string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ns := d.namespaces[namespace]
	for _, id := range ids {
		delete(ns, id)
	}

	return nil
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}

// copyDocument returns a deep copy so callers cannot mutate internal state.
func copyDocument(doc vector.Document) vector.Document {
	out := vector.Document{
		ID:   doc.ID,
		Text: doc.Text,
	}

	out.Embedding = make([]float32, len(doc.Embedding))
	copy(out.Embedding, doc.Embedding)

	if doc.Metadata != nil {
		out.Metadata = make(map[string]string, len(doc.Metadata))
		for k, v := range doc.Metadata {
			out.Metadata[k] = v
		}
	}

	return out
}

// cosine computes cosine similarity between two equal-length vectors.
func cosine(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

var _ vector.Driver = (*Driver)(nil)
