// Package qdrant provides a Qdrant vector database driver implementation
// over the gRPC client.
package qdrant

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	qdr "github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/noemaco/noema/pkg/vector"
)

const (
	// DefaultCollectionPrefix prefixes the per-namespace collection names.
	DefaultCollectionPrefix = "noema"

	// payloadIDKey holds the caller-supplied record id. Qdrant point ids
	// must be integers or UUIDs, so string ids are mapped to deterministic
	// UUIDs and the original kept in the payload.
	payloadIDKey = "_id"

	// payloadTextKey holds the original record text.
	payloadTextKey = "_text"
)

// idNamespace seeds the deterministic point-id UUIDs.
var idNamespace = uuid.MustParse("8f31c2a7-4b7e-4d32-9a10-5b2d6f0e9c44")

// Driver implements vector.Driver backed by a Qdrant server. Each namespace
// maps to its own collection named "<prefix>_<namespace>".
type Driver struct {
	client           *qdr.Client
	collectionPrefix string
	dimensions       uint
	logger           *zap.Logger

	mu sync.Mutex

	// collections records which per-namespace collections are known to exist.
	collections map[string]bool
}

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Host is the Qdrant server host (e.g., "localhost").
	Host string

	// Port is the Qdrant gRPC port. Defaults to 6334.
	Port int

	// APIKey authenticates against Qdrant Cloud. Optional.
	APIKey string

	// CollectionPrefix prefixes per-namespace collection names.
	// Defaults to DefaultCollectionPrefix if empty.
	CollectionPrefix string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

// NewDriver creates a new Qdrant vector driver.
func NewDriver(c Config, logger *zap.Logger) (*Driver, error) {
	if c.Host == "" {
		return nil, fmt.Errorf("%w: qdrant host is required", vector.ErrConfig)
	}

	if c.Dimensions == 0 {
		return nil, fmt.Errorf("%w: embedding dimensions cannot be 0", vector.ErrConfig)
	}

	port := c.Port
	if port == 0 {
		port = 6334
	}

	prefix := c.CollectionPrefix
	if prefix == "" {
		prefix = DefaultCollectionPrefix
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := qdr.NewClient(&qdr.Config{
		Host:   c.Host,
		Port:   port,
		APIKey: c.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: creating qdrant client: %v", vector.ErrConnection, err)
	}

	logger.Info("connected to Qdrant",
		zap.String("host", c.Host),
		zap.Int("port", port),
		zap.String("collection_prefix", prefix),
		zap.Uint("dimensions", c.Dimensions),
	)

	return &Driver{
		client:           client,
		collectionPrefix: prefix,
		dimensions:       c.Dimensions,
		logger:           logger,
		collections:      make(map[string]bool),
	}, nil
}

func (d *Driver) collectionName(namespace string) string {
	return fmt.Sprintf("%s_%s", d.collectionPrefix, namespace)
}

// pointID maps a caller-supplied record id to a deterministic UUID within
// its namespace.
func pointID(namespace, id string) string {
	return uuid.NewSHA1(idNamespace, []byte(namespace+"/"+id)).String()
}

// ensureCollection creates the namespace's collection if it does not exist.
func (d *Driver) ensureCollection(ctx context.Context, namespace string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	name := d.collectionName(namespace)
	if d.collections[name] {
		return name, nil
	}

	exists, err := d.client.CollectionExists(ctx, name)
	if err != nil {
		return "", fmt.Errorf("%w: checking collection %q: %v", vector.ErrConnection, name, err)
	}

	if !exists {
		err = d.client.CreateCollection(ctx, &qdr.CreateCollection{
			CollectionName: name,
			VectorsConfig: qdr.NewVectorsConfig(&qdr.VectorParams{
				Size:     uint64(d.dimensions),
				Distance: qdr.Distance_Cosine,
			}),
		})
		if err != nil {
			return "", fmt.Errorf("%w: creating collection %q: %v", vector.ErrConnection, name, err)
		}
	}

	d.collections[name] = true
	return name, nil
}

func (d *Driver) checkDimensions(v []float32) error {
	if uint(len(v)) != d.dimensions {
		return fmt.Errorf("%w: embedding has %d dimensions, index configured for %d",
			vector.ErrConfig, len(v), d.dimensions)
	}
	return nil
}

// Upsert stores documents with their embeddings.
func (d *Driver) Upsert(ctx context.Context, namespace string, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	for _, doc := range docs {
		if err := d.checkDimensions(doc.Embedding); err != nil {
			return err
		}
	}

	collection, err := d.ensureCollection(ctx, namespace)
	if err != nil {
		return err
	}

	points := make([]*qdr.PointStruct, len(docs))
	for i, doc := range docs {
		payload := map[string]any{
			payloadIDKey:   doc.ID,
			payloadTextKey: doc.Text,
		}
		for k, v := range doc.Metadata {
			payload[k] = v
		}

		points[i] = &qdr.PointStruct{
			Id:      qdr.NewID(pointID(namespace, doc.ID)),
			Vectors: qdr.NewVectors(doc.Embedding...),
			Payload: qdr.NewValueMap(payload),
		}
	}

	_, err = d.client.Upsert(ctx, &qdr.UpsertPoints{
		CollectionName: collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("%w: upserting points: %v", vector.ErrConnection, err)
	}

	d.logger.Debug("upserted documents to qdrant",
		zap.String("namespace", namespace),
		zap.Int("count", len(docs)),
	)

	return nil
}

// Query finds the topK most similar documents to the given embedding.
func (d *Driver) Query(ctx context.Context, namespace string, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if err := d.checkDimensions(embedding); err != nil {
		return nil, err
	}

	if topK <= 0 {
		topK = 10
	}

	collection, err := d.ensureCollection(ctx, namespace)
	if err != nil {
		return nil, err
	}

	points, err := d.client.Query(ctx, &qdr.QueryPoints{
		CollectionName: collection,
		Query:          qdr.NewQuery(embedding...),
		Limit:          qdr.PtrOf(uint64(topK)),
		WithPayload:    qdr.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: querying points: %v", vector.ErrConnection, err)
	}

	var results []vector.QueryResult
	for _, point := range points {
		doc := documentFromPayload(point.GetPayload())
		results = append(results, vector.QueryResult{
			Document: doc,
			Score:    point.GetScore(),
		})
	}

	d.logger.Debug("queried qdrant",
		zap.String("namespace", namespace),
		zap.Int("results", len(results)),
	)

	return results, nil
}

// Fetch retrieves a single document by id.
func (d *Driver) Fetch(ctx context.Context, namespace, id string) (*vector.Document, error) {
	collection, err := d.ensureCollection(ctx, namespace)
	if err != nil {
		return nil, err
	}

	points, err := d.client.Get(ctx, &qdr.GetPoints{
		CollectionName: collection,
		Ids:            []*qdr.PointId{qdr.NewID(pointID(namespace, id))},
		WithPayload:    qdr.NewWithPayload(true),
		WithVectors:    qdr.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: getting point: %v", vector.ErrConnection, err)
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", vector.ErrNotFound, namespace, id)
	}

	doc := documentFromPayload(points[0].GetPayload())
	if vec := points[0].GetVectors().GetVector(); vec != nil {
		doc.Embedding = vec.GetData()
	}

	return &doc, nil
}

// Delete removes documents by their IDs. Absent ids are ignored.
func (d *Driver) Delete(ctx context.Context, namespace string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	collection, err := d.ensureCollection(ctx, namespace)
	if err != nil {
		return err
	}

	pointIDs := make([]*qdr.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdr.NewID(pointID(namespace, id))
	}

	_, err = d.client.Delete(ctx, &qdr.DeletePoints{
		CollectionName: collection,
		Points:         qdr.NewPointsSelector(pointIDs...),
	})
	if err != nil {
		return fmt.Errorf("%w: deleting points: %v", vector.ErrConnection, err)
	}

	d.logger.Debug("deleted documents from qdrant",
		zap.String("namespace", namespace),
		zap.Int("count", len(ids)),
	)

	return nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	return d.client.Close()
}

// documentFromPayload rebuilds a Document from a Qdrant point payload.
func documentFromPayload(payload map[string]*qdr.Value) vector.Document {
	doc := vector.Document{
		Metadata: make(map[string]string),
	}

	for k, v := range payload {
		switch k {
		case payloadIDKey:
			doc.ID = v.GetStringValue()
		case payloadTextKey:
			doc.Text = v.GetStringValue()
		default:
			doc.Metadata[k] = v.GetStringValue()
		}
	}

	return doc
}

var _ vector.Driver = (*Driver)(nil)
