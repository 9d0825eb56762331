// Package chroma provides a Chroma vector database driver implementation.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noemaco/noema/pkg/vector"
)

const (
	// DefaultCollectionPrefix prefixes the per-namespace collection names.
	DefaultCollectionPrefix = "noema"
)

// Driver implements vector.Driver using Chroma's REST API. Each namespace
// maps to its own Chroma collection named "<prefix>_<namespace>".
type Driver struct {
	baseURL          string
	collectionPrefix string
	httpClient       *http.Client
	logger           *zap.Logger

	mu sync.Mutex

	// collectionIDs caches namespace -> Chroma collection id.
	collectionIDs map[string]string
}

// Config holds configuration for the Chroma driver.
type Config struct {
	// URL is the Chroma server URL (e.g., "http://localhost:8000").
	URL string

	// CollectionPrefix prefixes per-namespace collection names.
	// Defaults to DefaultCollectionPrefix if empty.
	CollectionPrefix string
}

// NewDriver creates a new Chroma vector driver.
func NewDriver(c Config, logger *zap.Logger) (*Driver, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("%w: chroma URL is required", vector.ErrConfig)
	}

	prefix := c.CollectionPrefix
	if prefix == "" {
		prefix = DefaultCollectionPrefix
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	d := &Driver{
		baseURL:          c.URL,
		collectionPrefix: prefix,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger:        logger,
		collectionIDs: make(map[string]string),
	}

	logger.Info("connected to Chroma",
		zap.String("url", c.URL),
		zap.String("collection_prefix", prefix),
	)

	return d, nil
}

func (d *Driver) collectionName(namespace string) string {
	return fmt.Sprintf("%s_%s", d.collectionPrefix, namespace)
}

// collectionID resolves (creating if needed) the Chroma collection backing
// the namespace, caching the id for subsequent calls.
func (d *Driver) collectionID(ctx context.Context, namespace string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if id, ok := d.collectionIDs[namespace]; ok {
		return id, nil
	}

	id, err := d.getOrCreateCollection(ctx, d.collectionName(namespace))
	if err != nil {
		return "", err
	}

	d.collectionIDs[namespace] = id
	return id, nil
}

// getOrCreateCollection gets an existing collection or creates a new one.
func (d *Driver) getOrCreateCollection(ctx context.Context, name string) (string, error) {
	// Try to get existing collection first
	url := fmt.Sprintf("%s/api/v2/tenants/default_tenant/databases/default_database/collections/%s", d.baseURL, name)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("creating get request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: sending get request: %v", vector.ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		var collection chromaCollection
		if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
			return "", fmt.Errorf("decoding collection response: %w", err)
		}
		return collection.ID, nil
	}

	// Collection doesn't exist, create it
	createURL := fmt.Sprintf("%s/api/v2/tenants/default_tenant/databases/default_database/collections", d.baseURL)
	createBody := map[string]string{"name": name}
	jsonBody, err := json.Marshal(createBody)
	if err != nil {
		return "", fmt.Errorf("marshaling create request: %w", err)
	}

	req, err = http.NewRequestWithContext(ctx, "POST", createURL, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("creating create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err = d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: sending create request: %v", vector.ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("failed to create collection: status %d: %s", resp.StatusCode, string(body))
	}

	var collection chromaCollection
	if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
		return "", fmt.Errorf("decoding create response: %w", err)
	}

	return collection.ID, nil
}

// Upsert stores documents with their embeddings.
func (d *Driver) Upsert(ctx context.Context, namespace string, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	collectionID, err := d.collectionID(ctx, namespace)
	if err != nil {
		return err
	}

	ids := make([]string, len(docs))
	embeddings := make([][]float32, len(docs))
	metadatas := make([]map[string]any, len(docs))
	documents := make([]string, len(docs))

	for i, doc := range docs {
		ids[i] = doc.ID
		embeddings[i] = doc.Embedding
		documents[i] = doc.Text

		meta := make(map[string]any, len(doc.Metadata))
		for k, v := range doc.Metadata {
			meta[k] = v
		}
		metadatas[i] = meta
	}

	reqBody := chromaUpsertRequest{
		IDs:        ids,
		Embeddings: embeddings,
		Metadatas:  metadatas,
		Documents:  documents,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshaling upsert request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v2/tenants/default_tenant/databases/default_database/collections/%s/upsert", d.baseURL, collectionID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("creating upsert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: sending upsert request: %v", vector.ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to upsert documents: status %d: %s", resp.StatusCode, string(body))
	}

	d.logger.Debug("upserted documents to chroma",
		zap.String("namespace", namespace),
		zap.Int("count", len(docs)),
	)

	return nil
}

// Query finds the topK most similar documents to the given embedding.
func (d *Driver) Query(ctx context.Context, namespace string, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = 10
	}

	collectionID, err := d.collectionID(ctx, namespace)
	if err != nil {
		return nil, err
	}

	reqBody := chromaQueryRequest{
		QueryEmbeddings: [][]float32{embedding},
		NResults:        topK,
		Include:         []string{"metadatas", "documents", "distances"},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling query request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v2/tenants/default_tenant/databases/default_database/collections/%s/query", d.baseURL, collectionID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("creating query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: sending query request: %v", vector.ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to query: status %d: %s", resp.StatusCode, string(body))
	}

	var queryResp chromaQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
		return nil, fmt.Errorf("decoding query response: %w", err)
	}

	var results []vector.QueryResult

	// Process first group (we only query with one embedding)
	if len(queryResp.IDs) == 0 || len(queryResp.IDs[0]) == 0 {
		return results, nil
	}

	ids := queryResp.IDs[0]
	distances := queryResp.Distances[0]

	var metadatas []map[string]any
	if len(queryResp.Metadatas) > 0 {
		metadatas = queryResp.Metadatas[0]
	}

	var documents []string
	if len(queryResp.Documents) > 0 {
		documents = queryResp.Documents[0]
	}

	for i, id := range ids {
		result := vector.QueryResult{
			Document: vector.Document{
				ID: id,
			},
		}

		if i < len(documents) {
			result.Text = documents[i]
		}

		if i < len(metadatas) && metadatas[i] != nil {
			result.Metadata = stringMetadata(metadatas[i])
		}

		// Convert distance to similarity score
		// Lower distance = higher similarity
		if i < len(distances) {
			result.Score = 1.0 / (1.0 + distances[i])
		}

		results = append(results, result)
	}

	d.logger.Debug("queried chroma",
		zap.String("namespace", namespace),
		zap.Int("results", len(results)),
	)

	return results, nil
}

// Fetch retrieves a single document by id.
func (d *Driver) Fetch(ctx context.Context, namespace, id string) (*vector.Document, error) {
	collectionID, err := d.collectionID(ctx, namespace)
	if err != nil {
		return nil, err
	}

	reqBody := chromaGetRequest{
		IDs:     []string{id},
		Include: []string{"metadatas", "documents", "embeddings"},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling get request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v2/tenants/default_tenant/databases/default_database/collections/%s/get", d.baseURL, collectionID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("creating get request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: sending get request: %v", vector.ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to get document: status %d: %s", resp.StatusCode, string(body))
	}

	var getResp chromaGetResponse
	if err := json.NewDecoder(resp.Body).Decode(&getResp); err != nil {
		return nil, fmt.Errorf("decoding get response: %w", err)
	}

	if len(getResp.IDs) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", vector.ErrNotFound, namespace, id)
	}

	doc := &vector.Document{
		ID: getResp.IDs[0],
	}

	if len(getResp.Documents) > 0 {
		doc.Text = getResp.Documents[0]
	}

	if len(getResp.Metadatas) > 0 && getResp.Metadatas[0] != nil {
		doc.Metadata = stringMetadata(getResp.Metadatas[0])
	}

	if len(getResp.Embeddings) > 0 {
		doc.Embedding = getResp.Embeddings[0]
	}

	return doc, nil
}

// Delete removes documents by their IDs.
func (d *Driver) Delete(ctx context.Context, namespace string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	collectionID, err := d.collectionID(ctx, namespace)
	if err != nil {
		return err
	}

	reqBody := chromaDeleteRequest{
		IDs: ids,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshaling delete request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v2/tenants/default_tenant/databases/default_database/collections/%s/delete", d.baseURL, collectionID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("creating delete request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: sending delete request: %v", vector.ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to delete documents: status %d: %s", resp.StatusCode, string(body))
	}

	d.logger.Debug("deleted documents from chroma",
		zap.String("namespace", namespace),
		zap.Int("count", len(ids)),
	)

	return nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	// HTTP client doesn't require explicit cleanup
	return nil
}

// stringMetadata narrows Chroma's open metadata values to strings.
func stringMetadata(meta map[string]any) map[string]string {
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		if s, ok := v.(string); ok {
			out[k] = s
		} else {
			out[k] = fmt.Sprintf("%v", v)
		}
	}
	return out
}

var _ vector.Driver = (*Driver)(nil)
