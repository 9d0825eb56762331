// Package knowledge provides the coordinator binding the vector index and
// the thought graph into one consistent knowledge base. It routes retrieval
// requests to the correct strategy, enforces check-before-mutate for
// entities and relations, and reconciles the two stores on cascading
// deletes. The stores themselves have no awareness of each other; the
// coordinator is the sole authority over their consistency.
package knowledge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/noemaco/noema/pkg/embeddings"
	"github.com/noemaco/noema/pkg/graph"
	"github.com/noemaco/noema/pkg/vector"
)

const (
	// NamespaceChunks holds raw stored text records.
	NamespaceChunks = "chunks"

	// NamespaceEntities holds one record per graph entity for semantic
	// entity lookup.
	NamespaceEntities = "entities"

	// NamespaceRelations holds one record per graph relation for semantic
	// relation lookup.
	NamespaceRelations = "relations"

	// DefaultTopK is the result count used when a retrieve call passes 0.
	DefaultTopK = 5

	// DefaultMaxConcurrentEmbeds caps in-flight embedding calls. The
	// embedding provider enforces its own limit; staying under it here
	// avoids queueing failures on batch operations.
	DefaultMaxConcurrentEmbeds = 16

	// SourceManual marks entities and relations created directly by a
	// caller rather than derived from a stored document.
	SourceManual = "manual"

	defaultSource = "unknown_source"
	docIDPrefix   = "doc-"

	metadataSourceKey = "source"
)

// Extractor is an optional downstream hook invoked after a document is
// stored, typically to derive entities and relations from its text. The
// coordinator does not mandate any extraction algorithm.
type Extractor interface {
	Extract(ctx context.Context, docID, content string) error
}

// Opts configures a Coordinator.
type Opts struct {
	Vector   vector.Driver
	Graph    graph.Driver
	Embedder embeddings.Embedder

	// Extractor is optional.
	Extractor Extractor

	// Dimensions is the embedding dimensionality the vector index was
	// configured with. Verified against the embedder at Init.
	Dimensions uint

	// TopK is the default retrieval result count. Defaults to DefaultTopK.
	TopK int

	// MaxConcurrentEmbeds caps in-flight embedding calls. Defaults to
	// DefaultMaxConcurrentEmbeds.
	MaxConcurrentEmbeds int64

	Logger *zap.Logger
}

// Coordinator orchestrates the vector index, the thought graph, and the
// embedding provider behind a single knowledge-base contract.
type Coordinator struct {
	vectors   vector.Driver
	graphs    graph.Driver
	embedder  embeddings.Embedder
	extractor Extractor

	dimensions uint
	topK       int

	embedSem *semaphore.Weighted
	locks    *keyedMutex
	logger   *zap.Logger
}

// NewCoordinator creates a Coordinator. Call Init before use.
func NewCoordinator(o *Opts) (*Coordinator, error) {
	if o.Vector == nil {
		return nil, fmt.Errorf("%w: vector driver is required", ErrInvalidArgument)
	}
	if o.Graph == nil {
		return nil, fmt.Errorf("%w: graph driver is required", ErrInvalidArgument)
	}
	if o.Embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrInvalidArgument)
	}

	topK := o.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	maxEmbeds := o.MaxConcurrentEmbeds
	if maxEmbeds <= 0 {
		maxEmbeds = DefaultMaxConcurrentEmbeds
	}

	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Coordinator{
		vectors:    o.Vector,
		graphs:     o.Graph,
		embedder:   o.Embedder,
		extractor:  o.Extractor,
		dimensions: o.Dimensions,
		topK:       topK,
		embedSem:   semaphore.NewWeighted(maxEmbeds),
		locks:      newKeyedMutex(),
		logger:     logger,
	}, nil
}

// Init connects the graph store and verifies the embedding provider's
// dimensionality against the vector index configuration. A mismatch is a
// configuration error at startup, not a per-call error.
func (c *Coordinator) Init(ctx context.Context) error {
	if err := c.graphs.Init(ctx); err != nil {
		return fmt.Errorf("initializing graph store: %w", err)
	}

	if c.dimensions > 0 {
		probe, err := c.embed(ctx, "dimensionality probe")
		if err != nil {
			return fmt.Errorf("probing embedding provider: %w", err)
		}
		if uint(len(probe)) != c.dimensions {
			return fmt.Errorf("%w: embedding provider returns %d dimensions, index configured for %d",
				vector.ErrConfig, len(probe), c.dimensions)
		}
	}

	c.logger.Info("knowledge coordinator initialized",
		zap.Uint("dimensions", c.dimensions),
		zap.Int("top_k", c.topK),
	)

	return nil
}

// Close finalizes the backing stores.
func (c *Coordinator) Close(ctx context.Context) error {
	graphErr := c.graphs.Close(ctx)
	vectorErr := c.vectors.Close()
	embedErr := c.embedder.Close()

	if graphErr != nil {
		return graphErr
	}
	if vectorErr != nil {
		return vectorErr
	}
	return embedErr
}

// embed generates an embedding under the concurrency cap.
func (c *Coordinator) embed(ctx context.Context, text string) ([]float32, error) {
	if err := c.embedSem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.embedSem.Release(1)

	return c.embedder.Embed(ctx, text)
}

// DocumentID derives a deterministic document id from content, so identical
// content stored without an explicit id is naturally idempotent.
func DocumentID(content string) string {
	sum := sha256.Sum256([]byte(content))
	return docIDPrefix + hex.EncodeToString(sum[:])
}

// StoreText stores a piece of text in the vector index and returns the id
// used. An empty docID derives one from the content hash. When an extractor
// is configured it runs after the record is written.
func (c *Coordinator) StoreText(ctx context.Context, content, docID, source string) (string, error) {
	if content == "" {
		return "", fmt.Errorf("%w: content must not be empty", ErrInvalidArgument)
	}

	if docID == "" {
		docID = DocumentID(content)
	}
	if source == "" {
		source = defaultSource
	}

	unlock := c.locks.Lock(docID)
	defer unlock()

	embedding, err := c.embed(ctx, content)
	if err != nil {
		return "", fmt.Errorf("embedding content: %w", err)
	}

	err = c.vectors.Upsert(ctx, NamespaceChunks, []vector.Document{{
		ID:        docID,
		Text:      content,
		Embedding: embedding,
		Metadata: map[string]string{
			vector.MetadataTextKey: content,
			metadataSourceKey:      source,
		},
	}})
	if err != nil {
		return "", fmt.Errorf("storing chunk: %w", err)
	}

	c.logger.Debug("stored text",
		zap.String("doc_id", docID),
		zap.String("source", source),
	)

	if c.extractor != nil {
		if err := c.extractor.Extract(ctx, docID, content); err != nil {
			return "", fmt.Errorf("extracting knowledge from %s: %w", docID, err)
		}
	}

	return docID, nil
}

// DeleteDocument removes a document's vector record and cascades to graph
// nodes whose sole provenance is that document. Nodes also referenced by
// other documents keep their data; only the provenance link is removed.
func (c *Coordinator) DeleteDocument(ctx context.Context, docID string) (*MutationResult, error) {
	if docID == "" {
		return failed(fmt.Errorf("%w: document id must not be empty", ErrInvalidArgument)), nil
	}

	unlock := c.locks.Lock(docID)
	defer unlock()

	hadChunk := true
	if _, err := c.vectors.Fetch(ctx, NamespaceChunks, docID); err != nil {
		if !errors.Is(err, vector.ErrNotFound) {
			return nil, fmt.Errorf("fetching document: %w", err)
		}
		hadChunk = false
	}

	if hadChunk {
		if err := c.vectors.Delete(ctx, NamespaceChunks, []string{docID}); err != nil {
			return nil, fmt.Errorf("deleting chunk: %w", err)
		}
	}

	nodes, err := c.graphs.NodesBySource(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("finding derived nodes: %w", err)
	}

	removed := 0
	unlinked := 0
	for _, node := range nodes {
		if soleProvenance(node, docID) {
			if err := c.deleteEntityData(ctx, node.ID); err != nil {
				return nil, err
			}
			removed++
			continue
		}

		remaining := withoutString(node.SourceIDs, docID)
		err := c.graphs.UpdateNode(ctx, node.ID, graph.NodeUpdate{SourceIDs: remaining}, false)
		if err != nil {
			return nil, fmt.Errorf("unlinking provenance from %s: %w", node.ID, err)
		}
		unlinked++
	}

	if !hadChunk && len(nodes) == 0 {
		return unchanged(fmt.Sprintf("document %q not present", docID)), nil
	}

	c.logger.Info("deleted document",
		zap.String("doc_id", docID),
		zap.Int("nodes_removed", removed),
		zap.Int("nodes_unlinked", unlinked),
	)

	return applied(fmt.Sprintf("document %q deleted, %d derived nodes removed, %d unlinked", docID, removed, unlinked)), nil
}

// deleteEntityData removes a node, its incident edges, and every vector
// record derived from them. Callers hold the relevant key locks.
func (c *Coordinator) deleteEntityData(ctx context.Context, name string) error {
	edges, err := c.graphs.IncidentEdges(ctx, name)
	if err != nil {
		return fmt.Errorf("listing edges of %s: %w", name, err)
	}

	if err := c.graphs.DeleteNode(ctx, name); err != nil {
		return fmt.Errorf("deleting node %s: %w", name, err)
	}

	if err := c.vectors.Delete(ctx, NamespaceEntities, []string{name}); err != nil {
		return fmt.Errorf("deleting entity record %s: %w", name, err)
	}

	if len(edges) > 0 {
		relIDs := make([]string, len(edges))
		for i, edge := range edges {
			relIDs[i] = relationVectorID(edge.SourceID, edge.TargetID, edge.Type)
		}
		if err := c.vectors.Delete(ctx, NamespaceRelations, relIDs); err != nil {
			return fmt.Errorf("deleting relation records of %s: %w", name, err)
		}
	}

	return nil
}

// GetEntityDetails returns the full inspection view of an entity, including
// its incident edges and its vector record. Returns graph.ErrNotFound when
// the entity is absent.
func (c *Coordinator) GetEntityDetails(ctx context.Context, name string) (*EntityDetails, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: entity name must not be empty", ErrInvalidArgument)
	}

	node, err := c.graphs.GetNode(ctx, name)
	if err != nil {
		return nil, err
	}

	details := &EntityDetails{Node: *node}

	if edges, err := c.graphs.IncidentEdges(ctx, name); err == nil {
		details.Relations = edges
	}

	if record, err := c.vectors.Fetch(ctx, NamespaceEntities, name); err == nil {
		details.VectorRecord = record
	}

	return details, nil
}

// GetRelationDetails returns every relation between two entities. Returns
// graph.ErrNotFound when none exist.
func (c *Coordinator) GetRelationDetails(ctx context.Context, sourceID, targetID string) (*RelationDetails, error) {
	if sourceID == "" || targetID == "" {
		return nil, fmt.Errorf("%w: source and target must not be empty", ErrInvalidArgument)
	}

	edges, err := c.graphs.GetEdges(ctx, sourceID, targetID)
	if err != nil {
		return nil, err
	}

	details := &RelationDetails{
		SourceID: sourceID,
		TargetID: targetID,
		Edges:    edges,
	}

	for _, edge := range edges {
		record, err := c.vectors.Fetch(ctx, NamespaceRelations, relationVectorID(edge.SourceID, edge.TargetID, edge.Type))
		if err != nil {
			continue
		}
		details.VectorRecords = append(details.VectorRecords, *record)
	}

	return details, nil
}

// SearchThoughts returns graph nodes whose content contains the query,
// most recent first.
func (c *Coordinator) SearchThoughts(ctx context.Context, query string, limit int) ([]graph.Node, error) {
	if limit <= 0 {
		limit = c.topK
	}
	return c.graphs.SearchNodes(ctx, query, limit)
}

// GraphSummary returns store-wide node and edge counts.
func (c *Coordinator) GraphSummary(ctx context.Context) (*graph.Summary, error) {
	return c.graphs.Summary(ctx)
}

// AllThoughtIDs returns every node id, most recent first. Callers use this
// to pre-check for duplicate or similar thoughts before inserting.
func (c *Coordinator) AllThoughtIDs(ctx context.Context) ([]string, error) {
	return c.graphs.AllNodeIDs(ctx)
}

// relationVectorID derives the vector-index id of a relation record from
// its edge triple.
func relationVectorID(sourceID, targetID, edgeType string) string {
	return "rel-" + sourceID + graph.FieldSep + targetID + graph.FieldSep + edgeType
}

func soleProvenance(node graph.Node, docID string) bool {
	return len(node.SourceIDs) == 1 && node.SourceIDs[0] == docID
}

func withoutString(values []string, drop string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != drop {
			out = append(out, v)
		}
	}
	return out
}
