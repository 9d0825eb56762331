// Package neo4j provides a Neo4j-backed implementation of the graph.Driver
// interface. Thoughts are stored as :Thought nodes with a uniqueness
// constraint on id; relationships carry their type as the Neo4j relationship
// type and their weight and properties as relationship attributes.
//
// Every data operation runs inside a managed transaction, so check-then-act
// sequences (rename collision checks, endpoint existence checks) see a
// consistent snapshot and retry on transient cluster errors.
package neo4j

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sync"
	"time"

	neo "github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/noemaco/noema/pkg/graph"
)

type state int

const (
	stateUninitialized state = iota
	stateConnected
	stateClosed
)

// relTypePattern matches characters allowed in a relationship type.
// Anything else is replaced before the type is interpolated into Cypher,
// since relationship types cannot be parameterized.
var relTypePattern = regexp.MustCompile(`[^A-Za-z0-9_]`)

// Driver implements graph.Driver backed by a Neo4j database.
type Driver struct {
	uri      string
	username string
	password string
	logger   *zap.Logger

	mu     sync.Mutex
	state  state
	driver neo.DriverWithContext
}

// Config holds configuration for the Neo4j graph driver.
type Config struct {
	// URI is the bolt/neo4j connection URI (e.g., "neo4j://localhost:7687").
	URI string

	// Username and Password authenticate against the database.
	Username string
	Password string
}

// NewDriver creates a Neo4j graph driver. The driver starts uninitialized;
// call Init to connect and apply constraints.
func NewDriver(c Config, logger *zap.Logger) (*Driver, error) {
	if c.URI == "" {
		return nil, fmt.Errorf("neo4j URI is required")
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Driver{
		uri:      c.URI,
		username: c.Username,
		password: c.Password,
		logger:   logger,
	}, nil
}

// Init connects to Neo4j and applies the thought id uniqueness constraint.
// Idempotent.
func (d *Driver) Init(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == stateClosed {
		return fmt.Errorf("%w: driver is closed", graph.ErrNotReady)
	}
	if d.state == stateConnected {
		return nil
	}

	driver, err := neo.NewDriverWithContext(d.uri, neo.BasicAuth(d.username, d.password, ""))
	if err != nil {
		return fmt.Errorf("%w: creating driver: %v", graph.ErrUnavailable, err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("%w: verifying connectivity to %s: %v", graph.ErrUnavailable, d.uri, err)
	}

	session := driver.NewSession(ctx, neo.SessionConfig{AccessMode: neo.AccessModeWrite})
	defer session.Close(ctx)

	_, err = session.ExecuteWrite(ctx, func(tx neo.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
			CREATE CONSTRAINT thought_id_unique IF NOT EXISTS
			FOR (t:Thought)
			REQUIRE t.id IS UNIQUE
		`, nil)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("%w: creating id constraint: %v", graph.ErrUnavailable, err)
	}

	d.driver = driver
	d.state = stateConnected

	d.logger.Info("connected to Neo4j", zap.String("uri", d.uri))
	return nil
}

func (d *Driver) session(ctx context.Context, mode neo.AccessMode) (neo.SessionWithContext, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != stateConnected {
		return nil, graph.ErrNotReady
	}

	return d.driver.NewSession(ctx, neo.SessionConfig{AccessMode: mode}), nil
}

// write runs work in a managed write transaction.
func (d *Driver) write(ctx context.Context, work func(tx neo.ManagedTransaction) (any, error)) (any, error) {
	session, err := d.session(ctx, neo.AccessModeWrite)
	if err != nil {
		return nil, err
	}
	defer session.Close(ctx)

	return session.ExecuteWrite(ctx, work)
}

// read runs work in a managed read transaction.
func (d *Driver) read(ctx context.Context, work func(tx neo.ManagedTransaction) (any, error)) (any, error) {
	session, err := d.session(ctx, neo.AccessModeRead)
	if err != nil {
		return nil, err
	}
	defer session.Close(ctx)

	return session.ExecuteRead(ctx, work)
}

// CreateNode inserts a new node.
func (d *Driver) CreateNode(ctx context.Context, node graph.Node) error {
	if node.EntityType == "" {
		node.EntityType = graph.DefaultEntityType
	}
	if node.CreatedAt.IsZero() {
		node.CreatedAt = time.Now().UTC()
	}

	metadataJSON, err := json.Marshal(node.Metadata)
	if err != nil {
		return fmt.Errorf("serializing metadata: %w", err)
	}

	_, err = d.write(ctx, func(tx neo.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MERGE (t:Thought {id: $id})
			ON CREATE SET
				t.content = $content,
				t.entity_type = $entity_type,
				t.source_ids = $source_ids,
				t.created_at = $created_at,
				t.metadata_json = $metadata_json,
				t._created = true
			WITH t, t._created AS created
			REMOVE t._created
			RETURN created
		`, map[string]any{
			"id":            node.ID,
			"content":       node.Content,
			"entity_type":   node.EntityType,
			"source_ids":    node.SourceIDs,
			"created_at":    node.CreatedAt.Format(time.RFC3339Nano),
			"metadata_json": string(metadataJSON),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: creating node: %v", graph.ErrUnavailable, err)
		}

		record, err := result.Single(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: creating node: %v", graph.ErrUnavailable, err)
		}

		if created, _ := record.Get("created"); created != true {
			return nil, fmt.Errorf("%w: node %q", graph.ErrAlreadyExists, node.ID)
		}

		return nil, nil
	})
	if err != nil {
		return err
	}

	d.logger.Debug("created node", zap.String("id", node.ID))
	return nil
}

// GetNode returns the node with the given id.
func (d *Driver) GetNode(ctx context.Context, id string) (*graph.Node, error) {
	out, err := d.read(ctx, func(tx neo.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (t:Thought {id: $id})
			RETURN t
		`, map[string]any{"id": id})
		if err != nil {
			return nil, fmt.Errorf("%w: getting node: %v", graph.ErrUnavailable, err)
		}

		if !result.Next(ctx) {
			return nil, fmt.Errorf("%w: node %q", graph.ErrNotFound, id)
		}

		return nodeFromRecord(result.Record(), "t")
	})
	if err != nil {
		return nil, err
	}

	return out.(*graph.Node), nil
}

// UpdateNode applies a partial update, optionally re-keying the node. The
// rename collision check and the update run in one transaction. Neo4j
// relationships reference nodes structurally, so a rename needs no edge
// rewrite.
func (d *Driver) UpdateNode(ctx context.Context, id string, update graph.NodeUpdate, allowRename bool) error {
	sets := []string{"t.id = $new_id"}
	params := map[string]any{
		"id": id,
	}

	if update.Content != nil {
		sets = append(sets, "t.content = $content")
		params["content"] = *update.Content
	}
	if update.EntityType != nil {
		sets = append(sets, "t.entity_type = $entity_type")
		params["entity_type"] = *update.EntityType
	}
	if update.SourceIDs != nil {
		sets = append(sets, "t.source_ids = $source_ids")
		params["source_ids"] = update.SourceIDs
	}
	if update.Metadata != nil {
		metadataJSON, err := json.Marshal(update.Metadata)
		if err != nil {
			return fmt.Errorf("serializing metadata: %w", err)
		}
		sets = append(sets, "t.metadata_json = $metadata_json")
		params["metadata_json"] = string(metadataJSON)
	}

	query := "MATCH (t:Thought {id: $id}) SET " + joinSets(sets) + " RETURN t.id"

	_, err := d.write(ctx, func(tx neo.ManagedTransaction) (any, error) {
		newID := id
		if allowRename && update.NewID != "" && update.NewID != id {
			collision, err := tx.Run(ctx, `
				MATCH (t:Thought {id: $id}) RETURN t.id
			`, map[string]any{"id": update.NewID})
			if err != nil {
				return nil, fmt.Errorf("%w: checking rename target: %v", graph.ErrUnavailable, err)
			}
			if collision.Next(ctx) {
				return nil, fmt.Errorf("%w: node %q", graph.ErrAlreadyExists, update.NewID)
			}
			newID = update.NewID
		}
		params["new_id"] = newID

		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, fmt.Errorf("%w: updating node: %v", graph.ErrUnavailable, err)
		}

		if !result.Next(ctx) {
			return nil, fmt.Errorf("%w: node %q", graph.ErrNotFound, id)
		}

		return nil, nil
	})

	return err
}

// DeleteNode removes the node and all incident edges.
func (d *Driver) DeleteNode(ctx context.Context, id string) error {
	_, err := d.write(ctx, func(tx neo.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
			MATCH (t:Thought {id: $id})
			DETACH DELETE t
		`, map[string]any{"id": id})
		if err != nil {
			return nil, fmt.Errorf("%w: deleting node: %v", graph.ErrUnavailable, err)
		}
		return nil, nil
	})
	if err != nil {
		return err
	}

	d.logger.Debug("deleted node", zap.String("id", id))
	return nil
}

// CreateEdge inserts or merges an edge between two existing nodes.
func (d *Driver) CreateEdge(ctx context.Context, edge graph.Edge) error {
	if edge.Type == "" {
		edge.Type = graph.DefaultEdgeType
	}
	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = time.Now().UTC()
	}

	propsJSON, err := json.Marshal(edge.Properties)
	if err != nil {
		return fmt.Errorf("serializing properties: %w", err)
	}

	query := fmt.Sprintf(`
		MATCH (source:Thought {id: $source_id})
		MATCH (target:Thought {id: $target_id})
		MERGE (source)-[r:%s]->(target)
		ON CREATE SET r.created_at = $created_at
		SET r.weight = $weight, r.properties_json = $properties_json
		RETURN r
	`, quoteRelType(edge.Type))

	_, err = d.write(ctx, func(tx neo.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, map[string]any{
			"source_id":       edge.SourceID,
			"target_id":       edge.TargetID,
			"weight":          edge.Weight,
			"properties_json": string(propsJSON),
			"created_at":      edge.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: creating edge: %v", graph.ErrUnavailable, err)
		}

		if !result.Next(ctx) {
			return nil, fmt.Errorf("%w: edge endpoints %q, %q", graph.ErrNotFound, edge.SourceID, edge.TargetID)
		}

		return nil, nil
	})

	return err
}

// GetEdges returns all edges from source to target.
func (d *Driver) GetEdges(ctx context.Context, sourceID, targetID string) ([]graph.Edge, error) {
	out, err := d.read(ctx, func(tx neo.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (s:Thought {id: $source_id})-[r]->(t:Thought {id: $target_id})
			RETURN type(r) AS type, r.weight AS weight,
			       r.properties_json AS properties_json, r.created_at AS created_at
			ORDER BY type
		`, map[string]any{
			"source_id": sourceID,
			"target_id": targetID,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: getting edges: %v", graph.ErrUnavailable, err)
		}

		var edges []graph.Edge
		for result.Next(ctx) {
			edges = append(edges, edgeFromRecord(result.Record(), sourceID, targetID))
		}

		if len(edges) == 0 {
			return nil, fmt.Errorf("%w: edge %q -> %q", graph.ErrNotFound, sourceID, targetID)
		}

		return edges, nil
	})
	if err != nil {
		return nil, err
	}

	return out.([]graph.Edge), nil
}

// UpdateEdge applies a partial update to the (source, target, type) edge.
func (d *Driver) UpdateEdge(ctx context.Context, sourceID, targetID, edgeType string, update graph.EdgeUpdate) error {
	sets := []string{}
	params := map[string]any{
		"source_id": sourceID,
		"target_id": targetID,
	}

	if update.Weight != nil {
		sets = append(sets, "r.weight = $weight")
		params["weight"] = *update.Weight
	}
	if update.Properties != nil {
		propsJSON, err := json.Marshal(update.Properties)
		if err != nil {
			return fmt.Errorf("serializing properties: %w", err)
		}
		sets = append(sets, "r.properties_json = $properties_json")
		params["properties_json"] = string(propsJSON)
	}

	if len(sets) == 0 {
		sets = append(sets, "r.weight = r.weight")
	}

	query := fmt.Sprintf(`
		MATCH (s:Thought {id: $source_id})-[r:%s]->(t:Thought {id: $target_id})
		SET %s
		RETURN r
	`, quoteRelType(edgeType), joinSets(sets))

	_, err := d.write(ctx, func(tx neo.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, fmt.Errorf("%w: updating edge: %v", graph.ErrUnavailable, err)
		}

		if !result.Next(ctx) {
			return nil, fmt.Errorf("%w: edge %q -[%s]-> %q", graph.ErrNotFound, sourceID, edgeType, targetID)
		}

		return nil, nil
	})

	return err
}

// DeleteEdge removes the (source, target, type) edge, or all edges between
// the pair when edgeType is empty.
func (d *Driver) DeleteEdge(ctx context.Context, sourceID, targetID, edgeType string) error {
	relPattern := "[r]"
	if edgeType != "" {
		relPattern = fmt.Sprintf("[r:%s]", quoteRelType(edgeType))
	}

	query := fmt.Sprintf(`
		MATCH (s:Thought {id: $source_id})-%s->(t:Thought {id: $target_id})
		DELETE r
	`, relPattern)

	_, err := d.write(ctx, func(tx neo.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, map[string]any{
			"source_id": sourceID,
			"target_id": targetID,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: deleting edge: %v", graph.ErrUnavailable, err)
		}
		return nil, nil
	})

	return err
}

// SearchNodes returns nodes whose content contains the substring,
// case-insensitively, most recent first.
func (d *Driver) SearchNodes(ctx context.Context, substring string, limit int) ([]graph.Node, error) {
	if limit <= 0 {
		limit = 10
	}

	out, err := d.read(ctx, func(tx neo.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (t:Thought)
			WHERE toLower(t.content) CONTAINS toLower($query_text)
			RETURN t
			ORDER BY t.created_at DESC
			LIMIT $limit
		`, map[string]any{
			"query_text": substring,
			"limit":      limit,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: searching nodes: %v", graph.ErrUnavailable, err)
		}

		var nodes []graph.Node
		for result.Next(ctx) {
			node, err := nodeFromRecord(result.Record(), "t")
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, *node)
		}

		return nodes, nil
	})
	if err != nil {
		return nil, err
	}

	return out.([]graph.Node), nil
}

// Neighbors returns outgoing edges meeting the weight threshold and the
// nodes they reach. The existence check and the expansion share one
// transaction.
func (d *Driver) Neighbors(ctx context.Context, id, typeFilter string, minWeight float64) ([]graph.Neighbor, error) {
	relPattern := "[r]"
	if typeFilter != "" {
		relPattern = fmt.Sprintf("[r:%s]", quoteRelType(typeFilter))
	}

	query := fmt.Sprintf(`
		MATCH (t:Thought {id: $id})-%s->(related:Thought)
		WHERE r.weight >= $min_weight
		RETURN related, type(r) AS type, r.weight AS weight,
		       r.properties_json AS properties_json, r.created_at AS created_at
		ORDER BY r.weight DESC, related.id
	`, relPattern)

	out, err := d.read(ctx, func(tx neo.ManagedTransaction) (any, error) {
		exists, err := tx.Run(ctx, `
			MATCH (t:Thought {id: $id}) RETURN t.id
		`, map[string]any{"id": id})
		if err != nil {
			return nil, fmt.Errorf("%w: checking node: %v", graph.ErrUnavailable, err)
		}
		if !exists.Next(ctx) {
			return nil, fmt.Errorf("%w: node %q", graph.ErrNotFound, id)
		}

		result, err := tx.Run(ctx, query, map[string]any{
			"id":         id,
			"min_weight": minWeight,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: getting neighbors: %v", graph.ErrUnavailable, err)
		}

		var neighbors []graph.Neighbor
		for result.Next(ctx) {
			record := result.Record()

			node, err := nodeFromRecord(record, "related")
			if err != nil {
				return nil, err
			}

			edge := edgeFromRecord(record, id, node.ID)
			neighbors = append(neighbors, graph.Neighbor{Node: *node, Edge: edge})
		}

		return neighbors, nil
	})
	if err != nil {
		return nil, err
	}

	return out.([]graph.Neighbor), nil
}

// IncidentEdges returns every edge touching the node in either direction.
func (d *Driver) IncidentEdges(ctx context.Context, id string) ([]graph.Edge, error) {
	out, err := d.read(ctx, func(tx neo.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (s:Thought)-[r]->(t:Thought)
			WHERE s.id = $id OR t.id = $id
			RETURN s.id AS source_id, t.id AS target_id, type(r) AS type,
			       r.weight AS weight, r.properties_json AS properties_json,
			       r.created_at AS created_at
			ORDER BY source_id, target_id, type
		`, map[string]any{"id": id})
		if err != nil {
			return nil, fmt.Errorf("%w: getting incident edges: %v", graph.ErrUnavailable, err)
		}

		var edges []graph.Edge
		for result.Next(ctx) {
			record := result.Record()
			src, _ := record.Get("source_id")
			dst, _ := record.Get("target_id")
			edges = append(edges, edgeFromRecord(record, asString(src), asString(dst)))
		}

		return edges, nil
	})
	if err != nil {
		return nil, err
	}

	return out.([]graph.Edge), nil
}

// NodesBySource returns nodes whose provenance includes sourceID.
func (d *Driver) NodesBySource(ctx context.Context, sourceID string) ([]graph.Node, error) {
	out, err := d.read(ctx, func(tx neo.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (t:Thought)
			WHERE $source_id IN t.source_ids
			RETURN t
			ORDER BY t.created_at DESC
		`, map[string]any{"source_id": sourceID})
		if err != nil {
			return nil, fmt.Errorf("%w: getting nodes by source: %v", graph.ErrUnavailable, err)
		}

		var nodes []graph.Node
		for result.Next(ctx) {
			node, err := nodeFromRecord(result.Record(), "t")
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, *node)
		}

		return nodes, nil
	})
	if err != nil {
		return nil, err
	}

	return out.([]graph.Node), nil
}

// Summary returns store-wide counts. Both counts come from one transaction
// so they describe a single snapshot.
func (d *Driver) Summary(ctx context.Context) (*graph.Summary, error) {
	out, err := d.read(ctx, func(tx neo.ManagedTransaction) (any, error) {
		nodeResult, err := tx.Run(ctx, `
			MATCH (t:Thought)
			RETURN COUNT(t) AS count
		`, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: counting nodes: %v", graph.ErrUnavailable, err)
		}
		nodeRecord, err := nodeResult.Single(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: counting nodes: %v", graph.ErrUnavailable, err)
		}
		nodeCount, _ := nodeRecord.Get("count")

		typeResult, err := tx.Run(ctx, `
			MATCH (:Thought)-[r]->(:Thought)
			RETURN type(r) AS type, COUNT(r) AS count
			ORDER BY count DESC
		`, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: counting edges: %v", graph.ErrUnavailable, err)
		}

		summary := &graph.Summary{
			NodeCount: int(asInt64(nodeCount)),
			EdgeTypes: make(map[string]int),
		}

		for typeResult.Next(ctx) {
			record := typeResult.Record()
			relType, _ := record.Get("type")
			count, _ := record.Get("count")
			summary.EdgeTypes[asString(relType)] = int(asInt64(count))
			summary.EdgeCount += int(asInt64(count))
		}

		return summary, nil
	})
	if err != nil {
		return nil, err
	}

	return out.(*graph.Summary), nil
}

// AllNodeIDs returns every node id, most recent first.
func (d *Driver) AllNodeIDs(ctx context.Context) ([]string, error) {
	out, err := d.read(ctx, func(tx neo.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (t:Thought)
			RETURN t.id AS id
			ORDER BY t.created_at DESC
		`, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: listing node ids: %v", graph.ErrUnavailable, err)
		}

		var ids []string
		for result.Next(ctx) {
			id, _ := result.Record().Get("id")
			ids = append(ids, asString(id))
		}

		return ids, nil
	})
	if err != nil {
		return nil, err
	}

	return out.([]string), nil
}

// Close finalizes the driver.
func (d *Driver) Close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == stateConnected {
		if err := d.driver.Close(ctx); err != nil {
			return err
		}
	}

	d.state = stateClosed
	return nil
}

// quoteRelType sanitizes and backtick-quotes a relationship type for safe
// interpolation into a Cypher pattern.
func quoteRelType(relType string) string {
	return "`" + relTypePattern.ReplaceAllString(relType, "_") + "`"
}

func joinSets(sets []string) string {
	out := ""
	for i, s := range sets {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}

// nodeFromRecord rebuilds a graph.Node from a returned node value.
func nodeFromRecord(record *neo.Record, key string) (*graph.Node, error) {
	value, ok := record.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: missing node in record", graph.ErrUnavailable)
	}

	neoNode, ok := value.(neo.Node)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected record value %T", graph.ErrUnavailable, value)
	}

	props := neoNode.Props

	node := &graph.Node{
		ID:         asString(props["id"]),
		Content:    asString(props["content"]),
		EntityType: asString(props["entity_type"]),
	}

	if raw, ok := props["source_ids"].([]any); ok {
		for _, v := range raw {
			node.SourceIDs = append(node.SourceIDs, asString(v))
		}
	}

	if ts := asString(props["created_at"]); ts != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			node.CreatedAt = parsed
		}
	}

	if metaJSON := asString(props["metadata_json"]); metaJSON != "" {
		meta := map[string]any{}
		if err := json.Unmarshal([]byte(metaJSON), &meta); err == nil {
			node.Metadata = meta
		}
	}

	return node, nil
}

// edgeFromRecord rebuilds a graph.Edge from flattened relationship columns.
func edgeFromRecord(record *neo.Record, sourceID, targetID string) graph.Edge {
	edge := graph.Edge{
		SourceID: sourceID,
		TargetID: targetID,
	}

	if v, ok := record.Get("type"); ok {
		edge.Type = asString(v)
	}
	if v, ok := record.Get("weight"); ok {
		edge.Weight = asFloat64(v)
	}
	if v, ok := record.Get("properties_json"); ok {
		if propsJSON := asString(v); propsJSON != "" {
			props := map[string]any{}
			if err := json.Unmarshal([]byte(propsJSON), &props); err == nil {
				edge.Properties = props
			}
		}
	}
	if v, ok := record.Get("created_at"); ok {
		if ts := asString(v); ts != "" {
			if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
				edge.CreatedAt = parsed
			}
		}
	}

	return edge
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt64(v any) int64 {
	i, _ := v.(int64)
	return i
}

func asFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	default:
		return 0
	}
}

var _ graph.Driver = (*Driver)(nil)
