// Package memory provides an in-process implementation of the graph.Driver
// interface backed by adjacency-indexed maps. It is the reference
// implementation and the backend used by unit tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noemaco/noema/pkg/graph"
)

type state int

const (
	stateUninitialized state = iota
	stateConnected
	stateClosed
)

// edgeKey identifies an edge by its (source, target, type) triple.
type edgeKey struct {
	src string
	dst string
	typ string
}

// Driver implements graph.Driver using in-process data structures.
type Driver struct {
	logger *zap.Logger

	mu    sync.RWMutex
	state state

	nodes map[string]graph.Node
	edges map[edgeKey]graph.Edge

	// out and in index edge keys by endpoint for traversal and cascade
	// deletes.
	out map[string]map[edgeKey]struct{}
	in  map[string]map[edgeKey]struct{}

	// seq orders nodes by insertion for recency tie-breaks when
	// CreatedAt timestamps collide.
	seq     map[string]uint64
	nextSeq uint64
}

// Config holds configuration for the in-memory graph driver.
type Config struct{}

// NewDriver creates an in-memory graph driver. The driver starts
// uninitialized; call Init before issuing data operations.
func NewDriver(_ Config, logger *zap.Logger) (*Driver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Driver{
		logger: logger,
		nodes:  make(map[string]graph.Node),
		edges:  make(map[edgeKey]graph.Edge),
		out:    make(map[string]map[edgeKey]struct{}),
		in:     make(map[string]map[edgeKey]struct{}),
		seq:    make(map[string]uint64),
	}, nil
}

// Init moves the driver to the connected state. Idempotent.
func (d *Driver) Init(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == stateClosed {
		return fmt.Errorf("%w: driver is closed", graph.ErrNotReady)
	}

	d.state = stateConnected
	return nil
}

func (d *Driver) ready() error {
	if d.state != stateConnected {
		return graph.ErrNotReady
	}
	return nil
}

// CreateNode inserts a new node.
func (d *Driver) CreateNode(_ context.Context, node graph.Node) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ready(); err != nil {
		return err
	}

	if _, ok := d.nodes[node.ID]; ok {
		return fmt.Errorf("%w: node %q", graph.ErrAlreadyExists, node.ID)
	}

	if node.EntityType == "" {
		node.EntityType = graph.DefaultEntityType
	}
	if node.CreatedAt.IsZero() {
		node.CreatedAt = time.Now().UTC()
	}

	d.nodes[node.ID] = copyNode(node)
	d.nextSeq++
	d.seq[node.ID] = d.nextSeq

	d.logger.Debug("created node", zap.String("id", node.ID))
	return nil
}

// GetNode returns the node with the given id.
func (d *Driver) GetNode(_ context.Context, id string) (*graph.Node, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if err := d.ready(); err != nil {
		return nil, err
	}

	node, ok := d.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: node %q", graph.ErrNotFound, id)
	}

	out := copyNode(node)
	return &out, nil
}

// UpdateNode applies a partial update, optionally re-keying the node.
func (d *Driver) UpdateNode(_ context.Context, id string, update graph.NodeUpdate, allowRename bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ready(); err != nil {
		return err
	}

	node, ok := d.nodes[id]
	if !ok {
		return fmt.Errorf("%w: node %q", graph.ErrNotFound, id)
	}

	newID := id
	if allowRename && update.NewID != "" && update.NewID != id {
		if _, taken := d.nodes[update.NewID]; taken {
			return fmt.Errorf("%w: node %q", graph.ErrAlreadyExists, update.NewID)
		}
		newID = update.NewID
	}

	if update.Content != nil {
		node.Content = *update.Content
	}
	if update.EntityType != nil {
		node.EntityType = *update.EntityType
	}
	if update.SourceIDs != nil {
		node.SourceIDs = append([]string(nil), update.SourceIDs...)
	}
	if update.Metadata != nil {
		node.Metadata = copyMetadata(update.Metadata)
	}

	if newID != id {
		d.rekeyLocked(id, newID)
		node.ID = newID
	}

	d.nodes[newID] = copyNode(node)
	return nil
}

// rekeyLocked moves a node's identity and every incident edge to a new id.
// Callers hold the write lock.
func (d *Driver) rekeyLocked(oldID, newID string) {
	delete(d.nodes, oldID)
	d.seq[newID] = d.seq[oldID]
	delete(d.seq, oldID)

	for key := range d.out[oldID] {
		edge := d.edges[key]
		delete(d.edges, key)
		d.unindexLocked(key)

		edge.SourceID = newID
		d.indexLocked(edge)
	}

	for key := range d.in[oldID] {
		edge := d.edges[key]
		delete(d.edges, key)
		d.unindexLocked(key)

		edge.TargetID = newID
		d.indexLocked(edge)
	}
}

// DeleteNode removes the node and all incident edges.
func (d *Driver) DeleteNode(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ready(); err != nil {
		return err
	}

	if _, ok := d.nodes[id]; !ok {
		return nil
	}

	for key := range d.out[id] {
		delete(d.edges, key)
		d.unindexLocked(key)
	}
	for key := range d.in[id] {
		delete(d.edges, key)
		d.unindexLocked(key)
	}

	delete(d.nodes, id)
	delete(d.seq, id)

	d.logger.Debug("deleted node", zap.String("id", id))
	return nil
}

// CreateEdge inserts or merges an edge between two existing nodes.
func (d *Driver) CreateEdge(_ context.Context, edge graph.Edge) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ready(); err != nil {
		return err
	}

	if _, ok := d.nodes[edge.SourceID]; !ok {
		return fmt.Errorf("%w: node %q", graph.ErrNotFound, edge.SourceID)
	}
	if _, ok := d.nodes[edge.TargetID]; !ok {
		return fmt.Errorf("%w: node %q", graph.ErrNotFound, edge.TargetID)
	}

	if edge.Type == "" {
		edge.Type = graph.DefaultEdgeType
	}

	key := edgeKey{src: edge.SourceID, dst: edge.TargetID, typ: edge.Type}

	if existing, ok := d.edges[key]; ok {
		// Identical triple upserts in place, keeping the original
		// creation timestamp.
		existing.Weight = edge.Weight
		if edge.Properties != nil {
			existing.Properties = copyMetadata(edge.Properties)
		}
		d.edges[key] = existing
		return nil
	}

	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = time.Now().UTC()
	}

	d.indexLocked(copyEdge(edge))
	return nil
}

func (d *Driver) indexLocked(edge graph.Edge) {
	key := edgeKey{src: edge.SourceID, dst: edge.TargetID, typ: edge.Type}
	d.edges[key] = edge

	if d.out[edge.SourceID] == nil {
		d.out[edge.SourceID] = make(map[edgeKey]struct{})
	}
	d.out[edge.SourceID][key] = struct{}{}

	if d.in[edge.TargetID] == nil {
		d.in[edge.TargetID] = make(map[edgeKey]struct{})
	}
	d.in[edge.TargetID][key] = struct{}{}
}

func (d *Driver) unindexLocked(key edgeKey) {
	delete(d.out[key.src], key)
	delete(d.in[key.dst], key)
}

// GetEdges returns all edges from source to target.
func (d *Driver) GetEdges(_ context.Context, sourceID, targetID string) ([]graph.Edge, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if err := d.ready(); err != nil {
		return nil, err
	}

	var edges []graph.Edge
	for key := range d.out[sourceID] {
		if key.dst == targetID {
			edges = append(edges, copyEdge(d.edges[key]))
		}
	}

	if len(edges) == 0 {
		return nil, fmt.Errorf("%w: edge %q -> %q", graph.ErrNotFound, sourceID, targetID)
	}

	sort.Slice(edges, func(i, j int) bool {
		return edges[i].Type < edges[j].Type
	})

	return edges, nil
}

// UpdateEdge applies a partial update to the (source, target, type) edge.
func (d *Driver) UpdateEdge(_ context.Context, sourceID, targetID, edgeType string, update graph.EdgeUpdate) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ready(); err != nil {
		return err
	}

	key := edgeKey{src: sourceID, dst: targetID, typ: edgeType}
	edge, ok := d.edges[key]
	if !ok {
		return fmt.Errorf("%w: edge %q -[%s]-> %q", graph.ErrNotFound, sourceID, edgeType, targetID)
	}

	if update.Weight != nil {
		edge.Weight = *update.Weight
	}
	if update.Properties != nil {
		edge.Properties = copyMetadata(update.Properties)
	}

	d.edges[key] = edge
	return nil
}

// DeleteEdge removes the (source, target, type) edge, or all edges between
// the pair when edgeType is empty.
func (d *Driver) DeleteEdge(_ context.Context, sourceID, targetID, edgeType string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ready(); err != nil {
		return err
	}

	for key := range d.out[sourceID] {
		if key.dst != targetID {
			continue
		}
		if edgeType != "" && key.typ != edgeType {
			continue
		}
		delete(d.edges, key)
		d.unindexLocked(key)
	}

	return nil
}

// SearchNodes returns nodes whose content contains the substring,
// case-insensitively, most recent first.
func (d *Driver) SearchNodes(_ context.Context, substring string, limit int) ([]graph.Node, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if err := d.ready(); err != nil {
		return nil, err
	}

	needle := strings.ToLower(substring)

	var matches []graph.Node
	for _, node := range d.nodes {
		if strings.Contains(strings.ToLower(node.Content), needle) {
			matches = append(matches, copyNode(node))
		}
	}

	d.sortByRecencyLocked(matches)

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}

// Neighbors returns outgoing edges meeting the weight threshold and the
// nodes they reach.
func (d *Driver) Neighbors(_ context.Context, id, typeFilter string, minWeight float64) ([]graph.Neighbor, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if err := d.ready(); err != nil {
		return nil, err
	}

	if _, ok := d.nodes[id]; !ok {
		return nil, fmt.Errorf("%w: node %q", graph.ErrNotFound, id)
	}

	var neighbors []graph.Neighbor
	for key := range d.out[id] {
		edge := d.edges[key]
		if typeFilter != "" && edge.Type != typeFilter {
			continue
		}
		if edge.Weight < minWeight {
			continue
		}
		neighbors = append(neighbors, graph.Neighbor{
			Node: copyNode(d.nodes[edge.TargetID]),
			Edge: copyEdge(edge),
		})
	}

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Edge.Weight != neighbors[j].Edge.Weight {
			return neighbors[i].Edge.Weight > neighbors[j].Edge.Weight
		}
		return neighbors[i].Node.ID < neighbors[j].Node.ID
	})

	return neighbors, nil
}

// IncidentEdges returns every edge touching the node in either direction.
func (d *Driver) IncidentEdges(_ context.Context, id string) ([]graph.Edge, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if err := d.ready(); err != nil {
		return nil, err
	}

	seen := make(map[edgeKey]struct{})
	var edges []graph.Edge

	for key := range d.out[id] {
		seen[key] = struct{}{}
		edges = append(edges, copyEdge(d.edges[key]))
	}
	for key := range d.in[id] {
		// Self-loops appear in both indexes
		if _, ok := seen[key]; ok {
			continue
		}
		edges = append(edges, copyEdge(d.edges[key]))
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].SourceID != edges[j].SourceID {
			return edges[i].SourceID < edges[j].SourceID
		}
		if edges[i].TargetID != edges[j].TargetID {
			return edges[i].TargetID < edges[j].TargetID
		}
		return edges[i].Type < edges[j].Type
	})

	return edges, nil
}

// NodesBySource returns nodes whose provenance includes sourceID.
func (d *Driver) NodesBySource(_ context.Context, sourceID string) ([]graph.Node, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if err := d.ready(); err != nil {
		return nil, err
	}

	var matches []graph.Node
	for _, node := range d.nodes {
		for _, src := range node.SourceIDs {
			if src == sourceID {
				matches = append(matches, copyNode(node))
				break
			}
		}
	}

	d.sortByRecencyLocked(matches)
	return matches, nil
}

// Summary returns store-wide counts.
func (d *Driver) Summary(_ context.Context) (*graph.Summary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if err := d.ready(); err != nil {
		return nil, err
	}

	summary := &graph.Summary{
		NodeCount: len(d.nodes),
		EdgeCount: len(d.edges),
		EdgeTypes: make(map[string]int),
	}

	for key := range d.edges {
		summary.EdgeTypes[key.typ]++
	}

	return summary, nil
}

// AllNodeIDs returns every node id, most recent first.
func (d *Driver) AllNodeIDs(_ context.Context) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if err := d.ready(); err != nil {
		return nil, err
	}

	nodes := make([]graph.Node, 0, len(d.nodes))
	for _, node := range d.nodes {
		nodes = append(nodes, node)
	}

	d.sortByRecencyLocked(nodes)

	ids := make([]string, len(nodes))
	for i, node := range nodes {
		ids[i] = node.ID
	}

	return ids, nil
}

// Close moves the driver to the closed state.
func (d *Driver) Close(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.state = stateClosed
	return nil
}

// sortByRecencyLocked orders nodes newest first, breaking timestamp ties by
// insertion order. Callers hold at least the read lock.
func (d *Driver) sortByRecencyLocked(nodes []graph.Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if !nodes[i].CreatedAt.Equal(nodes[j].CreatedAt) {
			return nodes[i].CreatedAt.After(nodes[j].CreatedAt)
		}
		return d.seq[nodes[i].ID] > d.seq[nodes[j].ID]
	})
}

func copyNode(node graph.Node) graph.Node {
	out := node
	out.SourceIDs = append([]string(nil), node.SourceIDs...)
	out.Metadata = copyMetadata(node.Metadata)
	return out
}

func copyEdge(edge graph.Edge) graph.Edge {
	out := edge
	out.Properties = copyMetadata(edge.Properties)
	return out
}

func copyMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return nil
	}
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}

var _ graph.Driver = (*Driver)(nil)
