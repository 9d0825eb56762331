// Package graph provides interfaces and implementations for the thought
// graph: typed nodes connected by weighted, typed, directed edges.
package graph

import "context"

// Driver handles storage and traversal of the thought graph.
//
// A driver moves through three states: uninitialized, connected, closed.
// Init performs the handshake and idempotent schema setup and moves the
// driver to connected. All data operations outside the connected state fail
// with ErrNotReady.
//
// Drivers do not enforce referential integrity beyond what each operation
// states; callers own the invariant that no edge outlives its endpoints,
// which DeleteNode supports by cascading to incident edges.
type Driver interface {
	// Init connects to the backing store and applies schema and
	// uniqueness constraints. Safe to call more than once.
	Init(ctx context.Context) error

	// CreateNode inserts a new node. Returns ErrAlreadyExists when the id
	// is taken.
	CreateNode(ctx context.Context, node Node) error

	// GetNode returns the node with the given id or ErrNotFound.
	GetNode(ctx context.Context, id string) (*Node, error)

	// UpdateNode applies a partial update. Returns ErrNotFound when the id
	// is absent. When allowRename is set and the update carries a NewID,
	// the node and all its edges are re-keyed atomically; a NewID that
	// collides with an existing node returns ErrAlreadyExists.
	UpdateNode(ctx context.Context, id string, update NodeUpdate, allowRename bool) error

	// DeleteNode removes the node and all incident edges in both
	// directions. Deleting an absent id is not an error.
	DeleteNode(ctx context.Context, id string) error

	// CreateEdge inserts an edge between two existing nodes. Returns
	// ErrNotFound when either endpoint is absent. An identical
	// (source, target, type) triple is merged rather than duplicated.
	CreateEdge(ctx context.Context, edge Edge) error

	// GetEdges returns all edges from source to target, any type.
	// Returns ErrNotFound when none exist.
	GetEdges(ctx context.Context, sourceID, targetID string) ([]Edge, error)

	// UpdateEdge applies a partial update to the (source, target, type)
	// edge. Returns ErrNotFound when it is absent.
	UpdateEdge(ctx context.Context, sourceID, targetID, edgeType string, update EdgeUpdate) error

	// DeleteEdge removes the (source, target, type) edge, or every edge
	// between the pair when edgeType is empty. Absent edges are a no-op.
	DeleteEdge(ctx context.Context, sourceID, targetID, edgeType string) error

	// SearchNodes returns nodes whose content contains the substring,
	// most recent first, capped at limit.
	SearchNodes(ctx context.Context, substring string, limit int) ([]Node, error)

	// Neighbors returns the outgoing edges of the node meeting the weight
	// threshold, optionally filtered by edge type, together with the nodes
	// they reach.
	Neighbors(ctx context.Context, id, typeFilter string, minWeight float64) ([]Neighbor, error)

	// IncidentEdges returns every edge touching the node in either
	// direction.
	IncidentEdges(ctx context.Context, id string) ([]Edge, error)

	// NodesBySource returns the nodes whose provenance includes sourceID.
	NodesBySource(ctx context.Context, sourceID string) ([]Node, error)

	// Summary returns store-wide node and edge counts.
	Summary(ctx context.Context) (*Summary, error)

	// AllNodeIDs returns every node id, most recent first.
	AllNodeIDs(ctx context.Context) ([]string, error)

	// Close finalizes the driver. Data operations after Close fail with
	// ErrNotReady.
	Close(ctx context.Context) error
}
