package graph

import "time"

const (
	// DefaultEntityType classifies nodes created without an explicit type.
	DefaultEntityType = "UNKNOWN"

	// DefaultEdgeType labels edges created without an explicit type.
	DefaultEdgeType = "RELATED_TO"

	// DefaultWeight is the edge weight used when none is supplied.
	DefaultWeight = 0.5

	// FieldSep joins text fields when node attributes are consolidated,
	// for example when two entities are merged into one.
	FieldSep = "<SEP>"
)

// Node is a single thought or entity in the graph.
type Node struct {
	// ID is unique within the store.
	ID string

	// Content is the free-text body of the thought.
	Content string

	// EntityType is a classification tag. Defaults to DefaultEntityType.
	EntityType string

	// SourceIDs records provenance: the documents or processes that
	// produced this node.
	SourceIDs []string

	// CreatedAt is set once at creation and never mutated.
	CreatedAt time.Time

	// Metadata holds open caller-supplied attributes. Persisted as opaque
	// JSON text in the backing store.
	Metadata map[string]any
}

// NodeUpdate describes a partial update to a node. Nil fields are left
// untouched.
type NodeUpdate struct {
	// NewID re-keys the node. Only honored when the update is applied
	// with renames allowed.
	NewID string

	Content    *string
	EntityType *string

	// SourceIDs replaces the provenance list when non-nil.
	SourceIDs []string

	// Metadata replaces the metadata map when non-nil.
	Metadata map[string]any
}

// Edge is a directed, typed, weighted connection between two nodes.
// Edges are keyed by the (SourceID, TargetID, Type) triple; multiple types
// may connect the same pair.
type Edge struct {
	SourceID string
	TargetID string

	// Type labels the relationship. Defaults to DefaultEdgeType.
	Type string

	// Weight is connection strength in [0.0, 1.0].
	Weight float64

	// Properties holds open caller-supplied attributes.
	Properties map[string]any

	CreatedAt time.Time
}

// EdgeUpdate describes a partial update to an edge. Nil fields are left
// untouched.
type EdgeUpdate struct {
	Weight *float64

	// Properties replaces the property map when non-nil.
	Properties map[string]any
}

// Neighbor pairs an adjacent node with the edge that reaches it.
type Neighbor struct {
	Node Node
	Edge Edge
}

// Summary aggregates store-wide counts.
type Summary struct {
	NodeCount int

	EdgeCount int

	// EdgeTypes is a histogram of edge counts per relationship type.
	EdgeTypes map[string]int
}
