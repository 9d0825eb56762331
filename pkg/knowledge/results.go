package knowledge

import (
	"time"

	"github.com/noemaco/noema/pkg/graph"
	"github.com/noemaco/noema/pkg/vector"
)

// Outcome classifies how a mutation resolved.
type Outcome string

const (
	// OutcomeApplied means the mutation changed stored state.
	OutcomeApplied Outcome = "applied"

	// OutcomeUnchanged means the store was already in the desired state.
	OutcomeUnchanged Outcome = "unchanged"

	// OutcomeFailed means the mutation was rejected. Reason carries the
	// sentinel error (not found, already exists, invalid argument).
	OutcomeFailed Outcome = "failed"
)

// MutationResult is the structured outcome of a mutation. Expected,
// recoverable conditions resolve into a failed result rather than an error
// so callers can branch on them; errors are reserved for conditions where
// the system cannot safely proceed.
type MutationResult struct {
	Outcome Outcome
	Detail  string

	// Reason is set when Outcome is OutcomeFailed.
	Reason error
}

// Failed reports whether the mutation was rejected.
func (r *MutationResult) Failed() bool {
	return r.Outcome == OutcomeFailed
}

func applied(detail string) *MutationResult {
	return &MutationResult{Outcome: OutcomeApplied, Detail: detail}
}

func unchanged(detail string) *MutationResult {
	return &MutationResult{Outcome: OutcomeUnchanged, Detail: detail}
}

func failed(reason error) *MutationResult {
	return &MutationResult{Outcome: OutcomeFailed, Detail: reason.Error(), Reason: reason}
}

// Hit is one ranked retrieval result.
type Hit struct {
	// ID identifies the chunk, entity, or relation the hit came from.
	ID string

	// Content is the text of the hit.
	Content string

	// Score is the hit's relevance, normalized to [0, 1] when results
	// from multiple sources are combined.
	Score float64

	// Origin names the store the hit came from: "chunks", "entities",
	// or "relations".
	Origin string

	// CreatedAt is used to break score ties, newer first. Zero when the
	// backing store carries no timestamp for the record.
	CreatedAt time.Time
}

// RetrievalResult is the outcome of a retrieve call. An empty Hits slice is
// the explicit "no results" indicator; it is not an error.
type RetrievalResult struct {
	Query string
	Mode  Mode
	Hits  []Hit
}

// Empty reports whether retrieval found nothing.
func (r *RetrievalResult) Empty() bool {
	return len(r.Hits) == 0
}

// EntityDetails is the full inspection view of an entity.
type EntityDetails struct {
	Node graph.Node

	// Relations is every edge touching the entity in either direction.
	Relations []graph.Edge

	// VectorRecord is the entity's record in the vector index, nil when
	// absent.
	VectorRecord *vector.Document
}

// RelationDetails is the full inspection view of the relations between a
// pair of entities.
type RelationDetails struct {
	SourceID string
	TargetID string
	Edges    []graph.Edge

	// VectorRecords holds the relation records in the vector index, one
	// per edge type where present.
	VectorRecords []vector.Document
}
