package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noemaco/noema/pkg/graph"
)

// MergeOverrides pins target entity attributes, taking precedence over the
// values produced by merging the sources.
type MergeOverrides struct {
	Description *string
	EntityType  *string
}

// MergeEntities merges the source entities into target: every edge touching
// a source is rewritten to reference target, parallel edges of the same
// type are deduplicated keeping the higher weight, node attributes are
// consolidated (descriptions joined, first non-empty entity type kept,
// provenance unioned), and the sources are deleted.
//
// The operation is retryable: a source that is already absent while target
// exists is treated as already merged and skipped, so re-running a merge
// interrupted mid-way converges to the same end state. It fails with
// graph.ErrNotFound only when no source exists and target is absent too.
func (c *Coordinator) MergeEntities(ctx context.Context, sources []string, target string, overrides *MergeOverrides) (*MutationResult, error) {
	if len(sources) == 0 {
		return failed(fmt.Errorf("%w: sources must not be empty", ErrInvalidArgument)), nil
	}
	if target == "" {
		return failed(fmt.Errorf("%w: target must not be empty", ErrInvalidArgument)), nil
	}
	if len(sources) == 1 && sources[0] == target {
		return failed(fmt.Errorf("%w: cannot merge entity %q into itself", ErrInvalidArgument, target)), nil
	}

	keys := append([]string{target}, sources...)
	unlock := c.locks.Lock(keys...)
	defer unlock()

	sourceSet := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		if s != target {
			sourceSet[s] = struct{}{}
		}
	}

	var existing []graph.Node
	for name := range sourceSet {
		node, err := c.graphs.GetNode(ctx, name)
		if err != nil {
			if errors.Is(err, graph.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("loading source %s: %w", name, err)
		}
		existing = append(existing, *node)
	}

	targetNode, err := c.graphs.GetNode(ctx, target)
	targetExists := err == nil
	if err != nil && !errors.Is(err, graph.ErrNotFound) {
		return nil, fmt.Errorf("loading target %s: %w", target, err)
	}

	if len(existing) == 0 {
		if targetExists {
			return unchanged(fmt.Sprintf("sources already merged into %q", target)), nil
		}
		return failed(fmt.Errorf("%w: no source entity exists", graph.ErrNotFound)), nil
	}

	merged := mergeAttributes(targetNode, existing, overrides)

	if targetExists {
		err = c.graphs.UpdateNode(ctx, target, graph.NodeUpdate{
			Content:    &merged.Content,
			EntityType: &merged.EntityType,
			SourceIDs:  merged.SourceIDs,
		}, false)
	} else {
		merged.ID = target
		err = c.graphs.CreateNode(ctx, merged)
	}
	if err != nil {
		return nil, fmt.Errorf("writing merge target %s: %w", target, err)
	}

	// Seed the dedupe table with the target's current edges so rewritten
	// parallels keep whichever weight is higher. The target's own edges go
	// through the same endpoint rewrite: an existing edge between target
	// and a source must not survive with its stale source endpoint.
	desired := make(map[edgeTriple]graph.Edge)
	if targetExists {
		targetEdges, err := c.graphs.IncidentEdges(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("listing target edges: %w", err)
		}
		for _, edge := range targetEdges {
			edge, keep := redirectEdge(edge, sourceSet, target)
			if !keep {
				continue
			}
			desired[tripleOf(edge)] = edge
		}
	}

	for _, node := range existing {
		edges, err := c.graphs.IncidentEdges(ctx, node.ID)
		if err != nil {
			return nil, fmt.Errorf("listing edges of %s: %w", node.ID, err)
		}

		for _, edge := range edges {
			edge, keep := redirectEdge(edge, sourceSet, target)
			if !keep {
				continue
			}

			key := tripleOf(edge)
			if current, ok := desired[key]; !ok || edge.Weight > current.Weight {
				desired[key] = edge
			}
		}
	}

	for _, node := range existing {
		if err := c.deleteEntityData(ctx, node.ID); err != nil {
			return nil, err
		}
	}

	for _, edge := range desired {
		if err := c.graphs.CreateEdge(ctx, edge); err != nil {
			return nil, fmt.Errorf("rewriting edge %s -> %s: %w", edge.SourceID, edge.TargetID, err)
		}

		description, _ := edge.Properties["description"].(string)
		keywords, _ := edge.Properties["keywords"].(string)
		if err := c.upsertRelationRecord(ctx, edge.SourceID, edge.TargetID, edge.Type, description, keywords); err != nil {
			return nil, err
		}
	}

	source := SourceManual
	if len(merged.SourceIDs) > 0 {
		source = merged.SourceIDs[0]
	}
	if err := c.upsertEntityRecord(ctx, target, merged.Content, merged.EntityType, source); err != nil {
		return nil, err
	}

	c.logger.Info("merged entities",
		zap.Strings("sources", sources),
		zap.String("target", target),
		zap.Int("edges_rewritten", len(desired)),
	)

	return applied(fmt.Sprintf("%d entities merged into %q", len(existing), target)), nil
}

type edgeTriple struct {
	src string
	dst string
	typ string
}

func tripleOf(edge graph.Edge) edgeTriple {
	return edgeTriple{src: edge.SourceID, dst: edge.TargetID, typ: edge.Type}
}

// redirectEdge rewrites endpoints in sourceSet to target. The second return
// is false when the edge collapses to a self-loop on the target, which
// carries no information after the merge.
func redirectEdge(edge graph.Edge, sourceSet map[string]struct{}, target string) (graph.Edge, bool) {
	if _, ok := sourceSet[edge.SourceID]; ok {
		edge.SourceID = target
	}
	if _, ok := sourceSet[edge.TargetID]; ok {
		edge.TargetID = target
	}
	return edge, edge.SourceID != edge.TargetID
}

// mergeAttributes consolidates node attributes: descriptions are joined
// with the field separator, the first non-empty entity type wins, and
// provenance lists are unioned. Overrides take precedence over merged
// values.
func mergeAttributes(target *graph.Node, sources []graph.Node, overrides *MergeOverrides) graph.Node {
	var descriptions []string
	var entityType string
	var sourceIDs []string
	seenSources := make(map[string]struct{})

	appendDescription := func(s string) {
		if s == "" {
			return
		}
		for _, existing := range descriptions {
			if existing == s {
				return
			}
		}
		descriptions = append(descriptions, s)
	}

	appendProvenance := func(ids []string) {
		for _, id := range ids {
			if _, ok := seenSources[id]; ok {
				continue
			}
			seenSources[id] = struct{}{}
			sourceIDs = append(sourceIDs, id)
		}
	}

	if target != nil {
		appendDescription(target.Content)
		entityType = target.EntityType
		appendProvenance(target.SourceIDs)
	}

	for _, node := range sources {
		appendDescription(node.Content)
		if entityType == "" || entityType == graph.DefaultEntityType {
			if node.EntityType != "" {
				entityType = node.EntityType
			}
		}
		appendProvenance(node.SourceIDs)
	}

	if entityType == "" {
		entityType = graph.DefaultEntityType
	}

	merged := graph.Node{
		Content:    strings.Join(descriptions, graph.FieldSep),
		EntityType: entityType,
		SourceIDs:  sourceIDs,
	}

	if overrides != nil {
		if overrides.Description != nil {
			merged.Content = *overrides.Description
		}
		if overrides.EntityType != nil {
			merged.EntityType = *overrides.EntityType
		}
	}

	return merged
}
