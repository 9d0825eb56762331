package knowledge

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noemaco/noema/pkg/graph"
	"github.com/noemaco/noema/pkg/vector"
)

// EntityUpdate describes a partial update to an entity. Nil fields are left
// untouched.
type EntityUpdate struct {
	// NewName re-keys the entity. Only honored when the edit allows
	// renames.
	NewName string

	Description *string
	EntityType  *string
	Metadata    map[string]any
}

// RelationUpdate describes a partial update to a relation. Nil fields are
// left untouched.
type RelationUpdate struct {
	Description *string
	Keywords    *string
	Weight      *float64
}

// validateWeight rejects weights outside [0, 1]. Out-of-range weights are
// rejected rather than clamped so a caller's mistake is visible instead of
// silently distorted.
func validateWeight(w float64) error {
	if w < 0 || w > 1 {
		return fmt.Errorf("%w: weight %v outside [0.0, 1.0]", ErrInvalidArgument, w)
	}
	return nil
}

// CreateEntity creates a new entity in the graph and mirrors it into the
// entity vector namespace. A colliding name resolves to a failed result
// with graph.ErrAlreadyExists; the existing entity's data is unchanged.
func (c *Coordinator) CreateEntity(ctx context.Context, name, description, entityType, sourceID string) (*MutationResult, error) {
	if name == "" {
		return failed(fmt.Errorf("%w: entity name must not be empty", ErrInvalidArgument)), nil
	}

	if entityType == "" {
		entityType = graph.DefaultEntityType
	}
	if sourceID == "" {
		sourceID = SourceManual
	}

	unlock := c.locks.Lock(name)
	defer unlock()

	err := c.graphs.CreateNode(ctx, graph.Node{
		ID:         name,
		Content:    description,
		EntityType: entityType,
		SourceIDs:  []string{sourceID},
	})
	if err != nil {
		if errors.Is(err, graph.ErrAlreadyExists) {
			return failed(err), nil
		}
		return nil, fmt.Errorf("creating entity %s: %w", name, err)
	}

	if err := c.upsertEntityRecord(ctx, name, description, entityType, sourceID); err != nil {
		return nil, err
	}

	c.logger.Debug("created entity",
		zap.String("name", name),
		zap.String("entity_type", entityType),
	)

	return applied(fmt.Sprintf("entity %q created", name)), nil
}

// EditEntity applies a partial update to an entity. Renaming re-keys the
// node and its edges and requires allowRename; a rename target that
// collides resolves to a failed result.
func (c *Coordinator) EditEntity(ctx context.Context, name string, update EntityUpdate, allowRename bool) (*MutationResult, error) {
	if name == "" {
		return failed(fmt.Errorf("%w: entity name must not be empty", ErrInvalidArgument)), nil
	}

	keys := []string{name}
	renaming := allowRename && update.NewName != "" && update.NewName != name
	if renaming {
		keys = append(keys, update.NewName)
	}

	unlock := c.locks.Lock(keys...)
	defer unlock()

	nodeUpdate := graph.NodeUpdate{
		Content:    update.Description,
		EntityType: update.EntityType,
		Metadata:   update.Metadata,
	}
	if renaming {
		nodeUpdate.NewID = update.NewName
	}

	err := c.graphs.UpdateNode(ctx, name, nodeUpdate, allowRename)
	if err != nil {
		if errors.Is(err, graph.ErrNotFound) || errors.Is(err, graph.ErrAlreadyExists) {
			return failed(err), nil
		}
		return nil, fmt.Errorf("editing entity %s: %w", name, err)
	}

	finalName := name
	if renaming {
		finalName = update.NewName

		// The vector record is keyed by the old name; drop it before
		// writing the re-keyed one.
		if err := c.vectors.Delete(ctx, NamespaceEntities, []string{name}); err != nil {
			return nil, fmt.Errorf("removing stale entity record %s: %w", name, err)
		}
	}

	node, err := c.graphs.GetNode(ctx, finalName)
	if err != nil {
		return nil, fmt.Errorf("reloading entity %s: %w", finalName, err)
	}

	source := SourceManual
	if len(node.SourceIDs) > 0 {
		source = node.SourceIDs[0]
	}

	if err := c.upsertEntityRecord(ctx, finalName, node.Content, node.EntityType, source); err != nil {
		return nil, err
	}

	if renaming {
		return applied(fmt.Sprintf("entity %q renamed to %q", name, finalName)), nil
	}
	return applied(fmt.Sprintf("entity %q updated", name)), nil
}

// DeleteEntity removes an entity, its incident edges, and every vector
// record derived from them. Deleting an absent entity is unchanged, not a
// failure.
func (c *Coordinator) DeleteEntity(ctx context.Context, name string) (*MutationResult, error) {
	if name == "" {
		return failed(fmt.Errorf("%w: entity name must not be empty", ErrInvalidArgument)), nil
	}

	unlock := c.locks.Lock(name)
	defer unlock()

	if _, err := c.graphs.GetNode(ctx, name); err != nil {
		if errors.Is(err, graph.ErrNotFound) {
			return unchanged(fmt.Sprintf("entity %q not present", name)), nil
		}
		return nil, fmt.Errorf("checking entity %s: %w", name, err)
	}

	if err := c.deleteEntityData(ctx, name); err != nil {
		return nil, err
	}

	c.logger.Debug("deleted entity", zap.String("name", name))
	return applied(fmt.Sprintf("entity %q and its relations deleted", name)), nil
}

// CreateRelation creates a directed, typed, weighted relation between two
// existing entities and mirrors it into the relation vector namespace.
// A missing endpoint resolves to a failed result with graph.ErrNotFound.
// Re-creating an identical (source, target, type) triple updates it in
// place rather than duplicating.
func (c *Coordinator) CreateRelation(ctx context.Context, sourceID, targetID, relType, description, keywords string, weight *float64, provenance string) (*MutationResult, error) {
	if sourceID == "" || targetID == "" {
		return failed(fmt.Errorf("%w: source and target must not be empty", ErrInvalidArgument)), nil
	}

	w := graph.DefaultWeight
	if weight != nil {
		w = *weight
	}
	if err := validateWeight(w); err != nil {
		return failed(err), nil
	}

	if relType == "" {
		relType = graph.DefaultEdgeType
	}
	if provenance == "" {
		provenance = SourceManual
	}

	unlock := c.locks.Lock(sourceID, targetID)
	defer unlock()

	err := c.graphs.CreateEdge(ctx, graph.Edge{
		SourceID: sourceID,
		TargetID: targetID,
		Type:     relType,
		Weight:   w,
		Properties: map[string]any{
			"description": description,
			"keywords":    keywords,
			"source_id":   provenance,
		},
	})
	if err != nil {
		if errors.Is(err, graph.ErrNotFound) {
			return failed(err), nil
		}
		return nil, fmt.Errorf("creating relation %s -> %s: %w", sourceID, targetID, err)
	}

	if err := c.upsertRelationRecord(ctx, sourceID, targetID, relType, description, keywords); err != nil {
		return nil, err
	}

	c.logger.Debug("created relation",
		zap.String("source", sourceID),
		zap.String("target", targetID),
		zap.String("type", relType),
		zap.Float64("weight", w),
	)

	return applied(fmt.Sprintf("relation %q -[%s]-> %q created", sourceID, relType, targetID)), nil
}

// EditRelation applies a partial update to the (source, target, type)
// relation. An absent relation resolves to a failed result.
func (c *Coordinator) EditRelation(ctx context.Context, sourceID, targetID, relType string, update RelationUpdate) (*MutationResult, error) {
	if sourceID == "" || targetID == "" {
		return failed(fmt.Errorf("%w: source and target must not be empty", ErrInvalidArgument)), nil
	}

	if update.Weight != nil {
		if err := validateWeight(*update.Weight); err != nil {
			return failed(err), nil
		}
	}

	if relType == "" {
		relType = graph.DefaultEdgeType
	}

	unlock := c.locks.Lock(sourceID, targetID)
	defer unlock()

	edges, err := c.graphs.GetEdges(ctx, sourceID, targetID)
	if err != nil {
		if errors.Is(err, graph.ErrNotFound) {
			return failed(err), nil
		}
		return nil, fmt.Errorf("checking relation %s -> %s: %w", sourceID, targetID, err)
	}

	var current *graph.Edge
	for i := range edges {
		if edges[i].Type == relType {
			current = &edges[i]
			break
		}
	}
	if current == nil {
		return failed(fmt.Errorf("%w: relation %q -[%s]-> %q", graph.ErrNotFound, sourceID, relType, targetID)), nil
	}

	props := current.Properties
	if props == nil {
		props = map[string]any{}
	}
	if update.Description != nil {
		props["description"] = *update.Description
	}
	if update.Keywords != nil {
		props["keywords"] = *update.Keywords
	}

	edgeUpdate := graph.EdgeUpdate{
		Weight:     update.Weight,
		Properties: props,
	}

	if err := c.graphs.UpdateEdge(ctx, sourceID, targetID, relType, edgeUpdate); err != nil {
		if errors.Is(err, graph.ErrNotFound) {
			return failed(err), nil
		}
		return nil, fmt.Errorf("editing relation %s -> %s: %w", sourceID, targetID, err)
	}

	if update.Description != nil || update.Keywords != nil {
		description, _ := props["description"].(string)
		keywords, _ := props["keywords"].(string)
		if err := c.upsertRelationRecord(ctx, sourceID, targetID, relType, description, keywords); err != nil {
			return nil, err
		}
	}

	return applied(fmt.Sprintf("relation %q -[%s]-> %q updated", sourceID, relType, targetID)), nil
}

// DeleteRelation removes every relation between the pair, or only the named
// type when relType is non-empty. Deleting an absent relation is unchanged.
func (c *Coordinator) DeleteRelation(ctx context.Context, sourceID, targetID, relType string) (*MutationResult, error) {
	if sourceID == "" || targetID == "" {
		return failed(fmt.Errorf("%w: source and target must not be empty", ErrInvalidArgument)), nil
	}

	unlock := c.locks.Lock(sourceID, targetID)
	defer unlock()

	edges, err := c.graphs.GetEdges(ctx, sourceID, targetID)
	if err != nil {
		if errors.Is(err, graph.ErrNotFound) {
			return unchanged(fmt.Sprintf("relation %q -> %q not present", sourceID, targetID)), nil
		}
		return nil, fmt.Errorf("checking relation %s -> %s: %w", sourceID, targetID, err)
	}

	var relIDs []string
	matched := false
	for _, edge := range edges {
		if relType != "" && edge.Type != relType {
			continue
		}
		matched = true
		relIDs = append(relIDs, relationVectorID(edge.SourceID, edge.TargetID, edge.Type))
	}

	if !matched {
		return unchanged(fmt.Sprintf("relation %q -[%s]-> %q not present", sourceID, relType, targetID)), nil
	}

	if err := c.graphs.DeleteEdge(ctx, sourceID, targetID, relType); err != nil {
		return nil, fmt.Errorf("deleting relation %s -> %s: %w", sourceID, targetID, err)
	}

	if err := c.vectors.Delete(ctx, NamespaceRelations, relIDs); err != nil {
		return nil, fmt.Errorf("deleting relation records: %w", err)
	}

	return applied(fmt.Sprintf("relation %q -> %q deleted", sourceID, targetID)), nil
}

// upsertEntityRecord mirrors an entity into the entity vector namespace so
// retrieval can match entities semantically.
func (c *Coordinator) upsertEntityRecord(ctx context.Context, name, description, entityType, sourceID string) error {
	text := name
	if description != "" {
		text = name + graph.FieldSep + description
	}

	embedding, err := c.embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embedding entity %s: %w", name, err)
	}

	err = c.vectors.Upsert(ctx, NamespaceEntities, []vector.Document{{
		ID:        name,
		Text:      description,
		Embedding: embedding,
		Metadata: map[string]string{
			vector.MetadataTextKey: description,
			"entity_type":          entityType,
			metadataSourceKey:      sourceID,
		},
	}})
	if err != nil {
		return fmt.Errorf("storing entity record %s: %w", name, err)
	}

	return nil
}

// upsertRelationRecord mirrors a relation into the relation vector
// namespace so retrieval can match relations semantically.
func (c *Coordinator) upsertRelationRecord(ctx context.Context, sourceID, targetID, relType, description, keywords string) error {
	text := sourceID + " " + relType + " " + targetID
	if description != "" {
		text += graph.FieldSep + description
	}
	if keywords != "" {
		text += graph.FieldSep + keywords
	}

	embedding, err := c.embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embedding relation %s -> %s: %w", sourceID, targetID, err)
	}

	err = c.vectors.Upsert(ctx, NamespaceRelations, []vector.Document{{
		ID:        relationVectorID(sourceID, targetID, relType),
		Text:      text,
		Embedding: embedding,
		Metadata: map[string]string{
			vector.MetadataTextKey: text,
			"source_entity":        sourceID,
			"target_entity":        targetID,
			"relation_type":        relType,
		},
	}})
	if err != nil {
		return fmt.Errorf("storing relation record %s -> %s: %w", sourceID, targetID, err)
	}

	return nil
}
