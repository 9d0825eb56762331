package knowledge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noemaco/noema/pkg/graph"
)

// Retrieve dispatches a query through the named retrieval strategy and
// returns a ranked result. An empty result is the explicit "no results"
// indicator, not an error. Unknown modes fail with ErrInvalidArgument.
func (c *Coordinator) Retrieve(ctx context.Context, query string, mode Mode, topK int) (*RetrievalResult, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: query must not be empty", ErrInvalidArgument)
	}

	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}

	if topK <= 0 {
		topK = c.topK
	}

	var hits []Hit
	var err error

	switch mode {
	case ModeNaive:
		hits, err = c.retrieveNaive(ctx, query, topK)
	case ModeLocal:
		hits, err = c.retrieveLocal(ctx, query, topK)
	case ModeGlobal:
		hits, err = c.retrieveGlobal(ctx, query, topK)
	case ModeHybrid:
		hits, err = c.retrieveHybrid(ctx, query, topK)
	case ModeMix:
		hits, err = c.retrieveMix(ctx, query, topK)
	}
	if err != nil {
		return nil, err
	}

	sortHits(hits)
	if len(hits) > topK {
		hits = hits[:topK]
	}

	c.logger.Debug("retrieval completed",
		zap.String("mode", string(mode)),
		zap.Int("hits", len(hits)),
	)

	return &RetrievalResult{Query: query, Mode: mode, Hits: hits}, nil
}

// retrieveNaive is plain similarity search over stored text chunks.
func (c *Coordinator) retrieveNaive(ctx context.Context, query string, topK int) ([]Hit, error) {
	embedding, err := c.embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := c.vectors.Query(ctx, NamespaceChunks, embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, Hit{
			ID:      r.ID,
			Content: r.Text,
			Score:   float64(r.Score),
			Origin:  NamespaceChunks,
		})
	}

	return hits, nil
}

// retrieveLocal finds entities matching the query, semantically and by
// substring, then walks their immediate neighborhoods. A neighbor inherits
// its seed's score scaled by the connecting edge's weight.
func (c *Coordinator) retrieveLocal(ctx context.Context, query string, topK int) ([]Hit, error) {
	embedding, err := c.embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	seeds := make(map[string]float64)

	results, err := c.vectors.Query(ctx, NamespaceEntities, embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}
	for _, r := range results {
		if float64(r.Score) > seeds[r.ID] {
			seeds[r.ID] = float64(r.Score)
		}
	}

	// Substring mentions are treated as exact matches.
	mentioned, err := c.graphs.SearchNodes(ctx, query, topK)
	if err != nil {
		return nil, fmt.Errorf("searching nodes: %w", err)
	}
	for _, node := range mentioned {
		seeds[node.ID] = 1.0
	}

	var hits []Hit
	for id, score := range seeds {
		node, err := c.graphs.GetNode(ctx, id)
		if err != nil {
			// Entity record with no surviving node; skip.
			continue
		}

		hits = append(hits, Hit{
			ID:        node.ID,
			Content:   node.Content,
			Score:     score,
			Origin:    NamespaceEntities,
			CreatedAt: node.CreatedAt,
		})

		neighbors, err := c.graphs.Neighbors(ctx, id, "", 0)
		if err != nil {
			continue
		}
		for _, n := range neighbors {
			hits = append(hits, Hit{
				ID:        n.Node.ID,
				Content:   n.Node.Content,
				Score:     score * n.Edge.Weight,
				Origin:    NamespaceEntities,
				CreatedAt: n.Node.CreatedAt,
			})
		}
	}

	return dedupeHits(hits), nil
}

// retrieveGlobal searches whole-graph relationship structure through the
// relation vector namespace, resolving each record back to its live edge.
func (c *Coordinator) retrieveGlobal(ctx context.Context, query string, topK int) ([]Hit, error) {
	embedding, err := c.embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := c.vectors.Query(ctx, NamespaceRelations, embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("querying relations: %w", err)
	}

	var hits []Hit
	for _, r := range results {
		src := r.Metadata["source_entity"]
		dst := r.Metadata["target_entity"]
		relType := r.Metadata["relation_type"]

		edges, err := c.graphs.GetEdges(ctx, src, dst)
		if err != nil {
			if errors.Is(err, graph.ErrNotFound) || errors.Is(err, graph.ErrNotReady) {
				// Stale relation record; the edge is gone.
				continue
			}
			return nil, fmt.Errorf("resolving relation %s -> %s: %w", src, dst, err)
		}

		for _, edge := range edges {
			if relType != "" && edge.Type != relType {
				continue
			}
			hits = append(hits, Hit{
				ID:        relationVectorID(src, dst, edge.Type),
				Content:   r.Text,
				Score:     float64(r.Score) * edge.Weight,
				Origin:    NamespaceRelations,
				CreatedAt: edge.CreatedAt,
			})
		}
	}

	return hits, nil
}

// retrieveHybrid balances chunk similarity with keyword overlap against
// graph nodes, normalizing each source's scores before merging.
func (c *Coordinator) retrieveHybrid(ctx context.Context, query string, topK int) ([]Hit, error) {
	chunkHits, err := c.retrieveNaive(ctx, query, topK)
	if err != nil {
		return nil, err
	}

	keywords := queryKeywords(query)

	// overlap counts how many query keywords each node's content matched.
	overlap := make(map[string]int)
	nodes := make(map[string]graph.Node)
	for _, kw := range keywords {
		matched, err := c.graphs.SearchNodes(ctx, kw, topK)
		if err != nil {
			return nil, fmt.Errorf("searching nodes for %q: %w", kw, err)
		}
		for _, node := range matched {
			overlap[node.ID]++
			nodes[node.ID] = node
		}
	}

	var graphHits []Hit
	for id, count := range overlap {
		node := nodes[id]
		graphHits = append(graphHits, Hit{
			ID:        node.ID,
			Content:   node.Content,
			Score:     float64(count) / float64(len(keywords)),
			Origin:    NamespaceEntities,
			CreatedAt: node.CreatedAt,
		})
	}

	return dedupeHits(append(normalizeHits(chunkHits), normalizeHits(graphHits)...)), nil
}

// retrieveMix fans out to chunk, neighborhood, and relation retrieval
// concurrently and combines the normalized rankings.
func (c *Coordinator) retrieveMix(ctx context.Context, query string, topK int) ([]Hit, error) {
	var naiveHits, localHits, globalHits []Hit

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		naiveHits, err = c.retrieveNaive(gctx, query, topK)
		return err
	})
	g.Go(func() error {
		var err error
		localHits, err = c.retrieveLocal(gctx, query, topK)
		return err
	})
	g.Go(func() error {
		var err error
		globalHits, err = c.retrieveGlobal(gctx, query, topK)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	combined := append(normalizeHits(naiveHits), normalizeHits(localHits)...)
	combined = append(combined, normalizeHits(globalHits)...)

	return dedupeHits(combined), nil
}

// queryKeywords splits a query into lowercase keywords, dropping short
// connective words.
func queryKeywords(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	keywords := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?\"'()")
		if len(f) >= 3 {
			keywords = append(keywords, f)
		}
	}
	if len(keywords) == 0 {
		keywords = append(keywords, strings.ToLower(query))
	}
	return keywords
}

// normalizeHits scales a source's scores to [0, 1] so sources with
// different native score ranges combine fairly.
func normalizeHits(hits []Hit) []Hit {
	var max float64
	for _, h := range hits {
		if h.Score > max {
			max = h.Score
		}
	}
	if max <= 0 {
		return hits
	}

	out := make([]Hit, len(hits))
	for i, h := range hits {
		h.Score = h.Score / max
		out[i] = h
	}
	return out
}

// dedupeHits collapses duplicate ids, keeping the higher score. For equal
// scores the newer record wins.
func dedupeHits(hits []Hit) []Hit {
	best := make(map[string]Hit, len(hits))
	for _, h := range hits {
		current, ok := best[h.ID]
		if !ok || h.Score > current.Score ||
			(h.Score == current.Score && h.CreatedAt.After(current.CreatedAt)) {
			best[h.ID] = h
		}
	}

	out := make([]Hit, 0, len(best))
	for _, h := range best {
		out = append(out, h)
	}
	return out
}

// sortHits orders by descending score, breaking ties by newer creation
// time, then id for determinism.
func sortHits(hits []Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if !hits[i].CreatedAt.Equal(hits[j].CreatedAt) {
			return hits[i].CreatedAt.After(hits[j].CreatedAt)
		}
		return hits[i].ID < hits[j].ID
	})
}
