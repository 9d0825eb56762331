package memory

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/noemaco/noema/pkg/graph"
)

var _ = Describe("Driver", func() {
	var (
		ctx    context.Context
		driver *Driver
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		driver, err = NewDriver(Config{}, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
		Expect(driver.Init(ctx)).To(Succeed())
	})

	Describe("lifecycle", func() {
		It("rejects operations before Init", func() {
			fresh, err := NewDriver(Config{}, zap.NewNop())
			Expect(err).NotTo(HaveOccurred())

			_, err = fresh.GetNode(ctx, "anything")
			Expect(err).To(MatchError(graph.ErrNotReady))
		})

		It("rejects operations after Close", func() {
			Expect(driver.Close(ctx)).To(Succeed())

			err := driver.CreateNode(ctx, graph.Node{ID: "late"})
			Expect(err).To(MatchError(graph.ErrNotReady))
		})

		It("cannot be re-initialized after Close", func() {
			Expect(driver.Close(ctx)).To(Succeed())
			Expect(driver.Init(ctx)).To(MatchError(graph.ErrNotReady))
		})
	})

	Describe("nodes", func() {
		It("creates and retrieves a node", func() {
			Expect(driver.CreateNode(ctx, graph.Node{
				ID:         "Marie Curie",
				Content:    "Physicist and chemist",
				EntityType: "person",
				SourceIDs:  []string{"doc-1"},
			})).To(Succeed())

			node, err := driver.GetNode(ctx, "Marie Curie")
			Expect(err).NotTo(HaveOccurred())
			Expect(node.Content).To(Equal("Physicist and chemist"))
			Expect(node.EntityType).To(Equal("person"))
			Expect(node.SourceIDs).To(Equal([]string{"doc-1"}))
			Expect(node.CreatedAt).NotTo(BeZero())
		})

		It("defaults the entity type", func() {
			Expect(driver.CreateNode(ctx, graph.Node{ID: "untyped"})).To(Succeed())

			node, err := driver.GetNode(ctx, "untyped")
			Expect(err).NotTo(HaveOccurred())
			Expect(node.EntityType).To(Equal(graph.DefaultEntityType))
		})

		It("rejects duplicate ids", func() {
			Expect(driver.CreateNode(ctx, graph.Node{ID: "dup", Content: "original"})).To(Succeed())

			err := driver.CreateNode(ctx, graph.Node{ID: "dup", Content: "imposter"})
			Expect(err).To(MatchError(graph.ErrAlreadyExists))

			node, err := driver.GetNode(ctx, "dup")
			Expect(err).NotTo(HaveOccurred())
			Expect(node.Content).To(Equal("original"))
		})

		It("returns not found for absent nodes", func() {
			_, err := driver.GetNode(ctx, "ghost")
			Expect(err).To(MatchError(graph.ErrNotFound))
		})

		It("applies partial updates without touching other fields", func() {
			Expect(driver.CreateNode(ctx, graph.Node{
				ID:         "partial",
				Content:    "before",
				EntityType: "person",
			})).To(Succeed())

			content := "after"
			Expect(driver.UpdateNode(ctx, "partial", graph.NodeUpdate{Content: &content}, false)).To(Succeed())

			node, err := driver.GetNode(ctx, "partial")
			Expect(err).NotTo(HaveOccurred())
			Expect(node.Content).To(Equal("after"))
			Expect(node.EntityType).To(Equal("person"))
		})

		It("ignores rename requests unless allowed", func() {
			Expect(driver.CreateNode(ctx, graph.Node{ID: "stay"})).To(Succeed())

			Expect(driver.UpdateNode(ctx, "stay", graph.NodeUpdate{NewID: "go"}, false)).To(Succeed())

			_, err := driver.GetNode(ctx, "stay")
			Expect(err).NotTo(HaveOccurred())
			_, err = driver.GetNode(ctx, "go")
			Expect(err).To(MatchError(graph.ErrNotFound))
		})

		It("re-keys incident edges on rename", func() {
			Expect(driver.CreateNode(ctx, graph.Node{ID: "old"})).To(Succeed())
			Expect(driver.CreateNode(ctx, graph.Node{ID: "peer"})).To(Succeed())
			Expect(driver.CreateEdge(ctx, graph.Edge{SourceID: "old", TargetID: "peer", Type: "KNOWS", Weight: 0.7})).To(Succeed())
			Expect(driver.CreateEdge(ctx, graph.Edge{SourceID: "peer", TargetID: "old", Type: "KNOWS", Weight: 0.4})).To(Succeed())

			Expect(driver.UpdateNode(ctx, "old", graph.NodeUpdate{NewID: "new"}, true)).To(Succeed())

			edges, err := driver.GetEdges(ctx, "new", "peer")
			Expect(err).NotTo(HaveOccurred())
			Expect(edges).To(HaveLen(1))
			Expect(edges[0].Weight).To(Equal(0.7))

			edges, err = driver.GetEdges(ctx, "peer", "new")
			Expect(err).NotTo(HaveOccurred())
			Expect(edges).To(HaveLen(1))

			_, err = driver.GetEdges(ctx, "peer", "old")
			Expect(err).To(MatchError(graph.ErrNotFound))
		})

		It("rejects renames onto taken ids", func() {
			Expect(driver.CreateNode(ctx, graph.Node{ID: "a"})).To(Succeed())
			Expect(driver.CreateNode(ctx, graph.Node{ID: "b"})).To(Succeed())

			err := driver.UpdateNode(ctx, "a", graph.NodeUpdate{NewID: "b"}, true)
			Expect(err).To(MatchError(graph.ErrAlreadyExists))
		})

		It("deletes nodes with their incident edges, idempotently", func() {
			Expect(driver.CreateNode(ctx, graph.Node{ID: "hub"})).To(Succeed())
			Expect(driver.CreateNode(ctx, graph.Node{ID: "spoke"})).To(Succeed())
			Expect(driver.CreateEdge(ctx, graph.Edge{SourceID: "hub", TargetID: "spoke"})).To(Succeed())
			Expect(driver.CreateEdge(ctx, graph.Edge{SourceID: "spoke", TargetID: "hub"})).To(Succeed())

			Expect(driver.DeleteNode(ctx, "hub")).To(Succeed())
			Expect(driver.DeleteNode(ctx, "hub")).To(Succeed())

			_, err := driver.GetNode(ctx, "hub")
			Expect(err).To(MatchError(graph.ErrNotFound))

			edges, err := driver.IncidentEdges(ctx, "spoke")
			Expect(err).NotTo(HaveOccurred())
			Expect(edges).To(BeEmpty())
		})
	})

	Describe("edges", func() {
		BeforeEach(func() {
			Expect(driver.CreateNode(ctx, graph.Node{ID: "src"})).To(Succeed())
			Expect(driver.CreateNode(ctx, graph.Node{ID: "dst"})).To(Succeed())
		})

		It("requires both endpoints to exist", func() {
			err := driver.CreateEdge(ctx, graph.Edge{SourceID: "src", TargetID: "ghost"})
			Expect(err).To(MatchError(graph.ErrNotFound))

			err = driver.CreateEdge(ctx, graph.Edge{SourceID: "ghost", TargetID: "dst"})
			Expect(err).To(MatchError(graph.ErrNotFound))
		})

		It("defaults the edge type", func() {
			Expect(driver.CreateEdge(ctx, graph.Edge{SourceID: "src", TargetID: "dst", Weight: 0.5})).To(Succeed())

			edges, err := driver.GetEdges(ctx, "src", "dst")
			Expect(err).NotTo(HaveOccurred())
			Expect(edges).To(HaveLen(1))
			Expect(edges[0].Type).To(Equal(graph.DefaultEdgeType))
		})

		It("upserts an identical triple in place, keeping CreatedAt", func() {
			Expect(driver.CreateEdge(ctx, graph.Edge{SourceID: "src", TargetID: "dst", Type: "REL", Weight: 0.3})).To(Succeed())

			first, err := driver.GetEdges(ctx, "src", "dst")
			Expect(err).NotTo(HaveOccurred())

			Expect(driver.CreateEdge(ctx, graph.Edge{SourceID: "src", TargetID: "dst", Type: "REL", Weight: 0.9})).To(Succeed())

			edges, err := driver.GetEdges(ctx, "src", "dst")
			Expect(err).NotTo(HaveOccurred())
			Expect(edges).To(HaveLen(1))
			Expect(edges[0].Weight).To(Equal(0.9))
			Expect(edges[0].CreatedAt).To(Equal(first[0].CreatedAt))
		})

		It("keeps parallel edges of different types distinct", func() {
			Expect(driver.CreateEdge(ctx, graph.Edge{SourceID: "src", TargetID: "dst", Type: "A", Weight: 0.1})).To(Succeed())
			Expect(driver.CreateEdge(ctx, graph.Edge{SourceID: "src", TargetID: "dst", Type: "B", Weight: 0.2})).To(Succeed())

			edges, err := driver.GetEdges(ctx, "src", "dst")
			Expect(err).NotTo(HaveOccurred())
			Expect(edges).To(HaveLen(2))
			Expect(edges[0].Type).To(Equal("A"))
			Expect(edges[1].Type).To(Equal("B"))
		})

		It("updates weight and properties", func() {
			Expect(driver.CreateEdge(ctx, graph.Edge{SourceID: "src", TargetID: "dst", Type: "REL", Weight: 0.5})).To(Succeed())

			weight := 0.8
			Expect(driver.UpdateEdge(ctx, "src", "dst", "REL", graph.EdgeUpdate{
				Weight:     &weight,
				Properties: map[string]any{"description": "updated"},
			})).To(Succeed())

			edges, err := driver.GetEdges(ctx, "src", "dst")
			Expect(err).NotTo(HaveOccurred())
			Expect(edges[0].Weight).To(Equal(0.8))
			Expect(edges[0].Properties).To(HaveKeyWithValue("description", "updated"))
		})

		It("deletes by type or all edges between a pair", func() {
			Expect(driver.CreateEdge(ctx, graph.Edge{SourceID: "src", TargetID: "dst", Type: "A"})).To(Succeed())
			Expect(driver.CreateEdge(ctx, graph.Edge{SourceID: "src", TargetID: "dst", Type: "B"})).To(Succeed())

			Expect(driver.DeleteEdge(ctx, "src", "dst", "A")).To(Succeed())

			edges, err := driver.GetEdges(ctx, "src", "dst")
			Expect(err).NotTo(HaveOccurred())
			Expect(edges).To(HaveLen(1))
			Expect(edges[0].Type).To(Equal("B"))

			Expect(driver.DeleteEdge(ctx, "src", "dst", "")).To(Succeed())

			_, err = driver.GetEdges(ctx, "src", "dst")
			Expect(err).To(MatchError(graph.ErrNotFound))
		})
	})

	Describe("traversal", func() {
		BeforeEach(func() {
			Expect(driver.CreateNode(ctx, graph.Node{ID: "center"})).To(Succeed())
			Expect(driver.CreateNode(ctx, graph.Node{ID: "near"})).To(Succeed())
			Expect(driver.CreateNode(ctx, graph.Node{ID: "far"})).To(Succeed())
			Expect(driver.CreateEdge(ctx, graph.Edge{SourceID: "center", TargetID: "near", Type: "CLOSE", Weight: 0.9})).To(Succeed())
			Expect(driver.CreateEdge(ctx, graph.Edge{SourceID: "center", TargetID: "far", Type: "DISTANT", Weight: 0.2})).To(Succeed())
		})

		It("orders neighbors by descending weight", func() {
			neighbors, err := driver.Neighbors(ctx, "center", "", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(neighbors).To(HaveLen(2))
			Expect(neighbors[0].Node.ID).To(Equal("near"))
			Expect(neighbors[1].Node.ID).To(Equal("far"))
		})

		It("filters neighbors by type and weight", func() {
			neighbors, err := driver.Neighbors(ctx, "center", "CLOSE", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(neighbors).To(HaveLen(1))
			Expect(neighbors[0].Node.ID).To(Equal("near"))

			neighbors, err = driver.Neighbors(ctx, "center", "", 0.5)
			Expect(err).NotTo(HaveOccurred())
			Expect(neighbors).To(HaveLen(1))
			Expect(neighbors[0].Edge.Weight).To(Equal(0.9))
		})

		It("fails neighbors for an absent node", func() {
			_, err := driver.Neighbors(ctx, "ghost", "", 0)
			Expect(err).To(MatchError(graph.ErrNotFound))
		})

		It("lists incident edges in both directions without duplicating self-loops", func() {
			Expect(driver.CreateEdge(ctx, graph.Edge{SourceID: "near", TargetID: "center", Type: "BACK"})).To(Succeed())
			Expect(driver.CreateEdge(ctx, graph.Edge{SourceID: "center", TargetID: "center", Type: "SELF"})).To(Succeed())

			edges, err := driver.IncidentEdges(ctx, "center")
			Expect(err).NotTo(HaveOccurred())
			Expect(edges).To(HaveLen(4))
		})
	})

	Describe("search and listing", func() {
		It("matches substrings case-insensitively, most recent first", func() {
			Expect(driver.CreateNode(ctx, graph.Node{
				ID: "first", Content: "Radium discovery",
				CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			})).To(Succeed())
			Expect(driver.CreateNode(ctx, graph.Node{
				ID: "second", Content: "radium refinement",
				CreatedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			})).To(Succeed())
			Expect(driver.CreateNode(ctx, graph.Node{
				ID: "unrelated", Content: "polonium",
				CreatedAt: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
			})).To(Succeed())

			matches, err := driver.SearchNodes(ctx, "RADIUM", 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).To(HaveLen(2))
			Expect(matches[0].ID).To(Equal("second"))
			Expect(matches[1].ID).To(Equal("first"))
		})

		It("honors the search limit", func() {
			for _, id := range []string{"a", "b", "c"} {
				Expect(driver.CreateNode(ctx, graph.Node{ID: id, Content: "common term"})).To(Succeed())
			}

			matches, err := driver.SearchNodes(ctx, "common", 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).To(HaveLen(2))
		})

		It("finds nodes by provenance", func() {
			Expect(driver.CreateNode(ctx, graph.Node{ID: "derived", SourceIDs: []string{"doc-1", "doc-2"}})).To(Succeed())
			Expect(driver.CreateNode(ctx, graph.Node{ID: "other", SourceIDs: []string{"doc-3"}})).To(Succeed())

			nodes, err := driver.NodesBySource(ctx, "doc-2")
			Expect(err).NotTo(HaveOccurred())
			Expect(nodes).To(HaveLen(1))
			Expect(nodes[0].ID).To(Equal("derived"))
		})

		It("lists all node ids most recent first", func() {
			Expect(driver.CreateNode(ctx, graph.Node{
				ID: "older", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			})).To(Succeed())
			Expect(driver.CreateNode(ctx, graph.Node{
				ID: "newer", CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			})).To(Succeed())

			ids, err := driver.AllNodeIDs(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(Equal([]string{"newer", "older"}))
		})

		It("breaks identical timestamps by insertion order", func() {
			ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
			Expect(driver.CreateNode(ctx, graph.Node{ID: "one", CreatedAt: ts})).To(Succeed())
			Expect(driver.CreateNode(ctx, graph.Node{ID: "two", CreatedAt: ts})).To(Succeed())

			ids, err := driver.AllNodeIDs(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(Equal([]string{"two", "one"}))
		})
	})

	Describe("summary", func() {
		It("counts nodes, edges, and edge types", func() {
			Expect(driver.CreateNode(ctx, graph.Node{ID: "x"})).To(Succeed())
			Expect(driver.CreateNode(ctx, graph.Node{ID: "y"})).To(Succeed())
			Expect(driver.CreateEdge(ctx, graph.Edge{SourceID: "x", TargetID: "y", Type: "REL"})).To(Succeed())
			Expect(driver.CreateEdge(ctx, graph.Edge{SourceID: "y", TargetID: "x", Type: "REL"})).To(Succeed())

			summary, err := driver.Summary(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.NodeCount).To(Equal(2))
			Expect(summary.EdgeCount).To(Equal(2))
			Expect(summary.EdgeTypes).To(HaveKeyWithValue("REL", 2))
		})
	})

	Describe("isolation", func() {
		It("returns copies that do not alias internal state", func() {
			Expect(driver.CreateNode(ctx, graph.Node{
				ID:        "copied",
				SourceIDs: []string{"doc-1"},
				Metadata:  map[string]any{"k": "v"},
			})).To(Succeed())

			node, err := driver.GetNode(ctx, "copied")
			Expect(err).NotTo(HaveOccurred())

			node.SourceIDs[0] = "mutated"
			node.Metadata["k"] = "mutated"

			reread, err := driver.GetNode(ctx, "copied")
			Expect(err).NotTo(HaveOccurred())
			Expect(reread.SourceIDs[0]).To(Equal("doc-1"))
			Expect(reread.Metadata["k"]).To(Equal("v"))
		})
	})
})
