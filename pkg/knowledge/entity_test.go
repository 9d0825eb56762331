package knowledge

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/noemaco/noema/pkg/graph"
	"github.com/noemaco/noema/pkg/vector"
)

var _ = Describe("entity mutations", func() {
	var (
		ctx   context.Context
		coord *Coordinator
	)

	BeforeEach(func() {
		ctx = context.Background()
		coord, _ = newTestCoordinator(nil)
	})

	Describe("CreateEntity", func() {
		It("creates the node and mirrors it into the vector index", func() {
			result, err := coord.CreateEntity(ctx, "Marie Curie", "Physicist and chemist", "person", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Outcome).To(Equal(OutcomeApplied))

			node, err := coord.graphs.GetNode(ctx, "Marie Curie")
			Expect(err).NotTo(HaveOccurred())
			Expect(node.Content).To(Equal("Physicist and chemist"))
			Expect(node.EntityType).To(Equal("person"))
			Expect(node.SourceIDs).To(Equal([]string{SourceManual}))

			record, err := coord.vectors.Fetch(ctx, NamespaceEntities, "Marie Curie")
			Expect(err).NotTo(HaveOccurred())
			Expect(record.Metadata).To(HaveKeyWithValue("entity_type", "person"))
		})

		It("rejects empty names", func() {
			result, err := coord.CreateEntity(ctx, "", "", "", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Failed()).To(BeTrue())
			Expect(result.Reason).To(MatchError(ErrInvalidArgument))
		})

		It("defaults the entity type to UNKNOWN", func() {
			_, err := coord.CreateEntity(ctx, "Untyped", "", "", "")
			Expect(err).NotTo(HaveOccurred())

			node, err := coord.graphs.GetNode(ctx, "Untyped")
			Expect(err).NotTo(HaveOccurred())
			Expect(node.EntityType).To(Equal(graph.DefaultEntityType))
		})

		It("fails on a colliding name without touching the existing entity", func() {
			_, err := coord.CreateEntity(ctx, "Original", "the first", "person", "")
			Expect(err).NotTo(HaveOccurred())

			result, err := coord.CreateEntity(ctx, "Original", "the imposter", "place", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Failed()).To(BeTrue())
			Expect(result.Reason).To(MatchError(graph.ErrAlreadyExists))

			node, err := coord.graphs.GetNode(ctx, "Original")
			Expect(err).NotTo(HaveOccurred())
			Expect(node.Content).To(Equal("the first"))
			Expect(node.EntityType).To(Equal("person"))
		})
	})

	Describe("EditEntity", func() {
		It("fails for an absent entity instead of creating it", func() {
			desc := "should not appear"
			result, err := coord.EditEntity(ctx, "Ghost", EntityUpdate{Description: &desc}, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Failed()).To(BeTrue())
			Expect(result.Reason).To(MatchError(graph.ErrNotFound))

			_, err = coord.graphs.GetNode(ctx, "Ghost")
			Expect(err).To(MatchError(graph.ErrNotFound))
		})

		It("updates only the supplied fields", func() {
			_, err := coord.CreateEntity(ctx, "Partial", "before", "person", "")
			Expect(err).NotTo(HaveOccurred())

			desc := "after"
			result, err := coord.EditEntity(ctx, "Partial", EntityUpdate{Description: &desc}, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Outcome).To(Equal(OutcomeApplied))

			node, err := coord.graphs.GetNode(ctx, "Partial")
			Expect(err).NotTo(HaveOccurred())
			Expect(node.Content).To(Equal("after"))
			Expect(node.EntityType).To(Equal("person"))
		})

		It("renames and re-keys the vector record", func() {
			_, err := coord.CreateEntity(ctx, "Old Name", "stable description", "", "")
			Expect(err).NotTo(HaveOccurred())

			result, err := coord.EditEntity(ctx, "Old Name", EntityUpdate{NewName: "New Name"}, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Outcome).To(Equal(OutcomeApplied))

			_, err = coord.graphs.GetNode(ctx, "Old Name")
			Expect(err).To(MatchError(graph.ErrNotFound))
			_, err = coord.vectors.Fetch(ctx, NamespaceEntities, "Old Name")
			Expect(err).To(MatchError(vector.ErrNotFound))

			node, err := coord.graphs.GetNode(ctx, "New Name")
			Expect(err).NotTo(HaveOccurred())
			Expect(node.Content).To(Equal("stable description"))

			_, err = coord.vectors.Fetch(ctx, NamespaceEntities, "New Name")
			Expect(err).NotTo(HaveOccurred())
		})

		It("fails renames onto taken names", func() {
			_, err := coord.CreateEntity(ctx, "A", "", "", "")
			Expect(err).NotTo(HaveOccurred())
			_, err = coord.CreateEntity(ctx, "B", "", "", "")
			Expect(err).NotTo(HaveOccurred())

			result, err := coord.EditEntity(ctx, "A", EntityUpdate{NewName: "B"}, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Failed()).To(BeTrue())
			Expect(result.Reason).To(MatchError(graph.ErrAlreadyExists))
		})
	})

	Describe("DeleteEntity", func() {
		It("is unchanged for an absent entity", func() {
			result, err := coord.DeleteEntity(ctx, "Ghost")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Outcome).To(Equal(OutcomeUnchanged))
		})

		It("removes the node, its edges, and all derived vector records", func() {
			_, err := coord.CreateEntity(ctx, "Victim", "", "", "")
			Expect(err).NotTo(HaveOccurred())
			_, err = coord.CreateEntity(ctx, "Survivor", "", "", "")
			Expect(err).NotTo(HaveOccurred())
			_, err = coord.CreateRelation(ctx, "Victim", "Survivor", "LINKS", "", "", nil, "")
			Expect(err).NotTo(HaveOccurred())

			result, err := coord.DeleteEntity(ctx, "Victim")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Outcome).To(Equal(OutcomeApplied))

			_, err = coord.graphs.GetNode(ctx, "Victim")
			Expect(err).To(MatchError(graph.ErrNotFound))
			_, err = coord.vectors.Fetch(ctx, NamespaceEntities, "Victim")
			Expect(err).To(MatchError(vector.ErrNotFound))
			_, err = coord.vectors.Fetch(ctx, NamespaceRelations, relationVectorID("Victim", "Survivor", "LINKS"))
			Expect(err).To(MatchError(vector.ErrNotFound))

			edges, err := coord.graphs.IncidentEdges(ctx, "Survivor")
			Expect(err).NotTo(HaveOccurred())
			Expect(edges).To(BeEmpty())
		})
	})

	Describe("CreateRelation", func() {
		BeforeEach(func() {
			_, err := coord.CreateEntity(ctx, "A", "", "", "")
			Expect(err).NotTo(HaveOccurred())
			_, err = coord.CreateEntity(ctx, "B", "", "", "")
			Expect(err).NotTo(HaveOccurred())
		})

		It("fails when an endpoint is missing", func() {
			result, err := coord.CreateRelation(ctx, "A", "Ghost", "", "", "", nil, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Failed()).To(BeTrue())
			Expect(result.Reason).To(MatchError(graph.ErrNotFound))
		})

		It("defaults type and weight", func() {
			result, err := coord.CreateRelation(ctx, "A", "B", "", "", "", nil, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Outcome).To(Equal(OutcomeApplied))

			edges, err := coord.graphs.GetEdges(ctx, "A", "B")
			Expect(err).NotTo(HaveOccurred())
			Expect(edges).To(HaveLen(1))
			Expect(edges[0].Type).To(Equal(graph.DefaultEdgeType))
			Expect(edges[0].Weight).To(Equal(graph.DefaultWeight))
		})

		It("rejects weights outside the unit interval", func() {
			tooHigh := 1.5
			result, err := coord.CreateRelation(ctx, "A", "B", "", "", "", &tooHigh, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Failed()).To(BeTrue())
			Expect(result.Reason).To(MatchError(ErrInvalidArgument))

			negative := -0.1
			result, err = coord.CreateRelation(ctx, "A", "B", "", "", "", &negative, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Failed()).To(BeTrue())
		})

		It("accepts the boundary weights", func() {
			zero := 0.0
			result, err := coord.CreateRelation(ctx, "A", "B", "ZERO", "", "", &zero, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Outcome).To(Equal(OutcomeApplied))

			one := 1.0
			result, err = coord.CreateRelation(ctx, "A", "B", "ONE", "", "", &one, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Outcome).To(Equal(OutcomeApplied))
		})

		It("updates an identical triple in place", func() {
			low := 0.2
			_, err := coord.CreateRelation(ctx, "A", "B", "REL", "first", "", &low, "")
			Expect(err).NotTo(HaveOccurred())

			high := 0.9
			_, err = coord.CreateRelation(ctx, "A", "B", "REL", "second", "", &high, "")
			Expect(err).NotTo(HaveOccurred())

			edges, err := coord.graphs.GetEdges(ctx, "A", "B")
			Expect(err).NotTo(HaveOccurred())
			Expect(edges).To(HaveLen(1))
			Expect(edges[0].Weight).To(Equal(0.9))
			Expect(edges[0].Properties).To(HaveKeyWithValue("description", "second"))
		})

		It("mirrors the relation into the vector index", func() {
			_, err := coord.CreateRelation(ctx, "A", "B", "LINKS", "a links b", "link", nil, "")
			Expect(err).NotTo(HaveOccurred())

			record, err := coord.vectors.Fetch(ctx, NamespaceRelations, relationVectorID("A", "B", "LINKS"))
			Expect(err).NotTo(HaveOccurred())
			Expect(record.Metadata).To(HaveKeyWithValue("source_entity", "A"))
			Expect(record.Metadata).To(HaveKeyWithValue("target_entity", "B"))
			Expect(record.Metadata).To(HaveKeyWithValue("relation_type", "LINKS"))
		})
	})

	Describe("EditRelation", func() {
		BeforeEach(func() {
			_, err := coord.CreateEntity(ctx, "A", "", "", "")
			Expect(err).NotTo(HaveOccurred())
			_, err = coord.CreateEntity(ctx, "B", "", "", "")
			Expect(err).NotTo(HaveOccurred())
			_, err = coord.CreateRelation(ctx, "A", "B", "REL", "original", "", nil, "")
			Expect(err).NotTo(HaveOccurred())
		})

		It("fails for an absent relation", func() {
			w := 0.5
			result, err := coord.EditRelation(ctx, "A", "B", "OTHER", RelationUpdate{Weight: &w})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Failed()).To(BeTrue())
			Expect(result.Reason).To(MatchError(graph.ErrNotFound))
		})

		It("rejects out-of-range weights before touching the store", func() {
			bad := 2.0
			result, err := coord.EditRelation(ctx, "A", "B", "REL", RelationUpdate{Weight: &bad})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Failed()).To(BeTrue())

			edges, err := coord.graphs.GetEdges(ctx, "A", "B")
			Expect(err).NotTo(HaveOccurred())
			Expect(edges[0].Weight).To(Equal(graph.DefaultWeight))
		})

		It("applies partial updates", func() {
			w := 0.7
			desc := "rewritten"
			result, err := coord.EditRelation(ctx, "A", "B", "REL", RelationUpdate{Weight: &w, Description: &desc})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Outcome).To(Equal(OutcomeApplied))

			edges, err := coord.graphs.GetEdges(ctx, "A", "B")
			Expect(err).NotTo(HaveOccurred())
			Expect(edges[0].Weight).To(Equal(0.7))
			Expect(edges[0].Properties).To(HaveKeyWithValue("description", "rewritten"))
		})
	})

	Describe("DeleteRelation", func() {
		BeforeEach(func() {
			_, err := coord.CreateEntity(ctx, "A", "", "", "")
			Expect(err).NotTo(HaveOccurred())
			_, err = coord.CreateEntity(ctx, "B", "", "", "")
			Expect(err).NotTo(HaveOccurred())
		})

		It("is unchanged when nothing connects the pair", func() {
			result, err := coord.DeleteRelation(ctx, "A", "B", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Outcome).To(Equal(OutcomeUnchanged))
		})

		It("deletes only the named type", func() {
			_, err := coord.CreateRelation(ctx, "A", "B", "KEEP", "", "", nil, "")
			Expect(err).NotTo(HaveOccurred())
			_, err = coord.CreateRelation(ctx, "A", "B", "DROP", "", "", nil, "")
			Expect(err).NotTo(HaveOccurred())

			result, err := coord.DeleteRelation(ctx, "A", "B", "DROP")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Outcome).To(Equal(OutcomeApplied))

			edges, err := coord.graphs.GetEdges(ctx, "A", "B")
			Expect(err).NotTo(HaveOccurred())
			Expect(edges).To(HaveLen(1))
			Expect(edges[0].Type).To(Equal("KEEP"))

			_, err = coord.vectors.Fetch(ctx, NamespaceRelations, relationVectorID("A", "B", "DROP"))
			Expect(err).To(MatchError(vector.ErrNotFound))
			_, err = coord.vectors.Fetch(ctx, NamespaceRelations, relationVectorID("A", "B", "KEEP"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("deletes every type when none is named", func() {
			_, err := coord.CreateRelation(ctx, "A", "B", "ONE", "", "", nil, "")
			Expect(err).NotTo(HaveOccurred())
			_, err = coord.CreateRelation(ctx, "A", "B", "TWO", "", "", nil, "")
			Expect(err).NotTo(HaveOccurred())

			result, err := coord.DeleteRelation(ctx, "A", "B", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Outcome).To(Equal(OutcomeApplied))

			_, err = coord.graphs.GetEdges(ctx, "A", "B")
			Expect(err).To(MatchError(graph.ErrNotFound))
		})
	})
})
