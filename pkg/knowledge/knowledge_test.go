package knowledge

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/noemaco/noema/pkg/graph"
	graphmem "github.com/noemaco/noema/pkg/graph/memory"
	testutils "github.com/noemaco/noema/pkg/utils/test"
	"github.com/noemaco/noema/pkg/vector"
	vecmem "github.com/noemaco/noema/pkg/vector/memory"
)

const testDimensions = 8

// newTestCoordinator wires a coordinator against in-memory stores and the
// deterministic embedder.
func newTestCoordinator(extractor Extractor) (*Coordinator, *testutils.MockEmbedder) {
	embedder := testutils.NewMockEmbedder(testDimensions)

	vecDriver, err := vecmem.NewDriver(vecmem.Config{Dimensions: testDimensions}, zap.NewNop())
	Expect(err).NotTo(HaveOccurred())

	graphDriver, err := graphmem.NewDriver(graphmem.Config{}, zap.NewNop())
	Expect(err).NotTo(HaveOccurred())

	coord, err := NewCoordinator(&Opts{
		Vector:     vecDriver,
		Graph:      graphDriver,
		Embedder:   embedder,
		Extractor:  extractor,
		Dimensions: testDimensions,
	})
	Expect(err).NotTo(HaveOccurred())
	Expect(coord.Init(context.Background())).To(Succeed())

	return coord, embedder
}

var _ = Describe("Coordinator", func() {
	var (
		ctx   context.Context
		coord *Coordinator
	)

	BeforeEach(func() {
		ctx = context.Background()
		coord, _ = newTestCoordinator(nil)
	})

	Describe("construction", func() {
		It("requires all three backends", func() {
			_, err := NewCoordinator(&Opts{})
			Expect(err).To(MatchError(ErrInvalidArgument))
		})

		It("fails Init when embedder dimensionality disagrees with the index", func() {
			embedder := testutils.NewMockEmbedder(4)

			vecDriver, err := vecmem.NewDriver(vecmem.Config{Dimensions: testDimensions}, zap.NewNop())
			Expect(err).NotTo(HaveOccurred())
			graphDriver, err := graphmem.NewDriver(graphmem.Config{}, zap.NewNop())
			Expect(err).NotTo(HaveOccurred())

			mismatched, err := NewCoordinator(&Opts{
				Vector:     vecDriver,
				Graph:      graphDriver,
				Embedder:   embedder,
				Dimensions: testDimensions,
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(mismatched.Init(ctx)).To(MatchError(vector.ErrConfig))
		})
	})

	Describe("StoreText", func() {
		It("rejects empty content", func() {
			_, err := coord.StoreText(ctx, "", "", "")
			Expect(err).To(MatchError(ErrInvalidArgument))
		})

		It("derives a stable id from content", func() {
			first, err := coord.StoreText(ctx, "same content", "", "")
			Expect(err).NotTo(HaveOccurred())

			second, err := coord.StoreText(ctx, "same content", "", "")
			Expect(err).NotTo(HaveOccurred())

			Expect(second).To(Equal(first))
			Expect(first).To(Equal(DocumentID("same content")))
		})

		It("honors an explicit id and source tag", func() {
			docID, err := coord.StoreText(ctx, "tagged content", "doc-custom", "notebook")
			Expect(err).NotTo(HaveOccurred())
			Expect(docID).To(Equal("doc-custom"))

			doc, err := coord.vectors.Fetch(ctx, NamespaceChunks, "doc-custom")
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Text).To(Equal("tagged content"))
			Expect(doc.Metadata).To(HaveKeyWithValue("source", "notebook"))
		})

		It("defaults the source tag", func() {
			docID, err := coord.StoreText(ctx, "untagged", "", "")
			Expect(err).NotTo(HaveOccurred())

			doc, err := coord.vectors.Fetch(ctx, NamespaceChunks, docID)
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Metadata).To(HaveKeyWithValue("source", "unknown_source"))
		})

		It("invokes the extractor after storing", func() {
			extractor := testutils.NewMockExtractor()
			coordWithHook, _ := newTestCoordinator(extractor)

			docID, err := coordWithHook.StoreText(ctx, "extract me", "", "")
			Expect(err).NotTo(HaveOccurred())

			content, ok := extractor.Extracted(docID)
			Expect(ok).To(BeTrue())
			Expect(content).To(Equal("extract me"))
		})
	})

	Describe("DeleteDocument", func() {
		It("is unchanged for a document that was never stored", func() {
			result, err := coord.DeleteDocument(ctx, "doc-ghost")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Outcome).To(Equal(OutcomeUnchanged))
		})

		It("removes the chunk record", func() {
			docID, err := coord.StoreText(ctx, "to be deleted", "", "")
			Expect(err).NotTo(HaveOccurred())

			result, err := coord.DeleteDocument(ctx, docID)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Outcome).To(Equal(OutcomeApplied))

			_, err = coord.vectors.Fetch(ctx, NamespaceChunks, docID)
			Expect(err).To(MatchError(vector.ErrNotFound))
		})

		It("cascades to entities whose sole provenance is the document", func() {
			docID, err := coord.StoreText(ctx, "source document", "", "")
			Expect(err).NotTo(HaveOccurred())

			result, err := coord.CreateEntity(ctx, "Derived", "from the document", "concept", docID)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Outcome).To(Equal(OutcomeApplied))

			_, err = coord.DeleteDocument(ctx, docID)
			Expect(err).NotTo(HaveOccurred())

			_, err = coord.GetEntityDetails(ctx, "Derived")
			Expect(err).To(MatchError(graph.ErrNotFound))

			_, err = coord.vectors.Fetch(ctx, NamespaceEntities, "Derived")
			Expect(err).To(MatchError(vector.ErrNotFound))
		})

		It("only unlinks entities that other documents still reference", func() {
			docID, err := coord.StoreText(ctx, "one of two", "", "")
			Expect(err).NotTo(HaveOccurred())

			_, err = coord.CreateEntity(ctx, "Shared", "referenced twice", "concept", docID)
			Expect(err).NotTo(HaveOccurred())

			// Second provenance keeps the entity alive.
			node, err := coord.graphs.GetNode(ctx, "Shared")
			Expect(err).NotTo(HaveOccurred())
			err = coord.graphs.UpdateNode(ctx, "Shared", graph.NodeUpdate{
				SourceIDs: append(node.SourceIDs, "doc-other"),
			}, false)
			Expect(err).NotTo(HaveOccurred())

			_, err = coord.DeleteDocument(ctx, docID)
			Expect(err).NotTo(HaveOccurred())

			details, err := coord.GetEntityDetails(ctx, "Shared")
			Expect(err).NotTo(HaveOccurred())
			Expect(details.Node.SourceIDs).To(Equal([]string{"doc-other"}))
		})
	})

	Describe("inspection", func() {
		It("returns entity details with relations and the vector record", func() {
			_, err := coord.CreateEntity(ctx, "A", "first", "", "")
			Expect(err).NotTo(HaveOccurred())
			_, err = coord.CreateEntity(ctx, "B", "second", "", "")
			Expect(err).NotTo(HaveOccurred())
			_, err = coord.CreateRelation(ctx, "A", "B", "LINKS", "a to b", "", nil, "")
			Expect(err).NotTo(HaveOccurred())

			details, err := coord.GetEntityDetails(ctx, "A")
			Expect(err).NotTo(HaveOccurred())
			Expect(details.Node.Content).To(Equal("first"))
			Expect(details.Relations).To(HaveLen(1))
			Expect(details.VectorRecord).NotTo(BeNil())
		})

		It("returns relation details for a pair", func() {
			_, err := coord.CreateEntity(ctx, "A", "", "", "")
			Expect(err).NotTo(HaveOccurred())
			_, err = coord.CreateEntity(ctx, "B", "", "", "")
			Expect(err).NotTo(HaveOccurred())
			_, err = coord.CreateRelation(ctx, "A", "B", "LINKS", "described", "kw", nil, "")
			Expect(err).NotTo(HaveOccurred())

			details, err := coord.GetRelationDetails(ctx, "A", "B")
			Expect(err).NotTo(HaveOccurred())
			Expect(details.Edges).To(HaveLen(1))
			Expect(details.VectorRecords).To(HaveLen(1))
		})

		It("fails relation details when no relation exists", func() {
			_, err := coord.GetRelationDetails(ctx, "A", "B")
			Expect(err).To(MatchError(graph.ErrNotFound))
		})

		It("searches thoughts by substring", func() {
			_, err := coord.CreateEntity(ctx, "Radium", "a radioactive element", "", "")
			Expect(err).NotTo(HaveOccurred())

			nodes, err := coord.SearchThoughts(ctx, "radioactive", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(nodes).To(HaveLen(1))
			Expect(nodes[0].ID).To(Equal("Radium"))
		})

		It("summarizes the graph and lists all thought ids", func() {
			_, err := coord.CreateEntity(ctx, "One", "", "", "")
			Expect(err).NotTo(HaveOccurred())
			_, err = coord.CreateEntity(ctx, "Two", "", "", "")
			Expect(err).NotTo(HaveOccurred())

			summary, err := coord.GraphSummary(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.NodeCount).To(Equal(2))

			ids, err := coord.AllThoughtIDs(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(ConsistOf("One", "Two"))
		})
	})
})
