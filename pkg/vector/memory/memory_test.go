package memory

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/noemaco/noema/pkg/vector"
)

var _ = Describe("Driver", func() {
	var (
		ctx    context.Context
		driver *Driver
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		driver, err = NewDriver(Config{Dimensions: 3}, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
	})

	It("requires non-zero dimensions", func() {
		_, err := NewDriver(Config{}, zap.NewNop())
		Expect(err).To(MatchError(vector.ErrConfig))
	})

	It("rejects embeddings of the wrong length", func() {
		err := driver.Upsert(ctx, "ns", []vector.Document{
			{ID: "bad", Embedding: []float32{1, 0}},
		})
		Expect(err).To(MatchError(vector.ErrConfig))

		_, err = driver.Query(ctx, "ns", []float32{1, 0}, 5)
		Expect(err).To(MatchError(vector.ErrConfig))
	})

	It("upserts and fetches documents", func() {
		Expect(driver.Upsert(ctx, "ns", []vector.Document{{
			ID:        "doc-1",
			Text:      "hello",
			Embedding: []float32{1, 0, 0},
			Metadata:  map[string]string{"source": "test"},
		}})).To(Succeed())

		doc, err := driver.Fetch(ctx, "ns", "doc-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Text).To(Equal("hello"))
		Expect(doc.Metadata).To(HaveKeyWithValue("source", "test"))
	})

	It("overwrites on repeated upsert of the same id", func() {
		Expect(driver.Upsert(ctx, "ns", []vector.Document{{
			ID: "doc-1", Text: "first", Embedding: []float32{1, 0, 0},
		}})).To(Succeed())
		Expect(driver.Upsert(ctx, "ns", []vector.Document{{
			ID: "doc-1", Text: "second", Embedding: []float32{0, 1, 0},
		}})).To(Succeed())

		doc, err := driver.Fetch(ctx, "ns", "doc-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Text).To(Equal("second"))
	})

	It("returns not found for absent ids", func() {
		_, err := driver.Fetch(ctx, "ns", "ghost")
		Expect(err).To(MatchError(vector.ErrNotFound))
	})

	It("keeps namespaces isolated", func() {
		Expect(driver.Upsert(ctx, "a", []vector.Document{{
			ID: "shared", Text: "in a", Embedding: []float32{1, 0, 0},
		}})).To(Succeed())

		_, err := driver.Fetch(ctx, "b", "shared")
		Expect(err).To(MatchError(vector.ErrNotFound))
	})

	It("ranks queries by cosine similarity", func() {
		Expect(driver.Upsert(ctx, "ns", []vector.Document{
			{ID: "aligned", Embedding: []float32{1, 0, 0}},
			{ID: "diagonal", Embedding: []float32{1, 1, 0}},
			{ID: "orthogonal", Embedding: []float32{0, 0, 1}},
		})).To(Succeed())

		results, err := driver.Query(ctx, "ns", []float32{1, 0, 0}, 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))
		Expect(results[0].ID).To(Equal("aligned"))
		Expect(results[1].ID).To(Equal("diagonal"))
		Expect(results[2].ID).To(Equal("orthogonal"))
		Expect(results[0].Score).To(BeNumerically("~", 1.0, 1e-6))
	})

	It("truncates results to topK", func() {
		Expect(driver.Upsert(ctx, "ns", []vector.Document{
			{ID: "a", Embedding: []float32{1, 0, 0}},
			{ID: "b", Embedding: []float32{0, 1, 0}},
			{ID: "c", Embedding: []float32{0, 0, 1}},
		})).To(Succeed())

		results, err := driver.Query(ctx, "ns", []float32{1, 1, 1}, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))
	})

	It("returns empty results for an empty namespace", func() {
		results, err := driver.Query(ctx, "empty", []float32{1, 0, 0}, 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(BeEmpty())
	})

	It("deletes by id, ignoring absent ids", func() {
		Expect(driver.Upsert(ctx, "ns", []vector.Document{
			{ID: "keep", Embedding: []float32{1, 0, 0}},
			{ID: "drop", Embedding: []float32{0, 1, 0}},
		})).To(Succeed())

		Expect(driver.Delete(ctx, "ns", []string{"drop", "ghost"})).To(Succeed())

		_, err := driver.Fetch(ctx, "ns", "drop")
		Expect(err).To(MatchError(vector.ErrNotFound))

		_, err = driver.Fetch(ctx, "ns", "keep")
		Expect(err).NotTo(HaveOccurred())
	})

	It("returns copies that do not alias internal state", func() {
		Expect(driver.Upsert(ctx, "ns", []vector.Document{{
			ID: "copied", Embedding: []float32{1, 0, 0}, Metadata: map[string]string{"k": "v"},
		}})).To(Succeed())

		doc, err := driver.Fetch(ctx, "ns", "copied")
		Expect(err).NotTo(HaveOccurred())

		doc.Embedding[0] = 42
		doc.Metadata["k"] = "mutated"

		reread, err := driver.Fetch(ctx, "ns", "copied")
		Expect(err).NotTo(HaveOccurred())
		Expect(reread.Embedding[0]).To(Equal(float32(1)))
		Expect(reread.Metadata["k"]).To(Equal("v"))
	})
})
