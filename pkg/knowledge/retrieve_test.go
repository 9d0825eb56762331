package knowledge

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func hitIDs(result *RetrievalResult) []string {
	ids := make([]string, 0, len(result.Hits))
	for _, h := range result.Hits {
		ids = append(ids, h.ID)
	}
	return ids
}

var _ = Describe("Retrieve", func() {
	var (
		ctx   context.Context
		coord *Coordinator
	)

	BeforeEach(func() {
		ctx = context.Background()
		coord, _ = newTestCoordinator(nil)
	})

	It("rejects an empty query", func() {
		_, err := coord.Retrieve(ctx, "", ModeNaive, 5)
		Expect(err).To(MatchError(ErrInvalidArgument))
	})

	It("rejects an unknown mode", func() {
		_, err := coord.Retrieve(ctx, "anything", Mode("bogus"), 5)
		Expect(err).To(MatchError(ErrInvalidArgument))
	})

	It("returns empty results on an empty store in every mode", func() {
		for _, mode := range Modes() {
			result, err := coord.Retrieve(ctx, "anything", mode, 5)
			Expect(err).NotTo(HaveOccurred(), "mode %s", mode)
			Expect(result.Empty()).To(BeTrue(), "mode %s", mode)
		}
	})

	Describe("naive", func() {
		It("finds stored chunks by similarity", func() {
			docID, err := coord.StoreText(ctx, "the moon orbits the earth", "", "")
			Expect(err).NotTo(HaveOccurred())
			_, err = coord.StoreText(ctx, "completely unrelated text", "", "")
			Expect(err).NotTo(HaveOccurred())

			result, err := coord.Retrieve(ctx, "the moon orbits the earth", ModeNaive, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Hits).NotTo(BeEmpty())
			Expect(result.Hits[0].ID).To(Equal(docID))
			Expect(result.Hits[0].Score).To(BeNumerically("~", 1.0, 1e-6))
			Expect(result.Hits[0].Origin).To(Equal(NamespaceChunks))
		})
	})

	Describe("local", func() {
		It("returns mentioned entities and their weighted neighbors", func() {
			_, err := coord.CreateEntity(ctx, "Radium", "radium is radioactive", "", "")
			Expect(err).NotTo(HaveOccurred())
			_, err = coord.CreateEntity(ctx, "Curie", "discovered elements", "", "")
			Expect(err).NotTo(HaveOccurred())
			w := 0.5
			_, err = coord.CreateRelation(ctx, "Radium", "Curie", "DISCOVERED_BY", "", "", &w, "")
			Expect(err).NotTo(HaveOccurred())

			result, err := coord.Retrieve(ctx, "radium", ModeLocal, 10)
			Expect(err).NotTo(HaveOccurred())

			byID := make(map[string]Hit)
			for _, h := range result.Hits {
				byID[h.ID] = h
			}
			Expect(byID).To(HaveKey("Radium"))
			Expect(byID).To(HaveKey("Curie"))
			// A substring mention seeds at 1.0; the neighbor inherits it
			// scaled by the connecting edge's weight.
			Expect(byID["Radium"].Score).To(Equal(1.0))
			Expect(byID["Curie"].Score).To(BeNumerically(">=", 0.5))
		})
	})

	Describe("global", func() {
		It("resolves relation records back to live edges", func() {
			_, err := coord.CreateEntity(ctx, "A", "", "", "")
			Expect(err).NotTo(HaveOccurred())
			_, err = coord.CreateEntity(ctx, "B", "", "", "")
			Expect(err).NotTo(HaveOccurred())
			_, err = coord.CreateRelation(ctx, "A", "B", "LINKS", "a links b", "", nil, "")
			Expect(err).NotTo(HaveOccurred())

			result, err := coord.Retrieve(ctx, "a links b", ModeGlobal, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Hits).To(HaveLen(1))
			Expect(result.Hits[0].ID).To(Equal(relationVectorID("A", "B", "LINKS")))
			Expect(result.Hits[0].Origin).To(Equal(NamespaceRelations))
		})

		It("skips stale relation records whose edge is gone", func() {
			_, err := coord.CreateEntity(ctx, "A", "", "", "")
			Expect(err).NotTo(HaveOccurred())
			_, err = coord.CreateEntity(ctx, "B", "", "", "")
			Expect(err).NotTo(HaveOccurred())
			_, err = coord.CreateRelation(ctx, "A", "B", "LINKS", "", "", nil, "")
			Expect(err).NotTo(HaveOccurred())

			// Remove the edge underneath the index.
			Expect(coord.graphs.DeleteEdge(ctx, "A", "B", "")).To(Succeed())

			result, err := coord.Retrieve(ctx, "anything", ModeGlobal, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Empty()).To(BeTrue())
		})
	})

	Describe("hybrid", func() {
		It("combines chunk similarity with keyword matches", func() {
			docID, err := coord.StoreText(ctx, "volcanic activity on io", "", "")
			Expect(err).NotTo(HaveOccurred())
			_, err = coord.CreateEntity(ctx, "Io", "a volcanic moon of jupiter", "", "")
			Expect(err).NotTo(HaveOccurred())

			result, err := coord.Retrieve(ctx, "volcanic activity on io", ModeHybrid, 10)
			Expect(err).NotTo(HaveOccurred())

			ids := hitIDs(result)
			Expect(ids).To(ContainElement(docID))
			Expect(ids).To(ContainElement("Io"))
		})
	})

	Describe("mix", func() {
		It("unions chunk, neighborhood, and relation results", func() {
			docID, err := coord.StoreText(ctx, "notes about gravity", "", "")
			Expect(err).NotTo(HaveOccurred())
			_, err = coord.CreateEntity(ctx, "Gravity", "gravity bends spacetime", "", "")
			Expect(err).NotTo(HaveOccurred())
			_, err = coord.CreateEntity(ctx, "Spacetime", "the fabric", "", "")
			Expect(err).NotTo(HaveOccurred())
			_, err = coord.CreateRelation(ctx, "Gravity", "Spacetime", "BENDS", "gravity bends spacetime", "", nil, "")
			Expect(err).NotTo(HaveOccurred())

			result, err := coord.Retrieve(ctx, "gravity", ModeMix, 10)
			Expect(err).NotTo(HaveOccurred())

			ids := hitIDs(result)
			Expect(ids).To(ContainElement(docID))
			Expect(ids).To(ContainElement("Gravity"))
			Expect(ids).To(ContainElement(relationVectorID("Gravity", "Spacetime", "BENDS")))
		})
	})

	It("truncates to topK after ranking", func() {
		for _, content := range []string{"alpha", "beta", "gamma", "delta"} {
			_, err := coord.StoreText(ctx, content, "", "")
			Expect(err).NotTo(HaveOccurred())
		}

		result, err := coord.Retrieve(ctx, "alpha", ModeNaive, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Hits).To(HaveLen(2))
	})
})

var _ = Describe("ranking helpers", func() {
	Describe("queryKeywords", func() {
		It("lowercases, trims punctuation, and drops short words", func() {
			Expect(queryKeywords("Who discovered Radium, and when?")).To(
				Equal([]string{"who", "discovered", "radium", "and", "when"}))
		})

		It("falls back to the whole query when nothing survives", func() {
			Expect(queryKeywords("ab")).To(Equal([]string{"ab"}))
		})
	})

	Describe("normalizeHits", func() {
		It("scales scores so the best hit lands at 1.0", func() {
			hits := normalizeHits([]Hit{
				{ID: "a", Score: 0.5},
				{ID: "b", Score: 0.25},
			})
			Expect(hits[0].Score).To(Equal(1.0))
			Expect(hits[1].Score).To(Equal(0.5))
		})

		It("leaves all-zero scores alone", func() {
			hits := normalizeHits([]Hit{{ID: "a", Score: 0}})
			Expect(hits[0].Score).To(Equal(0.0))
		})
	})

	Describe("dedupeHits", func() {
		It("keeps the highest score per id", func() {
			hits := dedupeHits([]Hit{
				{ID: "a", Score: 0.2},
				{ID: "a", Score: 0.8},
				{ID: "b", Score: 0.5},
			})
			Expect(hits).To(HaveLen(2))
			for _, h := range hits {
				if h.ID == "a" {
					Expect(h.Score).To(Equal(0.8))
				}
			}
		})

		It("prefers the newer record on a score tie", func() {
			older := time.Now().Add(-time.Hour)
			newer := time.Now()
			hits := dedupeHits([]Hit{
				{ID: "a", Score: 0.5, CreatedAt: older, Content: "old"},
				{ID: "a", Score: 0.5, CreatedAt: newer, Content: "new"},
			})
			Expect(hits).To(HaveLen(1))
			Expect(hits[0].Content).To(Equal("new"))
		})
	})

	Describe("sortHits", func() {
		It("orders by score, then recency, then id", func() {
			now := time.Now()
			hits := []Hit{
				{ID: "c", Score: 0.5, CreatedAt: now},
				{ID: "a", Score: 0.9, CreatedAt: now},
				{ID: "b", Score: 0.5, CreatedAt: now.Add(time.Minute)},
				{ID: "d", Score: 0.5, CreatedAt: now},
			}
			sortHits(hits)
			Expect(hits[0].ID).To(Equal("a"))
			Expect(hits[1].ID).To(Equal("b"))
			Expect(hits[2].ID).To(Equal("c"))
			Expect(hits[3].ID).To(Equal("d"))
		})
	})
})
