// Package knowledgeutils is the knowledge coordinator utility package
package knowledgeutils

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/noemaco/noema/pkg/config"
	embeddingutils "github.com/noemaco/noema/pkg/embeddings/utils"
	graphutils "github.com/noemaco/noema/pkg/graph/utils"
	"github.com/noemaco/noema/pkg/knowledge"
	vectorutils "github.com/noemaco/noema/pkg/vector/utils"
)

const vectorDBFile = "vectors.db"

type NewCoordinatorOpts struct {
	Config *config.Config

	// DataDir is the resolved .noema/ directory. The sqlite vector store
	// defaults its database file here when no explicit path is configured.
	DataDir string

	// Extractor is optional.
	Extractor knowledge.Extractor

	Logger *zap.Logger
}

// NewCoordinator assembles a knowledge coordinator from configuration:
// vector store, graph store, and embedding provider. Call Init on the
// returned coordinator before use.
func NewCoordinator(o *NewCoordinatorOpts) (*knowledge.Coordinator, error) {
	if o.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := o.Config

	dbPath := cfg.VectorStore.Path
	if dbPath == "" && o.DataDir != "" {
		dbPath = filepath.Join(o.DataDir, vectorDBFile)
	}

	vecDriver, err := vectorutils.NewVectorDriver(&vectorutils.NewVectorDriverOpts{
		ProviderType: cfg.VectorStore.Provider,
		TargetURL:    cfg.VectorStore.Target,
		DBPath:       dbPath,
		Dimensions:   cfg.Embedding.Dimensions,
		Logger:       o.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating vector store: %w", err)
	}

	graphDriver, err := graphutils.NewGraphDriver(&graphutils.NewGraphDriverOpts{
		ProviderType: cfg.Graph.Provider,
		URI:          cfg.Graph.URI,
		Username:     cfg.Graph.Username,
		Password:     cfg.Graph.Password,
		Logger:       o.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating graph store: %w", err)
	}

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    cfg.Embedding.Target,
		Model:        cfg.Embedding.Model,
		APIKey:       os.Getenv("OPENAI_API_KEY"),
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	return knowledge.NewCoordinator(&knowledge.Opts{
		Vector:              vecDriver,
		Graph:               graphDriver,
		Embedder:            embedder,
		Extractor:           o.Extractor,
		Dimensions:          cfg.Embedding.Dimensions,
		TopK:                int(cfg.Retrieval.TopK),
		MaxConcurrentEmbeds: int64(cfg.Embedding.MaxConcurrent),
		Logger:              o.Logger,
	})
}
