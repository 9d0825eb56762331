package config

const (
	defaultGraphProvider = "memory"
	defaultGraphURI      = "neo4j://localhost:7687"
	defaultGraphUsername = "neo4j"

	defaultVectorProvider = "sqlite"

	defaultEmbeddingProvider    = "ollama"
	defaultEmbeddingTarget      = "http://localhost:11434"
	defaultEmbeddingModel       = "nomic-embed-text"
	defaultEmbeddingDimensions  = 768
	defaultEmbeddingConcurrency = 16

	defaultRetrievalTopK = 5
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Graph: GraphConfig{
			Provider: defaultGraphProvider,
			URI:      defaultGraphURI,
			Username: defaultGraphUsername,
		},
		VectorStore: VectorStoreConfig{
			Provider: defaultVectorProvider,
		},
		Embedding: EmbeddingConfig{
			Provider:      defaultEmbeddingProvider,
			Target:        defaultEmbeddingTarget,
			Model:         defaultEmbeddingModel,
			Dimensions:    defaultEmbeddingDimensions,
			MaxConcurrent: defaultEmbeddingConcurrency,
		},
		Retrieval: RetrievalConfig{
			TopK: defaultRetrievalTopK,
		},
	}
}
