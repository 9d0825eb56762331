package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent noema configuration stored as config.toml
// in the .noema/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Graph       GraphConfig       `toml:"graph"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	Retrieval   RetrievalConfig   `toml:"retrieval"`
}

// GraphConfig holds thought-graph store settings.
type GraphConfig struct {
	// Provider selects the graph backend ("memory" or "neo4j").
	Provider string `toml:"provider,omitempty"`

	// URI is the bolt/neo4j connection URI for the neo4j provider.
	URI string `toml:"uri,omitempty"`

	Username string `toml:"username,omitempty"`
	Password string `toml:"password,omitempty"`
}

// VectorStoreConfig holds vector index settings.
type VectorStoreConfig struct {
	// Provider selects the vector backend ("memory", "sqlite", "chroma", "qdrant").
	Provider string `toml:"provider,omitempty"`

	// Target is the server address for remote providers
	// (chroma URL, qdrant host:port).
	Target string `toml:"target,omitempty"`

	// Path is the database file for the sqlite provider.
	// Defaults to vectors.db inside the .noema/ directory.
	Path string `toml:"path,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`

	// MaxConcurrent caps in-flight embedding calls so the provider's own
	// concurrency limits are respected.
	MaxConcurrent uint `toml:"max_concurrent,omitempty"`
}

// RetrievalConfig holds retrieval defaults.
type RetrievalConfig struct {
	// TopK is the default number of results per retrieval.
	TopK uint `toml:"top_k,omitempty"`
}

// configKeyInfo binds a dotted config key to its getter and setter so the
// config get/set commands operate on a single registry.
type configKeyInfo struct {
	get func(*Config) string
	set func(*Config, string) error
}

func uintKey(get func(*Config) uint, set func(*Config, uint), name string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if get(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(get(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			set(c, uint(n))
			return nil
		},
	}
}

var configKeys = map[string]configKeyInfo{
	"graph.provider": {
		get: func(c *Config) string { return c.Graph.Provider },
		set: func(c *Config, v string) error { c.Graph.Provider = v; return nil },
	},
	"graph.uri": {
		get: func(c *Config) string { return c.Graph.URI },
		set: func(c *Config, v string) error { c.Graph.URI = v; return nil },
	},
	"graph.username": {
		get: func(c *Config) string { return c.Graph.Username },
		set: func(c *Config, v string) error { c.Graph.Username = v; return nil },
	},
	"graph.password": {
		get: func(c *Config) string { return c.Graph.Password },
		set: func(c *Config, v string) error { c.Graph.Password = v; return nil },
	},
	"vector_store.provider": {
		get: func(c *Config) string { return c.VectorStore.Provider },
		set: func(c *Config, v string) error { c.VectorStore.Provider = v; return nil },
	},
	"vector_store.target": {
		get: func(c *Config) string { return c.VectorStore.Target },
		set: func(c *Config, v string) error { c.VectorStore.Target = v; return nil },
	},
	"vector_store.path": {
		get: func(c *Config) string { return c.VectorStore.Path },
		set: func(c *Config, v string) error { c.VectorStore.Path = v; return nil },
	},
	"embedding.provider": {
		get: func(c *Config) string { return c.Embedding.Provider },
		set: func(c *Config, v string) error { c.Embedding.Provider = v; return nil },
	},
	"embedding.target": {
		get: func(c *Config) string { return c.Embedding.Target },
		set: func(c *Config, v string) error { c.Embedding.Target = v; return nil },
	},
	"embedding.model": {
		get: func(c *Config) string { return c.Embedding.Model },
		set: func(c *Config, v string) error { c.Embedding.Model = v; return nil },
	},
	"embedding.dimensions": uintKey(
		func(c *Config) uint { return c.Embedding.Dimensions },
		func(c *Config, n uint) { c.Embedding.Dimensions = n },
		"embedding.dimensions",
	),
	"embedding.max_concurrent": uintKey(
		func(c *Config) uint { return c.Embedding.MaxConcurrent },
		func(c *Config, n uint) { c.Embedding.MaxConcurrent = n },
		"embedding.max_concurrent",
	),
	"retrieval.top_k": uintKey(
		func(c *Config) uint { return c.Retrieval.TopK },
		func(c *Config, n uint) { c.Retrieval.TopK = n },
		"retrieval.top_k",
	),
}
