package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/noemaco/noema/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the NOEMA_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (NOEMA_GRAPH_URI, NOEMA_EMBEDDING_MODEL, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: NOEMA_GRAPH_URI, NOEMA_VECTOR_STORE_TARGET, etc.
	v.SetEnvPrefix("NOEMA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Graph store
	v.SetDefault("graph.provider", d.Graph.Provider)
	v.SetDefault("graph.uri", d.Graph.URI)
	v.SetDefault("graph.username", d.Graph.Username)
	v.SetDefault("graph.password", d.Graph.Password)

	// Vector store
	v.SetDefault("vector_store.provider", d.VectorStore.Provider)
	v.SetDefault("vector_store.target", d.VectorStore.Target)
	v.SetDefault("vector_store.path", d.VectorStore.Path)

	// Embedding
	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)
	v.SetDefault("embedding.max_concurrent", d.Embedding.MaxConcurrent)

	// Retrieval
	v.SetDefault("retrieval.top_k", d.Retrieval.TopK)
}

// ConfigFromViper materializes a Config from the viper precedence chain.
func ConfigFromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Version: v.GetInt("version"),
		Graph: GraphConfig{
			Provider: v.GetString("graph.provider"),
			URI:      v.GetString("graph.uri"),
			Username: v.GetString("graph.username"),
			Password: v.GetString("graph.password"),
		},
		VectorStore: VectorStoreConfig{
			Provider: v.GetString("vector_store.provider"),
			Target:   v.GetString("vector_store.target"),
			Path:     v.GetString("vector_store.path"),
		},
		Embedding: EmbeddingConfig{
			Provider:      v.GetString("embedding.provider"),
			Target:        v.GetString("embedding.target"),
			Model:         v.GetString("embedding.model"),
			Dimensions:    v.GetUint("embedding.dimensions"),
			MaxConcurrent: v.GetUint("embedding.max_concurrent"),
		},
		Retrieval: RetrievalConfig{
			TopK: v.GetUint("retrieval.top_k"),
		},
	}

	applyDefaults(cfg)

	return cfg
}
