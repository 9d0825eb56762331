package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline, so the same logical flag
// cannot drift between commands (e.g. --graph-uri on "noema init" and
// "noema status").
type Flag struct {
	// Name is the long flag name (e.g. "graph-uri").
	Name string

	// Shorthand is the one-letter short flag. Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "graph.uri").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of registry keys to Flag definitions.
type FlagSet map[string]Flag

// Flag registry keys.
const (
	FlagGraphProvider  = "graph-provider"
	FlagGraphURI       = "graph-uri"
	FlagGraphUser      = "graph-user"
	FlagGraphPassword  = "graph-password"
	FlagVectorProvider = "vector-provider"
	FlagVectorTarget   = "vector-target"
	FlagVectorPath     = "vector-path"
	FlagEmbeddingProv  = "embedding-provider"
	FlagEmbeddingTgt   = "embedding-target"
	FlagEmbeddingModel = "embedding-model"
	FlagEmbeddingDims  = "embedding-dimensions"
	FlagTopK           = "top-k"
)

// DefaultFlagSet returns the canonical flag definitions shared by the
// command tree.
func DefaultFlagSet() FlagSet {
	return FlagSet{
		FlagGraphProvider: {
			Name:        "graph-provider",
			ViperKey:    "graph.provider",
			Description: "Graph store provider (memory, neo4j)",
		},
		FlagGraphURI: {
			Name:        "graph-uri",
			ViperKey:    "graph.uri",
			Description: "Graph store connection URI",
		},
		FlagGraphUser: {
			Name:        "graph-user",
			ViperKey:    "graph.username",
			Description: "Graph store username",
		},
		FlagGraphPassword: {
			Name:        "graph-password",
			ViperKey:    "graph.password",
			Description: "Graph store password",
		},
		FlagVectorProvider: {
			Name:        "vector-provider",
			ViperKey:    "vector_store.provider",
			Description: "Vector store provider (memory, sqlite, chroma, qdrant)",
		},
		FlagVectorTarget: {
			Name:        "vector-target",
			ViperKey:    "vector_store.target",
			Description: "Vector store server address",
		},
		FlagVectorPath: {
			Name:        "vector-path",
			ViperKey:    "vector_store.path",
			Description: "SQLite vector store database path",
		},
		FlagEmbeddingProv: {
			Name:        "embedding-provider",
			ViperKey:    "embedding.provider",
			Description: "Embedding provider (ollama, openai)",
		},
		FlagEmbeddingTgt: {
			Name:        "embedding-target",
			ViperKey:    "embedding.target",
			Description: "Embedding provider base URL",
		},
		FlagEmbeddingModel: {
			Name:        "embedding-model",
			ViperKey:    "embedding.model",
			Description: "Embedding model name",
		},
		FlagEmbeddingDims: {
			Name:        "embedding-dimensions",
			ViperKey:    "embedding.dimensions",
			Description: "Embedding vector dimensionality",
		},
		FlagTopK: {
			Name:        "top-k",
			Shorthand:   "k",
			ViperKey:    "retrieval.top_k",
			Description: "Number of results to retrieve",
		},
	}
}

// ConnectionFlagKeys returns the registry keys of the store and embedding
// connection flags shared by every command that opens the knowledge base.
func ConnectionFlagKeys() []string {
	return []string{
		FlagGraphProvider,
		FlagGraphURI,
		FlagGraphUser,
		FlagGraphPassword,
		FlagVectorProvider,
		FlagVectorTarget,
		FlagVectorPath,
		FlagEmbeddingProv,
		FlagEmbeddingTgt,
		FlagEmbeddingModel,
		FlagEmbeddingDims,
	}
}

// AddConnectionFlags registers every connection flag on cmd. Values flow
// through the viper precedence chain once BindRegisteredFlags runs, so the
// flag targets here are intentionally discarded.
func AddConnectionFlags(cmd *cobra.Command, fs FlagSet) {
	for _, key := range ConnectionFlagKeys() {
		if key == FlagEmbeddingDims {
			var dims uint
			AddUintFlag(cmd, fs, key, &dims)
			continue
		}
		var s string
		AddStringFlag(cmd, fs, key, &s)
	}
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	v := viper.New()
	setViperDefaults(v)
	return v.GetUint(viperKey)
}
