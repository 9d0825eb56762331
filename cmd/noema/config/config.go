// Package configcmder provides the config command for managing persistent
// noema configuration stored in the .noema/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent noema configuration.

Configuration is stored as config.toml in the .noema/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  graph.provider, graph.uri, graph.username, graph.password,
  vector_store.provider, vector_store.target, vector_store.path,
  embedding.provider, embedding.target, embedding.model,
  embedding.dimensions, embedding.max_concurrent,
  retrieval.top_k

Use subcommands to get, set, or list configuration values:
  noema config set <key> <value>    Set a configuration value
  noema config get <key>            Get a configuration value
  noema config list                 List all configuration values

Examples:
  noema config set graph.provider neo4j
  noema config set embedding.model nomic-embed-text
  noema config get graph.uri
  noema config list`

const configShortDesc string = "Manage persistent noema configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
