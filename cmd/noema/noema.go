// Package noemacmder
package noemacmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/noemaco/noema/cmd/noema/config"
	entitycmder "github.com/noemaco/noema/cmd/noema/entity"
	forgetcmder "github.com/noemaco/noema/cmd/noema/forget"
	initcmder "github.com/noemaco/noema/cmd/noema/init"
	querycmder "github.com/noemaco/noema/cmd/noema/query"
	relationcmder "github.com/noemaco/noema/cmd/noema/relation"
	statuscmder "github.com/noemaco/noema/cmd/noema/status"
	storecmder "github.com/noemaco/noema/cmd/noema/store"
	versioncmder "github.com/noemaco/noema/cmd/version"
)

const noemaLongDesc string = `Noema is a hybrid knowledge base for agent memory.

Text is stored in a vector index while entities and their relations grow a
weighted thought graph. Retrieval combines both:
  noema store "..."          Store a piece of text
  noema query "..."          Retrieve with naive, local, global, hybrid, or mix
  noema entity ...           Create, edit, delete, merge, or show entities
  noema relation ...         Create, edit, delete, or show relations`

const noemaShortDesc string = "Noema - Hybrid Knowledge Base"

func NewNoemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "noema",
		Short:         noemaShortDesc,
		Long:          noemaLongDesc,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .noema/ directory location")

	// Add subcommands
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(storecmder.NewStoreCmd())
	cmd.AddCommand(querycmder.NewQueryCmd())
	cmd.AddCommand(forgetcmder.NewForgetCmd())
	cmd.AddCommand(entitycmder.NewEntityCmd())
	cmd.AddCommand(relationcmder.NewRelationCmd())
	cmd.AddCommand(statuscmder.NewStatusCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
