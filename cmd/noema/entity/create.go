package entitycmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noemaco/noema/pkg/config"
)

const createLongDesc string = `Create an entity in the thought graph.

The entity name is its identity; creating a name that already exists fails
and leaves the existing entity's data untouched. Without --type the entity
is typed UNKNOWN, and without --source it is tagged as manually created.

The entity is also mirrored into the vector index so retrieval can match it
semantically, not just by name.

Examples:
  noema entity create "Marie Curie" --type person --description "Physicist and chemist"
  noema entity create "Radium" --type element`

const createShortDesc string = "Create an entity"

func newCreateCmd() *cobra.Command {
	cmder := &entityCommander{}
	flagSet := config.DefaultFlagSet()

	var description string
	var entityType string
	var source string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: createShortDesc,
		Long:  createLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.preRun(cmd, flagSet)
		},
		RunE: func(_ *cobra.Command, args []string) error {
			ctx := context.Background()

			coord, err := cmder.open(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = coord.Close(ctx) }()

			result, err := coord.CreateEntity(ctx, args[0], description, entityType, source)
			if err != nil {
				return fmt.Errorf("creating entity: %w", err)
			}

			return printMutation(result)
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Entity description")
	cmd.Flags().StringVar(&entityType, "type", "", "Entity type (default: UNKNOWN)")
	cmd.Flags().StringVar(&source, "source", "", "Provenance tag (default: manual)")
	config.AddConnectionFlags(cmd, flagSet)

	return cmd
}
