package entitycmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noemaco/noema/pkg/config"
	"github.com/noemaco/noema/pkg/knowledge"
)

const editLongDesc string = `Edit an entity in the thought graph.

Only the fields you pass change; everything else is left untouched. Renaming
requires --rename and fails if the new name is already taken. Editing an
absent entity fails rather than creating it.

Examples:
  noema entity edit "Marie Curie" --description "Pioneer of radioactivity research"
  noema entity edit "Radium" --type element
  noema entity edit "M. Curie" --rename "Marie Curie"`

const editShortDesc string = "Edit an entity"

func newEditCmd() *cobra.Command {
	cmder := &entityCommander{}
	flagSet := config.DefaultFlagSet()

	var description string
	var entityType string
	var newName string

	cmd := &cobra.Command{
		Use:   "edit <name>",
		Short: editShortDesc,
		Long:  editLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.preRun(cmd, flagSet)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			update := knowledge.EntityUpdate{NewName: newName}
			if cmd.Flags().Changed("description") {
				update.Description = &description
			}
			if cmd.Flags().Changed("type") {
				update.EntityType = &entityType
			}

			ctx := context.Background()

			coord, err := cmder.open(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = coord.Close(ctx) }()

			result, err := coord.EditEntity(ctx, args[0], update, newName != "")
			if err != nil {
				return fmt.Errorf("editing entity: %w", err)
			}

			return printMutation(result)
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&entityType, "type", "", "New entity type")
	cmd.Flags().StringVar(&newName, "rename", "", "Rename the entity")
	config.AddConnectionFlags(cmd, flagSet)

	return cmd
}
