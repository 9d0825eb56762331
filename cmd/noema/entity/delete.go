package entitycmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noemaco/noema/pkg/config"
)

const deleteLongDesc string = `Delete an entity from the thought graph.

Removes the entity, every relation touching it, and the vector records
derived from both. Deleting an entity that does not exist is a no-op, so
deletes are safe to retry.

Examples:
  noema entity delete "Radium"`

const deleteShortDesc string = "Delete an entity and its relations"

func newDeleteCmd() *cobra.Command {
	cmder := &entityCommander{}
	flagSet := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: deleteShortDesc,
		Long:  deleteLongDesc,
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

			result, err := coord.DeleteEntity(ctx, args[0])
			if err != nil {
				return fmt.Errorf("deleting entity: %w", err)
			}

			return printMutation(result)
		},
	}

	config.AddConnectionFlags(cmd, flagSet)

	return cmd
}
