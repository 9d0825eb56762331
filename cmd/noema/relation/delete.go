package relationcmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noemaco/noema/pkg/config"
)

const deleteLongDesc string = `Delete relations between two entities.

Without --type, every relation between the pair is removed; with --type,
only relations of that type. The entities themselves are untouched.
Deleting relations that do not exist is a no-op, so deletes are safe to
retry.

Examples:
  noema relation delete "Marie Curie" "Radium"
  noema relation delete "Radium" "Polonium" --type DISCOVERED_WITH`

const deleteShortDesc string = "Delete relations between a pair of entities"

func newDeleteCmd() *cobra.Command {
	cmder := &relationCommander{}
	flagSet := config.DefaultFlagSet()

	var relType string

	cmd := &cobra.Command{
		Use:   "delete <source> <target>",
		Short: deleteShortDesc,
		Long:  deleteLongDesc,
		Args:  cobra.ExactArgs(2),
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

			result, err := coord.DeleteRelation(ctx, args[0], args[1], relType)
			if err != nil {
				return fmt.Errorf("deleting relation: %w", err)
			}

			return printMutation(result)
		},
	}

	cmd.Flags().StringVar(&relType, "type", "", "Only delete relations of this type")
	config.AddConnectionFlags(cmd, flagSet)

	return cmd
}
