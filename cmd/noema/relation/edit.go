package relationcmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noemaco/noema/pkg/config"
	"github.com/noemaco/noema/pkg/knowledge"
)

const editLongDesc string = `Edit a relation between two entities.

Only the fields you pass change. The relation is addressed by source,
target, and --type (RELATED_TO when omitted); editing an absent relation
fails rather than creating it. Weights outside [0.0, 1.0] are rejected.

Examples:
  noema relation edit "Marie Curie" "Radium" --type DISCOVERED --weight 0.95
  noema relation edit "Radium" "Polonium" --description "isolated in the same year"`

const editShortDesc string = "Edit a relation"

func newEditCmd() *cobra.Command {
	cmder := &relationCommander{}
	flagSet := config.DefaultFlagSet()

	var relType string
	var description string
	var keywords string
	var weight float64

	cmd := &cobra.Command{
		Use:   "edit <source> <target>",
		Short: editShortDesc,
		Long:  editLongDesc,
		Args:  cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.preRun(cmd, flagSet)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			update := knowledge.RelationUpdate{}
			if cmd.Flags().Changed("description") {
				update.Description = &description
			}
			if cmd.Flags().Changed("keywords") {
				update.Keywords = &keywords
			}
			if cmd.Flags().Changed("weight") {
				update.Weight = &weight
			}

			ctx := context.Background()

			coord, err := cmder.open(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = coord.Close(ctx) }()

			result, err := coord.EditRelation(ctx, args[0], args[1], relType, update)
			if err != nil {
				return fmt.Errorf("editing relation: %w", err)
			}

			return printMutation(result)
		},
	}

	cmd.Flags().StringVar(&relType, "type", "", "Relation type (default: RELATED_TO)")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&keywords, "keywords", "", "New keywords")
	cmd.Flags().Float64Var(&weight, "weight", 0, "New weight in [0.0, 1.0]")
	config.AddConnectionFlags(cmd, flagSet)

	return cmd
}
