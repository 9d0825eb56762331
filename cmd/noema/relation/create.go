package relationcmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noemaco/noema/pkg/config"
)

const createLongDesc string = `Create a relation between two existing entities.

Both entities must already exist; the relation fails otherwise. Without
--type the relation is typed RELATED_TO, and without --weight it defaults
to 0.5. Creating a relation with the same source, target, and type as an
existing one updates it in place rather than duplicating it.

The relation is also mirrored into the vector index so retrieval can match
it semantically.

Examples:
  noema relation create "Marie Curie" "Radium" --type DISCOVERED --weight 0.9
  noema relation create "Radium" "Polonium" --description "discovered together"`

const createShortDesc string = "Create a relation"

func newCreateCmd() *cobra.Command {
	cmder := &relationCommander{}
	flagSet := config.DefaultFlagSet()

	var relType string
	var description string
	var keywords string
	var weight float64
	var source string

	cmd := &cobra.Command{
		Use:   "create <source> <target>",
		Short: createShortDesc,
		Long:  createLongDesc,
		Args:  cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.preRun(cmd, flagSet)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var weightPtr *float64
			if cmd.Flags().Changed("weight") {
				weightPtr = &weight
			}

			ctx := context.Background()

			coord, err := cmder.open(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = coord.Close(ctx) }()

			result, err := coord.CreateRelation(ctx, args[0], args[1], relType, description, keywords, weightPtr, source)
			if err != nil {
				return fmt.Errorf("creating relation: %w", err)
			}

			return printMutation(result)
		},
	}

	cmd.Flags().StringVar(&relType, "type", "", "Relation type (default: RELATED_TO)")
	cmd.Flags().StringVar(&description, "description", "", "Relation description")
	cmd.Flags().StringVar(&keywords, "keywords", "", "Keywords characterizing the relation")
	cmd.Flags().Float64Var(&weight, "weight", 0, "Relation weight in [0.0, 1.0] (default: 0.5)")
	cmd.Flags().StringVar(&source, "source", "", "Provenance tag (default: manual)")
	config.AddConnectionFlags(cmd, flagSet)

	return cmd
}
