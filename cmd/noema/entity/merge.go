package entitycmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noemaco/noema/pkg/config"
	"github.com/noemaco/noema/pkg/knowledge"
)

const mergeLongDesc string = `Merge entities into a single target entity.

Every relation touching a source is rewritten to reference the target,
duplicate relations of the same type keep the higher weight, descriptions
and provenance are consolidated, and the sources are deleted. The target is
created if it does not exist yet.

The merge is safe to retry: sources already absent while the target exists
are treated as already merged.

Use --description or --type to pin the target's attributes instead of the
consolidated values.

Examples:
  noema entity merge "M. Curie" "Madame Curie" --into "Marie Curie"
  noema entity merge "Py" --into "Python" --type language`

const mergeShortDesc string = "Merge entities into a target"

func newMergeCmd() *cobra.Command {
	cmder := &entityCommander{}
	flagSet := config.DefaultFlagSet()

	var target string
	var description string
	var entityType string

	cmd := &cobra.Command{
		Use:   "merge <source>... --into <target>",
		Short: mergeShortDesc,
		Long:  mergeLongDesc,
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.preRun(cmd, flagSet)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var overrides *knowledge.MergeOverrides
			if cmd.Flags().Changed("description") || cmd.Flags().Changed("type") {
				overrides = &knowledge.MergeOverrides{}
				if cmd.Flags().Changed("description") {
					overrides.Description = &description
				}
				if cmd.Flags().Changed("type") {
					overrides.EntityType = &entityType
				}
			}

			ctx := context.Background()

			coord, err := cmder.open(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = coord.Close(ctx) }()

			result, err := coord.MergeEntities(ctx, args, target, overrides)
			if err != nil {
				return fmt.Errorf("merging entities: %w", err)
			}

			return printMutation(result)
		},
	}

	cmd.Flags().StringVar(&target, "into", "", "Target entity name (required)")
	cmd.Flags().StringVar(&description, "description", "", "Pin the target's description")
	cmd.Flags().StringVar(&entityType, "type", "", "Pin the target's entity type")
	_ = cmd.MarkFlagRequired("into")
	config.AddConnectionFlags(cmd, flagSet)

	return cmd
}
