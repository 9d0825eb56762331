package relationcmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noemaco/noema/pkg/cliui"
	"github.com/noemaco/noema/pkg/config"
)

const showLongDesc string = `Show the relations between two entities.

Displays every relation from source to target with its type, weight,
description, and keywords.

Examples:
  noema relation show "Marie Curie" "Radium"`

const showShortDesc string = "Show relations between a pair of entities"

func newShowCmd() *cobra.Command {
	cmder := &relationCommander{}
	flagSet := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "show <source> <target>",
		Short: showShortDesc,
		Long:  showLongDesc,
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

			details, err := coord.GetRelationDetails(ctx, args[0], args[1])
			if err != nil {
				return fmt.Errorf("loading relations: %w", err)
			}

			fmt.Printf("\n  %s %s %s %s\n\n",
				cliui.KeyStyle.Render("Relations:"),
				cliui.ValueStyle.Render(details.SourceID),
				cliui.DimStyle.Render("->"),
				cliui.ValueStyle.Render(details.TargetID),
			)

			for _, edge := range details.Edges {
				description, _ := edge.Properties["description"].(string)
				keywords, _ := edge.Properties["keywords"].(string)

				fmt.Printf("    %s  %s %s\n",
					cliui.KeyStyle.Render(edge.Type),
					cliui.ValueStyle.Render(fmt.Sprintf("weight %.2f", edge.Weight)),
					cliui.DimStyle.Render(edge.CreatedAt.Format("2006-01-02 15:04")),
				)
				if description != "" {
					fmt.Printf("      %s\n", cliui.ValueStyle.Render(description))
				}
				if keywords != "" {
					fmt.Printf("      %s\n", cliui.DimStyle.Render("keywords: "+keywords))
				}
			}

			fmt.Println()
			return nil
		},
	}

	config.AddConnectionFlags(cmd, flagSet)

	return cmd
}
