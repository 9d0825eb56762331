package entitycmder

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noemaco/noema/pkg/cliui"
	"github.com/noemaco/noema/pkg/config"
	"github.com/noemaco/noema/pkg/graph"
)

const showLongDesc string = `Show an entity's full state.

Displays the entity's attributes, provenance, every relation touching it in
either direction, and whether its vector record is present.

Examples:
  noema entity show "Marie Curie"`

const showShortDesc string = "Show an entity's full state"

func newShowCmd() *cobra.Command {
	cmder := &entityCommander{}
	flagSet := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: showShortDesc,
		Long:  showLongDesc,
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

			details, err := coord.GetEntityDetails(ctx, args[0])
			if err != nil {
				return fmt.Errorf("loading entity: %w", err)
			}

			printEntity(details.Node)

			if len(details.Relations) > 0 {
				fmt.Printf("  %s\n", cliui.KeyStyle.Render("Relations:"))
				for _, edge := range details.Relations {
					printEdge(edge)
				}
				fmt.Println()
			}

			if details.VectorRecord != nil {
				fmt.Printf("  %s %s\n\n",
					cliui.KeyStyle.Render("Indexed:"),
					cliui.DimStyle.Render(details.VectorRecord.ID),
				)
			}

			return nil
		},
	}

	config.AddConnectionFlags(cmd, flagSet)

	return cmd
}

func printEntity(node graph.Node) {
	fmt.Printf("\n  %s  %s %s\n",
		cliui.KeyStyle.Render(node.ID),
		cliui.DimStyle.Render("["+node.EntityType+"]"),
		cliui.DimStyle.Render(node.CreatedAt.Format("2006-01-02 15:04")),
	)

	if node.Content != "" {
		for _, part := range strings.Split(node.Content, graph.FieldSep) {
			fmt.Printf("  %s\n", cliui.ValueStyle.Render(part))
		}
	}

	if len(node.SourceIDs) > 0 {
		fmt.Printf("  %s %s\n",
			cliui.KeyStyle.Render("Sources:"),
			cliui.DimStyle.Render(strings.Join(node.SourceIDs, ", ")),
		)
	}

	fmt.Println()
}

func printEdge(edge graph.Edge) {
	description, _ := edge.Properties["description"].(string)

	line := fmt.Sprintf("%s -[%s %.2f]-> %s", edge.SourceID, edge.Type, edge.Weight, edge.TargetID)
	fmt.Printf("    %s\n", cliui.ValueStyle.Render(line))
	if description != "" {
		fmt.Printf("      %s\n", cliui.DimStyle.Render(description))
	}
}
