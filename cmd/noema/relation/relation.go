// Package relationcmder provides the relation command group for creating,
// editing, deleting, and inspecting relations in the thought graph.
package relationcmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noemaco/noema/pkg/cliui"
	"github.com/noemaco/noema/pkg/config"
	"github.com/noemaco/noema/pkg/dotdir"
	"github.com/noemaco/noema/pkg/knowledge"
	knowledgeutils "github.com/noemaco/noema/pkg/knowledge/utils"
	"github.com/noemaco/noema/pkg/logger"
)

const relationLongDesc string = `Manage relations in the thought graph.

Relations are directed, typed, and weighted edges between entities. Both
endpoints must exist before a relation can connect them; a relation to a
missing entity fails instead of creating a dangling edge. Weights live in
[0.0, 1.0] and express connection strength for retrieval ranking.

Use subcommands to operate on relations:
  noema relation create <source> <target>    Create a relation
  noema relation edit <source> <target>      Edit a relation
  noema relation delete <source> <target>    Delete relations between a pair
  noema relation show <source> <target>      Show relations between a pair

Examples:
  noema relation create "Marie Curie" "Radium" --type DISCOVERED --weight 0.9
  noema relation show "Marie Curie" "Radium"`

const relationShortDesc string = "Manage relations in the thought graph"

func NewRelationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relation",
		Short: relationShortDesc,
		Long:  relationLongDesc,
	}

	cmd.AddCommand(newCreateCmd())
	cmd.AddCommand(newEditCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newShowCmd())

	return cmd
}

// relationCommander carries the shared bootstrap state for relation
// subcommands.
type relationCommander struct {
	cfg       *config.Config
	configDir string

	debug  bool
	logger *zap.Logger
}

func (c *relationCommander) preRun(cmd *cobra.Command, flagSet config.FlagSet) error {
	c.configDir, _ = cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(c.configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	config.BindRegisteredFlags(v, cmd, flagSet, config.ConnectionFlagKeys())
	c.cfg = config.ConfigFromViper(v)

	c.debug, err = cmd.Flags().GetBool("debug")
	if err != nil {
		return fmt.Errorf("could not get debug flag: %w", err)
	}

	return nil
}

func (c *relationCommander) open(ctx context.Context) (*knowledge.Coordinator, error) {
	c.logger = logger.NewLogger(c.debug)

	ddm := dotdir.NewManager()
	dataDir, err := ddm.Target(c.configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving data directory: %w", err)
	}

	coord, err := knowledgeutils.NewCoordinator(&knowledgeutils.NewCoordinatorOpts{
		Config:  c.cfg,
		DataDir: dataDir,
		Logger:  c.logger,
	})
	if err != nil {
		return nil, err
	}

	if err := coord.Init(ctx); err != nil {
		return nil, fmt.Errorf("opening knowledge base: %w", err)
	}

	return coord, nil
}

func printMutation(result *knowledge.MutationResult) error {
	switch result.Outcome {
	case knowledge.OutcomeApplied:
		fmt.Printf("\n  %s %s\n\n", cliui.SuccessMark, cliui.ValueStyle.Render(result.Detail))
		return nil
	case knowledge.OutcomeUnchanged:
		fmt.Printf("\n  %s %s\n\n", cliui.DimStyle.Render("●"), cliui.DimStyle.Render(result.Detail))
		return nil
	default:
		return result.Reason
	}
}
