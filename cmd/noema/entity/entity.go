// Package entitycmder provides the entity command group for creating,
// editing, deleting, merging, and inspecting entities in the thought graph.
package entitycmder

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

const entityLongDesc string = `Manage entities in the thought graph.

Every mutation checks current state before writing: creating a name that
already exists, editing an absent entity, or merging from missing sources
resolves cleanly instead of corrupting the graph. Deleting an absent entity
is a no-op.

Use subcommands to operate on entities:
  noema entity create <name>             Create an entity
  noema entity edit <name>               Edit an entity
  noema entity delete <name>             Delete an entity and its relations
  noema entity merge <source...>         Merge entities into a target
  noema entity show <name>               Show an entity's full state

Examples:
  noema entity create "Marie Curie" --type person --description "Physicist and chemist"
  noema entity merge "M. Curie" "Madame Curie" --into "Marie Curie"
  noema entity show "Marie Curie"`

const entityShortDesc string = "Manage entities in the thought graph"

func NewEntityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entity",
		Short: entityShortDesc,
		Long:  entityLongDesc,
	}

	cmd.AddCommand(newCreateCmd())
	cmd.AddCommand(newEditCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newMergeCmd())
	cmd.AddCommand(newShowCmd())

	return cmd
}

// entityCommander carries the shared bootstrap state for entity subcommands.
type entityCommander struct {
	cfg       *config.Config
	configDir string

	debug  bool
	logger *zap.Logger
}

// preRun loads configuration through the viper precedence chain. Call from
// each subcommand's PreRunE after registering connection flags.
func (c *entityCommander) preRun(cmd *cobra.Command, flagSet config.FlagSet) error {
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

// open builds and initializes the knowledge coordinator. The caller owns
// Close.
func (c *entityCommander) open(ctx context.Context) (*knowledge.Coordinator, error) {
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

// printMutation renders a mutation result. Failed results surface their
// sentinel reason as the command error so exit codes stay honest.
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
