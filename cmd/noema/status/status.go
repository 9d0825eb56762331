// Package statuscmder provides the status command for displaying the state
// of the knowledge base.
package statuscmder

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noemaco/noema/pkg/cliui"
	"github.com/noemaco/noema/pkg/config"
	"github.com/noemaco/noema/pkg/dotdir"
	knowledgeutils "github.com/noemaco/noema/pkg/knowledge/utils"
	"github.com/noemaco/noema/pkg/logger"
)

type statusCommander struct {
	cfg       *config.Config
	configDir string

	debug  bool
	logger *zap.Logger
}

const statusLongDesc string = `Show the state of the knowledge base.

Connects to the configured stores and displays node and edge counts along
with the relation types in use and the active backend configuration.

Examples:
  noema status`

const statusShortDesc string = "Show knowledge base state"

func NewStatusCmd() *cobra.Command {
	cmder := &statusCommander{}
	flagSet := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "status",
		Short: statusShortDesc,
		Long:  statusLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, flagSet, config.ConnectionFlagKeys())
			cmder.cfg = config.ConfigFromViper(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	config.AddConnectionFlags(cmd, flagSet)

	return cmd
}

func (c *statusCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	ctx := context.Background()

	ddm := dotdir.NewManager()
	dataDir, err := ddm.Target(c.configDir)
	if err != nil {
		return fmt.Errorf("resolving data directory: %w", err)
	}

	coord, err := knowledgeutils.NewCoordinator(&knowledgeutils.NewCoordinatorOpts{
		Config:  c.cfg,
		DataDir: dataDir,
		Logger:  c.logger,
	})
	if err != nil {
		return err
	}

	if err := coord.Init(ctx); err != nil {
		return fmt.Errorf("opening knowledge base: %w", err)
	}
	defer func() { _ = coord.Close(ctx) }()

	summary, err := coord.GraphSummary(ctx)
	if err != nil {
		return fmt.Errorf("summarizing graph: %w", err)
	}

	fmt.Printf("\n  %s %s\n", cliui.KeyStyle.Render("Data dir:  "), cliui.DimStyle.Render(dataDir))
	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("Graph:     "), cliui.ValueStyle.Render(c.cfg.Graph.Provider))
	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("Vectors:   "), cliui.ValueStyle.Render(c.cfg.VectorStore.Provider))
	fmt.Printf("  %s %s %s\n\n",
		cliui.KeyStyle.Render("Embedding: "),
		cliui.ValueStyle.Render(c.cfg.Embedding.Provider+"/"+c.cfg.Embedding.Model),
		cliui.DimStyle.Render(fmt.Sprintf("(%d dims)", c.cfg.Embedding.Dimensions)),
	)

	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("Entities:  "), cliui.ValueStyle.Render(strconv.Itoa(summary.NodeCount)))
	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("Relations: "), cliui.ValueStyle.Render(strconv.Itoa(summary.EdgeCount)))

	if len(summary.EdgeTypes) > 0 {
		types := make([]string, 0, len(summary.EdgeTypes))
		for t := range summary.EdgeTypes {
			types = append(types, t)
		}
		sort.Strings(types)

		fmt.Println()
		for _, t := range types {
			fmt.Printf("    %s %s\n",
				cliui.DimStyle.Render(fmt.Sprintf("%4d", summary.EdgeTypes[t])),
				cliui.ValueStyle.Render(t),
			)
		}
	}

	fmt.Println()
	return nil
}
