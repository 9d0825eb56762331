// Package querycmder provides the query command for retrieving from the
// knowledge base.
package querycmder

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noemaco/noema/pkg/cliui"
	"github.com/noemaco/noema/pkg/config"
	"github.com/noemaco/noema/pkg/dotdir"
	"github.com/noemaco/noema/pkg/knowledge"
	knowledgeutils "github.com/noemaco/noema/pkg/knowledge/utils"
	"github.com/noemaco/noema/pkg/logger"
	"github.com/noemaco/noema/pkg/utils"
)

var rankStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)

type queryCommander struct {
	query string
	mode  string
	topK  uint
	quiet bool

	cfg       *config.Config
	configDir string

	debug  bool
	logger *zap.Logger
}

const queryLongDesc string = `Retrieve knowledge matching the query text.

Five retrieval modes are available:
  naive    Similarity search over stored text
  local    Entity lookup plus graph neighborhoods
  global   Relationship structure across the whole graph
  hybrid   Text similarity balanced with keyword overlap
  mix      All of the above, combined (default)

An empty result set means nothing matched; it is not an error.

Use --quiet to output only result ids, one per line, for piping.

Examples:
  noema query "how do cells produce energy"
  noema query "acquisitions in 2024" --mode global
  noema query "deployment checklist" --mode naive --top-k 10
  noema query "release owners" --quiet`

const queryShortDesc string = "Retrieve knowledge matching a query"

func NewQueryCmd() *cobra.Command {
	cmder := &queryCommander{}
	flagSet := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: queryShortDesc,
		Long:  queryLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			keys := append(config.ConnectionFlagKeys(), config.FlagTopK)
			config.BindRegisteredFlags(v, cmd, flagSet, keys)
			cmder.cfg = config.ConfigFromViper(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
		ValidArgsFunction: func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
	}

	cmd.Flags().StringVarP(&cmder.mode, "mode", "m", string(knowledge.ModeMix), "Retrieval mode (naive, local, global, hybrid, mix)")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Output only result ids, one per line (for piping)")
	config.AddUintFlag(cmd, flagSet, config.FlagTopK, &cmder.topK)
	config.AddConnectionFlags(cmd, flagSet)

	_ = cmd.RegisterFlagCompletionFunc("mode", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		modes := knowledge.Modes()
		names := make([]string, len(modes))
		for i, m := range modes {
			names[i] = string(m)
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func (c *queryCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	mode, err := knowledge.ParseMode(c.mode)
	if err != nil {
		return err
	}

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

	result, err := coord.Retrieve(ctx, c.query, mode, int(c.cfg.Retrieval.TopK))
	if err != nil {
		return err
	}

	if result.Empty() {
		if !c.quiet {
			fmt.Println("No results found.")
		}
		return nil
	}

	if c.quiet {
		for _, hit := range result.Hits {
			fmt.Println(hit.ID)
		}
		return nil
	}

	fmt.Printf("\n%s %s %s\n\n",
		cliui.HeaderStyle.Render("Results for:"),
		cliui.KeyStyle.Render(fmt.Sprintf("%q", result.Query)),
		cliui.DimStyle.Render(fmt.Sprintf("(mode: %s)", result.Mode)),
	)

	for i, hit := range result.Hits {
		printHit(i+1, hit)
	}

	return nil
}

func printHit(rank int, hit knowledge.Hit) {
	fmt.Printf("  %s  %s  %s %s\n",
		rankStyle.Render(fmt.Sprintf("#%d", rank)),
		cliui.StepStyle.Render(fmt.Sprintf("score: %.4f", hit.Score)),
		cliui.KeyStyle.Render(hit.ID),
		cliui.StepStyle.Render("("+hit.Origin+")"),
	)

	content := hit.Content
	if content == "" {
		fmt.Printf("  %s\n\n", cliui.DimStyle.Render("(no content)"))
		return
	}

	content = utils.Truncate(strings.ReplaceAll(content, "\n", " "), 80)

	fmt.Printf("  %s\n\n", cliui.ValueStyle.Render(content))
}
