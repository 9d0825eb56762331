// Package storecmder provides the store command for writing text into the
// knowledge base.
package storecmder

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noemaco/noema/pkg/cliui"
	"github.com/noemaco/noema/pkg/config"
	"github.com/noemaco/noema/pkg/dotdir"
	knowledgeutils "github.com/noemaco/noema/pkg/knowledge/utils"
	"github.com/noemaco/noema/pkg/logger"
)

type storeCommander struct {
	content string
	docID   string
	source  string

	cfg       *config.Config
	configDir string

	debug  bool
	logger *zap.Logger
}

const storeLongDesc string = `Store a piece of text in the knowledge base.

The text is embedded and written to the vector index. Without --id, the
document id is derived from a hash of the content, so storing identical
text twice is a no-op rather than a duplicate.

Use --source to tag where the text came from; entities later derived from
this document carry the tag as provenance.

Examples:
  noema store "The mitochondria is the powerhouse of the cell"
  noema store "Q3 revenue grew 12%" --source finance-report
  noema store "pinned note" --id doc-pinned-note`

const storeShortDesc string = "Store text in the knowledge base"

func NewStoreCmd() *cobra.Command {
	cmder := &storeCommander{}
	flagSet := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "store <text>",
		Short: storeShortDesc,
		Long:  storeLongDesc,
		Args:  cobra.ExactArgs(1),
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
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.content = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	cmd.Flags().StringVar(&cmder.docID, "id", "", "Explicit document id (default: content hash)")
	cmd.Flags().StringVar(&cmder.source, "source", "", "Provenance tag for the stored text")
	config.AddConnectionFlags(cmd, flagSet)

	return cmd
}

func (c *storeCommander) run() error {
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

	var docID string
	err = cliui.Step(os.Stdout, "Storing text", func() error {
		var stepErr error
		docID, stepErr = coord.StoreText(ctx, c.content, c.docID, c.source)
		return stepErr
	})
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s  %s\n\n",
		cliui.KeyStyle.Render("Stored:"),
		cliui.ValueStyle.Render(docID),
	)
	return nil
}
