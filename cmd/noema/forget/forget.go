// Package forgetcmder provides the forget command for removing a stored
// document and the knowledge derived solely from it.
package forgetcmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noemaco/noema/pkg/cliui"
	"github.com/noemaco/noema/pkg/config"
	"github.com/noemaco/noema/pkg/dotdir"
	knowledgeutils "github.com/noemaco/noema/pkg/knowledge/utils"
	"github.com/noemaco/noema/pkg/logger"
)

type forgetCommander struct {
	docID string

	cfg       *config.Config
	configDir string

	debug  bool
	logger *zap.Logger
}

const forgetLongDesc string = `Remove a stored document from the knowledge base.

Deletes the document's vector record and cascades to entities whose only
provenance is this document. Entities also referenced by other documents
survive; only the provenance link to the forgotten document is removed.

Forgetting a document that was never stored is a no-op.

Examples:
  noema forget doc-9f86d081884c7d65
  noema query "release owners" --quiet | xargs -n1 noema forget`

const forgetShortDesc string = "Remove a stored document and its derived knowledge"

func NewForgetCmd() *cobra.Command {
	cmder := &forgetCommander{}
	flagSet := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "forget <doc-id>",
		Short: forgetShortDesc,
		Long:  forgetLongDesc,
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
			cmder.docID = args[0]

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

func (c *forgetCommander) run() error {
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

	result, err := coord.DeleteDocument(ctx, c.docID)
	if err != nil {
		return err
	}

	if result.Failed() {
		return fmt.Errorf("forgetting %s: %s", c.docID, result.Reason)
	}

	fmt.Printf("\n  %s %s\n\n", cliui.SuccessMark, cliui.ValueStyle.Render(result.Detail))
	return nil
}
