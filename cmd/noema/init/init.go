// Package initcmder provides the init command for initializing a local .noema
// directory in the current working directory.
package initcmder

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/noemaco/noema/pkg/config"
)

const (
	dirName = ".noema"
)

const initLongDesc string = `Initialize a new .noema/ directory in the current working directory.

Creates a local .noema/ directory that takes precedence over the default
~/.noema/ directory for configuration and the local vector database, and
writes a config.toml populated with defaults.

This is useful for maintaining a separate knowledge base per project or
directory.

Examples:
  noema init`

const initShortDesc string = "Initialize a local .noema/ directory"

func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInit()
		},
	}

	return cmd
}

func runInit() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		fmt.Printf("Already initialized: %s\n", dir)
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .noema directory: %w", err)
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("preparing config: %w", err)
	}
	if err := cfger.SaveConfig(config.NewDefaultConfig()); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}

	fmt.Printf("Initialized .noema directory: %s\n", dir)
	return nil
}
