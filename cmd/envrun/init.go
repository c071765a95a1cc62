// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"envrun-cli/pkg/envfile"

	"github.com/spf13/cobra"
)

func newInitCommand(app *App) *cobra.Command {
	var force bool

	initCmd := &cobra.Command{
		Use:   "init [PATH]",
		Short: "Create a starter tox.ini",
		Long: `Create a tox.ini with lint, test and integration environments driven by
poetry. The integration environment also allowlists docker.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(app.dir, envfile.ToxFileName)
			if len(args) > 0 {
				path = args[0]
				if !filepath.IsAbs(path) {
					path = filepath.Join(app.dir, path)
				}
			}
			return asServiceError(writeStarter(app, path, force), app.flags.verbose)
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return initCmd
}

func writeStarter(app *App, path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("file '%s' already exists. Use --force to overwrite", path)
	}

	if err := os.WriteFile(path, envfile.StarterINI, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	fmt.Fprintf(app.stdout, "%s Created %s\n", SuccessStyle.Render("✓"), path)
	fmt.Fprintln(app.stdout)
	fmt.Fprintln(app.stdout, SubtitleStyle.Render("Next steps:"))
	fmt.Fprintln(app.stdout, "  1. Adjust the commands and allowlist_externals of each environment")
	fmt.Fprintln(app.stdout, "  2. Run 'envrun check' to verify the externals are installed")
	fmt.Fprintln(app.stdout, "  3. Run 'envrun run' to run the default envlist")
	return nil
}
