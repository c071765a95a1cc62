// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// newRootCommand builds the command tree bound to app.
func newRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "envrun",
		Short: "Run tox-style test environments",
		Long: TitleStyle.Render("envrun") + SubtitleStyle.Render(" - run tox-style test environments") + `

envrun reads a tox.ini (or envrun.toml) and runs its environments: each one
is a list of commands executed with a controlled environment, after a
preflight that verifies every external program the environment allows.

` + SubtitleStyle.Render("Examples:") + `
  envrun run                    Run the default envlist
  envrun run -e lint,test       Run selected environments
  envrun run -e test -- -k api  Pass positional arguments to {posargs}
  envrun check -e integration   Verify externals without running anything
  envrun show                   Print the normalized environment file`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.loadConfig(cmd.Context()); err != nil {
				fmt.Fprintln(app.stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, app.flags.verbose))
			}
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output")
	flags.StringVar(&app.flags.configPath, "config", "", "config file (default is <config dir>/envrun/config.cue)")
	flags.StringVarP(&app.flags.envFile, "file", "c", "", "environment file (default: search for tox.ini, then envrun.toml)")
	flags.StringVar(&app.flags.workDir, "workdir", "", "directory holding environment directories (default: .envrun next to the file)")

	rootCmd.AddCommand(
		newRunCommand(app),
		newListCommand(app),
		newShowCommand(app),
		newCheckCommand(app),
		newInitCommand(app),
		newConfigCommand(app),
	)
	return rootCmd
}

// Execute builds the App and runs the root command. It is called by main.main.
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error:"), err)
		os.Exit(1)
	}

	if err := fang.Execute(
		context.Background(),
		newRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, styles fang.Styles, err error) {
			handleError(app, w, styles, err)
		}),
	); err != nil {
		os.Exit(int(exitCodeOf(err)))
	}
}

// handleError renders err once. ExitErrors without a cause were reported by
// the command itself; ServiceErrors carry their own rendering.
func handleError(app *App, w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.silent() {
		return
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		renderServiceError(w, svcErr, app.glamourStyle())
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}
