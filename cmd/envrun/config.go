// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"envrun-cli/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `envrun config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage envrun configuration",
		Long: `Manage envrun configuration.

Configuration is stored in:
  - Linux: ~/.config/envrun/config.cue
  - macOS: ~/Library/Application Support/envrun/config.cue
  - Windows: %APPDATA%\envrun\config.cue

Every key can be overridden with an ENVRUN_* environment variable,
e.g. ENVRUN_FAIL_FAST=true or ENVRUN_UI_VERBOSE=true.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return asServiceError(showConfig(cmd.Context(), app), app.flags.verbose)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return asServiceError(initConfig(app), app.flags.verbose)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return asServiceError(showConfigPath(app), app.flags.verbose)
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App) error {
	cfg, source, err := config.LoadWithSource(ctx, app.loadOptions())
	if err != nil {
		return err
	}

	w := app.stdout
	keyStyle := EnvStyle
	valueStyle := SuccessStyle

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if source != "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), source)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	envFile := SubtitleStyle.Render("(tox.ini, envrun.toml)")
	if cfg.EnvFile != "" {
		envFile = valueStyle.Render(cfg.EnvFile.String())
	}
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("default_runtime"), valueStyle.Render(string(cfg.DefaultRuntime)))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("container_engine"), valueStyle.Render(string(cfg.ContainerEngine)))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("fail_fast"), valueStyle.Render(fmt.Sprintf("%v", cfg.FailFast)))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("env_file"), envFile)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(w, "  color_scheme: %s\n", valueStyle.Render(string(cfg.UI.ColorScheme)))
	fmt.Fprintf(w, "  verbose: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))

	return nil
}

func initConfig(app *App) error {
	path, created, err := config.CreateDefaultConfig("")
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	if !created {
		fmt.Fprintf(app.stdout, "Config file already exists at: %s\n", path)
		return nil
	}
	fmt.Fprintf(app.stdout, "%s Created default config at: %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func showConfigPath(app *App) error {
	if app.flags.configPath != "" {
		fmt.Fprintln(app.stdout, app.flags.configPath)
		return nil
	}
	path, err := config.FilePath("")
	if err != nil {
		return err
	}
	fmt.Fprintln(app.stdout, path)
	return nil
}
