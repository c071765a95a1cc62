// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"envrun-cli/pkg/envfile"

	"github.com/spf13/cobra"
)

func newShowCommand(app *App) *cobra.Command {
	var format string

	showCmd := &cobra.Command{
		Use:   "show [ENV...]",
		Short: "Print the normalized environment file",
		Long: `Print the parsed environment file re-encoded in canonical form, with
base-section inheritance resolved. Naming environments limits the output
to them. --format toml converts a tox.ini to the envrun.toml layout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return asServiceError(showEnvFile(app, envfile.Format(format), args), app.flags.verbose)
		},
	}
	showCmd.Flags().StringVar(&format, "format", string(envfile.FormatINI), "output format (ini, toml)")
	return showCmd
}

func showEnvFile(app *App, format envfile.Format, names []string) error {
	file, err := app.loadEnvFile()
	if err != nil {
		return err
	}

	if len(names) > 0 {
		envs, err := file.Select(names)
		if err != nil {
			return err
		}
		file = &envfile.File{Path: file.Path, Format: file.Format, Settings: file.Settings, Environments: envs}
		file.Settings.EnvList = nil
	}

	var data []byte
	switch format {
	case envfile.FormatINI:
		data = envfile.EncodeINI(file)
	case envfile.FormatTOML:
		data, err = envfile.EncodeTOML(file)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format %q (valid: ini, toml)", format)
	}

	_, err = app.stdout.Write(data)
	return err
}
