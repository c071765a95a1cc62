// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

func newListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List environments",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return asServiceError(listEnvironments(app), app.flags.verbose)
		},
	}
}

func listEnvironments(app *App) error {
	file, err := app.loadEnvFile()
	if err != nil {
		return err
	}

	w := app.stdout
	fmt.Fprintln(w, TitleStyle.Render("Environments")+" "+SubtitleStyle.Render("("+file.Path+")"))
	fmt.Fprintln(w)

	width := 0
	for _, name := range file.Names() {
		width = max(width, len(name))
	}
	for _, env := range file.Environments {
		marker := " "
		if slices.Contains(file.Settings.EnvList, env.Name) {
			marker = SuccessStyle.Render("*")
		}
		name := env.Name.String()
		line := fmt.Sprintf("  %s %s%s", marker, EnvStyle.Render(name), strings.Repeat(" ", width-len(name)))
		if env.Description != "" {
			line += "  " + SubtitleStyle.Render(env.Description)
		}
		fmt.Fprintln(w, line)
	}

	if len(file.Settings.EnvList) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, SubtitleStyle.Render("* in the default envlist"))
	}
	return nil
}
