// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"envrun-cli/internal/runtime"

	"github.com/spf13/cobra"
)

func newCheckCommand(app *App) *cobra.Command {
	var envs []string

	checkCmd := &cobra.Command{
		Use:   "check [-e ENV[,ENV...]]",
		Short: "Run preflight checks without running commands",
		Long: `Verify that every allowlisted external resolves, that allowlisted
container engines answer, and that every command stays inside its
environment's allowlist. Nothing is executed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return asServiceError(checkEnvironments(cmd, app, append(envs, args...)), app.flags.verbose)
		},
	}
	checkCmd.Flags().StringSliceVarP(&envs, "env", "e", nil, "environments to check (comma separated, or ALL)")
	return checkCmd
}

func checkEnvironments(cmd *cobra.Command, app *App, names []string) error {
	file, err := app.loadEnvFile()
	if err != nil {
		return err
	}
	envs, err := file.Select(names)
	if err != nil {
		return err
	}

	r := app.newRunner(file)
	var firstErr error
	for _, env := range envs {
		name := EnvStyle.Render(env.Name.String())
		if err := r.Preflight(cmd.Context(), env); err != nil {
			fmt.Fprintf(app.stdout, "  %s %s\n", ErrorStyle.Render("✗"), name)
			for _, line := range failureLines(err) {
				fmt.Fprintf(app.stdout, "      %s\n", line)
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		fmt.Fprintf(app.stdout, "  %s %s\n", SuccessStyle.Render("✓"), name)
	}

	if firstErr != nil {
		if id, _ := classifyError(firstErr, false); id != 0 {
			renderIssue(app.stderr, id, app.glamourStyle())
		}
		return &ExitError{Code: runtime.ExitNotFound}
	}
	return nil
}
