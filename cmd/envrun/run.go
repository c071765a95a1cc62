// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"envrun-cli/internal/issue"
	"envrun-cli/internal/runner"
	"envrun-cli/pkg/envfile"

	"github.com/spf13/cobra"
)

type runFlags struct {
	envs     []string
	failFast bool
	runtime  string
}

func newRunCommand(app *App) *cobra.Command {
	var flags runFlags

	runCmd := &cobra.Command{
		Use:   "run [-e ENV[,ENV...]] [-- POSARGS...]",
		Short: "Run environments",
		Long: `Run environments in dependency order.

Without -e the [tox] envlist is run; "-e ALL" runs every environment.
Arguments after "--" replace {posargs} in commands.

The exit status is the exit status of the first environment that failed:
the failing command's exit status, 127 when preflight rejected the
environment, or 1 when it could not be set up.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, posArgs := splitAtDash(cmd, args)
			return asServiceError(runEnvironments(cmd, app, flags, append(flags.envs, selected...), posArgs), app.flags.verbose)
		},
	}

	runCmd.Flags().StringSliceVarP(&flags.envs, "env", "e", nil, "environments to run (comma separated, or ALL)")
	runCmd.Flags().BoolVar(&flags.failFast, "fail-fast", false, "skip remaining environments after the first failure")
	runCmd.Flags().StringVar(&flags.runtime, "runtime", "", "run every environment with this runtime (native, virtual)")
	return runCmd
}

// splitAtDash separates environment names from the arguments after "--".
func splitAtDash(cmd *cobra.Command, args []string) (names, posArgs []string) {
	dash := cmd.ArgsLenAtDash()
	if dash < 0 {
		return args, nil
	}
	return args[:dash], args[dash:]
}

func runEnvironments(cmd *cobra.Command, app *App, flags runFlags, names, posArgs []string) error {
	var override envfile.RuntimeMode
	if flags.runtime != "" {
		mode, err := envfile.ParseRuntimeMode(flags.runtime)
		if err != nil {
			return err
		}
		override = mode
	}

	file, err := app.loadEnvFile()
	if err != nil {
		return err
	}
	envs, err := file.Select(names)
	if err != nil {
		return err
	}

	failFast := app.cfg.FailFast
	if cmd.Flags().Changed("fail-fast") {
		failFast = flags.failFast
	}

	r := app.newRunner(file,
		runner.WithPosArgs(posArgs),
		runner.WithRuntimeOverride(override),
		runner.WithFailFast(failFast),
	)
	report, err := r.Run(cmd.Context(), envs)
	if err != nil {
		return err
	}

	renderReport(app.stdout, report)
	if code := report.ExitCode(); !code.IsSuccess() {
		renderFailureHelp(app, report)
		return &ExitError{Code: code}
	}
	return nil
}

// renderReport prints the tox-style summary: one line per environment.
func renderReport(w io.Writer, report *runner.Report) {
	fmt.Fprintln(w)
	for _, env := range report.Envs {
		name := EnvStyle.Render(env.Name.String())
		switch env.Status {
		case runner.StatusPassed:
			fmt.Fprintf(w, "  %s: %s %s\n", name, SuccessStyle.Render("OK"), VerboseStyle.Render(formatDuration(env.Duration)))
		case runner.StatusFailed:
			fmt.Fprintf(w, "  %s: %s %s\n", name, ErrorStyle.Render(fmt.Sprintf("FAIL code %d", env.ExitCode)), VerboseStyle.Render(formatDuration(env.Duration)))
		case runner.StatusSkipped:
			fmt.Fprintf(w, "  %s: %s %s\n", name, WarningStyle.Render("SKIP"), VerboseStyle.Render(fmt.Sprintf("(%v)", env.Err)))
		default:
			fmt.Fprintf(w, "  %s: %s\n", name, ErrorStyle.Render(strings.ToUpper(string(env.Status))))
			for _, line := range failureLines(env.Err) {
				fmt.Fprintf(w, "    - %s\n", line)
			}
		}
	}

	passed := 0
	for _, env := range report.Envs {
		if env.Status == runner.StatusPassed {
			passed++
		}
	}
	if passed == len(report.Envs) {
		fmt.Fprintf(w, "  %s\n", SuccessStyle.Render("congratulations :)"))
		return
	}
	fmt.Fprintf(w, "  %s\n", ErrorStyle.Render(fmt.Sprintf("%d of %d environments did not pass", len(report.Envs)-passed, len(report.Envs))))
}

// failureLines splits a preflight error into its individual failures.
func failureLines(err error) []string {
	if err == nil {
		return nil
	}
	var pe *runner.PreflightError
	if errors.As(err, &pe) {
		var lines []string
		for _, e := range pe.Errors.WrappedErrors() {
			lines = append(lines, e.Error())
		}
		return lines
	}
	return []string{err.Error()}
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("(%.2f seconds)", d.Seconds())
}

// renderFailureHelp shows the catalog entry for the first environment that
// failed, when its failure maps to one.
func renderFailureHelp(app *App, report *runner.Report) {
	for _, env := range report.Envs {
		if !env.Failed() {
			continue
		}
		if env.Err == nil {
			if app.flags.verbose {
				renderIssue(app.stderr, issue.CommandFailedId, app.glamourStyle())
			}
			return
		}
		if id, _ := classifyError(env.Err, false); id != 0 {
			renderIssue(app.stderr, id, app.glamourStyle())
		}
		return
	}
}
