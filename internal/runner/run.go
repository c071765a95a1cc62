// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"errors"
	"fmt"

	"envrun-cli/internal/dag"
	"envrun-cli/internal/runtime"
	"envrun-cli/pkg/envfile"
)

var (
	// ErrSkippedFailFast marks environments skipped after an earlier failure.
	ErrSkippedFailFast = errors.New("skipped after an earlier failure (fail-fast)")
	// ErrDependencyFailed is the sentinel error wrapped by DependencyFailedError.
	ErrDependencyFailed = errors.New("dependency did not pass")
)

// DependencyFailedError marks an environment skipped because a dependency
// it depends on did not pass.
type DependencyFailedError struct {
	Dependency envfile.EnvName
}

func (e *DependencyFailedError) Error() string {
	return fmt.Sprintf("skipped: dependency %s did not pass", e.Dependency)
}

func (e *DependencyFailedError) Unwrap() error { return ErrDependencyFailed }

// Run executes envs in dependency order. Environments named in depends but
// not selected are ignored for ordering. The error is non-nil only when no
// order exists; command failures are reported through the Report.
// Environments skipped because ctx was canceled exit with 130.
func (r *Runner) Run(ctx context.Context, envs []*envfile.Environment) (*Report, error) {
	ordered, err := Order(envs)
	if err != nil {
		return nil, err
	}

	report := &Report{Envs: make([]*EnvReport, 0, len(ordered))}
	reports := make(map[envfile.EnvName]*EnvReport, len(ordered))
	anyFailed := false

	for _, env := range ordered {
		var rep *EnvReport
		switch {
		case ctx.Err() != nil:
			rep = skipped(env, ctx.Err())
			rep.ExitCode = runtime.ExitInterrupted
		case r.failFast && anyFailed:
			rep = skipped(env, ErrSkippedFailFast)
		default:
			if dep, ok := failedDependency(env, reports); ok {
				rep = skipped(env, &DependencyFailedError{Dependency: dep})
			} else {
				rep = r.RunEnv(ctx, env)
			}
		}

		if rep.Status == StatusSkipped {
			r.logger.Warn("environment skipped", "env", env.Name, "reason", rep.Err)
		}
		anyFailed = anyFailed || rep.Failed()
		reports[env.Name] = rep
		report.Envs = append(report.Envs, rep)
	}

	return report, nil
}

// Order sorts envs so that every environment follows the selected
// environments it depends on. Ties keep the given order.
func Order(envs []*envfile.Environment) ([]*envfile.Environment, error) {
	g := dag.New[envfile.EnvName]()
	byName := make(map[envfile.EnvName]*envfile.Environment, len(envs))
	for _, env := range envs {
		g.AddNode(env.Name)
		byName[env.Name] = env
	}
	for _, env := range envs {
		for _, dep := range env.Depends {
			if _, selected := byName[dep]; selected {
				g.AddEdge(dep, env.Name)
			}
		}
	}

	names, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}
	ordered := make([]*envfile.Environment, len(names))
	for i, name := range names {
		ordered[i] = byName[name]
	}
	return ordered, nil
}

func failedDependency(env *envfile.Environment, reports map[envfile.EnvName]*EnvReport) (envfile.EnvName, bool) {
	for _, dep := range env.Depends {
		if rep, ok := reports[dep]; ok && rep.Status != StatusPassed {
			return dep, true
		}
	}
	return "", false
}

func skipped(env *envfile.Environment, reason error) *EnvReport {
	rep := &EnvReport{Name: env.Name, Status: StatusSkipped, Err: reason}
	for _, cmd := range env.AllCommands() {
		rep.Commands = append(rep.Commands, CommandReport{Line: cmd.Line, Skipped: true})
	}
	return rep
}

// RunEnv runs one environment: setup, preflight, then commands_pre and
// commands, which stop at the first failure unless ignore_errors is set,
// then commands_post, which always runs once preflight has passed.
//
// The environment's exit code is the exit code of the first failing
// command, 127 when preflight fails, and 1 when setup fails.
func (r *Runner) RunEnv(ctx context.Context, env *envfile.Environment) *EnvReport {
	start := r.clock.Now()
	rep := &EnvReport{Name: env.Name}
	defer func() { rep.Duration = r.clock.Now().Sub(start) }()

	p, err := r.prepare(env)
	if err != nil {
		r.logger.Error("environment setup failed", "env", env.Name, "err", err)
		rep.Status, rep.ExitCode, rep.Err = StatusSetupFailed, runtime.ExitFailure, err
		return rep
	}
	rep.Runtime = p.mode

	if err := r.preflight(ctx, p); err != nil {
		r.logger.Error("preflight failed", "env", env.Name, "err", err)
		rep.Status, rep.ExitCode, rep.Err = StatusPreflightFailed, runtime.ExitNotFound, err
		for _, cmd := range p.commands {
			rep.Commands = append(rep.Commands, CommandReport{Phase: string(cmd.phase), Line: cmd.line, Skipped: true})
		}
		return rep
	}

	if err := p.ensureDirs(); err != nil {
		r.logger.Error("environment setup failed", "env", env.Name, "err", err)
		rep.Status, rep.ExitCode, rep.Err = StatusSetupFailed, runtime.ExitFailure, err
		return rep
	}

	r.logger.Info("environment start", "env", env.Name, "runtime", p.mode, "dir", p.workDir)

	mainFailed, postFailed := false, false
	for _, cmd := range p.commands {
		stopped := mainFailed
		if cmd.phase == phasePost {
			stopped = postFailed
		}
		if stopped && !env.IgnoreErrors {
			rep.Commands = append(rep.Commands, CommandReport{Phase: string(cmd.phase), Line: cmd.line, Skipped: true})
			continue
		}

		cr := r.runCommand(ctx, p, cmd)
		rep.Commands = append(rep.Commands, cr)
		if cr.ExitCode.IsSuccess() || cr.Ignored {
			continue
		}

		if rep.ExitCode.IsSuccess() {
			rep.ExitCode = cr.ExitCode
		}
		if cmd.phase == phasePost {
			postFailed = true
		} else {
			mainFailed = true
		}
	}

	rep.Status = StatusPassed
	if !rep.ExitCode.IsSuccess() {
		rep.Status = StatusFailed
	}
	r.logger.Info("environment done", "env", env.Name, "status", rep.Status, "exit", rep.ExitCode)
	return rep
}

func (r *Runner) runCommand(ctx context.Context, p *plan, cmd plannedCommand) CommandReport {
	r.logger.Info(fmt.Sprintf("%s> %s", cmd.phase, cmd.line), "env", p.env.Name)

	start := r.clock.Now()
	res := r.registry.Execute(p.mode, &runtime.ExecutionContext{
		Context: ctx,
		Line:    cmd.line,
		WorkDir: p.workDir,
		Env:     p.vars,
		Stdout:  r.stdout,
		Stderr:  r.stderr,
		Stdin:   r.stdin,
	})

	cr := CommandReport{
		Phase:    string(cmd.phase),
		Line:     cmd.line,
		ExitCode: res.ExitCode,
		Duration: r.clock.Now().Sub(start),
		Error:    res.Error,
	}
	if res.ExitCode.IsSuccess() {
		return cr
	}

	if cmd.command.IgnoreExit {
		cr.Ignored = true
		r.logger.Warn("command failed, exit code ignored", "env", p.env.Name, "exit", res.ExitCode)
		return cr
	}
	if res.Error != nil {
		r.logger.Error("command failed", "env", p.env.Name, "exit", res.ExitCode, "err", res.Error)
	} else {
		r.logger.Error("command failed", "env", p.env.Name, "exit", res.ExitCode)
	}
	return cr
}
