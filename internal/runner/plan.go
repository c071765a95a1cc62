// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"envrun-cli/internal/runtime"
	"envrun-cli/pkg/envfile"
)

// ErrSetup is the sentinel error wrapped by SetupError.
var ErrSetup = errors.New("environment setup failed")

type (
	// SetupError is returned when an environment cannot be prepared: a
	// substitution is malformed, a dotenv file is missing, or changedir does
	// not exist.
	SetupError struct {
		Env envfile.EnvName
		Err error
	}

	// phase names a command list of an environment.
	phase string

	// plannedCommand is a command with its substitutions applied.
	plannedCommand struct {
		phase   phase
		index   int
		command envfile.Command
		line    string
	}

	// plan is everything needed to preflight and run one environment.
	plan struct {
		env      *envfile.Environment
		mode     envfile.RuntimeMode
		envDir   string
		tmpDir   string
		workDir  string
		vars     map[string]string
		commands []plannedCommand
	}
)

const (
	phasePre  phase = "commands_pre"
	phaseMain phase = "commands"
	phasePost phase = "commands_post"
)

func (e *SetupError) Error() string {
	return fmt.Sprintf("%s: %v", e.Env, e.Err)
}

func (e *SetupError) Unwrap() []error { return []error{ErrSetup, e.Err} }

// prepare substitutes every setting of env and builds its process environment.
func (r *Runner) prepare(env *envfile.Environment) (*plan, error) {
	p := &plan{
		env:    env,
		mode:   r.resolveRuntime(env),
		envDir: filepath.Join(r.workRoot, string(env.Name)),
	}
	p.tmpDir = filepath.Join(p.envDir, "tmp")

	subst := envfile.SubstitutionVars{
		PosArgs:    r.posArgs,
		ToxIniDir:  r.projectDir(),
		ToxWorkDir: r.workRoot,
		EnvName:    env.Name,
		EnvDir:     p.envDir,
		EnvTmpDir:  p.tmpDir,
	}

	fail := func(err error) (*plan, error) {
		return nil, &SetupError{Env: env.Name, Err: err}
	}

	setEnv := make(map[string]string, len(env.SetEnv))
	for key, value := range env.SetEnv {
		expanded, err := envfile.Expand(value, subst)
		if err != nil {
			return fail(fmt.Errorf("setenv %s: %w", key, err))
		}
		setEnv[key] = expanded
	}
	envFiles := make([]string, len(env.SetEnvFiles))
	for i, path := range env.SetEnvFiles {
		expanded, err := envfile.Expand(path, subst)
		if err != nil {
			return fail(fmt.Errorf("setenv file %s: %w", path, err))
		}
		envFiles[i] = expanded
	}

	vars, err := r.envBuilder.Build(runtime.EnvOptions{
		Name:        string(env.Name),
		Dir:         p.envDir,
		BaseDir:     r.projectDir(),
		PassEnv:     env.PassEnv,
		SetEnvFiles: envFiles,
		SetEnv:      setEnv,
	})
	if err != nil {
		return fail(err)
	}
	p.vars = vars

	p.workDir = r.projectDir()
	if env.ChangeDir != "" {
		dir, err := envfile.Expand(env.ChangeDir, subst)
		if err != nil {
			return fail(fmt.Errorf("changedir: %w", err))
		}
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(r.projectDir(), dir)
		}
		if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
			return fail(fmt.Errorf("changedir %s does not exist", dir))
		}
		p.workDir = dir
	}

	// {env:KEY} inside commands sees the environment the command will get.
	subst.LookupEnv = func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
	for _, group := range []struct {
		phase    phase
		commands []envfile.Command
	}{
		{phasePre, env.CommandsPre},
		{phaseMain, env.Commands},
		{phasePost, env.CommandsPost},
	} {
		for i, cmd := range group.commands {
			line, err := envfile.ExpandCommand(cmd, subst)
			if err != nil {
				return fail(fmt.Errorf("%s[%d]: %w", group.phase, i, err))
			}
			p.commands = append(p.commands, plannedCommand{phase: group.phase, index: i, command: cmd, line: line})
		}
	}

	return p, nil
}

// ensureDirs creates the environment directory and a fresh envtmpdir.
func (p *plan) ensureDirs() error {
	if err := os.RemoveAll(p.tmpDir); err != nil {
		return fmt.Errorf("failed to clean %s: %w", p.tmpDir, err)
	}
	if err := os.MkdirAll(p.tmpDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", p.tmpDir, err)
	}
	return nil
}
