// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"envrun-cli/internal/config"
	"envrun-cli/internal/container"
	"envrun-cli/internal/runner"
	"envrun-cli/pkg/envfile"

	"github.com/charmbracelet/log"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root of the CLI layer; every Cobra handler receives an App reference.
	App struct {
		Config config.Provider
		stdin  io.Reader
		stdout io.Writer
		stderr io.Writer
		dir    string
		extra  []runner.Option

		flags  globalFlags
		cfg    *config.Config
		logger *log.Logger
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
		// Dir is where the environment file search starts. Defaults to the
		// process working directory.
		Dir string
		// RunnerOptions are appended to the options every Runner is built with.
		RunnerOptions []runner.Option
	}

	// globalFlags holds the persistent flags of the root command.
	globalFlags struct {
		verbose    bool
		configPath string
		envFile    string
		workDir    string
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		deps.Dir = wd
	}

	return &App{
		Config: deps.Config,
		stdin:  deps.Stdin,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
		dir:    deps.Dir,
		extra:  deps.RunnerOptions,
		cfg:    config.DefaultConfig(),
		logger: newLogger(deps.Stderr, false),
	}, nil
}

func newLogger(w io.Writer, verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{Prefix: "envrun", Level: level})
}

func (a *App) loadOptions() config.LoadOptions {
	return config.LoadOptions{ConfigFilePath: a.flags.configPath}
}

// loadConfig loads the user configuration and applies it to the App.
// The verbose flag wins over ui.verbose.
func (a *App) loadConfig(ctx context.Context) error {
	cfg, err := a.Config.Load(ctx, a.loadOptions())
	if err != nil {
		return err
	}
	a.cfg = cfg
	if !a.flags.verbose {
		a.flags.verbose = cfg.UI.Verbose
	}
	a.logger = newLogger(a.stderr, a.flags.verbose)
	a.logger.Debug("configuration loaded", "default_runtime", cfg.DefaultRuntime, "container_engine", cfg.ContainerEngine)
	return nil
}

// glamourStyle is the issue-rendering style for the configured color scheme.
func (a *App) glamourStyle() string {
	return a.cfg.UI.ColorScheme.GlamourStyle()
}

// envFilePath resolves the environment file: --file, then the configured
// env_file name searched upwards, then tox.ini/envrun.toml searched upwards.
func (a *App) envFilePath() (string, error) {
	if a.flags.envFile != "" {
		if filepath.IsAbs(a.flags.envFile) {
			return a.flags.envFile, nil
		}
		return filepath.Join(a.dir, a.flags.envFile), nil
	}
	if a.cfg.EnvFile != "" {
		return envfile.FindNamed(a.dir, a.cfg.EnvFile.String())
	}
	return envfile.Find(a.dir)
}

// loadEnvFile locates, parses and validates the environment file.
func (a *App) loadEnvFile() (*envfile.File, error) {
	path, err := a.envFilePath()
	if err != nil {
		return nil, err
	}
	a.logger.Debug("loading environment file", "path", path)
	return envfile.Load(path)
}

// newRunner builds a Runner for file from the configuration and flags.
func (a *App) newRunner(file *envfile.File, opts ...runner.Option) *runner.Runner {
	base := []runner.Option{
		runner.WithLogger(a.logger),
		runner.WithStdio(a.stdin, a.stdout, a.stderr),
		runner.WithDefaultRuntime(envfile.RuntimeMode(a.cfg.DefaultRuntime)),
		runner.WithEngineProbe(runner.DefaultEngineProbe(container.EngineType(a.cfg.ContainerEngine))),
	}
	if a.flags.workDir != "" {
		workDir := a.flags.workDir
		if !filepath.IsAbs(workDir) {
			workDir = filepath.Join(a.dir, workDir)
		}
		base = append(base, runner.WithWorkRoot(workDir))
	}
	base = append(base, opts...)
	return runner.New(file, append(base, a.extra...)...)
}
