// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"envrun-cli/internal/container"
	"envrun-cli/internal/runtime"
	"envrun-cli/pkg/envfile"

	"github.com/charmbracelet/log"
)

// DefaultWorkDirName is the per-project directory holding environment dirs.
const DefaultWorkDirName = ".envrun"

type (
	// Clock supplies timestamps for command durations.
	Clock interface {
		Now() time.Time
	}

	// LookPathFunc resolves a program name against the PATH of env.
	LookPathFunc func(name, workDir string, env map[string]string) (string, error)

	// Runner executes environments of one environment file.
	Runner struct {
		file            *envfile.File
		registry        *runtime.Registry
		envBuilder      runtime.EnvBuilder
		engineProbe     EngineProbe
		lookPath        LookPathFunc
		logger          *log.Logger
		clock           Clock
		stdin           io.Reader
		stdout          io.Writer
		stderr          io.Writer
		posArgs         []string
		workRoot        string
		defaultRuntime  envfile.RuntimeMode
		runtimeOverride envfile.RuntimeMode
		failFast        bool
	}

	// Option configures a Runner.
	Option func(*Runner)

	systemClock struct{}
)

func (systemClock) Now() time.Time { return time.Now() }

// New creates a Runner for file. Without options it runs natively, probes
// container engines with the docker/podman CLIs, logs to stderr and keeps
// environment directories under <file dir>/.envrun.
func New(file *envfile.File, opts ...Option) *Runner {
	r := &Runner{
		file:           file,
		envBuilder:     runtime.NewDefaultEnvBuilder(),
		engineProbe:    DefaultEngineProbe(container.EngineTypeDocker),
		lookPath:       runtime.ResolveProgram,
		logger:         log.NewWithOptions(os.Stderr, log.Options{Prefix: "envrun"}),
		clock:          systemClock{},
		stdin:          os.Stdin,
		stdout:         os.Stdout,
		stderr:         os.Stderr,
		defaultRuntime: envfile.RuntimeNative,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.registry == nil {
		reg, err := runtime.BuildRegistry(r.defaultRuntime)
		if err != nil {
			r.logger.Warn("ignoring default runtime", "err", err)
			reg, _ = runtime.BuildRegistry(envfile.RuntimeNative)
		}
		r.registry = reg
	}
	if r.workRoot == "" {
		r.workRoot = filepath.Join(r.projectDir(), DefaultWorkDirName)
	}
	return r
}

// WithRegistry sets the runtime registry.
func WithRegistry(reg *runtime.Registry) Option {
	return func(r *Runner) { r.registry = reg }
}

// WithEnvBuilder sets how process environments are assembled.
func WithEnvBuilder(b runtime.EnvBuilder) Option {
	return func(r *Runner) { r.envBuilder = b }
}

// WithEngineProbe sets the container engine health check used by preflight.
func WithEngineProbe(p EngineProbe) Option {
	return func(r *Runner) { r.engineProbe = p }
}

// WithLookPath sets how allowlisted externals are resolved.
func WithLookPath(fn LookPathFunc) Option {
	return func(r *Runner) { r.lookPath = fn }
}

// WithLogger sets the logger. Commands' own output never goes through it.
func WithLogger(l *log.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithClock sets the clock used to time commands.
func WithClock(c Clock) Option {
	return func(r *Runner) { r.clock = c }
}

// WithStdio sets the streams commands read from and write to.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		r.stdin = stdin
		r.stdout = stdout
		r.stderr = stderr
	}
}

// WithPosArgs sets the arguments substituted for {posargs}.
func WithPosArgs(args []string) Option {
	return func(r *Runner) { r.posArgs = args }
}

// WithWorkRoot sets the directory holding environment directories.
func WithWorkRoot(dir string) Option {
	return func(r *Runner) { r.workRoot = dir }
}

// WithDefaultRuntime sets the runtime of environments that do not choose one.
func WithDefaultRuntime(mode envfile.RuntimeMode) Option {
	return func(r *Runner) {
		if mode != envfile.RuntimeDefault {
			r.defaultRuntime = mode
		}
	}
}

// WithRuntimeOverride forces every environment onto mode.
func WithRuntimeOverride(mode envfile.RuntimeMode) Option {
	return func(r *Runner) { r.runtimeOverride = mode }
}

// WithFailFast skips the remaining environments after the first failure.
func WithFailFast(enabled bool) Option {
	return func(r *Runner) { r.failFast = enabled }
}

// WorkRoot returns the directory holding environment directories.
func (r *Runner) WorkRoot() string { return r.workRoot }

func (r *Runner) projectDir() string {
	dir, err := filepath.Abs(r.file.Dir())
	if err != nil {
		return r.file.Dir()
	}
	return dir
}

// resolveRuntime applies runtime-selection precedence:
//  1. CLI override
//  2. the environment's runtime setting
//  3. the configured default
func (r *Runner) resolveRuntime(env *envfile.Environment) envfile.RuntimeMode {
	if r.runtimeOverride != envfile.RuntimeDefault {
		return r.runtimeOverride
	}
	if env.Runtime != envfile.RuntimeDefault {
		return env.Runtime
	}
	return r.defaultRuntime
}
