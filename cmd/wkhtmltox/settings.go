package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"strings"
	"time"

	wkhtmltox "github.com/alnah/go-wkhtmltox"
	"github.com/alnah/go-wkhtmltox/internal/config"
	"github.com/alnah/go-wkhtmltox/internal/fileutil"
	"github.com/alnah/go-wkhtmltox/internal/hints"
)

// ErrInvalidEnvFlag is returned for --env values without '='.
var ErrInvalidEnvFlag = errors.New("invalid --env value (want KEY=VALUE)")

// settings is the merged configuration of one command run.
// Priority: CLI flags > WKHTMLTOX_* variables > config file > defaults.
type settings struct {
	cfg        *config.Config
	home       string // overrides the configured homes for every tool
	workingDir string
	timeout    time.Duration // 0 = none
	workers    int           // 0 = auto
	flagEnv    map[string]string
	extra      []string
	inheritEnv bool
	verbose    bool
	quiet      bool
	logger     *slog.Logger

	// Tool output, shared by concurrent jobs.
	stdout wkhtmltox.OutputHandler
	stderr wkhtmltox.OutputHandler
}

// resolveSettings merges flags, environment variables and the config file.
func resolveSettings(env *Environment, f *commonFlags) (*settings, error) {
	ec, err := loadEnvConfig(env.Environ())
	if err != nil {
		return nil, err
	}

	name := f.config
	if name == "" {
		name = ec.ConfigPath
	}
	cfg, err := loadConfig(env, name)
	if err != nil {
		return nil, err
	}

	s := &settings{
		cfg:        cfg,
		workingDir: cfg.WorkingDir,
		timeout:    cfg.Timeout.Std(),
		workers:    cfg.Workers,
		inheritEnv: cfg.ShouldInheritEnv(),
		extra:      f.extra,
		quiet:      f.quiet,
	}

	// Environment variables
	if ec.Home != "" {
		s.home = ec.Home
	}
	if ec.WorkingDir != "" {
		s.workingDir = ec.WorkingDir
	}
	if ec.Timeout > 0 {
		s.timeout = ec.Timeout
	}
	if ec.Workers > 0 {
		s.workers = ec.Workers
	}
	if ec.NoShellEnv {
		s.inheritEnv = false
	}
	s.verbose = ec.Verbose && !f.quiet

	// Flags
	if f.home != "" {
		s.home = f.home
	}
	if f.workingDir != "" {
		s.workingDir = f.workingDir
	}
	if f.timeoutSet {
		s.timeout = f.timeout
	}
	if f.noShellEnv {
		s.inheritEnv = false
	}
	if f.verbose {
		s.verbose = true
	}

	s.flagEnv, err = parseEnvFlags(f.env)
	if err != nil {
		return nil, err
	}
	s.logger, err = newLogger(env.Stderr, f.logFormat, logLevel(s.verbose, s.quiet))
	if err != nil {
		return nil, err
	}

	s.stdout, s.stderr = wkhtmltox.DiscardHandler, wkhtmltox.DiscardHandler
	if !s.quiet {
		s.stdout = wkhtmltox.WriterHandler(env.Stdout)
		s.stderr = wkhtmltox.WriterHandler(env.Stderr)
	}
	return s, nil
}

// loadConfig loads the named config. An empty name falls back to the
// environment's implicit config, which may be absent.
func loadConfig(env *Environment, name string) (*config.Config, error) {
	if name == "" {
		if env.ConfigName == "" {
			return config.DefaultConfig(), nil
		}
		cfg, err := config.LoadConfig(env.ConfigName)
		if errors.Is(err, config.ErrConfigNotFound) {
			return config.DefaultConfig(), nil
		}
		return cfg, err
	}

	cfg, err := config.LoadConfig(name)
	if errors.Is(err, config.ErrConfigNotFound) {
		var searched []string
		if !strings.ContainsAny(name, `/\`) {
			searched = config.SearchPaths(name)
		}
		return nil, fmt.Errorf("%w%s", err, hints.ForConfigNotFound(searched))
	}
	return cfg, err
}

// parseEnvFlags turns repeated KEY=VALUE flags into a map. Later values win.
func parseEnvFlags(values []string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for _, kv := range values {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidEnvFlag, kv)
		}
		out[k] = v
	}
	return out, nil
}

// homeFor returns the installation directory for tool, or "" to let the
// library consult the tool's home variable and PATH.
func (s *settings) homeFor(tool wkhtmltox.Tool) string {
	if s.home != "" {
		return s.home
	}
	if tool == wkhtmltox.ToolMirror {
		return s.cfg.Homes.Calibre
	}
	return s.cfg.Homes.Wkhtmltopdf
}

// resolvePath interprets a relative path the way the tool does, against
// the working directory. The result is absolute when a working directory
// is set. "" and "-" are returned unchanged.
func (s *settings) resolvePath(p string) string {
	if p == "" || p == fileutil.Stdio || filepath.IsAbs(p) || s.workingDir == "" {
		return p
	}
	joined := filepath.Join(s.workingDir, p)
	if abs, err := filepath.Abs(joined); err == nil {
		return abs
	}
	return joined
}

// apply copies the run-wide settings and the job's own settings into opts.
// Environment layers: config env < job env < --env flags.
func (s *settings) apply(opts *wkhtmltox.Options, job *config.CommonJob) {
	merged := make(map[string]string)
	maps.Copy(merged, s.cfg.Env)
	if job != nil {
		maps.Copy(merged, job.Env)
	}
	maps.Copy(merged, s.flagEnv)
	if len(merged) > 0 {
		opts.Env = merged
	}

	opts.NoShellEnv = !s.inheritEnv
	opts.Verbose = s.verbose
	if job != nil {
		opts.Verbose = opts.Verbose || job.Verbose
		opts.ExtraArgs = append(opts.ExtraArgs, job.ExtraArgs...)
	}
	opts.ExtraArgs = append(opts.ExtraArgs, s.extra...)
}

// executor creates an executor for tool. Per-request handlers take
// precedence over the run-wide ones.
func (s *settings) executor(env *Environment, tool wkhtmltox.Tool) Executor {
	return env.NewExecutor(
		wkhtmltox.WithHome(s.homeFor(tool)),
		wkhtmltox.WithWorkingDir(s.workingDir),
		wkhtmltox.WithLogger(s.logger),
		wkhtmltox.WithOutputHandler(s.stdout),
		wkhtmltox.WithErrorHandler(s.stderr),
	)
}

// withTimeout bounds ctx by the configured timeout, if any.
func (s *settings) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}
