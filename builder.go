package wkhtmltox

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
)

// CommandLine is a fully resolved subprocess invocation.
type CommandLine struct {
	Executable string
	Args       []string
	Env        map[string]string
	Dir        string // empty = current directory
}

// Argv returns the executable followed by its arguments.
func (c *CommandLine) Argv() []string {
	return append([]string{c.Executable}, c.Args...)
}

// Environ returns the environment as sorted KEY=VALUE pairs.
func (c *CommandLine) Environ() []string {
	keys := make([]string, 0, len(c.Env))
	for k := range c.Env {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+c.Env[k])
	}
	return out
}

// String renders the command for logs. Tokens that a POSIX shell would
// interpret are single-quoted, so the output can be pasted into sh.
func (c *CommandLine) String() string {
	argv := c.Argv()
	quoted := make([]string, len(argv))
	for i, tok := range argv {
		quoted[i] = shellQuote(tok)
	}
	return strings.Join(quoted, " ")
}

// shellMeta lists the bytes that are not safe unquoted in sh.
const shellMeta = " \t\n\"'\\$`!*?[]{}()<>|&;#~"

func shellQuote(tok string) string {
	if tok != "" && !strings.ContainsAny(tok, shellMeta) {
		return tok
	}
	return "'" + strings.ReplaceAll(tok, "'", `'\''`) + "'"
}

// CommandLineBuilder turns requests into command lines.
// The zero value is not usable: Logger is required. Use NewCommandLineBuilder.
type CommandLineBuilder struct {
	// Home is the tool installation directory. Overrides Options.Home and
	// the tool's home environment variable.
	Home string

	// Executable overrides the tool's default file name. Relative values
	// are resolved under the home directory.
	Executable string

	// WorkingDir is the subprocess working directory.
	WorkingDir string

	// ShellEnv is the environment inherited by the subprocess, as KEY=VALUE
	// pairs. It is also where the tool home variable is looked up.
	// Nil uses os.Environ().
	ShellEnv []string

	Logger *slog.Logger

	// test hooks; zero values use the runtime
	goosName   string
	lookPathFn func(file string) (string, error)
}

// NewCommandLineBuilder creates a builder with the given logger.
func NewCommandLineBuilder(logger *slog.Logger) *CommandLineBuilder {
	return &CommandLineBuilder{Logger: logger}
}

// Build validates req, locates the executable and assembles arguments and
// environment. Every error wraps ErrConfiguration.
func (b *CommandLineBuilder) Build(req Request) (*CommandLine, error) {
	cli, err := b.build(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return cli, nil
}

func (b *CommandLineBuilder) build(req Request) (*CommandLine, error) {
	if b.Logger == nil {
		return nil, ErrMissingLogger
	}
	if req == nil {
		return nil, ErrNilRequest
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	shellEnv := parseEnviron(b.environ())
	tool := req.Tool()
	opts := req.options()

	home, err := b.resolveHome(tool, opts, shellEnv)
	if err != nil {
		return nil, err
	}
	b.Logger.Debug("resolved tool home", "tool", tool.String(), "home", home)

	executable, err := b.findExecutable(tool, home)
	if err != nil {
		return nil, err
	}

	args, err := b.arguments(req)
	if err != nil {
		return nil, err
	}

	return &CommandLine{
		Executable: executable,
		Args:       args,
		Env:        buildEnv(tool, home, opts, shellEnv),
		Dir:        b.WorkingDir,
	}, nil
}

// resolveHome returns the absolute home directory, or "" when none is set.
// Priority: builder Home > request Home > tool home environment variable.
func (b *CommandLineBuilder) resolveHome(tool Tool, opts *Options, shellEnv map[string]string) (string, error) {
	home := b.Home
	if home == "" {
		home = opts.Home
	}
	if home == "" {
		home = shellEnv[tool.HomeEnv()]
	}
	if home == "" {
		return "", nil
	}

	info, err := os.Stat(home)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %q", ErrInvalidHome, home)
	}
	abs, err := filepath.Abs(home)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidHome, home, err)
	}
	return abs, nil
}

// findExecutable resolves the tool binary and checks it is a regular file.
func (b *CommandLineBuilder) findExecutable(tool Tool, home string) (string, error) {
	name := b.Executable
	if name == "" {
		name = tool.Executable(b.goos())
	}

	var candidates []string
	switch {
	case filepath.IsAbs(name):
		candidates = []string{name}
	case home != "":
		candidates = []string{filepath.Join(home, name), filepath.Join(home, "bin", name)}
	case strings.ContainsAny(name, `/\`):
		candidates = []string{name}
	default:
		path, err := b.lookPath(name)
		if err != nil {
			return "", fmt.Errorf("%w: %s not in PATH and %s not set", ErrExecutableNotFound, name, tool.HomeEnv())
		}
		candidates = []string{path}
	}

	var notRegular string
	for _, c := range candidates {
		c = b.canonicalPath(c, "executable")
		info, err := os.Stat(c)
		if err != nil {
			continue
		}
		if !info.Mode().IsRegular() {
			notRegular = c
			continue
		}
		return c, nil
	}

	if notRegular != "" {
		return "", fmt.Errorf("%w: %s", ErrNotRegularFile, notRegular)
	}
	return "", fmt.Errorf("%w: tried %s", ErrExecutableNotFound, strings.Join(candidates, ", "))
}

// canonicalPath makes p absolute and resolves symlinks. Failures are
// logged and the best available form is returned.
func (b *CommandLineBuilder) canonicalPath(p, what string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		b.Logger.Debug("failed to make path absolute", "what", what, "path", p, "error", err)
		return p
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			b.Logger.Debug("failed to canonicalize path, using as-is", "what", what, "path", abs, "error", err)
		}
		return abs
	}
	return resolved
}

func (b *CommandLineBuilder) goos() string {
	if b.goosName != "" {
		return b.goosName
	}
	return runtime.GOOS
}

func (b *CommandLineBuilder) environ() []string {
	if b.ShellEnv != nil {
		return b.ShellEnv
	}
	return os.Environ()
}

func (b *CommandLineBuilder) lookPath(file string) (string, error) {
	if b.lookPathFn != nil {
		return b.lookPathFn(file)
	}
	return exec.LookPath(file)
}

// buildEnv layers shell environment, home variable and overrides, in
// increasing order of precedence.
func buildEnv(tool Tool, home string, opts *Options, shellEnv map[string]string) map[string]string {
	env := make(map[string]string, len(shellEnv)+len(opts.Env)+1)
	if !opts.NoShellEnv {
		for k, v := range shellEnv {
			env[k] = v
		}
	}
	if home != "" {
		env[tool.HomeEnv()] = home
	}
	for k, v := range opts.Env {
		env[k] = v
	}
	return env
}

// parseEnviron converts KEY=VALUE pairs to a map. Windows per-drive
// entries ("=C:=C:\") have an empty key and are skipped.
func parseEnviron(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = v
	}
	return env
}
