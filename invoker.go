package wkhtmltox

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/alnah/go-wkhtmltox/internal/process"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Invoker builds and runs tool command lines.
// An Invoker holds no per-invocation state and is safe for concurrent use.
type Invoker struct {
	home       string
	executable string
	workingDir string
	logger     *slog.Logger
	stdout     OutputHandler
	stderr     OutputHandler

	// test hooks
	environ  func() []string
	lookPath func(string) (string, error)
	now      func() time.Time
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithHome sets the tool installation directory.
func WithHome(dir string) Option {
	return func(inv *Invoker) { inv.home = dir }
}

// WithExecutable overrides the executable file name or path.
func WithExecutable(path string) Option {
	return func(inv *Invoker) { inv.executable = path }
}

// WithWorkingDir sets the subprocess working directory.
func WithWorkingDir(dir string) Option {
	return func(inv *Invoker) { inv.workingDir = dir }
}

// WithLogger sets the logger. A nil logger keeps the default.
func WithLogger(logger *slog.Logger) Option {
	return func(inv *Invoker) {
		if logger != nil {
			inv.logger = logger
		}
	}
}

// WithOutputHandler sets the default stdout handler. Nil discards output.
func WithOutputHandler(h OutputHandler) Option {
	return func(inv *Invoker) { inv.stdout = h }
}

// WithErrorHandler sets the default stderr handler. Nil discards output.
func WithErrorHandler(h OutputHandler) Option {
	return func(inv *Invoker) { inv.stderr = h }
}

// NewInvoker creates an Invoker. By default tool output is copied to the
// console and log records go to stderr at info level.
func NewInvoker(opts ...Option) *Invoker {
	inv := &Invoker{
		logger: slog.New(slog.NewTextHandler(os.Stderr, nil)),
		stdout: WriterHandler(os.Stdout),
		stderr: WriterHandler(os.Stderr),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Builder returns a CommandLineBuilder carrying the invoker's settings.
func (inv *Invoker) Builder() *CommandLineBuilder {
	b := &CommandLineBuilder{
		Home:       inv.home,
		Executable: inv.executable,
		WorkingDir: inv.workingDir,
		Logger:     inv.logger,
		lookPathFn: inv.lookPath,
	}
	if inv.environ != nil {
		b.ShellEnv = inv.environ()
	}
	return b
}

// Execute runs req and blocks until the tool exits.
//
// Configuration errors (wrapping ErrConfiguration) are returned before any
// process is spawned. Launch failures and cancellation are reported in
// Result.Err; the returned error is then nil.
func (inv *Invoker) Execute(ctx context.Context, req Request) (*Result, error) {
	cli, err := inv.Builder().Build(req)
	if err != nil {
		return nil, err
	}

	opts := req.options()
	stdout := pickHandler(opts.OutputHandler, inv.stdout)
	stderr := pickHandler(opts.ErrorHandler, inv.stderr)

	result := &Result{
		ID:       uuid.NewString(),
		Command:  cli.Argv(),
		ExitCode: -1,
	}
	log := inv.logger.With("invocation_id", result.ID, "tool", req.Tool().String())
	log.Debug("executing", "command", cli.String(), "dir", cli.Dir)

	start := inv.now()
	code, runErr := run(ctx, cli, opts.Stdin, stdout, stderr)
	result.Duration = inv.now().Sub(start)

	if runErr != nil {
		result.Err = fmt.Errorf("%w: %w", ErrExecution, runErr)
		log.Error("execution failed", "error", runErr, "duration", result.Duration)
		return result, nil
	}

	result.ExitCode = code
	if code != 0 {
		log.Warn("tool reported failure", "exit_code", code, "duration", result.Duration)
	} else {
		log.Info("completed", "exit_code", code, "duration", result.Duration)
	}
	return result, nil
}

func pickHandler(requested, fallback OutputHandler) OutputHandler {
	if requested != nil {
		return requested
	}
	if fallback != nil {
		return fallback
	}
	return DiscardHandler
}

// run spawns cli and forwards its output line by line. Both pipes are
// drained concurrently so a full pipe buffer cannot block the tool.
func run(ctx context.Context, cli *CommandLine, stdin io.Reader, stdout, stderr OutputHandler) (int, error) {
	cmd := exec.CommandContext(ctx, cli.Executable, cli.Args...)
	cmd.Env = cli.Environ()
	cmd.Dir = cli.Dir
	cmd.Stdin = stdin
	process.Isolate(cmd)

	outPipe, err := cmd.StdoutPipe()
	if err != nil {
		return -1, fmt.Errorf("creating stdout pipe: %w", err)
	}
	errPipe, err := cmd.StderrPipe()
	if err != nil {
		return -1, fmt.Errorf("creating stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return -1, fmt.Errorf("starting %s: %w", cli.Executable, err)
	}

	var g errgroup.Group
	g.Go(func() error { return forwardLines(outPipe, stdout) })
	g.Go(func() error { return forwardLines(errPipe, stderr) })
	drainErr := g.Wait()

	waitErr := cmd.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return -1, ctxErr
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) && exitErr.ExitCode() >= 0 {
			return exitErr.ExitCode(), nil
		}
		return -1, waitErr
	}
	if drainErr != nil {
		return -1, fmt.Errorf("reading output: %w", drainErr)
	}
	return 0, nil
}

// forwardLines calls h for every line read from r. A final line without
// a newline is forwarded too.
func forwardLines(r io.Reader, h OutputHandler) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			h(strings.TrimRight(line, "\r\n"))
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				return nil
			}
			return err
		}
	}
}
