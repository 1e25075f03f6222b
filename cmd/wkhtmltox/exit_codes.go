package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	wkhtmltox "github.com/alnah/go-wkhtmltox"
	"github.com/alnah/go-wkhtmltox/internal/config"
	"github.com/alnah/go-wkhtmltox/internal/hints"
	"github.com/alnah/go-wkhtmltox/internal/pdfcheck"
)

// Exit codes for the wkhtmltox CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
// A tool that exits non-zero passes its own code through.
const (
	ExitSuccess = 0 // Successful run
	ExitGeneral = 1 // General/unexpected error, timeout, failed verification
	ExitUsage   = 2 // Invalid flags, config, or request
	ExitIO      = 3 // File not found, permission denied, output directory
	ExitTool    = 4 // Tool executable missing or failed to launch
)

// CLI sentinel errors.
var (
	ErrNoInput        = errors.New("no input specified")
	ErrNoOutput       = errors.New("no output specified (use -o)")
	ErrStdoutOutput   = errors.New("writing to stdout is not supported; use a file path")
	ErrTooManyInputs  = errors.New("too many inputs")
	ErrNotURL         = errors.New("not an http or https URL")
	ErrOutputDir      = errors.New("cannot create output directory")
	ErrToolFailed     = errors.New("tool exited with non-zero status")
	ErrBatchFailed    = errors.New("one or more jobs failed")
	ErrUnknownCommand = errors.New("unknown command")
)

// toolError reports a failed invocation of tool. Either Err is set (the
// tool could not be resolved or launched) or Code is the tool's exit code.
type toolError struct {
	Tool wkhtmltox.Tool
	Code int
	Err  error
}

func (e *toolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("%s exited with code %d", e.Tool, e.Code)
}

func (e *toolError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrToolFailed
}

// resultError converts an execution result into an error, or nil on success.
func resultError(tool wkhtmltox.Tool, result *wkhtmltox.Result) error {
	switch {
	case result.Err != nil:
		return &toolError{Tool: tool, Code: -1, Err: result.Err}
	case result.ExitCode != 0:
		return &toolError{Tool: tool, Code: result.ExitCode}
	default:
		return nil
	}
}

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Tool exit codes pass through
	var te *toolError
	if errors.As(err, &te) && te.Err == nil && te.Code > 0 {
		return te.Code
	}

	// Timeout and interruption (exit 1)
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, ErrBatchFailed) {
		return ExitGeneral
	}

	// Tool errors (exit 4)
	if errors.Is(err, wkhtmltox.ErrExecutableNotFound) ||
		errors.Is(err, wkhtmltox.ErrNotRegularFile) ||
		errors.Is(err, wkhtmltox.ErrInvalidHome) ||
		errors.Is(err, wkhtmltox.ErrExecution) {
		return ExitTool
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrOutputDir) ||
		errors.Is(err, pdfcheck.ErrNotPDF) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, wkhtmltox.ErrConfiguration) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidJob) ||
		errors.Is(err, config.ErrNoJobs) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, ErrInvalidFlags) ||
		errors.Is(err, ErrInvalidEnvFlag) ||
		errors.Is(err, ErrInvalidEnvConfig) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrNoOutput) ||
		errors.Is(err, ErrStdoutOutput) ||
		errors.Is(err, ErrTooManyInputs) ||
		errors.Is(err, ErrNotURL) ||
		errors.Is(err, ErrUnknownCommand) {
		return ExitUsage
	}

	return ExitGeneral
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error) string {
	var te *toolError
	hasTool := errors.As(err, &te)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, wkhtmltox.ErrExecutableNotFound) && hasTool:
		return hints.ForExecutableNotFound(te.Tool.String(), te.Tool.HomeEnv())
	case errors.Is(err, wkhtmltox.ErrExecution) && !errors.Is(err, context.Canceled):
		return hints.ForLaunchFailure()
	case errors.Is(err, ErrToolFailed) && hasTool:
		return hints.ForToolFailure(te.Tool.String())
	case errors.Is(err, ErrOutputDir):
		return hints.ForOutputDirectory()
	default:
		return ""
	}
}
