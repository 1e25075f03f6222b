package wkhtmltox

import "errors"

// Sentinel errors for library operations.
var (
	// ErrConfiguration wraps every error raised while building a command
	// line. No process is spawned when it is returned.
	ErrConfiguration = errors.New("error configuring command-line")

	// ErrExecution wraps failures to launch or supervise the subprocess.
	// It is carried in Result.Err, never returned by Execute.
	ErrExecution = errors.New("error executing command-line")

	// Builder state errors.
	ErrMissingLogger      = errors.New("a logger instance is required")
	ErrUnsupportedRequest = errors.New("unsupported request type")

	// Executable resolution errors.
	ErrExecutableNotFound = errors.New("executable not found")
	ErrNotRegularFile     = errors.New("executable is not a regular file")
	ErrInvalidHome        = errors.New("home is not a directory")

	// Request validation errors.
	ErrNilRequest     = errors.New("request cannot be nil")
	ErrMissingInput   = errors.New("input is required")
	ErrMissingOutput  = errors.New("output is required")
	ErrStdoutOutput   = errors.New("output cannot be stdout")
	ErrMissingURL     = errors.New("URL is required")
	ErrNegativeOption = errors.New("option cannot be negative")
	ErrInvalidQuality = errors.New("invalid image quality")
	ErrInvalidEnvKey  = errors.New("invalid environment variable name")
)
