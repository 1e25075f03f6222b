package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// envPrefix namespaces the CLI's environment variables.
const envPrefix = "WKHTMLTOX_"

// ErrInvalidEnvConfig wraps malformed WKHTMLTOX_* values.
var ErrInvalidEnvConfig = errors.New("invalid environment configuration")

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string        `env:"CONFIG"`       // config file path or name
	Home       string        `env:"HOME"`         // tool installation directory
	WorkingDir string        `env:"WORKING_DIR"`  // subprocess working directory
	Timeout    time.Duration `env:"TIMEOUT"`      // per-invocation timeout
	Workers    int           `env:"WORKERS"`      // batch concurrency
	Verbose    bool          `env:"VERBOSE"`      // debug logs and tool verbosity
	NoShellEnv bool          `env:"NO_SHELL_ENV"` // do not inherit the shell environment
}

// knownEnvVars lists valid WKHTMLTOX_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"WKHTMLTOX_CONFIG":       true,
	"WKHTMLTOX_HOME":         true,
	"WKHTMLTOX_WORKING_DIR":  true,
	"WKHTMLTOX_TIMEOUT":      true,
	"WKHTMLTOX_WORKERS":      true,
	"WKHTMLTOX_VERBOSE":      true,
	"WKHTMLTOX_NO_SHELL_ENV": true,
	"WKHTMLTOX_CONTAINER":    true, // doctor only
}

// loadEnvConfig reads WKHTMLTOX_* variables from environ.
func loadEnvConfig(environ []string) (*envConfig, error) {
	var cfg envConfig
	err := env.ParseWithOptions(&cfg, env.Options{
		Prefix:      envPrefix,
		Environment: env.ToMap(environ),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvConfig, err)
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("%w: %sTIMEOUT cannot be negative", ErrInvalidEnvConfig, envPrefix)
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("%w: %sWORKERS cannot be negative", ErrInvalidEnvConfig, envPrefix)
	}
	return &cfg, nil
}

// warnUnknownEnvVars logs warnings for unrecognized WKHTMLTOX_* variables.
// Helps catch typos like WKHTMLTOX_TIMOUT.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, kv := range environ {
		if !strings.HasPrefix(kv, envPrefix) {
			continue
		}
		name, _, _ := strings.Cut(kv, "=")
		if !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}
