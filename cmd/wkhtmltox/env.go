package main

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	wkhtmltox "github.com/alnah/go-wkhtmltox"
)

// defaultConfigName is loaded implicitly when no --config is given.
const defaultConfigName = "wkhtmltox"

// Executor runs a tool request. Satisfied by *wkhtmltox.Invoker.
type Executor interface {
	Execute(ctx context.Context, req wkhtmltox.Request) (*wkhtmltox.Result, error)
}

var _ Executor = (*wkhtmltox.Invoker)(nil)

// Environment holds injectable dependencies for testability.
// Includes I/O, time, process environment, and the tool executor.
type Environment struct {
	Now     func() time.Time
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Environ func() []string

	// ConfigName is loaded silently when present. Empty disables the lookup.
	ConfigName string

	// NewExecutor creates the executor for one command run.
	NewExecutor func(opts ...wkhtmltox.Option) Executor
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:        time.Now,
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Environ:    os.Environ,
		ConfigName: defaultConfigName,
		NewExecutor: func(opts ...wkhtmltox.Option) Executor {
			return wkhtmltox.NewInvoker(opts...)
		},
	}
}

// getenv looks up key in the environment snapshot.
func (e *Environment) getenv(key string) string {
	for _, kv := range e.Environ() {
		if v, ok := strings.CutPrefix(kv, key+"="); ok {
			return v
		}
	}
	return ""
}
