package wkhtmltox

import "time"

// Result is the outcome of one invocation.
//
// Exactly one of ExitCode and Err is meaningful: when Err is set the
// process could not be launched (or was interrupted) and ExitCode is -1.
// Always check Err before trusting ExitCode.
type Result struct {
	ID       string   // unique invocation id, also present in log records
	Command  []string // executable and arguments
	ExitCode int
	Err      error
	Duration time.Duration
}

// Success reports whether the tool ran and exited with code 0.
func (r *Result) Success() bool {
	return r != nil && r.Err == nil && r.ExitCode == 0
}
