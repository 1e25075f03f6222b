// Package process supervises tool subprocesses: process-group isolation
// and tree kill on cancellation.
package process

import "time"

// waitDelay bounds how long Wait keeps draining I/O after the process was
// killed.
const waitDelay = 5 * time.Second
