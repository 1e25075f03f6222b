package wkhtmltox

import (
	"fmt"
	"io"
	"sync"
)

// OutputHandler consumes one line of subprocess output, without the
// trailing newline. Calls for a single stream are sequential.
type OutputHandler func(line string)

// WriterHandler returns a handler that writes each line to w.
// Writes through the returned handler are serialized.
func WriterHandler(w io.Writer) OutputHandler {
	var mu sync.Mutex
	return func(line string) {
		mu.Lock()
		defer mu.Unlock()
		_, _ = fmt.Fprintln(w, line)
	}
}

// DiscardHandler drops every line.
func DiscardHandler(string) {}

// LineBuffer collects lines in memory. Safe for concurrent use.
type LineBuffer struct {
	mu    sync.Mutex
	lines []string
}

// Handler returns an OutputHandler appending to the buffer.
func (b *LineBuffer) Handler() OutputHandler {
	return func(line string) {
		b.mu.Lock()
		b.lines = append(b.lines, line)
		b.mu.Unlock()
	}
}

// Lines returns a copy of the collected lines.
func (b *LineBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}
