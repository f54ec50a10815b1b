package output

import (
	"fmt"
	"io"

	"github.com/tokenstorm/tokenstorm/internal/runner"
)

// ProgressReporter writes a single overwriting progress line to the
// terminal as events arrive from the scheduler.
type ProgressReporter struct {
	writer io.Writer
	wrote  bool
}

// NewProgressReporter returns a reporter writing to w.
func NewProgressReporter(w io.Writer) *ProgressReporter {
	if w == nil {
		w = io.Discard
	}
	return &ProgressReporter{writer: w}
}

// Publish renders one progress event. It is called from the scheduler's
// forwarder goroutine, never concurrently.
func (p *ProgressReporter) Publish(event runner.ProgressEvent) {
	p.wrote = true
	fmt.Fprintf(p.writer,
		"\r[%4.0fs] issued: %d | completed: %d | ok: %d | errors: %d | rps: %.1f   ",
		event.ElapsedSeconds, event.Issued, event.Completed, event.Success, event.Errors, event.ObservedRps)
}

// Finish terminates the progress line so the report starts on a fresh row.
func (p *ProgressReporter) Finish() {
	if p.wrote {
		fmt.Fprintln(p.writer)
	}
}
