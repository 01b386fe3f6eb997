// Package progress prints the human-readable stage trace shown by the CLI.
package progress

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

// Tracer writes one line per stage event with a component prefix.
type Tracer struct {
	out   *log.Logger
	clock func() time.Time
	start map[string]time.Time
}

// New returns a Tracer writing to w (stdout when nil).
func New(component string, w io.Writer) *Tracer {
	if w == nil {
		w = os.Stdout
	}
	prefix := fmt.Sprintf("[%s] ", component)
	return &Tracer{
		out:   log.New(w, prefix, 0),
		clock: time.Now,
		start: map[string]time.Time{},
	}
}

// Begin announces a stage.
func (t *Tracer) Begin(stage string) {
	if t == nil {
		return
	}
	t.start[stage] = t.clock()
	t.out.Printf("▶ %s", stage)
}

// Done closes a stage with a short detail line.
func (t *Tracer) Done(stage, detail string) {
	if t == nil {
		return
	}
	t.out.Printf("✓ %s: %s (%s)", stage, detail, t.elapsed(stage))
}

// Skip records a stage that was not executed.
func (t *Tracer) Skip(stage, reason string) {
	if t == nil {
		return
	}
	t.out.Printf("↷ %s skipped: %s", stage, reason)
}

// Fail records a fatal stage error.
func (t *Tracer) Fail(stage string, err error) {
	if t == nil {
		return
	}
	t.out.Printf("✗ %s failed: %v (%s)", stage, err, t.elapsed(stage))
}

// Summary prints the final run line.
func (t *Tracer) Summary(format string, args ...any) {
	if t == nil {
		return
	}
	t.out.Printf("= "+format, args...)
}

func (t *Tracer) elapsed(stage string) time.Duration {
	started, ok := t.start[stage]
	if !ok {
		return 0
	}
	return t.clock().Sub(started).Round(time.Millisecond)
}
