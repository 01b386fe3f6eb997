package progress

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTracerLines(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	tr := New("dailybyte", &buf)
	now := time.Date(2025, time.March, 3, 6, 0, 0, 0, time.UTC)
	tr.clock = func() time.Time { return now }

	tr.Begin("collect")
	now = now.Add(1500 * time.Millisecond)
	tr.Done("collect", "42 items")
	tr.Skip("curate", "skip flag")
	tr.Fail("send", errors.New("boom"))
	tr.Summary("run %s failed", "abc")

	want := strings.Join([]string{
		"[dailybyte] ▶ collect",
		"[dailybyte] ✓ collect: 42 items (1.5s)",
		"[dailybyte] ↷ curate skipped: skip flag",
		"[dailybyte] ✗ send failed: boom (0s)",
		"[dailybyte] = run abc failed",
		"",
	}, "\n")
	if buf.String() != want {
		t.Fatalf("unexpected trace:\n%s", buf.String())
	}
}

func TestNilTracerIsSilent(t *testing.T) {
	t.Parallel()

	var tr *Tracer
	tr.Begin("collect")
	tr.Done("collect", "ok")
	tr.Fail("collect", errors.New("x"))
}
