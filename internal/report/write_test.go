// File: internal/report/write_test.go (complete file)

package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func millis(v int64) *int64 { return &v }

func sample() Snapshot {
	return Snapshot{
		TimestampUTC: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Nodes: []NodeReport{
			{Name: "local", Kind: "local-exit", State: "connected", Address: "203.0.113.5",
				Location: "Berlin, DE", Operator: "AS64500", RoundTripMillis: millis(42), Attempt: 1},
			{Name: "global", Kind: "global-exit", State: "timed-out", Error: "no complete response within 10s", Attempt: 1},
			{Name: "edge", Kind: "acceleration-node", State: "errored", Error: "http status 503", Attempt: 1},
			{Name: "dup", Kind: "local-exit", State: "connected", Address: "203.0.113.5", Attempt: 1},
		},
		Leaks: LeakReport{
			Scanned: true,
			Verdict: "public address exposed outside the exit",
			Findings: []LeakFinding{
				{Address: "192.168.1.20", Class: "private"},
				{Address: "198.51.100.9", Class: "public", Exposed: true, Country: "NL", City: "Amsterdam"},
			},
			Exposed: []string{"198.51.100.9"},
		},
	}
}

func TestRenderText_Labels(t *testing.T) {
	out := RenderText(sample())

	for _, want := range []string{
		"round trip (incl. read+parse) 42ms",
		"timed out (slow/unreachable): no complete response within 10s",
		"error (refused/failed): http status 503",
		"198.51.100.9",
		"EXPOSED  (Amsterdam, NL)",
		"Verdict: public address exposed outside the exit",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRenderText_NoCandidates(t *testing.T) {
	s := sample()
	s.Leaks = LeakReport{Scanned: true, Verdict: "no leak detected (or unsupported)"}
	if out := RenderText(s); !strings.Contains(out, "  no leak detected (or unsupported)\n") {
		t.Fatalf("empty scan not disclosed:\n%s", out)
	}

	s.Leaks = LeakReport{}
	if out := RenderText(s); !strings.Contains(out, "scan skipped") {
		t.Fatalf("skipped scan not shown:\n%s", out)
	}
}

func TestExitAddresses(t *testing.T) {
	got := sample().ExitAddresses()
	if !reflect.DeepEqual(got, []string{"203.0.113.5"}) {
		t.Fatalf("got %v", got)
	}
}

func TestWriteFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run_x")
	s := sample()

	if err := WriteJSON(filepath.Join(dir, "snapshot.json"), s); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if err := WriteText(filepath.Join(dir, "snapshot.txt"), s); err != nil {
		t.Fatalf("WriteText: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "snapshot.json"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var back Snapshot
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(back.Nodes) != len(s.Nodes) || back.Leaks.Verdict != s.Leaks.Verdict {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}
