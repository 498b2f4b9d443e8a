// File: internal/report/write.go (complete file)

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

func WriteJSON(path string, s Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return EncodeJSON(f, s)
}

func EncodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func WriteText(path string, s Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(RenderText(s)), 0o644)
}

func RenderText(s Snapshot) string {
	var b strings.Builder
	b.WriteString("Timestamp (UTC): " + s.TimestampUTC.Format("2006-01-02T15:04:05Z") + "\n")
	if s.RunID != "" {
		b.WriteString("Run: " + s.RunID + "\n")
	}

	b.WriteString("\nVantage points:\n")
	for _, n := range s.Nodes {
		b.WriteString(RenderNode(n) + "\n")
	}

	b.WriteString("\nPeer-connection candidates:\n")
	switch {
	case !s.Leaks.Scanned:
		b.WriteString("  scan skipped\n")
	case len(s.Leaks.Findings) == 0:
		b.WriteString("  " + s.Leaks.Verdict + "\n")
	default:
		for _, f := range s.Leaks.Findings {
			line := fmt.Sprintf("  %-39s %s", f.Address, f.Class)
			if f.Exposed {
				line += "  EXPOSED"
			}
			if loc := joinNonEmpty(f.City, f.Country); loc != "" {
				line += "  (" + loc + ")"
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("  Verdict: " + s.Leaks.Verdict + "\n")
	}

	for _, n := range s.Notes {
		b.WriteString("Note: " + n + "\n")
	}
	return b.String()
}

// RenderNode renders one vantage point on a single line.
func RenderNode(n NodeReport) string {
	line := fmt.Sprintf("  %-12s [%s] %s", n.Name, n.Kind, StateLabel(n.State))
	switch n.State {
	case "connected":
		line += fmt.Sprintf(": %s, %s, %s, round trip (incl. read+parse) %dms",
			n.Address, n.Location, n.Operator, roundTrip(n))
	case "timed-out", "errored":
		if n.Error != "" {
			line += ": " + n.Error
		}
	}
	return line
}

func roundTrip(n NodeReport) int64 {
	if n.RoundTripMillis == nil {
		return 0
	}
	return *n.RoundTripMillis
}

func joinNonEmpty(parts ...string) string {
	var out []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}
