// File: internal/report/model.go (complete file)

package report

import "time"

// NodeReport is one vantage point's view at snapshot time.
type NodeReport struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	State    string `json:"state"`
	Address  string `json:"address,omitempty"`
	Location string `json:"location,omitempty"`
	Operator string `json:"operator,omitempty"`
	// RoundTripMillis spans request start to parsed body, so it includes
	// server time and parsing, not only network transit. It is set only for
	// connected nodes, where 0 is a valid value.
	RoundTripMillis *int64 `json:"round_trip_ms,omitempty"`
	Error           string `json:"error,omitempty"`
	Attempt         uint64 `json:"attempt"`
}

type LeakFinding struct {
	Address string `json:"address"`
	Class   string `json:"class"`
	Exposed bool   `json:"exposed"`
	Country string `json:"country,omitempty"`
	City    string `json:"city,omitempty"`
	Source  string `json:"source,omitempty"`
}

type LeakReport struct {
	Scanned  bool          `json:"scanned"`
	Verdict  string        `json:"verdict"`
	Findings []LeakFinding `json:"findings,omitempty"`
	Exposed  []string      `json:"exposed,omitempty"`
}

type Snapshot struct {
	TimestampUTC time.Time    `json:"timestamp_utc"`
	RunID        string       `json:"run_id,omitempty"`
	Nodes        []NodeReport `json:"nodes"`
	Leaks        LeakReport   `json:"leaks"`
	Notes        []string     `json:"notes,omitempty"`
}

// ExitAddresses returns the addresses reported by connected vantage points,
// in node order and without duplicates.
func (s Snapshot) ExitAddresses() []string {
	var out []string
	seen := map[string]bool{}
	for _, n := range s.Nodes {
		if n.State != "connected" || n.Address == "" || seen[n.Address] {
			continue
		}
		seen[n.Address] = true
		out = append(out, n.Address)
	}
	return out
}

// StateLabel is the user-facing label of a node state. Timeouts and other
// failures read differently because they call for different remedies.
func StateLabel(state string) string {
	switch state {
	case "idle":
		return "idle"
	case "probing":
		return "probing..."
	case "connected":
		return "connected"
	case "timed-out":
		return "timed out (slow/unreachable)"
	case "errored":
		return "error (refused/failed)"
	default:
		return state
	}
}
