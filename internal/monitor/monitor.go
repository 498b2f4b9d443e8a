// File: internal/monitor/monitor.go (complete file)

package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/baptistax/egressprobe/internal/report"
)

type Event struct {
	AtUTC    time.Time        `json:"at_utc"`
	Kind     string           `json:"kind"` // "baseline" or "changed"
	Message  string           `json:"message"`
	Changes  []string         `json:"changes,omitempty"`
	Previous *report.Snapshot `json:"previous,omitempty"`
	Current  *report.Snapshot `json:"current"`
}

type Options struct {
	Interval time.Duration
	Timeout  time.Duration
}

// Snapshotter re-probes every vantage point and rescans candidates.
type Snapshotter interface {
	TakeSnapshot(ctx context.Context) report.Snapshot
}

// Run takes a snapshot immediately and then every interval until ctx is
// done. The first snapshot is reported as a baseline; later ones only when
// something an operator would care about changed.
func Run(ctx context.Context, src Snapshotter, opt Options, onEvent func(Event)) {
	if opt.Interval <= 0 {
		opt.Interval = 30 * time.Second
	}
	if opt.Timeout <= 0 {
		opt.Timeout = 20 * time.Second
	}

	var prev *report.Snapshot

	ticker := time.NewTicker(opt.Interval)
	defer ticker.Stop()

	take := func() {
		snapCtx, cancel := context.WithTimeout(ctx, opt.Timeout)
		s := src.TakeSnapshot(snapCtx)
		cancel()

		if ctx.Err() != nil {
			return
		}

		if prev == nil {
			onEvent(Event{
				AtUTC:   time.Now().UTC(),
				Kind:    "baseline",
				Message: "baseline snapshot",
				Current: &s,
			})
		} else if diff := differences(prev, &s); len(diff) > 0 {
			log.Infof("Change detected: %s", strings.Join(diff, "; "))
			onEvent(Event{
				AtUTC:    time.Now().UTC(),
				Kind:     "changed",
				Message:  "snapshot changed",
				Changes:  diff,
				Previous: prev,
				Current:  &s,
			})
		} else {
			log.Debugf("No change")
		}
		prev = &s
	}

	take()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			take()
		}
	}
}

// differences compares node states and addresses by name, then the set of
// candidate addresses. Round trips and labels are noisy and ignored.
func differences(a, b *report.Snapshot) []string {
	var out []string

	prev := make(map[string]report.NodeReport, len(a.Nodes))
	for _, n := range a.Nodes {
		prev[n.Name] = n
	}
	for _, n := range b.Nodes {
		p, ok := prev[n.Name]
		if !ok {
			out = append(out, fmt.Sprintf("%s: new vantage point", n.Name))
			continue
		}
		if p.State != n.State {
			out = append(out, fmt.Sprintf("%s: %s -> %s", n.Name, report.StateLabel(p.State), report.StateLabel(n.State)))
		}
		if p.Address != n.Address && p.Address != "" && n.Address != "" {
			out = append(out, fmt.Sprintf("%s: exit %s -> %s", n.Name, p.Address, n.Address))
		}
	}

	pa, pb := leakAddrs(a.Leaks), leakAddrs(b.Leaks)
	if !sameStringSet(pa, pb) {
		out = append(out, fmt.Sprintf("candidates: %s -> %s", printable(pa), printable(pb)))
	}
	if len(b.Leaks.Exposed) > 0 && !sameStringSet(a.Leaks.Exposed, b.Leaks.Exposed) {
		out = append(out, "exposed: "+strings.Join(b.Leaks.Exposed, ", "))
	}
	return out
}

func leakAddrs(l report.LeakReport) []string {
	out := make([]string, 0, len(l.Findings))
	for _, f := range l.Findings {
		out = append(out, f.Address)
	}
	return out
}

func printable(list []string) string {
	if len(list) == 0 {
		return "(none)"
	}
	return strings.Join(list, ", ")
}

func sameStringSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	ma := map[string]int{}
	for _, s := range a {
		ma[s]++
	}
	for _, s := range b {
		if ma[s] == 0 {
			return false
		}
		ma[s]--
	}
	for _, v := range ma {
		if v != 0 {
			return false
		}
	}
	return true
}
