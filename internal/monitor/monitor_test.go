// File: internal/monitor/monitor_test.go (complete file)

package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/baptistax/egressprobe/internal/report"
)

func millis(v int64) *int64 { return &v }

func snap(addr, state string, cands ...string) *report.Snapshot {
	s := &report.Snapshot{
		TimestampUTC: time.Now().UTC(),
		Nodes: []report.NodeReport{
			{Name: "local", Kind: "local-exit", State: state, Address: addr, RoundTripMillis: millis(10)},
		},
		Leaks: report.LeakReport{Scanned: true},
	}
	for _, c := range cands {
		s.Leaks.Findings = append(s.Leaks.Findings, report.LeakFinding{Address: c})
	}
	return s
}

func TestChanged_ExitAddressChange(t *testing.T) {
	diff := differences(snap("1.1.1.1", "connected"), snap("2.2.2.2", "connected"))
	if len(diff) != 1 {
		t.Fatalf("got %q", diff)
	}
}

func TestChanged_StateChange(t *testing.T) {
	diff := differences(snap("1.1.1.1", "connected"), snap("", "timed-out"))
	if len(diff) != 1 || diff[0] != "local: connected -> timed out (slow/unreachable)" {
		t.Fatalf("got %q", diff)
	}
}

func TestChanged_CandidateSet(t *testing.T) {
	diff := differences(snap("1.1.1.1", "connected", "10.0.0.2"), snap("1.1.1.1", "connected", "10.0.0.2", "198.51.100.9"))
	if len(diff) == 0 {
		t.Fatalf("expected change")
	}
}

func TestChanged_NoChange(t *testing.T) {
	a := snap("1.1.1.1", "connected", "10.0.0.2", "fe80::1")
	b := snap("1.1.1.1", "connected", "fe80::1", "10.0.0.2")
	b.Nodes[0].RoundTripMillis = millis(99)

	if diff := differences(a, b); len(diff) != 0 {
		t.Fatalf("expected no change, got %q", diff)
	}
}

type sequence struct {
	mu    sync.Mutex
	snaps []*report.Snapshot
	n     int
}

func (s *sequence) TakeSnapshot(ctx context.Context) report.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.n
	if i >= len(s.snaps) {
		i = len(s.snaps) - 1
	}
	s.n++
	return *s.snaps[i]
}

func TestRun_EmitsBaselineThenChanges(t *testing.T) {
	src := &sequence{snaps: []*report.Snapshot{
		snap("1.1.1.1", "connected"),
		snap("1.1.1.1", "connected"),
		snap("2.2.2.2", "connected"),
	}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan Event, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		Run(ctx, src, Options{Interval: 10 * time.Millisecond, Timeout: time.Second}, func(ev Event) {
			events <- ev
		})
	}()

	var got []Event
	timeout := time.After(5 * time.Second)
	for len(got) < 2 {
		select {
		case ev := <-events:
			got = append(got, ev)
		case <-timeout:
			t.Fatalf("got %d events", len(got))
		}
	}
	cancel()
	<-done

	if got[0].Kind != "baseline" || got[0].Previous != nil {
		t.Fatalf("first event: %+v", got[0])
	}
	if got[1].Kind != "changed" || got[1].Current.Nodes[0].Address != "2.2.2.2" {
		t.Fatalf("second event: %+v", got[1])
	}
}
