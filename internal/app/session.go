// File: internal/app/session.go (complete file)

package app

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/baptistax/egressprobe/internal/leaks"
	"github.com/baptistax/egressprobe/internal/node"
	"github.com/baptistax/egressprobe/internal/probe"
	"github.com/baptistax/egressprobe/internal/report"
	"github.com/baptistax/egressprobe/internal/vantage"
)

type Options struct {
	Points       []vantage.Point
	Client       *http.Client
	ProbeTimeout time.Duration

	// Negotiator gathers peer-connection candidates. Nil behaves as a
	// platform without negotiation support.
	Negotiator leaks.Negotiator
	// NoScan skips the candidate scan entirely.
	NoScan bool
	// Locator optionally annotates public candidates; may be nil.
	Locator leaks.Locator

	// OnCandidate, when set, sees every candidate as it is discovered.
	OnCandidate func(leaks.Candidate)
}

// Session ties the vantage point table, the orchestrator and the scanner
// together for the lifetime of one command.
type Session struct {
	table   *node.Table
	orch    *probe.Orchestrator
	scanner *leaks.Scanner
	opt     Options
}

func NewSession(opt Options) (*Session, error) {
	if len(opt.Points) == 0 {
		opt.Points = vantage.Defaults()
	}
	tbl, err := node.NewTable(opt.Points)
	if err != nil {
		return nil, err
	}

	return &Session{
		table:   tbl,
		orch:    probe.New(tbl, probe.Config{Client: opt.Client, Timeout: opt.ProbeTimeout}),
		scanner: leaks.NewScanner(opt.Negotiator),
		opt:     opt,
	}, nil
}

func (s *Session) Table() *node.Table                { return s.table }
func (s *Session) Orchestrator() *probe.Orchestrator { return s.orch }
func (s *Session) Scanner() *leaks.Scanner           { return s.scanner }
func (s *Session) ScanEnabled() bool                 { return !s.opt.NoScan }

// TakeSnapshot probes every vantage point and, independently, runs one
// candidate scan, then reports both once everything has settled.
func (s *Session) TakeSnapshot(ctx context.Context) report.Snapshot {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.orch.ProbeAll(gctx)
		s.orch.Wait()
		return nil
	})
	if s.ScanEnabled() {
		g.Go(func() error {
			return s.Scan(gctx)
		})
	}
	_ = g.Wait()

	snap := s.Report()
	if err := ctx.Err(); err != nil {
		snap.Notes = append(snap.Notes, "snapshot interrupted: "+err.Error())
	}
	return snap
}

// Scan runs one candidate scan to completion.
func (s *Session) Scan(ctx context.Context) error {
	<-s.StartScan(ctx)
	return ctx.Err()
}

// StartScan starts a new candidate scan and returns a channel closed when it
// ends. The previous scan's candidates are discarded before StartScan
// returns.
func (s *Session) StartScan(ctx context.Context) <-chan struct{} {
	cands := s.scanner.Scan(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for c := range cands {
			log.Debugf("Candidate %s (%s)", c.Address, c.Source)
			if s.opt.OnCandidate != nil {
				s.opt.OnCandidate(c)
			}
		}
	}()
	return done
}

// Report builds a snapshot from the current node states and the candidates
// of the current (or last) scan without probing anything.
func (s *Session) Report() report.Snapshot {
	snap := report.Snapshot{TimestampUTC: time.Now().UTC()}
	for _, st := range s.table.Snapshot() {
		snap.Nodes = append(snap.Nodes, NodeReport(st))
	}

	if !s.ScanEnabled() {
		snap.Notes = append(snap.Notes, "peer-connection candidate scan disabled")
		return snap
	}

	cands := s.scanner.Candidates()
	a := leaks.Assess(cands, snap.ExitAddresses(), s.opt.Locator)
	snap.Leaks = leakReport(a, cands)
	if s.scanner.Active() {
		snap.Notes = append(snap.Notes, "candidate scan still running")
	}
	return snap
}

// NodeReport maps a node status to its report form.
func NodeReport(st node.Status) report.NodeReport {
	r := report.NodeReport{
		Name:    st.Name,
		Kind:    string(st.Kind),
		State:   string(st.State),
		Error:   st.Error,
		Attempt: st.Attempt,
	}
	if st.Result != nil {
		r.Address = st.Result.Address
		r.Location = st.Result.Location
		r.Operator = st.Result.Operator
		rt := st.Result.RoundTripMillis
		r.RoundTripMillis = &rt
	}
	return r
}

func leakReport(a leaks.Assessment, cands []leaks.Candidate) report.LeakReport {
	source := make(map[string]string, len(cands))
	for _, c := range cands {
		source[c.Address] = c.Source
	}

	out := report.LeakReport{
		Scanned: true,
		Verdict: string(a.Verdict),
		Exposed: a.Exposed,
	}
	for _, f := range a.Findings {
		out.Findings = append(out.Findings, report.LeakFinding{
			Address: f.Address,
			Class:   string(f.Class),
			Exposed: f.Exposed,
			Country: f.Country,
			City:    f.City,
			Source:  source[f.Address],
		})
	}
	return out
}
