// File: internal/leaks/assess.go (complete file)

package leaks

import (
	"net/netip"

	"github.com/baptistax/egressprobe/internal/netutil"
)

type Verdict string

const (
	VerdictNone       Verdict = "no leak detected (or unsupported)"
	VerdictLocalOnly  Verdict = "local addresses visible; no public address besides the exit"
	VerdictUnverified Verdict = "public address visible; no exit address to compare against"
	VerdictExposed    Verdict = "public address exposed outside the exit"
)

// Locator annotates public addresses with a coarse location.
type Locator interface {
	Locate(addr netip.Addr) (country, city string, ok bool)
}

type Finding struct {
	Address string            `json:"address"`
	Class   netutil.AddrClass `json:"class"`
	Exposed bool              `json:"exposed"`
	Country string            `json:"country,omitempty"`
	City    string            `json:"city,omitempty"`
}

type Assessment struct {
	Findings []Finding `json:"findings,omitempty"`
	Exposed  []string  `json:"exposed,omitempty"`
	Verdict  Verdict   `json:"verdict"`
}

// Assess classifies candidates against the exit addresses reported by the
// vantage points. A candidate is exposed when it is publicly routable and is
// not one of the exits: traffic is supposed to leave through the exit, so any
// other public address is the real one leaking. geo may be nil.
func Assess(cands []Candidate, exits []string, geo Locator) Assessment {
	if len(cands) == 0 {
		return Assessment{Verdict: VerdictNone}
	}

	exitSet := map[netip.Addr]bool{}
	for _, e := range exits {
		if a, err := netip.ParseAddr(e); err == nil {
			exitSet[a.Unmap()] = true
		}
	}

	var out Assessment
	public := 0
	for _, c := range cands {
		a, err := netip.ParseAddr(c.Address)
		if err != nil {
			continue
		}
		a = a.Unmap()

		f := Finding{Address: c.Address, Class: netutil.Classify(a)}
		if f.Class == netutil.ClassPublic {
			public++
			if len(exitSet) > 0 && !exitSet[a] {
				f.Exposed = true
				out.Exposed = append(out.Exposed, c.Address)
			}
			if geo != nil {
				if country, city, ok := geo.Locate(a); ok {
					f.Country, f.City = country, city
				}
			}
		}
		out.Findings = append(out.Findings, f)
	}

	switch {
	case len(out.Exposed) > 0:
		out.Verdict = VerdictExposed
	case public > 0 && len(exitSet) == 0:
		out.Verdict = VerdictUnverified
	default:
		out.Verdict = VerdictLocalOnly
	}
	return out
}
