// File: internal/leaks/scanner.go (complete file)

package leaks

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCapabilityUnavailable is returned by a Negotiator that cannot open a
// peer-connection session on this host. The scanner treats it as an empty
// result, not a failure.
var ErrCapabilityUnavailable = errors.New("peer-connection negotiation unavailable")

// Negotiator runs one offer/gathering cycle and delivers the raw description
// of every gathered candidate. The channel is closed when gathering completes
// or ctx is done.
type Negotiator interface {
	Gather(ctx context.Context) (<-chan string, error)
}

// NegotiatorFunc adapts a function to Negotiator.
type NegotiatorFunc func(ctx context.Context) (<-chan string, error)

func (f NegotiatorFunc) Gather(ctx context.Context) (<-chan string, error) {
	return f(ctx)
}

// Candidate is one address seen in negotiation metadata.
type Candidate struct {
	Address string    `json:"address"`
	Source  string    `json:"source"`
	SeenAt  time.Time `json:"seen_at"`
}

// Scanner harvests addresses exposed through peer-connection negotiation.
// It owns the candidate accumulator of the scan currently running.
type Scanner struct {
	neg Negotiator

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	seen   map[string]bool
	found  []Candidate
	active bool
}

// NewScanner returns a scanner using neg. A nil neg behaves as a platform
// without negotiation support: every scan is empty.
func NewScanner(neg Negotiator) *Scanner {
	return &Scanner{neg: neg, seen: map[string]bool{}}
}

// Scan starts a new scan and returns its candidates as they are discovered.
// The channel is closed when gathering completes, gathering could not start,
// ctx is done, or a newer Scan supersedes this one. The previous scan's
// candidates are discarded before Scan returns.
//
// Delivery is unbuffered: the scan advances as the caller reads.
func (s *Scanner) Scan(ctx context.Context) <-chan Candidate {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	s.cancel = cancel
	s.seen = map[string]bool{}
	s.found = nil
	s.active = true
	s.mu.Unlock()

	out := make(chan Candidate)
	go func() {
		defer close(out)
		defer s.finish(gen, cancel)

		if s.neg == nil {
			log.Debugf("Scan %d: no negotiator configured", gen)
			return
		}
		raw, err := s.neg.Gather(ctx)
		if err != nil {
			// Environment limitations and offer failures both end the scan
			// quietly with no candidates.
			if errors.Is(err, ErrCapabilityUnavailable) {
				log.Debugf("Scan %d: %v", gen, err)
			} else {
				log.Infof("Scan %d: gathering did not start: %v", gen, err)
			}
			return
		}

		for line := range raw {
			log.Tracef("Scan %d: candidate %q", gen, line)
			for _, addr := range ExtractAddresses(line) {
				c, ok := s.record(gen, addr, line)
				if !ok {
					continue
				}
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
			}
		}
		log.Debugf("Scan %d: gathering complete", gen)
	}()
	return out
}

// Candidates returns the addresses accumulated by the current (or last) scan.
func (s *Scanner) Candidates() []Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Candidate(nil), s.found...)
}

// Active reports whether a scan is still gathering.
func (s *Scanner) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// record adds addr, in canonical form, to the accumulator of scan gen. It
// reports false for duplicates and for scans that have been superseded.
func (s *Scanner) record(gen uint64, addr, source string) (Candidate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := canonicalAddr(addr); ok {
		addr = a
	}
	if gen != s.gen || s.seen[addr] {
		return Candidate{}, false
	}
	s.seen[addr] = true
	c := Candidate{Address: addr, Source: source, SeenAt: time.Now().UTC()}
	s.found = append(s.found, c)
	return c, true
}

func (s *Scanner) finish(gen uint64, cancel context.CancelFunc) {
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.gen {
		s.active = false
		s.cancel = nil
	}
}
