// File: internal/node/node.go (complete file)

package node

import (
	"errors"
	"sync"
	"time"

	"github.com/baptistax/egressprobe/internal/vantage"
)

// State is the lifecycle state of one vantage point. The transitions are:
//
// idle      -> probing
// probing   -> connected | timed-out | errored | probing
// connected -> probing
// timed-out -> probing
// errored   -> probing
//
// Any state may be reset to idle.
type State string

const (
	StateIdle      State = "idle"
	StateProbing   State = "probing"
	StateConnected State = "connected"
	StateTimedOut  State = "timed-out"
	StateErrored   State = "errored"
)

// Settled reports whether s is one of the outcomes of a probe attempt.
func (s State) Settled() bool {
	return s == StateConnected || s == StateTimedOut || s == StateErrored
}

var (
	// ErrStaleAttempt is returned when an outcome is reported for an attempt
	// that has since been superseded by a newer Start.
	ErrStaleAttempt = errors.New("stale probe attempt")

	// ErrInvalidTransition is returned when the current state does not accept
	// the requested outcome, e.g. a late response after a timeout was recorded.
	ErrInvalidTransition = errors.New("invalid node state transition")
)

// Status is a copy of a node's state safe to retain without locking.
// Result is non-nil only when State is StateConnected.
type Status struct {
	Name      string          `json:"name"`
	Kind      vantage.Kind    `json:"kind"`
	State     State           `json:"state"`
	Result    *vantage.Result `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	Attempt   uint64          `json:"attempt"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Node tracks one vantage point. Every outcome carries the attempt number
// returned by Start, so a slow superseded attempt can never overwrite the
// outcome of a newer one.
type Node struct {
	point vantage.Point

	mu      sync.Mutex
	state   State
	result  *vantage.Result
	err     string
	attempt uint64
	updated time.Time

	// notify runs with mu held so subscribers see one node's transitions in order.
	notify func(Status)
}

func newNode(p vantage.Point, notify func(Status)) *Node {
	return &Node{
		point:   p,
		state:   StateIdle,
		updated: time.Now().UTC(),
		notify:  notify,
	}
}

func (n *Node) Point() vantage.Point {
	return n.point
}

// Start moves the node to probing from any state, clears the previous result
// and returns the identity of the new attempt.
func (n *Node) Start() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.attempt++
	n.state = StateProbing
	n.result = nil
	n.err = ""
	n.touchLocked()
	return n.attempt
}

// Connect records a successful attempt.
func (n *Node) Connect(attempt uint64, r vantage.Result) error {
	return n.finish(attempt, StateConnected, &r, nil)
}

// TimeOut records an attempt whose deadline elapsed.
func (n *Node) TimeOut(attempt uint64, cause error) error {
	return n.finish(attempt, StateTimedOut, nil, cause)
}

// Fail records any other failed attempt.
func (n *Node) Fail(attempt uint64, cause error) error {
	return n.finish(attempt, StateErrored, nil, cause)
}

// Reset returns the node to idle and invalidates any in-flight attempt.
func (n *Node) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.attempt++
	n.state = StateIdle
	n.result = nil
	n.err = ""
	n.touchLocked()
}

func (n *Node) Status() Status {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.statusLocked()
}

func (n *Node) finish(attempt uint64, next State, r *vantage.Result, cause error) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if attempt != n.attempt {
		return ErrStaleAttempt
	}
	if !allowedTransition(n.state, next) {
		return ErrInvalidTransition
	}

	n.state = next
	n.result = r
	n.err = ""
	if cause != nil {
		n.err = cause.Error()
	}
	n.touchLocked()
	return nil
}

func (n *Node) touchLocked() {
	n.updated = time.Now().UTC()
	if n.notify != nil {
		n.notify(n.statusLocked())
	}
}

func (n *Node) statusLocked() Status {
	s := Status{
		Name:      n.point.Name,
		Kind:      n.point.Kind,
		State:     n.state,
		Error:     n.err,
		Attempt:   n.attempt,
		UpdatedAt: n.updated,
	}
	if n.state == StateConnected && n.result != nil {
		r := *n.result
		s.Result = &r
	}
	return s
}

func allowedTransition(cur, next State) bool {
	switch cur {
	case StateIdle:
		return next == StateProbing
	case StateProbing:
		return next == StateProbing || next.Settled()
	case StateConnected, StateTimedOut, StateErrored:
		return next == StateProbing
	default:
		return false
	}
}
