// File: internal/node/table.go (complete file)

package node

import (
	"sync"

	"github.com/baptistax/egressprobe/internal/vantage"
)

// Table holds one Node per vantage point, indexed by name. The set of nodes is
// fixed at construction; nodes are reset, never removed.
type Table struct {
	order []string
	nodes map[string]*Node

	subMu   sync.Mutex
	subs    map[int]chan Status
	nextSub int
}

func NewTable(points []vantage.Point) (*Table, error) {
	if err := vantage.Validate(points); err != nil {
		return nil, err
	}

	t := &Table{
		order: make([]string, 0, len(points)),
		nodes: make(map[string]*Node, len(points)),
		subs:  make(map[int]chan Status),
	}
	for _, p := range points {
		t.order = append(t.order, p.Name)
		t.nodes[p.Name] = newNode(p, t.publish)
	}
	return t, nil
}

func (t *Table) Node(name string) (*Node, bool) {
	n, ok := t.nodes[name]
	return n, ok
}

// Nodes returns the nodes in configuration order.
func (t *Table) Nodes() []*Node {
	out := make([]*Node, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.nodes[name])
	}
	return out
}

// Snapshot returns every node's status in configuration order.
func (t *Table) Snapshot() []Status {
	out := make([]Status, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.nodes[name].Status())
	}
	return out
}

// Settled reports whether no node is currently probing.
func (t *Table) Settled() bool {
	for _, name := range t.order {
		if t.nodes[name].Status().State == StateProbing {
			return false
		}
	}
	return true
}

// Subscribe returns a channel receiving every status change. Delivery never
// blocks a probe: when the buffer is full the update is dropped, and the
// subscriber can always recover the latest view with Snapshot. The returned
// func unsubscribes and closes the channel.
func (t *Table) Subscribe(buffer int) (<-chan Status, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Status, buffer)

	t.subMu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = ch
	t.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.subMu.Lock()
			delete(t.subs, id)
			close(ch)
			t.subMu.Unlock()
		})
	}
}

func (t *Table) publish(s Status) {
	t.subMu.Lock()
	defer t.subMu.Unlock()

	for _, ch := range t.subs {
		select {
		case ch <- s:
		default:
		}
	}
}
