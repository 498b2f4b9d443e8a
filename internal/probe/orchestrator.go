// File: internal/probe/orchestrator.go (complete file)

package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/baptistax/egressprobe/internal/node"
	"github.com/baptistax/egressprobe/internal/vantage"
)

// DefaultTimeout bounds one probe from request start to parsed body.
const DefaultTimeout = 10 * time.Second

const maxBodySize = 1 << 20

// testHookFetched runs after a fetch returns, before its outcome is recorded.
var testHookFetched func()

var ErrUnknownVantagePoint = errors.New("unknown vantage point")

// HTTPStatusError is a completed response with a non-2xx status.
type HTTPStatusError struct {
	Code int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http status %d", e.Code)
}

type Config struct {
	Client    *http.Client
	Timeout   time.Duration
	UserAgent string
}

// Orchestrator probes vantage points and drives their nodes. Probes of
// different nodes share nothing but the HTTP client; a failure or timeout of
// one never affects another.
type Orchestrator struct {
	table     *node.Table
	client    *http.Client
	timeout   time.Duration
	userAgent string

	mu       sync.Mutex
	inflight map[string]attempt
	pending  int
	idle     chan struct{} // closed while pending is zero
}

type attempt struct {
	id     uint64
	cancel context.CancelFunc
}

func New(table *node.Table, cfg Config) *Orchestrator {
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "egressprobe/0.1"
	}
	return &Orchestrator{
		table:     table,
		client:    cfg.Client,
		timeout:   cfg.Timeout,
		userAgent: cfg.UserAgent,
		inflight:  make(map[string]attempt),
		idle:      closedChan(),
	}
}

func (o *Orchestrator) Table() *node.Table {
	return o.table
}

// ProbeAll starts one probe per vantage point and returns once every node has
// entered probing. Outcomes are observed through the table (Snapshot or
// Subscribe); Wait blocks until all started probes have settled.
func (o *Orchestrator) ProbeAll(ctx context.Context) {
	for _, n := range o.table.Nodes() {
		o.launch(ctx, n)
	}
}

// ProbeOne re-runs a single vantage point. An attempt already in flight for
// the same node is cancelled and can no longer change the node.
func (o *Orchestrator) ProbeOne(ctx context.Context, name string) error {
	n, ok := o.table.Node(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownVantagePoint, name)
	}
	o.launch(ctx, n)
	return nil
}

// Wait blocks until no probe is running. Probes may be started while another
// goroutine waits; Wait then also covers them.
func (o *Orchestrator) Wait() {
	o.mu.Lock()
	idle := o.idle
	o.mu.Unlock()
	<-idle
}

func (o *Orchestrator) launch(parent context.Context, n *node.Node) {
	p := n.Point()

	o.mu.Lock()
	if prev, ok := o.inflight[p.Name]; ok {
		log.Tracef("%s: superseding attempt %d", p.Name, prev.id)
		prev.cancel()
	}
	id := n.Start()
	ctx, cancel := context.WithTimeout(parent, o.timeout)
	o.inflight[p.Name] = attempt{id: id, cancel: cancel}
	if o.pending == 0 {
		o.idle = make(chan struct{})
	}
	o.pending++
	o.mu.Unlock()

	log.Debugf("%s: probing %s (attempt %d)", p.Name, p.Endpoint, id)

	// The deadline settles the node the moment it fires, even while the
	// transport is still unwinding; the late outcome is then rejected.
	stop := context.AfterFunc(ctx, func() {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			o.record(n, id, n.TimeOut(id, o.deadlineError()))
		}
	})

	go func() {
		defer o.release(p.Name, id, cancel)

		res, err := o.fetch(ctx, p)
		// Once stopped, the deadline can no longer settle the node, so a
		// complete response is recorded as such.
		stop()
		if testHookFetched != nil {
			testHookFetched()
		}
		switch {
		case err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded):
			o.record(n, id, n.TimeOut(id, o.deadlineError()))
		case err != nil && isTimeout(err):
			o.record(n, id, n.TimeOut(id, err))
		case err != nil:
			log.Warnf("%s: %v", p.Name, err)
			o.record(n, id, n.Fail(id, err))
		default:
			log.Debugf("%s: connected via %s in %dms", p.Name, res.Address, res.RoundTripMillis)
			o.record(n, id, n.Connect(id, res))
		}
	}()
}

// fetch performs the request and normalization. The elapsed time covers the
// body read and parse, not only the network exchange.
func (o *Orchestrator) fetch(ctx context.Context, p vantage.Point) (vantage.Result, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.Endpoint, nil)
	if err != nil {
		return vantage.Result{}, err
	}
	req.Header.Set("User-Agent", o.userAgent)

	resp, err := o.client.Do(req)
	if err != nil {
		return vantage.Result{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return vantage.Result{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return vantage.Result{}, &HTTPStatusError{Code: resp.StatusCode}
	}

	res, err := vantage.Normalize(p.Kind, body)
	if err != nil {
		return vantage.Result{}, err
	}
	res.RoundTripMillis = millisSince(start)
	return res, nil
}

func (o *Orchestrator) record(n *node.Node, id uint64, err error) {
	if err == nil {
		return
	}
	// Losing writers are expected: superseded attempts and late responses
	// after the deadline fired.
	log.Tracef("%s: attempt %d outcome dropped: %v", n.Point().Name, id, err)
}

func (o *Orchestrator) release(name string, id uint64, cancel context.CancelFunc) {
	cancel()

	o.mu.Lock()
	defer o.mu.Unlock()
	if cur, ok := o.inflight[name]; ok && cur.id == id {
		delete(o.inflight, name)
	}
	o.pending--
	if o.pending == 0 {
		close(o.idle)
	}
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func (o *Orchestrator) deadlineError() error {
	return fmt.Errorf("no complete response within %s", o.timeout)
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func millisSince(t0 time.Time) int64 {
	d := time.Since(t0)
	if d < 0 {
		return 0
	}
	return d.Milliseconds()
}
