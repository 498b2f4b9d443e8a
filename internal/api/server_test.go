// File: internal/api/server_test.go (complete file)

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/baptistax/egressprobe/internal/app"
	"github.com/baptistax/egressprobe/internal/leaks"
	"github.com/baptistax/egressprobe/internal/node"
	"github.com/baptistax/egressprobe/internal/report"
	"github.com/baptistax/egressprobe/internal/vantage"
)

func newTestServer(t *testing.T, opt app.Options) (*Server, *httptest.Server) {
	t.Helper()

	vp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ip":"203.0.113.5","city":"Berlin","country":"DE","org":"AS64500"}`)
	}))
	t.Cleanup(vp.Close)

	opt.Points = []vantage.Point{{Name: "a", Kind: vantage.KindLocalExit, Endpoint: vp.URL}}
	opt.ProbeTimeout = 5 * time.Second
	sess, err := app.NewSession(opt)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	s := NewServer(sess, ServerOptions{})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.Close()
		ts.Close()
		sess.Orchestrator().Wait()
	})
	return s, ts
}

func do(t *testing.T, method, url string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestStatus_InitiallyIdle(t *testing.T) {
	_, ts := newTestServer(t, app.Options{})

	var snap report.Snapshot
	if code := do(t, http.MethodGet, ts.URL+"/v1/status", &snap); code != http.StatusOK {
		t.Fatalf("status code %d", code)
	}
	if len(snap.Nodes) != 1 || snap.Nodes[0].State != "idle" {
		t.Fatalf("got %+v", snap.Nodes)
	}
}

func TestProbeOne(t *testing.T) {
	s, ts := newTestServer(t, app.Options{})

	var apiErr APIError
	if code := do(t, http.MethodPost, ts.URL+"/v1/probe/missing", &apiErr); code != http.StatusNotFound {
		t.Fatalf("unknown node: code %d", code)
	}
	if !strings.Contains(apiErr.Error, "unknown vantage point") {
		t.Fatalf("error body: %+v", apiErr)
	}

	var ack ProbeResponse
	if code := do(t, http.MethodPost, ts.URL+"/v1/probe/a", &ack); code != http.StatusAccepted {
		t.Fatalf("probe: code %d", code)
	}
	if len(ack.Accepted) != 1 || ack.Accepted[0].Attempt != 1 {
		t.Fatalf("ack: %+v", ack)
	}

	s.sess.Orchestrator().Wait()
	var snap report.Snapshot
	do(t, http.MethodGet, ts.URL+"/v1/status", &snap)
	if snap.Nodes[0].State != "connected" || snap.Nodes[0].Address != "203.0.113.5" {
		t.Fatalf("after probe: %+v", snap.Nodes[0])
	}
}

func TestProbe_MethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t, app.Options{})
	if code := do(t, http.MethodGet, ts.URL+"/v1/probe", nil); code != http.StatusMethodNotAllowed {
		t.Fatalf("code %d", code)
	}
}

func TestScanAndLeaks(t *testing.T) {
	neg := leaks.NegotiatorFunc(func(ctx context.Context) (<-chan string, error) {
		ch := make(chan string, 2)
		ch <- "candidate:1 1 udp 2122260223 192.168.1.20 54321 typ host"
		ch <- "candidate:2 1 udp 1677729535 198.51.100.9 61234 typ srflx raddr 192.168.1.20 rport 54321"
		close(ch)
		return ch, nil
	})
	_, ts := newTestServer(t, app.Options{Negotiator: neg})

	var ack ScanResponse
	if code := do(t, http.MethodPost, ts.URL+"/v1/scan", &ack); code != http.StatusAccepted || !ack.Started {
		t.Fatalf("scan: code %d %+v", code, ack)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		var lr LeaksResponse
		do(t, http.MethodGet, ts.URL+"/v1/leaks", &lr)
		if !lr.Active {
			if len(lr.Candidates) != 2 {
				t.Fatalf("candidates: %+v", lr.Candidates)
			}
			if !lr.Report.Scanned || len(lr.Report.Findings) != 2 {
				t.Fatalf("report: %+v", lr.Report)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("scan still active")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestScan_Disabled(t *testing.T) {
	_, ts := newTestServer(t, app.Options{NoScan: true})
	if code := do(t, http.MethodPost, ts.URL+"/v1/scan", nil); code != http.StatusConflict {
		t.Fatalf("code %d", code)
	}
}

func TestStream(t *testing.T) {
	_, ts := newTestServer(t, app.Options{})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/ws"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer ws.Close()
	ws.SetReadDeadline(time.Now().Add(5 * time.Second))

	var m StreamMessage
	if err := ws.ReadJSON(&m); err != nil {
		t.Fatalf("initial frame: %v", err)
	}
	if m.Type != "status" || m.Status.Name != "a" || m.Status.State != node.StateIdle {
		t.Fatalf("initial frame: %+v", m)
	}

	if code := do(t, http.MethodPost, ts.URL+"/v1/probe", nil); code != http.StatusAccepted {
		t.Fatalf("probe: code %d", code)
	}

	for {
		if err := ws.ReadJSON(&m); err != nil {
			t.Fatalf("read: %v", err)
		}
		if m.Status.State == node.StateConnected {
			if m.Status.Result == nil || m.Status.Result.Address != "203.0.113.5" {
				t.Fatalf("connected frame: %+v", m.Status)
			}
			return
		}
	}
}
