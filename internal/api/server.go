// File: internal/api/server.go (complete file)

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/baptistax/egressprobe/internal/app"
	"github.com/baptistax/egressprobe/internal/node"
	"github.com/baptistax/egressprobe/internal/probe"
)

const (
	APIVersion     = "v1"
	DefaultAddress = "127.0.0.1:8788"

	wsWriteTimeout = 5 * time.Second
	wsPingInterval = 30 * time.Second
	wsPongWait     = 2 * wsPingInterval
)

// TimeNow is replaceable in tests.
var TimeNow = time.Now

// ServerOptions configures the HTTP server. Zero values select conservative
// defaults for a local service.
type ServerOptions struct {
	Addr              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

// Server hosts the API for one session. Probes and scans it starts run on
// the server's own context, so they outlive the request that asked for them.
type Server struct {
	http *http.Server
	sess *app.Session
	opts ServerOptions

	ctx    context.Context
	cancel context.CancelFunc
}

func NewServer(sess *app.Session, opts ServerOptions) *Server {
	if sess == nil {
		panic("api.NewServer: session is nil")
	}
	if opts.Addr == "" {
		opts.Addr = DefaultAddress
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 5 * time.Second
	}
	if opts.ReadHeaderTimeout == 0 {
		opts.ReadHeaderTimeout = 2 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.IdleTimeout == 0 {
		opts.IdleTimeout = 60 * time.Second
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		sess:   sess,
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
	}
	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       opts.IdleTimeout,
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	prefix := "/" + APIVersion
	mux.HandleFunc("GET "+prefix+"/healthz", s.handleHealthz)
	mux.HandleFunc("GET "+prefix+"/status", s.handleStatus)
	mux.HandleFunc("POST "+prefix+"/probe", s.handleProbeAll)
	mux.HandleFunc("POST "+prefix+"/probe/{name}", s.handleProbeOne)
	mux.HandleFunc("POST "+prefix+"/scan", s.handleScan)
	mux.HandleFunc("GET "+prefix+"/leaks", s.handleLeaks)
	mux.HandleFunc("GET "+prefix+"/ws", s.handleStream)
	return withBasicMiddleware(mux)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	log.Infof("API listening on %s", ln.Addr())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.cancel()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	s.cancel()
	err = s.http.Shutdown(shutdownCtx)
	s.sess.Orchestrator().Wait()
	return err
}

// Close stops background work started by handlers.
func (s *Server) Close() {
	s.cancel()
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": TimeNow().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.Report())
}

func (s *Server) handleProbeAll(w http.ResponseWriter, r *http.Request) {
	s.sess.Orchestrator().ProbeAll(s.ctx)
	writeJSON(w, http.StatusAccepted, ProbeResponse{Accepted: s.sess.Table().Snapshot()})
}

func (s *Server) handleProbeOne(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.sess.Orchestrator().ProbeOne(s.ctx, name); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, probe.ErrUnknownVantagePoint) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	n, _ := s.sess.Table().Node(name)
	writeJSON(w, http.StatusAccepted, ProbeResponse{Accepted: []node.Status{n.Status()}})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if !s.sess.ScanEnabled() {
		writeError(w, http.StatusConflict, "candidate scan is disabled")
		return
	}
	// The previous scan's candidates are already gone when this returns.
	s.sess.StartScan(s.ctx)
	writeJSON(w, http.StatusAccepted, ScanResponse{Started: true})
}

func (s *Server) handleLeaks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LeaksResponse{
		Active:     s.sess.Scanner().Active(),
		Candidates: s.sess.Scanner().Candidates(),
		Report:     s.sess.Report().Leaks,
	})
}

var upgrader = websocket.Upgrader{
	CheckOrigin: checkOrigin,
}

// handleStream upgrades to a WebSocket, sends the current status of every
// node and then every status change until the client goes away. Updates a
// slow client cannot keep up with are dropped; the initial frames and
// /v1/status always give the latest view.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	updates, unsubscribe := s.sess.Table().Subscribe(0)
	defer unsubscribe()

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		var herr websocket.HandshakeError
		if !errors.As(err, &herr) {
			log.Errorf("Unexpected websocket error: %v", err)
		}
		return
	}
	defer ws.Close()
	log.Debugf("Stream client connected from %s", r.RemoteAddr)

	// The hijacked connection keeps the server's request deadlines; replace
	// them with a pong-driven read deadline.
	ws.SetReadDeadline(time.Now().Add(wsPongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	// Reader: only needed to process control frames and notice the close.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(m StreamMessage) error {
		ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return ws.WriteJSON(m)
	}

	for _, st := range s.sess.Table().Snapshot() {
		if err := send(StreamMessage{Type: "status", Status: st}); err != nil {
			return
		}
	}

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case st, ok := <-updates:
			if !ok {
				return
			}
			if err := send(StreamMessage{Type: "status", Status: st}); err != nil {
				log.Debugf("Stream write: %v", err)
				return
			}
		case <-ping.C:
			err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
			if err != nil {
				return
			}
		case <-gone:
			log.Debugf("Stream client %s disconnected", r.RemoteAddr)
			return
		case <-s.ctx.Done():
			ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
				time.Now().Add(wsWriteTimeout))
			return
		}
	}
}

// checkOrigin allows clients without an Origin header and same-host origins.
func checkOrigin(r *http.Request) bool {
	origin := r.Header["Origin"]
	if len(origin) == 0 {
		return true
	}
	u, err := url.Parse(origin[0])
	if err != nil {
		return false
	}
	originHost, requestHost := u.Host, r.Host
	if host, _, err := net.SplitHostPort(originHost); err == nil {
		originHost = host
	}
	if host, _, err := net.SplitHostPort(requestHost); err == nil {
		requestHost = host
	}
	return strings.EqualFold(originHost, requestHost)
}

func withBasicMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := TimeNow()
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
		log.Debugf("%s %s %dms UA=%q", r.Method, r.URL.Path, time.Since(start).Milliseconds(), r.UserAgent())
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIError{
		Error:     msg,
		Timestamp: TimeNow().UTC().Format(time.RFC3339),
	})
}
