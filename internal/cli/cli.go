// File: internal/cli/cli.go (complete file)

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	flags "github.com/jessevdk/go-flags"
	"golang.org/x/term"

	"github.com/baptistax/egressprobe/internal/api"
	"github.com/baptistax/egressprobe/internal/app"
	"github.com/baptistax/egressprobe/internal/leaks"
	"github.com/baptistax/egressprobe/internal/logging"
	"github.com/baptistax/egressprobe/internal/monitor"
	"github.com/baptistax/egressprobe/internal/netutil"
	"github.com/baptistax/egressprobe/internal/node"
	"github.com/baptistax/egressprobe/internal/report"
	"github.com/baptistax/egressprobe/internal/runctx"
	"github.com/baptistax/egressprobe/internal/version"
)

// Run executes the command line and returns the process exit code: 0 on
// success, 1 on runtime failure and 2 on invalid usage.
func Run(args []string) int {
	return run(args, os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := loadConfig(args, stdout)
	if err != nil {
		var e *flags.Error
		if errors.As(err, &e) && e.Type == flags.ErrHelp {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	if cfg.command == "version" {
		fmt.Fprintf(stdout, "egressprobe %s (commit=%s build_date=%s)\n", version.Version, version.Commit, version.BuildDate)
		return 0
	}

	if err := logging.Setup(cfg.LogLevel, cfg.LogFile); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	defer logging.Close()
	useLoggers()

	// Allow Ctrl+C to stop the run.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)
	go func() {
		select {
		case <-stop:
			log.Infof("Interrupt received, shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	var geo *leaks.GeoIP
	if cfg.GeoIPDB != "" {
		geo, err = leaks.OpenGeoIP(cfg.GeoIPDB)
		if err != nil {
			log.Warnf("GeoIP database unavailable, candidates will not be located: %v", err)
			geo = nil
		} else {
			defer geo.Close()
		}
	}

	out := &console{w: stdout, live: cfg.Format == "text" && isTerminal(stdout)}
	sess, err := newSession(cfg, geo, out)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	switch cfg.command {
	case "monitor":
		return runMonitor(ctx, cfg, sess, out)
	case "serve":
		return runServe(ctx, cfg, sess)
	default:
		return runSnapshot(ctx, cfg, sess, out)
	}
}

func newSession(cfg *config, geo *leaks.GeoIP, out *console) (*app.Session, error) {
	opt := app.Options{
		Points: cfg.points,
		Client: netutil.HTTPClient(netutil.ClientOptions{
			Family:    cfg.Family,
			Proxy:     cfg.Proxy,
			ProxyUser: cfg.ProxyUser,
			ProxyPass: cfg.ProxyPass,
		}),
		ProbeTimeout: cfg.ProbeTimeout,
		NoScan:       cfg.NoScan,
	}
	if !cfg.NoScan {
		var servers []string
		for _, v := range cfg.STUN {
			servers = append(servers, splitCSV(v)...)
		}
		opt.Negotiator = &leaks.PeerNegotiator{ICEServers: servers}
	}
	if geo != nil {
		opt.Locator = geo
	}
	if out.live {
		opt.OnCandidate = func(c leaks.Candidate) {
			out.printf("  candidate %s\n", c.Address)
		}
	}
	return app.NewSession(opt)
}

func runSnapshot(ctx context.Context, cfg *config, sess *app.Session, out *console) int {
	rc, err := runctx.New(cfg.Exports)
	if err != nil {
		log.Errorf("Failed to create run directory: %v", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	stopProgress := func() {}
	if out.live {
		stopProgress = out.follow(sess.Table())
	}
	s := sess.TakeSnapshot(ctx)
	stopProgress()
	s.RunID = rc.RunID

	if err := report.WriteJSON(rc.Path("snapshot.json"), s); err != nil {
		log.Errorf("Failed to write snapshot.json: %v", err)
	}
	if err := report.WriteText(rc.Path("snapshot.txt"), s); err != nil {
		log.Errorf("Failed to write snapshot.txt: %v", err)
	}

	if cfg.Format == "json" {
		_ = report.EncodeJSON(out.w, s)
		return 0
	}

	out.printf("\n%s", report.RenderText(s))
	out.printf("\nOutputs written to: %s\n", rc.OutputDir)
	return 0
}

func runMonitor(ctx context.Context, cfg *config, sess *app.Session, out *console) int {
	opt := monitor.Options{
		Interval: cfg.Monitor.Interval,
		Timeout:  cfg.ProbeTimeout + 10*time.Second,
	}

	monitor.Run(ctx, sess, opt, func(ev monitor.Event) {
		if cfg.Format == "json" {
			_ = report.EncodeJSON(out.w, ev)
			return
		}

		out.printf("[%s] %s\n", ev.AtUTC.Format("2006-01-02T15:04:05Z"), ev.Message)
		if ev.Kind == "baseline" {
			out.printf("%s", report.RenderText(*ev.Current))
		}
		for _, c := range ev.Changes {
			out.printf("  %s\n", c)
		}
		out.printf("\n")
	})
	return 0
}

func runServe(ctx context.Context, cfg *config, sess *app.Session) int {
	srv := api.NewServer(sess, api.ServerOptions{Addr: cfg.Serve.Listen})

	sess.Orchestrator().ProbeAll(ctx)
	if sess.ScanEnabled() {
		sess.StartScan(ctx)
	}

	if err := srv.ListenAndServe(ctx); err != nil {
		log.Errorf("API server: %v", err)
		return 1
	}
	return 0
}

// console serializes writes from the progress follower and the command.
type console struct {
	mu   sync.Mutex
	w    io.Writer
	live bool
}

func (c *console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, format, args...)
}

// follow prints each node outcome as it settles.
func (c *console) follow(tbl *node.Table) func() {
	updates, unsubscribe := tbl.Subscribe(0)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for st := range updates {
			if st.State.Settled() {
				c.printf("%s\n", report.RenderNode(app.NodeReport(st)))
			}
		}
	}()
	return func() {
		unsubscribe()
		<-done
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
