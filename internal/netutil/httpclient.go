// File: internal/netutil/httpclient.go (complete file)

package netutil

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/decred/go-socks/socks"
)

// ClientOptions controls how probe traffic leaves the host.
type ClientOptions struct {
	// Family forces the dial network: "ipv4", "ipv6" or anything else for both.
	// It is not applied when Proxy is set.
	Family string

	// Proxy, when set, routes every connection through a SOCKS5 proxy at
	// host:port. The vantage points then report the proxy's exit, which is
	// what the leak scanner compares candidates against.
	Proxy     string
	ProxyUser string
	ProxyPass string

	// Timeout is a safety net on top of the per-probe deadline. Zero disables it.
	Timeout time.Duration
}

type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

func HTTPClient(opt ClientOptions) *http.Client {
	transport := &http.Transport{
		DialContext:         dialerFor(opt),
		TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		TLSHandshakeTimeout: 6 * time.Second,
		// Each probe should see a fresh path; reused connections would hide
		// a changed exit.
		DisableKeepAlives: true,
	}

	return &http.Client{
		Timeout:   opt.Timeout,
		Transport: transport,
	}
}

func dialerFor(opt ClientOptions) dialFunc {
	if strings.TrimSpace(opt.Proxy) != "" {
		proxy := &socks.Proxy{
			Addr:     opt.Proxy,
			Username: opt.ProxyUser,
			Password: opt.ProxyPass,
		}
		return proxy.DialContext
	}

	dialer := &net.Dialer{
		Timeout:   6 * time.Second,
		KeepAlive: 15 * time.Second,
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		switch strings.ToLower(opt.Family) {
		case "ipv4":
			return dialer.DialContext(ctx, "tcp4", addr)
		case "ipv6":
			return dialer.DialContext(ctx, "tcp6", addr)
		default:
			return dialer.DialContext(ctx, network, addr)
		}
	}
}
