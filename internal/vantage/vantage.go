// File: internal/vantage/vantage.go (complete file)

package vantage

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Kind selects which response adapter applies to a vantage point.
type Kind string

const (
	KindLocalExit        Kind = "local-exit"
	KindGlobalExit       Kind = "global-exit"
	KindAccelerationNode Kind = "acceleration-node"
)

var ErrUnknownKind = errors.New("unknown vantage kind")

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := adapters[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Point is one configured vantage point. Points are built once at startup
// and never mutated, so they can be shared freely between probes.
type Point struct {
	Name     string `json:"name"`
	Kind     Kind   `json:"kind"`
	Endpoint string `json:"endpoint"`
}

// Unknown is the label used for any field a provider did not report.
const Unknown = "Unknown"

// Result is the uniform view of one successful probe.
//
// RoundTripMillis is measured from request start until the body has been read
// and normalized. It includes server and parse time and is not network latency.
type Result struct {
	Address         string `json:"address"`
	Location        string `json:"location"`
	Operator        string `json:"operator"`
	RoundTripMillis int64  `json:"round_trip_ms"`
}

// Defaults returns the built-in vantage set: one domestic exit view, one
// international exit view and one CDN edge trace.
func Defaults() []Point {
	return []Point{
		{Name: "local-exit", Kind: KindLocalExit, Endpoint: "https://ipinfo.io/json"},
		{Name: "global-exit", Kind: KindGlobalExit, Endpoint: "http://ip-api.com/json"},
		{Name: "edge-node", Kind: KindAccelerationNode, Endpoint: "https://www.cloudflare.com/cdn-cgi/trace"},
	}
}

// ParsePoint parses the "name,kind,url" form used on the command line and in
// configuration files.
func ParsePoint(spec string) (Point, error) {
	parts := strings.SplitN(spec, ",", 3)
	if len(parts) != 3 {
		return Point{}, fmt.Errorf("vantage %q: want name,kind,url", spec)
	}

	name := strings.TrimSpace(parts[0])
	if name == "" {
		return Point{}, fmt.Errorf("vantage %q: empty name", spec)
	}
	kind, err := ParseKind(parts[1])
	if err != nil {
		return Point{}, fmt.Errorf("vantage %q: %w", spec, err)
	}
	endpoint := strings.TrimSpace(parts[2])
	if err := checkEndpoint(endpoint); err != nil {
		return Point{}, fmt.Errorf("vantage %q: %w", spec, err)
	}

	return Point{Name: name, Kind: kind, Endpoint: endpoint}, nil
}

// Validate rejects empty sets, duplicate names, unknown kinds and endpoints
// that are not absolute http(s) URLs.
func Validate(points []Point) error {
	if len(points) == 0 {
		return errors.New("no vantage points configured")
	}
	seen := make(map[string]bool, len(points))
	for _, p := range points {
		if strings.TrimSpace(p.Name) == "" {
			return errors.New("vantage point with empty name")
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate vantage point %q", p.Name)
		}
		seen[p.Name] = true
		if _, ok := adapters[p.Kind]; !ok {
			return fmt.Errorf("vantage %q: %w: %q", p.Name, ErrUnknownKind, p.Kind)
		}
		if err := checkEndpoint(p.Endpoint); err != nil {
			return fmt.Errorf("vantage %q: %w", p.Name, err)
		}
	}
	return nil
}

func checkEndpoint(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("bad endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("bad endpoint %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("bad endpoint %q: missing host", raw)
	}
	return nil
}
