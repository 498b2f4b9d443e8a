// File: internal/vantage/normalize.go (complete file)

package vantage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrMalformedResponse means the body could not be decoded at all for the
// declared kind. Missing fields are not malformed; they become Unknown.
var ErrMalformedResponse = errors.New("malformed response")

type adapter func(body []byte) (Result, error)

var adapters = map[Kind]adapter{
	KindLocalExit:        normalizeLocalExit,
	KindGlobalExit:       normalizeGlobalExit,
	KindAccelerationNode: normalizeAccelerationNode,
}

// Normalize reduces a raw endpoint body to a Result using the adapter for kind.
// RoundTripMillis is left zero; the caller owns timing.
func Normalize(kind Kind, body []byte) (Result, error) {
	a, ok := adapters[kind]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return a(body)
}

// ipinfo-style payload: ip, city, region, country, org.
func normalizeLocalExit(body []byte) (Result, error) {
	raw, err := decodeObject(body)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Address: orUnknown(pickString(raw, "ip", "ip_address", "address")),
		Location: joinLocation(
			pickString(raw, "city"),
			pickString(raw, "region", "region_name"),
			pickString(raw, "country", "country_name"),
		),
		Operator: orUnknown(pickString(raw, "isp", "org", "organization")),
	}, nil
}

// ip-api-style payload: query, city, regionName, country, isp.
func normalizeGlobalExit(body []byte) (Result, error) {
	raw, err := decodeObject(body)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Address: orUnknown(pickString(raw, "query", "ipAddress")),
		Location: joinLocation(
			pickString(raw, "city", "cityName"),
			pickString(raw, "regionName"),
			pickString(raw, "country", "countryName", "countryCode"),
		),
		Operator: orUnknown(pickString(raw, "isp", "org", "as")),
	}, nil
}

// Trace-style payload: newline separated key=value pairs. Only the ip, loc and
// colo lines are located, by prefix; everything else is ignored.
func normalizeAccelerationNode(body []byte) (Result, error) {
	if !utf8.Valid(body) {
		return Result{}, fmt.Errorf("%w: body is not text", ErrMalformedResponse)
	}

	var addr, loc, colo string
	pairs := 0
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, "=") {
			continue
		}
		pairs++
		switch {
		case strings.HasPrefix(line, "ip=") && addr == "":
			addr = strings.TrimSpace(strings.TrimPrefix(line, "ip="))
		case strings.HasPrefix(line, "loc=") && loc == "":
			loc = strings.TrimSpace(strings.TrimPrefix(line, "loc="))
		case strings.HasPrefix(line, "colo=") && colo == "":
			colo = strings.TrimSpace(strings.TrimPrefix(line, "colo="))
		}
	}
	if pairs == 0 {
		return Result{}, fmt.Errorf("%w: no key=value lines", ErrMalformedResponse)
	}

	operator := Unknown
	if colo != "" {
		operator = "edge " + colo
	}
	return Result{
		Address:  orUnknown(addr),
		Location: orUnknown(loc),
		Operator: operator,
	}, nil
}

func decodeObject(body []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}

	var raw map[string]any
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	// "null" decodes without error.
	if raw == nil {
		return nil, fmt.Errorf("%w: not a JSON object", ErrMalformedResponse)
	}
	return raw, nil
}

// pickString returns the first non-empty value among keys. Numbers are
// rendered without decimals (some providers send the ASN as a number).
func pickString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return s
			}
		case float64:
			return fmt.Sprintf("%.0f", t)
		}
	}
	return ""
}

func joinLocation(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return Unknown
	}
	return strings.Join(out, ", ")
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}
