// File: internal/api/doc.go (complete file)

// Package api exposes a small local HTTP surface over a probe session.
//
// Routes
//
// All routes are versioned under /v1:
//
//   - GET  /v1/healthz: liveness
//   - GET  /v1/status: every node plus the leak assessment of the last scan
//   - POST /v1/probe: re-probe every vantage point
//   - POST /v1/probe/{name}: re-probe a single vantage point
//   - POST /v1/scan: start a new candidate scan
//   - GET  /v1/leaks: candidates and assessment of the current scan
//   - GET  /v1/ws: WebSocket stream of node status updates
//
// Probe and scan requests return 202 immediately; outcomes are observed
// through /v1/status or the stream, never by holding the request open.
//
// Error Model
//
// APIError carries a message and an RFC3339 timestamp.
package api
