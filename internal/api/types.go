// File: internal/api/types.go (complete file)

package api

import (
	"github.com/baptistax/egressprobe/internal/leaks"
	"github.com/baptistax/egressprobe/internal/node"
	"github.com/baptistax/egressprobe/internal/report"
)

// APIError is the body of every non-2xx response.
type APIError struct {
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// ProbeResponse acknowledges a probe request with the nodes as they were
// right after entering probing.
type ProbeResponse struct {
	Accepted []node.Status `json:"accepted"`
}

type ScanResponse struct {
	Started bool `json:"started"`
}

type LeaksResponse struct {
	Active     bool              `json:"active"`
	Candidates []leaks.Candidate `json:"candidates"`
	Report     report.LeakReport `json:"report"`
}

// StreamMessage is one frame of the /v1/ws stream.
type StreamMessage struct {
	Type   string      `json:"type"` // "status"
	Status node.Status `json:"status"`
}
