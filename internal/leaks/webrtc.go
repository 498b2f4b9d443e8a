// File: internal/leaks/webrtc.go (complete file)

package leaks

import (
	"context"
	"fmt"
	"time"

	"github.com/pion/webrtc/v4"
)

// DefaultICEServers are public STUN reflectors used to force server-reflexive
// candidates, i.e. the address the outside world sees for UDP.
var DefaultICEServers = []string{
	"stun:stun.l.google.com:19302",
	"stun:stun1.l.google.com:19302",
	"stun:stun2.l.google.com:19302",
}

const defaultGatherTimeout = 10 * time.Second

// PeerNegotiator gathers ICE candidates with a local WebRTC peer connection.
// No remote peer is ever contacted; the session exists only until gathering
// completes.
type PeerNegotiator struct {
	ICEServers []string
	Timeout    time.Duration
}

func (n *PeerNegotiator) Gather(ctx context.Context) (<-chan string, error) {
	servers := n.ICEServers
	if len(servers) == 0 {
		servers = DefaultICEServers
	}
	timeout := n.Timeout
	if timeout <= 0 {
		timeout = defaultGatherTimeout
	}

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{{URLs: servers}},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCapabilityUnavailable, err)
	}

	// An offer without any media or data section gathers nothing.
	if _, err := pc.CreateDataChannel("egressprobe", nil); err != nil {
		_ = pc.Close()
		return nil, fmt.Errorf("create data channel: %w", err)
	}

	events := make(chan *webrtc.ICECandidate, 16)
	stop := make(chan struct{})
	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		select {
		case events <- c:
		case <-stop:
		}
	})

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		close(stop)
		_ = pc.Close()
		return nil, fmt.Errorf("create offer: %w", err)
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		close(stop)
		_ = pc.Close()
		return nil, fmt.Errorf("set local description: %w", err)
	}

	out := make(chan string)
	go func() {
		defer close(out)
		defer func() {
			close(stop)
			if err := pc.Close(); err != nil {
				log.Debugf("Closing peer connection: %v", err)
			}
		}()

		timer := time.NewTimer(timeout)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				log.Debugf("Candidate gathering did not complete within %s", timeout)
				return
			case c := <-events:
				// A nil candidate marks the end of gathering.
				if c == nil {
					return
				}
				select {
				case out <- c.ToJSON().Candidate:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
