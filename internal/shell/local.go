package shell

import (
	"context"

	"github.com/nao1215/peermark/internal/hostgate"
	"github.com/nao1215/peermark/internal/message"
)

// Local answers permission questions from an in-process gate.
type Local struct {
	gate *hostgate.Gate
}

// NewLocal wraps gate.
func NewLocal(gate *hostgate.Gate) *Local {
	return &Local{gate: gate}
}

// IsDisabled reports whether url's host is opted out. It never fails.
func (l *Local) IsDisabled(_ context.Context, url string) (bool, error) {
	return l.gate.IsDisabled(url), nil
}

// Status returns the opt-out status of url's host.
func (l *Local) Status(url string) HostStatus {
	return statusOf(l.gate, url)
}

// Reply returns the answer to a PageReady for url: EnableAnnotations, or
// nil when the host is opted out.
func (l *Local) Reply(url string) message.Message {
	if l.gate.IsDisabled(url) {
		return nil
	}
	return message.EnableAnnotations{}
}

func statusOf(gate *hostgate.Gate, url string) HostStatus {
	status := HostStatus{Host: hostgate.Normalize(url)}
	if mode, ok := gate.Mode(url); ok {
		status.Disabled = true
		status.Mode = mode.String()
	}
	return status
}
