package client

import (
	"net/http"
	"sync/atomic"

	"github.com/dmitrijs2005/peeksync/internal/common"
	"github.com/dmitrijs2005/peeksync/internal/protocol"
)

// GateTransport enforces version equality with the server.
type GateTransport struct {
	Base       http.RoundTripper
	ClientName string

	disabled atomic.Bool
}

func NewGateTransport(base http.RoundTripper, clientName string) *GateTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &GateTransport{Base: base, ClientName: clientName}
}

// Disabled reports whether a version mismatch has been seen.
func (t *GateTransport) Disabled() bool {
	return t.disabled.Load()
}

func (t *GateTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.disabled.Load() {
		return nil, common.ErrSyncDisabled
	}

	req = req.Clone(req.Context())
	protocol.SetHeaders(req.Header)
	if t.ClientName != "" {
		req.Header.Set(protocol.HeaderClient, t.ClientName)
	}

	resp, err := t.Base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	// non-2xx passes through unchecked and becomes a transport error
	// in the caller
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, nil
	}

	// checked before anything reads the body
	if err := protocol.CheckHeaders(resp.Header); err != nil {
		_ = resp.Body.Close()
		t.disabled.Store(true)
		return nil, err
	}
	return resp, nil
}
