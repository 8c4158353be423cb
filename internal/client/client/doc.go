// Package client talks to the peek sync server over HTTP.
//
// HTTPClient implements Client on top of net/http. Every request passes
// through GateTransport, which stamps the datastore and protocol version
// headers and refuses any response whose versions differ from the
// compiled-in ones. After the first mismatch the transport stays disabled
// and fails every later request with common.ErrSyncDisabled without
// touching the network.
//
// Errors
//
// Callers match failures with errors.Is / errors.As:
//
//   - ErrUnauthorized for a 401 response
//   - *StatusError for any other non-2xx response
//   - ErrUnavailable for network failures
//   - common.ErrVersionMismatch and common.ErrSyncDisabled from the gate
package client
