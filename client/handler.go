// Package client implements the correlation engine that pairs outgoing
// JSON-RPC requests with their eventual responses (spec §4.6): a
// pending-request table keyed by message id, a background reader loop
// that demultiplexes inbound responses, and cancellation that never
// leaks a waiter.
// file: client/handler.go
package client

import (
	"context"

	"github.com/dkoosis/jrpc/message"
)

// Handler is the client-side transport interface (spec §6): it sends a
// request and returns the matching response, or nil for a notification.
// An implementation that cannot complete the round trip fails with a
// *rpcerrors.ClientError. A request/response transport such as HTTP can
// implement Handler directly, since each reply IS the matching response;
// a persistent duplex connection instead uses Client, which implements
// Handler on top of its own correlation table.
type Handler interface {
	Send(ctx context.Context, req *message.Request) (*message.Response, error)
}
