// Package server implements the request dispatch pipeline (spec §4.5),
// the parameter binder (spec §4.4), and the ServiceHost that ties a
// contract.MethodRegistry, a middleware chain, and a wire.Reader/Writer
// pair together. It is the generalized counterpart of the teacher's
// internal/mcp/router package, rebuilt around this library's own
// contract/message/wire types instead of MCP-specific request types.
// file: server/context.go
package server

import (
	"context"
	"reflect"

	"github.com/dkoosis/jrpc/contract"
	"github.com/dkoosis/jrpc/features"
	"github.com/dkoosis/jrpc/internal/logging"
	"github.com/dkoosis/jrpc/message"
)

// ServiceFactory creates and releases the service instance a dispatched
// method is invoked on (spec §3 Lifecycle, §4.5 steps 4/7: "Instantiate"
// and "Release").
type ServiceFactory interface {
	// New returns a pointer to a value of serviceType (a value of type
	// *serviceType, since methods are resolved on the pointer type),
	// built for this one request. Called once per dispatched request, never shared across
	// concurrent invocations.
	New(ctx context.Context, serviceType reflect.Type) (reflect.Value, error)
	// Release is called exactly once after invocation completes,
	// including when Invoke or binding failed partway through dispatch.
	Release(serviceType reflect.Type, instance reflect.Value)
}

// reflectFactory is the default ServiceFactory: reflect.New, a pointer to
// a fresh zero value, for both value and pointer receivers. Release is a
// no-op.
type reflectFactory struct{}

func (reflectFactory) New(_ context.Context, serviceType reflect.Type) (reflect.Value, error) {
	return reflect.New(serviceType), nil
}

func (reflectFactory) Release(reflect.Type, reflect.Value) {}

// DefaultServiceFactory is used by a ServiceHost that registers no
// factory of its own.
var DefaultServiceFactory ServiceFactory = reflectFactory{}

// RequestContext is the per-request bundle threaded through the pipeline
// (spec §3): a scoped FeatureCollection, the decoded request, the
// pre-allocated response (nil for notifications), and the cancellation
// signal the handler observes. It is created on entry to the pipeline and
// discarded on exit; nothing outlives one dispatch.
type RequestContext struct {
	Context context.Context

	Host     *ServiceHost
	Features *features.Collection

	Request  *message.Request
	Response *message.Response // nil for notifications: no response is ever emitted

	// Method is set once Resolve (§4.5 step 2) has found a registry
	// entry; Binding once Bind (§4.5 step 3) has chosen a candidate.
	Method  *contract.JsonRpcMethod
	Binding reflect.Value

	logger logging.Logger
}

// Logger returns the context's logger, falling back to the host's.
func (rc *RequestContext) Logger() logging.Logger {
	if rc.logger != nil {
		return rc.logger
	}
	return logging.GetNoopLogger()
}

// IsNotification reports whether this dispatch must suppress its
// response (spec §3: "If Response is set to nil ... the pipeline must
// not emit any response message even on error").
func (rc *RequestContext) IsNotification() bool {
	return rc.Response == nil
}

// newRequestContext allocates a RequestContext for one incoming request.
// A notification gets Response == nil; a non-notification gets a
// pre-allocated Response carrying the echoed id, matched in by Dispatch
// once the handler completes.
func newRequestContext(ctx context.Context, host *ServiceHost, req *message.Request) *RequestContext {
	rc := &RequestContext{
		Context:  ctx,
		Host:     host,
		Features: features.NewScoped(host.defaults),
		Request:  req,
		logger:   host.logger,
	}
	if !req.IsNotification() {
		rc.Response = &message.Response{JSONRPC: message.Version, ID: req.ID}
	}
	return rc
}
