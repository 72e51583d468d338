// file: server/dispatcher.go
package server

import (
	"context"
	"reflect"

	"github.com/cockroachdb/errors"

	"github.com/dkoosis/jrpc/contract"
	"github.com/dkoosis/jrpc/message"
	"github.com/dkoosis/jrpc/rpcerrors"
)

// Dispatch is the innermost Handler (spec §4.5): Validate, Resolve, Bind,
// Instantiate, Invoke, map result to response, Release. Every exit path
// (including a panic recovered by dispatch itself) passes through
// Release exactly once per Instantiate, and every exit path other than a
// notification leaves rc.Response populated with exactly one of
// result/error.
func Dispatch(ctx context.Context, rc *RequestContext) {
	lifecycle := newRequestLifecycle(rc.Logger())

	if err := validateRequest(rc.Request); err != nil {
		lifecycle.advance(ctx, eventFail, rc.Logger())
		rc.setError(err)
		return
	}

	candidates := rc.Host.methods.Candidates(rc.Request.Method)
	if len(candidates) == 0 {
		lifecycle.advance(ctx, eventFail, rc.Logger())
		rc.setError(&message.Error{
			Code:    rpcerrors.CodeMethodNotFound,
			Message: "method not found: " + rc.Request.Method,
		})
		return
	}

	method, paramsValue, bindErr := bind(candidates, rc.Request.Params)
	if bindErr != nil {
		lifecycle.advance(ctx, eventFail, rc.Logger())
		be, _ := bindErr.(*bindError)
		rc.setError(&message.Error{Code: be.code, Message: be.message})
		return
	}
	rc.Method = method
	lifecycle.advance(ctx, eventBind, rc.Logger())

	serviceValue, instErr := rc.Host.factory().New(ctx, method.ServiceType)
	if instErr != nil {
		lifecycle.advance(ctx, eventFail, rc.Logger())
		rc.setError(rpcerrors.ToRPCError(instErr, rc.Host.emitStackTraces))
		return
	}
	defer rc.Host.factory().Release(method.ServiceType, serviceValue)

	rc.Binding = paramsValue
	result, invokeErr := invokeWithRecover(ctx, method, serviceValue, paramsValue)

	if invokeErr != nil {
		lifecycle.advance(ctx, eventFail, rc.Logger())
		rc.setError(mapInvocationError(invokeErr, rc.Host.emitStackTraces))
		return
	}

	lifecycle.advance(ctx, eventInvoke, rc.Logger())
	rc.setResult(result, method)
	lifecycle.advance(ctx, eventComplete, rc.Logger())
}

// invokeWithRecover calls method.Invoke, converting a handler panic into
// an error rather than letting it cross the dispatcher boundary (spec
// §4.5 exception policy: "Any other exception ... is converted to an
// Error with code UnhandledException").
func invokeWithRecover(ctx context.Context, method *contract.JsonRpcMethod, serviceValue, paramsValue reflect.Value) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = errors.Wrap(e, "panic in handler")
			} else {
				err = errors.Newf("panic in handler: %v", r)
			}
		}
	}()
	return method.Invoke(ctx, serviceValue, paramsValue)
}

func mapInvocationError(err error, emitStack bool) *message.Error {
	var rpcExc *rpcerrors.RpcException
	if errors.As(err, &rpcExc) {
		return rpcExc.Err
	}
	return rpcerrors.ToRPCError(err, emitStack)
}

func validateRequest(req *message.Request) *message.Error {
	if req.Method == "" {
		return &message.Error{Code: rpcerrors.CodeInvalidRequest, Message: "method is null, missing, or empty"}
	}
	return nil
}

// setError places err into rc.Response and clears result, unless this
// request is a notification (spec §3: notifications never emit a
// response even on error).
func (rc *RequestContext) setError(err *message.Error) {
	if rc.Response == nil {
		return
	}
	rc.Response.Result = nil
	rc.Response.Error = err
}

// setResult maps a handler's return value to the response (spec §4.5
// step 6): a void method yields JSON null; otherwise the return is
// converted via the method's Return parameter. A notification's
// RequestContext has no Response to populate, so the result is simply
// dropped — it was still computed, satisfying "all of the above is
// computed but no response is emitted".
func (rc *RequestContext) setResult(result any, method *contract.JsonRpcMethod) {
	if rc.Response == nil {
		return
	}
	if method.Return.Type == nil || result == nil {
		rc.Response.Result = []byte("null")
		return
	}
	raw, err := method.Return.Converter.ToJSON(reflect.ValueOf(result))
	if err != nil {
		rc.setError(rpcerrors.ToRPCError(errors.Wrap(err, "marshaling return value"), rc.Host.emitStackTraces))
		return
	}
	rc.Response.Result = raw
}
