// file: server/dispatcher_test.go
package server

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/jrpc/contract"
	"github.com/dkoosis/jrpc/message"
	"github.com/dkoosis/jrpc/rpcerrors"
)

type addParams struct {
	X int `jrpc:"x"`
	Y int `jrpc:"y"`
}

type throwParams struct{}

type demoService struct{}

func (demoService) Add(p addParams) (int, error) { return p.X + p.Y, nil }

func (demoService) ThrowException() (int, error) {
	return 0, rpcerrors.NewRpcException(rpcerrors.CodeUnhandledException, "demoError: boom", map[string]any{"exceptionType": "demoError"})
}

func (demoService) Terminate(p struct{}) {}

func newDemoHost(t *testing.T) *ServiceHost {
	t.Helper()
	h := NewServiceHost()
	require.NoError(t, h.Register(reflect.TypeOf(demoService{}), "Add", contract.WithName("add")))
	require.NoError(t, h.Register(reflect.TypeOf(demoService{}), "ThrowException", contract.WithName("throwException")))
	require.NoError(t, h.Register(reflect.TypeOf(demoService{}), "Terminate", contract.WithName("terminate"), contract.AsNotification()))
	return h
}

func dispatch(t *testing.T, h *ServiceHost, req *message.Request) *RequestContext {
	t.Helper()
	rc := newRequestContext(context.Background(), h, req)
	Dispatch(context.Background(), rc)
	return rc
}

func TestDispatch_SumScenario(t *testing.T) {
	h := newDemoHost(t)
	req := &message.Request{JSONRPC: message.Version, ID: message.IntID(1), Method: "add", Params: []byte(`{"x":100,"y":-200}`)}
	rc := dispatch(t, h, req)
	require.NotNil(t, rc.Response)
	assert.Nil(t, rc.Response.Error)
	assert.JSONEq(t, `-100`, string(rc.Response.Result))
}

func TestDispatch_UnhandledExceptionMapsToReservedCode(t *testing.T) {
	h := newDemoHost(t)
	req := &message.Request{JSONRPC: message.Version, ID: message.IntID(456), Method: "throwException"}
	rc := dispatch(t, h, req)
	require.NotNil(t, rc.Response.Error)
	assert.Equal(t, rpcerrors.CodeUnhandledException, rc.Response.Error.Code)
}

func TestDispatch_UnknownMethod(t *testing.T) {
	h := newDemoHost(t)
	req := &message.Request{JSONRPC: message.Version, ID: message.IntID(7), Method: "unknown"}
	rc := dispatch(t, h, req)
	require.NotNil(t, rc.Response.Error)
	assert.Equal(t, rpcerrors.CodeMethodNotFound, rc.Response.Error.Code)
}

func TestDispatch_MissingRequiredParam(t *testing.T) {
	h := newDemoHost(t)
	req := &message.Request{JSONRPC: message.Version, ID: message.IntID(8), Method: "add", Params: []byte(`{"x":1}`)}
	rc := dispatch(t, h, req)
	require.NotNil(t, rc.Response.Error)
	assert.Equal(t, rpcerrors.CodeInvalidParams, rc.Response.Error.Code)
}

func TestDispatch_NotificationEmitsNoResponse(t *testing.T) {
	h := newDemoHost(t)
	req := &message.Request{JSONRPC: message.Version, Method: "terminate", Params: []byte(`{}`)}
	rc := dispatch(t, h, req)
	assert.Nil(t, rc.Response)
}

func TestDispatch_NullMethodIsInvalidRequest(t *testing.T) {
	h := newDemoHost(t)
	req := &message.Request{JSONRPC: message.Version, ID: message.IntID(9), Method: ""}
	rc := dispatch(t, h, req)
	require.NotNil(t, rc.Response.Error)
	assert.Equal(t, rpcerrors.CodeInvalidRequest, rc.Response.Error.Code)
}

func TestDispatch_OverloadByParameterType(t *testing.T) {
	h := NewServiceHost()
	require.NoError(t, h.Register(reflect.TypeOf(overloadService{}), "AddInts", contract.WithName("add")))
	require.NoError(t, h.Register(reflect.TypeOf(overloadService{}), "AddStrings", contract.WithName("add")))

	intReq := &message.Request{JSONRPC: message.Version, ID: message.IntID(123), Method: "add", Params: []byte(`{"x":20,"y":35}`)}
	rc := dispatch(t, h, intReq)
	require.Nil(t, rc.Response.Error)
	assert.JSONEq(t, `55`, string(rc.Response.Result))

	strReq := &message.Request{JSONRPC: message.Version, ID: message.StringID("TEST"), Method: "add", Params: []byte(`{"a":"abc","b":"def"}`)}
	rc2 := dispatch(t, h, strReq)
	require.Nil(t, rc2.Response.Error)
	assert.JSONEq(t, `"abcdef"`, string(rc2.Response.Result))
}
