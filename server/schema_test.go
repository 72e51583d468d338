// file: server/schema_test.go
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

func TestSchemaValidationMiddleware_RejectsNonConformingParams(t *testing.T) {
	source := MapSchemaSource{
		"add": []byte(`{
			"type": "object",
			"required": ["x", "y"],
			"properties": {"x": {"type": "integer"}, "y": {"type": "integer"}}
		}`),
	}
	h := NewServiceHost(WithMiddleware(SchemaValidationMiddleware(source)))
	require.NoError(t, h.Register(reflect.TypeOf(demoService{}), "Add", contract.WithName("add")))

	req := &message.Request{JSONRPC: message.Version, ID: message.IntID(1), Method: "add", Params: []byte(`{"x":"not-a-number","y":2}`)}
	rc := newRequestContext(context.Background(), h, req)
	h.chain.handler()(context.Background(), rc)

	require.NotNil(t, rc.Response.Error)
	assert.Equal(t, rpcerrors.CodeInvalidParams, rc.Response.Error.Code)
}

func TestSchemaValidationMiddleware_PassesConformingParamsThrough(t *testing.T) {
	source := MapSchemaSource{
		"add": []byte(`{
			"type": "object",
			"required": ["x", "y"],
			"properties": {"x": {"type": "integer"}, "y": {"type": "integer"}}
		}`),
	}
	h := NewServiceHost(WithMiddleware(SchemaValidationMiddleware(source)))
	require.NoError(t, h.Register(reflect.TypeOf(demoService{}), "Add", contract.WithName("add")))

	req := &message.Request{JSONRPC: message.Version, ID: message.IntID(1), Method: "add", Params: []byte(`{"x":2,"y":3}`)}
	rc := newRequestContext(context.Background(), h, req)
	h.chain.handler()(context.Background(), rc)

	require.Nil(t, rc.Response.Error)
	assert.JSONEq(t, `5`, string(rc.Response.Result))
}

func TestSchemaValidationMiddleware_UnconfiguredMethodPassesThrough(t *testing.T) {
	h := NewServiceHost(WithMiddleware(SchemaValidationMiddleware(MapSchemaSource{})))
	require.NoError(t, h.Register(reflect.TypeOf(demoService{}), "Add", contract.WithName("add")))

	req := &message.Request{JSONRPC: message.Version, ID: message.IntID(1), Method: "add", Params: []byte(`{"x":2,"y":3}`)}
	rc := newRequestContext(context.Background(), h, req)
	h.chain.handler()(context.Background(), rc)
	require.Nil(t, rc.Response.Error)
}
