// file: server/host_test.go
package server

import (
	"context"
	"io"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/jrpc/contract"
	"github.com/dkoosis/jrpc/message"
	"github.com/dkoosis/jrpc/wire"
)

func TestServiceHost_ServeRoundTrip(t *testing.T) {
	h := NewServiceHost()
	require.NoError(t, h.Register(reflect.TypeOf(demoService{}), "Add", contract.WithName("add")))

	serverSide, clientSide := wire.NewInMemoryPipe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = h.Serve(ctx, serverSide.Reader, serverSide.Writer) }()

	req, err := message.NewRequest(message.IntID(1), "add", map[string]int{"x": 2, "y": 3})
	require.NoError(t, err)
	require.NoError(t, clientSide.Writer.Write(ctx, req))

	readCtx, readCancel := context.WithTimeout(ctx, 2*time.Second)
	defer readCancel()
	msg, err := clientSide.Reader.Read(readCtx)
	require.NoError(t, err)

	resp, ok := msg.(*message.Response)
	require.True(t, ok)
	assert.Nil(t, resp.Error)
	assert.JSONEq(t, `5`, string(resp.Result))
}

func TestServiceHost_NotificationProducesNoResponse(t *testing.T) {
	h := NewServiceHost()
	require.NoError(t, h.Register(reflect.TypeOf(demoService{}), "Terminate", contract.WithName("terminate"), contract.AsNotification()))
	require.NoError(t, h.Register(reflect.TypeOf(demoService{}), "Add", contract.WithName("add")))

	serverSide, clientSide := wire.NewInMemoryPipe()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = h.Serve(ctx, serverSide.Reader, serverSide.Writer) }()

	notif, err := message.NewRequest(nil, "terminate", struct{}{})
	require.NoError(t, err)
	require.NoError(t, clientSide.Writer.Write(ctx, notif))

	req, err := message.NewRequest(message.IntID(2), "add", map[string]int{"x": 1, "y": 1})
	require.NoError(t, err)
	require.NoError(t, clientSide.Writer.Write(ctx, req))

	readCtx, readCancel := context.WithTimeout(ctx, 2*time.Second)
	defer readCancel()
	msg, err := clientSide.Reader.Read(readCtx)
	require.NoError(t, err)

	resp, ok := msg.(*message.Response)
	require.True(t, ok)
	assert.Equal(t, int64(2), mustIntID(t, resp.ID))
}

// TestServiceHost_MalformedFrameGetsResponseAndKeepsServing drives the
// gap the old host.go had: a single bad frame (here, truncated/invalid
// JSON) must get an InvalidRequest/ParseError response with a null id,
// and the connection must keep serving well-formed requests afterward.
func TestServiceHost_MalformedFrameGetsResponseAndKeepsServing(t *testing.T) {
	h := NewServiceHost()
	require.NoError(t, h.Register(reflect.TypeOf(demoService{}), "Add", contract.WithName("add")))

	clientToServer, serverFromClient := io.Pipe()
	serverToClient, clientFromServer := io.Pipe()

	serverReader := wire.NewMessageReader(wire.NewLineReader(serverFromClient))
	serverWriter := wire.NewMessageWriter(wire.NewLineWriter(serverToClient))
	rawWriter := wire.NewLineWriter(clientToServer)
	clientReader := wire.NewMessageReader(wire.NewLineReader(clientFromServer))
	clientWriter := wire.NewMessageWriter(wire.NewLineWriter(clientToServer))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = h.Serve(ctx, serverReader, serverWriter) }()

	require.NoError(t, rawWriter.WriteFrame(ctx, []byte(`not valid json`)))

	readCtx, readCancel := context.WithTimeout(ctx, 2*time.Second)
	defer readCancel()
	msg, err := clientReader.Read(readCtx)
	require.NoError(t, err)
	resp, ok := msg.(*message.Response)
	require.True(t, ok)
	require.NotNil(t, resp.Error)
	assert.Equal(t, message.CodeParseError, resp.Error.Code)
	assert.True(t, resp.ID.IsNull())

	req, err := message.NewRequest(message.IntID(7), "add", map[string]int{"x": 4, "y": 5})
	require.NoError(t, err)
	require.NoError(t, clientWriter.Write(ctx, req))

	msg, err = clientReader.Read(readCtx)
	require.NoError(t, err)
	resp, ok = msg.(*message.Response)
	require.True(t, ok)
	assert.Nil(t, resp.Error)
	assert.JSONEq(t, `9`, string(resp.Result))
}

func mustIntID(t *testing.T, id *message.ID) int64 {
	t.Helper()
	v, ok := id.IntValue()
	require.True(t, ok)
	return v
}
