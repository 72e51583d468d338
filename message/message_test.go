// file: message/message_test.go
package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Request(t *testing.T) {
	raw := []byte(`{"jsonrpc":"2.0","id":1,"method":"sum","params":{"x":100,"y":-200}}`)
	v, err := Decode(raw)
	require.NoError(t, err)
	req, ok := v.(*Request)
	require.True(t, ok)
	assert.Equal(t, "sum", req.Method)
	assert.False(t, req.IsNotification())
	n, ok := req.ID.IntValue()
	require.True(t, ok)
	assert.Equal(t, int64(1), n)
}

func TestDecode_Notification(t *testing.T) {
	raw := []byte(`{"jsonrpc":"2.0","method":"terminate"}`)
	v, err := Decode(raw)
	require.NoError(t, err)
	req, ok := v.(*Request)
	require.True(t, ok)
	assert.True(t, req.IsNotification())
}

func TestDecode_Response(t *testing.T) {
	raw := []byte(`{"jsonrpc":"2.0","id":1,"result":-100}`)
	v, err := Decode(raw)
	require.NoError(t, err)
	resp, ok := v.(*Response)
	require.True(t, ok)
	assert.True(t, resp.IsSuccess())
}

func TestDecode_RejectsBadVersion(t *testing.T) {
	_, err := Decode([]byte(`{"jsonrpc":"1.0","id":1,"method":"x"}`))
	require.Error(t, err)
	var ce *CodecError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, CodeInvalidRequest, ce.Code)
}

func TestDecode_RejectsMalformedJSON(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	require.Error(t, err)
	var ce *CodecError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, CodeParseError, ce.Code)
}

func TestDecode_RejectsBadParamsShape(t *testing.T) {
	_, err := Decode([]byte(`{"jsonrpc":"2.0","id":1,"method":"x","params":"nope"}`))
	require.Error(t, err)
	var ce *CodecError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, CodeInvalidRequest, ce.Code)
}

func TestEncode_RoundTripsResponse(t *testing.T) {
	resp, err := NewResultResponse(IntID(1), -100)
	require.NoError(t, err)
	data, err := Encode(resp)
	require.NoError(t, err)

	v, err := Decode(data)
	require.NoError(t, err)
	got, ok := v.(*Response)
	require.True(t, ok)
	assert.JSONEq(t, `-100`, string(got.Result))
	assert.True(t, resp.ID.Equal(got.ID))
}

func TestNewRequest_Notification(t *testing.T) {
	req, err := NewRequest(nil, "terminate", nil)
	require.NoError(t, err)
	assert.True(t, req.IsNotification())
}
