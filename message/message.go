// file: message/message.go
package message

import (
	"encoding/json"
	"fmt"
)

// Version is the JSON-RPC protocol version every message carries.
const Version = "2.0"

// Reserved JSON-RPC 2.0 error codes (spec §3).
const (
	CodeParseError        = -32700
	CodeInvalidRequest    = -32600
	CodeMethodNotFound    = -32601
	CodeInvalidParams     = -32602
	CodeInternalError     = -32603
	CodeUnhandledException = -32010
)

// Error is the JSON-RPC error object. Exactly one of a Response's Result
// or Error fields is populated; Error is never populated alongside a
// non-null Result.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil jsonrpc error>"
	}
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Request is a JSON-RPC request. A Request whose ID is nil (the "id"
// field absent from the wire) is a notification: it elicits no response.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *ID             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the request carries no id.
func (r *Request) IsNotification() bool {
	return r.ID == nil
}

// Response is a JSON-RPC response. Exactly one of Result/Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *ID             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// IsSuccess reports whether the response carries a result rather than an
// error.
func (r *Response) IsSuccess() bool {
	return r.Error == nil
}

// NewRequest builds a Request carrying the given id. Pass a nil id to
// build a notification.
func NewRequest(id *ID, method string, params any) (*Request, error) {
	paramsJSON, err := marshalParams(params)
	if err != nil {
		return nil, &CodecError{Code: CodeInternalError, Message: "failed to marshal params: " + err.Error()}
	}
	return &Request{
		JSONRPC: Version,
		ID:      id,
		Method:  method,
		Params:  paramsJSON,
	}, nil
}

// NewResultResponse builds a successful Response.
func NewResultResponse(id *ID, result any) (*Response, error) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, &CodecError{Code: CodeInternalError, Message: "failed to marshal result: " + err.Error()}
	}
	return &Response{JSONRPC: Version, ID: id, Result: resultJSON}, nil
}

// NewErrorResponse builds an error Response.
func NewErrorResponse(id *ID, rpcErr *Error) *Response {
	return &Response{JSONRPC: Version, ID: id, Error: rpcErr}
}

func marshalParams(params any) (json.RawMessage, error) {
	if params == nil {
		return nil, nil
	}
	return json.Marshal(params)
}

// CodecError is returned by Decode/Encode when a message cannot be parsed
// or does not conform to the wire shape. Its Code is one of the reserved
// ParseError/InvalidRequest codes.
type CodecError struct {
	Code    int
	Message string
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("jsonrpc codec error %d: %s", e.Code, e.Message)
}

// Encode serializes a Request or Response to its canonical wire form.
func Encode(v any) ([]byte, error) {
	switch m := v.(type) {
	case *Request:
		if m.JSONRPC == "" {
			m.JSONRPC = Version
		}
	case *Response:
		if m.JSONRPC == "" {
			m.JSONRPC = Version
		}
	default:
		return nil, &CodecError{Code: CodeInternalError, Message: fmt.Sprintf("cannot encode %T", v)}
	}
	return json.Marshal(v)
}

// wireEnvelope is the superset shape used to sniff whether a decoded
// object is a request or a response.
type wireEnvelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  *string         `json:"method"`
	Params  json.RawMessage `json:"params"`
	Result  json.RawMessage `json:"result"`
	Error   *Error          `json:"error"`
}

// Decode parses a single JSON-RPC message and returns either a *Request or
// a *Response. It fails with a *CodecError carrying CodeParseError on
// malformed JSON, and CodeInvalidRequest when the jsonrpc field is
// missing/wrong or the shape is neither a request nor a response.
func Decode(data []byte) (any, error) {
	var env wireEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &CodecError{Code: CodeParseError, Message: err.Error()}
	}
	if env.JSONRPC != Version {
		return nil, &CodecError{Code: CodeInvalidRequest, Message: fmt.Sprintf("missing or unrecognized jsonrpc version %q", env.JSONRPC)}
	}
	if err := validateParamsShape(env.Params); err != nil {
		return nil, err
	}

	isResponse := env.Method == nil && (env.Result != nil || env.Error != nil)
	if isResponse {
		var id *ID
		if env.ID != nil {
			id = new(ID)
			if err := json.Unmarshal(env.ID, id); err != nil {
				return nil, &CodecError{Code: CodeInvalidRequest, Message: "invalid response id: " + err.Error()}
			}
		} else {
			id = NullID()
		}
		if env.Result != nil && env.Error != nil {
			return nil, &CodecError{Code: CodeInvalidRequest, Message: "response carries both result and error"}
		}
		return &Response{JSONRPC: env.JSONRPC, ID: id, Result: env.Result, Error: env.Error}, nil
	}

	if env.Method == nil {
		return nil, &CodecError{Code: CodeInvalidRequest, Message: "message is neither a request nor a response"}
	}

	var id *ID
	if env.ID != nil {
		id = new(ID)
		if err := json.Unmarshal(env.ID, id); err != nil {
			return nil, &CodecError{Code: CodeInvalidRequest, Message: "invalid request id: " + err.Error()}
		}
	}
	return &Request{JSONRPC: env.JSONRPC, ID: id, Method: *env.Method, Params: env.Params}, nil
}

// validateParamsShape enforces that params, when present, is an object,
// array, or null (spec §4.1).
func validateParamsShape(params json.RawMessage) error {
	if params == nil {
		return nil
	}
	trimmed := skipWhitespace(params)
	if len(trimmed) == 0 {
		return nil
	}
	switch trimmed[0] {
	case '{', '[':
		return nil
	case 'n':
		if string(trimmed) == "null" {
			return nil
		}
	}
	return &CodecError{Code: CodeInvalidRequest, Message: "params must be an object, array, or null"}
}

func skipWhitespace(b []byte) []byte {
	i := 0
	for i < len(b) {
		switch b[i] {
		case ' ', '\t', '\n', '\r':
			i++
			continue
		}
		break
	}
	return b[i:]
}
