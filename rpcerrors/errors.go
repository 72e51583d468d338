// file: rpcerrors/errors.go
package rpcerrors

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/dkoosis/jrpc/message"
)

// ExceptionData is the .data payload of an UnhandledException error
// (spec §4.8). StackTrace is only populated when the host is configured
// to emit it.
type ExceptionData struct {
	ExceptionType  string                 `json:"exceptionType"`
	Message        string                 `json:"message"`
	StackTrace     string                 `json:"stackTrace,omitempty"`
	HelpLink       string                 `json:"helpLink,omitempty"`
	Code           int                    `json:"code,omitempty"`
	InnerException *ExceptionData         `json:"innerException,omitempty"`
	Data           map[string]interface{} `json:"data,omitempty"`
}

// RpcException is raised by a server handler to inject a specific Error
// into the response (spec §7). The dispatcher places Err directly in the
// response and never re-throws it as UnhandledException.
type RpcException struct {
	Err *message.Error
}

func NewRpcException(code int, msg string, data any) *RpcException {
	e := &message.Error{Code: code, Message: msg}
	if data != nil {
		if raw, err := json.Marshal(data); err == nil {
			e.Data = raw
		}
	}
	return &RpcException{Err: e}
}

func (e *RpcException) Error() string { return e.Err.Error() }

// ClientError reports a transport/send failure or a malformed response
// received by the client.
type ClientError struct {
	cause error
}

func NewClientError(cause error) *ClientError { return &ClientError{cause: cause} }

func (e *ClientError) Error() string { return "jsonrpc client error: " + e.cause.Error() }
func (e *ClientError) Unwrap() error { return e.cause }

// ContractError reports a request/response that violates the contract at
// a layer above the wire (e.g. an unexpected null result where the stub
// requires a value).
type ContractError struct {
	cause error
}

func NewContractError(cause error) *ContractError { return &ContractError{cause: cause} }

func (e *ContractError) Error() string { return "jsonrpc contract violation: " + e.cause.Error() }
func (e *ContractError) Unwrap() error { return e.cause }

// RemoteError wraps an Error object returned by the peer. When the
// peer's error carries UnhandledException.data, it is reified here as an
// ExceptionData chain. client.Client does not build one: SendRequest and
// Send return the peer's error inside the *message.Response with a nil
// Go error; a RemoteError exists only where NewRemoteError is called.
type RemoteError struct {
	RPCErr    *message.Error
	exception *ExceptionData
}

// NewRemoteError builds a RemoteError from a peer's Error object,
// decoding ExceptionData when the code matches UnhandledException.
func NewRemoteError(rpcErr *message.Error) *RemoteError {
	re := &RemoteError{RPCErr: rpcErr}
	if rpcErr != nil && rpcErr.Code == CodeUnhandledException && len(rpcErr.Data) > 0 {
		var data ExceptionData
		if err := json.Unmarshal(rpcErr.Data, &data); err == nil {
			re.exception = &data
		}
	}
	return re
}

func (e *RemoteError) Error() string {
	if e.RPCErr == nil {
		return "jsonrpc: remote error"
	}
	return e.RPCErr.Error()
}

// ExceptionChain returns the decoded exception, innermost cause last,
// preserving the InnerException links present on the wire. It returns an
// empty slice when the remote error carried no ExceptionData.
func (e *RemoteError) ExceptionChain() []ExceptionData {
	if e.exception == nil {
		return nil
	}
	var chain []ExceptionData
	for cur := e.exception; cur != nil; cur = cur.InnerException {
		chain = append(chain, *cur)
	}
	return chain
}

// ErrorWithDetails wraps cause with a stack trace and attaches category,
// code, and arbitrary properties as cockroachdb/errors detail strings,
// so GetErrorCategory/GetErrorCode/GetErrorProperties can recover them
// from any error in the chain without a type assertion.
func ErrorWithDetails(cause error, category string, code int, properties map[string]interface{}) error {
	err := errors.WithDetail(cause, fmt.Sprintf("category:%s", category))
	err = errors.WithDetail(err, fmt.Sprintf("code:%d", code))
	for k, v := range properties {
		err = errors.WithDetail(err, fmt.Sprintf("%s:%v", k, v))
	}
	return err
}

// GetErrorCategory recovers the category attached by ErrorWithDetails, or
// "" if none is present.
func GetErrorCategory(err error) string {
	for _, detail := range errors.GetAllDetails(err) {
		if rest, ok := strings.CutPrefix(detail, "category:"); ok {
			return rest
		}
	}
	return ""
}

// GetErrorCode recovers the code attached by ErrorWithDetails, defaulting
// to CodeInternalError when absent or unparsable.
func GetErrorCode(err error) int {
	for _, detail := range errors.GetAllDetails(err) {
		if rest, ok := strings.CutPrefix(detail, "code:"); ok {
			if code, convErr := strconv.Atoi(rest); convErr == nil {
				return code
			}
		}
	}
	return CodeInternalError
}

var detailKV = regexp.MustCompile(`^([^:]+):(.+)$`)

// GetErrorProperties recovers the properties attached by ErrorWithDetails,
// excluding the reserved "category" and "code" keys.
func GetErrorProperties(err error) map[string]interface{} {
	props := make(map[string]interface{})
	for _, detail := range errors.GetAllDetails(err) {
		m := detailKV.FindStringSubmatch(detail)
		if len(m) != 3 {
			continue
		}
		key, value := m[1], m[2]
		if key == "category" || key == "code" {
			continue
		}
		props[key] = value
	}
	return props
}

// ToRPCError converts any error into the wire Error for a response.
// An *RpcException's attached Error wins verbatim. Any other error is
// mapped to UnhandledException, message "ExceptionType: Message", with a
// data payload built from ExceptionData; includeStack controls whether a
// stack trace is embedded (spec §4.8: omitted unless configured).
func ToRPCError(err error, includeStack bool) *message.Error {
	if err == nil {
		return nil
	}

	var rpcExc *RpcException
	if errors.As(err, &rpcExc) {
		return rpcExc.Err
	}

	excType := fmt.Sprintf("%T", errors.Cause(err))
	data := ExceptionData{
		ExceptionType: excType,
		Message:       err.Error(),
		Code:          GetErrorCode(err),
	}
	if includeStack {
		data.StackTrace = fmt.Sprintf("%+v", err)
	}
	if props := GetErrorProperties(err); len(props) > 0 {
		data.Data = props
	}

	raw, _ := json.Marshal(data)
	return &message.Error{
		Code:    CodeUnhandledException,
		Message: fmt.Sprintf("%s: %s", excType, err.Error()),
		Data:    raw,
	}
}
