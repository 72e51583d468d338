// Package rpcerrors defines the error taxonomy used across the client and
// server: ClientError, ContractError, RemoteError, and RpcException
// (spec §7), plus the UnhandledException/ExceptionData payload (spec
// §4.8). Errors are built on github.com/cockroachdb/errors so they carry
// stack traces and survive wrapping through errors.Is/errors.As.
// file: rpcerrors/codes.go
package rpcerrors

import "github.com/dkoosis/jrpc/message"

// Categories group errors for GetErrorCategory-style inspection, the way
// the teacher repo groups "resource"/"tool"/"rpc" errors.
const (
	CategoryClient   = "client"   // transport/send failure, malformed response
	CategoryContract = "contract" // request/response shape violates the contract
	CategoryRemote   = "remote"   // peer returned an Error
	CategoryException = "exception" // handler raised RpcException or panicked
)

// Re-exported reserved codes (spec §3), sourced from the message package
// so the wire codec and the error taxonomy never drift apart.
const (
	CodeParseError         = message.CodeParseError
	CodeInvalidRequest     = message.CodeInvalidRequest
	CodeMethodNotFound     = message.CodeMethodNotFound
	CodeInvalidParams      = message.CodeInvalidParams
	CodeInternalError      = message.CodeInternalError
	CodeUnhandledException = message.CodeUnhandledException
)

// UserFacingMessage returns a stable, non-leaky message for a reserved
// code, used when the underlying cause should not be echoed to the peer.
func UserFacingMessage(code int) string {
	switch code {
	case CodeParseError:
		return "Parse error"
	case CodeInvalidRequest:
		return "Invalid request"
	case CodeMethodNotFound:
		return "Method not found"
	case CodeInvalidParams:
		return "Invalid params"
	case CodeUnhandledException:
		return "Unhandled exception"
	default:
		return "Internal error"
	}
}
