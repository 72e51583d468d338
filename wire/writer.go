// file: wire/writer.go
package wire

import (
	"context"
	"sync"

	"github.com/dkoosis/jrpc/message"
)

// MessageWriter implements Writer over a FrameWriter, serializing writes
// with a mutex so two messages never interleave on the transport (spec
// §4.2 and §5).
type MessageWriter struct {
	mu     sync.Mutex
	frames FrameWriter
}

// NewMessageWriter wraps a FrameWriter as a Writer.
func NewMessageWriter(frames FrameWriter) *MessageWriter {
	return &MessageWriter{frames: frames}
}

func (w *MessageWriter) Write(ctx context.Context, msg any) error {
	data, err := message.Encode(msg)
	if err != nil {
		return NewWriterError(err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.frames.WriteFrame(ctx, data); err != nil {
		return NewWriterError(err)
	}
	return nil
}
