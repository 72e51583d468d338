// file: wire/reader.go
package wire

import (
	"context"
	"sync"

	"github.com/dkoosis/jrpc/message"
)

// MessageReader implements Reader over a FrameReader. Concurrent callers
// each get their own predicate; only one of them pulls a frame off the
// transport at a time, and any frame that doesn't satisfy the puller's
// own predicate is appended to a shared buffer (preserving arrival order)
// so a later call with a matching predicate can still find it.
type MessageReader struct {
	mu      sync.Mutex
	buf     []any
	frames  FrameReader
	reading bool
	notify  chan struct{}
	closed  bool
	closeErr error
}

// NewMessageReader wraps a FrameReader as a Reader.
func NewMessageReader(frames FrameReader) *MessageReader {
	return &MessageReader{frames: frames, notify: make(chan struct{})}
}

func (r *MessageReader) Read(ctx context.Context) (any, error) {
	return r.ReadMatching(ctx, MatchAny)
}

func (r *MessageReader) ReadMatching(ctx context.Context, predicate Predicate) (any, error) {
	for {
		r.mu.Lock()
		for i, m := range r.buf {
			if predicate(m) {
				r.buf = append(r.buf[:i:i], r.buf[i+1:]...)
				r.mu.Unlock()
				return m, nil
			}
		}
		if r.closed {
			err := r.closeErr
			r.mu.Unlock()
			return nil, err
		}
		if r.reading {
			wake := r.notify
			r.mu.Unlock()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-wake:
				continue
			}
		}
		r.reading = true
		r.mu.Unlock()

		data, err := r.frames.ReadFrame(ctx)

		r.mu.Lock()
		r.reading = false
		if err != nil {
			r.closed = true
			r.closeErr = err
			r.wakeLocked()
			r.mu.Unlock()
			return nil, err
		}

		msg, decErr := message.Decode(data)
		if decErr != nil {
			r.wakeLocked()
			r.mu.Unlock()
			return nil, NewReaderError(decErr)
		}

		if predicate(msg) {
			r.wakeLocked()
			r.mu.Unlock()
			return msg, nil
		}
		r.buf = append(r.buf, msg)
		r.wakeLocked()
		r.mu.Unlock()
	}
}

// wakeLocked broadcasts to any goroutine blocked waiting for the current
// puller to finish. Must be called with mu held.
func (r *MessageReader) wakeLocked() {
	close(r.notify)
	r.notify = make(chan struct{})
}
