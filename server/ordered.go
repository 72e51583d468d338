// file: server/ordered.go
package server

import (
	"context"
	"sync"

	"github.com/dkoosis/jrpc/internal/logging"
	"github.com/dkoosis/jrpc/message"
	"github.com/dkoosis/jrpc/wire"
)

// orderedEmitter implements the "consistent response sequence" legacy
// option (spec §5, SPEC_FULL "Consistent response sequence"): handlers
// still run concurrently, but a response is only handed to the Writer
// once every response with a smaller receive-sequence number has been
// written, so the wire sees responses in receive order.
type orderedEmitter struct {
	writer wire.Writer
	logger logging.Logger

	mu       sync.Mutex
	next     uint64
	pending  map[uint64]*message.Response // responses completed out of turn, awaiting their slot
	reserved uint64
}

func newOrderedEmitter(writer wire.Writer, logger logging.Logger) *orderedEmitter {
	return &orderedEmitter{
		writer:  writer,
		logger:  logger,
		pending: make(map[uint64]*message.Response),
	}
}

// reserve claims the next receive-sequence slot; call this synchronously
// on the read loop, before spawning the goroutine that dispatches the
// request, so reservation order equals receive order.
func (o *orderedEmitter) reserve() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	seq := o.reserved
	o.reserved++
	return seq
}

// emit hands resp (nil for a notification) to the Writer once seq is
// next in line, flushing any later-arriving responses that were already
// waiting on it.
func (o *orderedEmitter) emit(ctx context.Context, seq uint64, resp *message.Response) {
	o.mu.Lock()
	// Stored unconditionally, even when resp is nil (a notification
	// occupies no slot on the wire but still occupies a sequence
	// number): a present-but-nil map entry is distinguishable from an
	// absent one via comma-ok, so the flush loop below can tell
	// "arrived, nothing to write" from "hasn't arrived yet".
	o.pending[seq] = resp

	var toWrite []*message.Response
	for {
		r, ok := o.pending[o.next]
		if !ok {
			break
		}
		if r != nil {
			toWrite = append(toWrite, r)
		}
		delete(o.pending, o.next)
		o.next++
	}
	o.mu.Unlock()

	for _, r := range toWrite {
		if err := o.writer.Write(ctx, r); err != nil {
			o.logger.Error("ordered emitter failed to write response", "error", err)
		}
	}
}
