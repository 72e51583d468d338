// file: server/ordered_test.go
package server

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/jrpc/internal/logging"
	"github.com/dkoosis/jrpc/message"
)

type recordingWriter struct {
	mu   sync.Mutex
	ids  []int64
}

func (w *recordingWriter) Write(_ context.Context, msg any) error {
	resp := msg.(*message.Response)
	v, _ := resp.ID.IntValue()
	w.mu.Lock()
	w.ids = append(w.ids, v)
	w.mu.Unlock()
	return nil
}

func TestOrderedEmitter_EmitsInReceiveOrderDespiteOutOfOrderCompletion(t *testing.T) {
	w := &recordingWriter{}
	o := newOrderedEmitter(w, logging.GetNoopLogger())

	seq0 := o.reserve()
	seq1 := o.reserve()
	seq2 := o.reserve()

	resp := func(id int64) *message.Response {
		return &message.Response{JSONRPC: message.Version, ID: message.IntID(id)}
	}

	// Complete out of receive order: 2, then 0, then 1.
	o.emit(context.Background(), seq2, resp(2))
	require.Empty(t, w.ids)

	o.emit(context.Background(), seq0, resp(0))
	assert.Equal(t, []int64{0}, w.ids)

	o.emit(context.Background(), seq1, resp(1))
	assert.Equal(t, []int64{0, 1, 2}, w.ids)
}

func TestOrderedEmitter_NotificationSlotDoesNotBlockLaterResponses(t *testing.T) {
	w := &recordingWriter{}
	o := newOrderedEmitter(w, logging.GetNoopLogger())

	seq0 := o.reserve()
	seq1 := o.reserve()

	o.emit(context.Background(), seq1, &message.Response{JSONRPC: message.Version, ID: message.IntID(1)})
	require.Empty(t, w.ids)

	o.emit(context.Background(), seq0, nil) // notification: occupies a slot, writes nothing
	assert.Equal(t, []int64{1}, w.ids)
}
