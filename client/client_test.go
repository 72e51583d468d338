// file: client/client_test.go
package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/jrpc/message"
	"github.com/dkoosis/jrpc/rpcerrors"
	"github.com/dkoosis/jrpc/wire"
)

func TestClient_SendRequestReceivesMatchingResponse(t *testing.T) {
	clientSide, peerSide := wire.NewInMemoryPipe()
	c := NewClient(clientSide.Writer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Attach(ctx, clientSide.Reader)

	go func() {
		msg, err := peerSide.Reader.Read(ctx)
		require.NoError(t, err)
		req := msg.(*message.Request)
		resp, err := message.NewResultResponse(req.ID, 42)
		require.NoError(t, err)
		require.NoError(t, peerSide.Writer.Write(ctx, resp))
	}()

	callCtx, callCancel := context.WithTimeout(ctx, 2*time.Second)
	defer callCancel()
	resp, err := c.SendRequest(callCtx, "answer", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `42`, string(resp.Result))
}

func TestClient_SendNotificationReturnsWithoutRegisteringWaiter(t *testing.T) {
	clientSide, peerSide := wire.NewInMemoryPipe()
	c := NewClient(clientSide.Writer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- c.SendNotification(ctx, "ping", nil) }()

	readCtx, readCancel := context.WithTimeout(ctx, 2*time.Second)
	defer readCancel()
	msg, err := peerSide.Reader.Read(readCtx)
	require.NoError(t, err)
	req := msg.(*message.Request)
	assert.True(t, req.IsNotification())

	require.NoError(t, <-errCh)
	c.mu.Lock()
	assert.Empty(t, c.pending)
	c.mu.Unlock()
}

func TestClient_CancelWithoutPreserveRemovesWaiterAndReturnsContextCanceled(t *testing.T) {
	clientSide, peerSide := wire.NewInMemoryPipe()
	c := NewClient(clientSide.Writer)
	drainCtx, stopDrain := context.WithCancel(context.Background())
	defer stopDrain()
	go drain(drainCtx, peerSide.Reader)

	callCtx, callCancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	var respErr error
	go func() {
		_, respErr = c.SendRequest(callCtx, "slow", nil)
		errCh <- respErr
	}()

	// Give SendRequest time to register its waiter before canceling.
	time.Sleep(20 * time.Millisecond)
	callCancel()

	err := <-errCh
	assert.ErrorIs(t, err, context.Canceled)

	c.mu.Lock()
	assert.Empty(t, c.pending)
	c.mu.Unlock()
}

func TestClient_DuplicateRequestIDIsRejected(t *testing.T) {
	clientSide, _ := wire.NewInMemoryPipe()
	c := NewClient(clientSide.Writer)

	req, err := message.NewRequest(message.IntID(1), "dup", nil)
	require.NoError(t, err)

	c.mu.Lock()
	c.pending[req.ID.Key()] = newWaiter()
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = c.Send(ctx, req)
	require.Error(t, err)
	var ce *rpcerrors.ContractError
	assert.ErrorAs(t, err, &ce)
}

func TestClient_CloseWakesAllPendingWaiters(t *testing.T) {
	clientSide, peerSide := wire.NewInMemoryPipe()
	c := NewClient(clientSide.Writer)
	drainCtx, stopDrain := context.WithCancel(context.Background())
	defer stopDrain()
	go drain(drainCtx, peerSide.Reader)

	errCh := make(chan error, 1)
	go func() {
		_, err := c.SendRequest(context.Background(), "never-answered", nil)
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	c.Close()

	err := <-errCh
	var clientErr *rpcerrors.ClientError
	assert.ErrorAs(t, err, &clientErr)
}

func TestClient_PreservedForeignResponseIsMatchedAndDroppedQuietly(t *testing.T) {
	clientSide, _ := wire.NewInMemoryPipe()
	c := NewClient(clientSide.Writer, WithPreserveForeignResponses(50*time.Millisecond))

	req, err := message.NewRequest(message.IntID(9), "slow", nil)
	require.NoError(t, err)
	key := req.ID.Key()

	c.mu.Lock()
	c.pending[key] = newWaiter()
	c.mu.Unlock()

	c.cancelWaiter(key, req.ID)

	// The id is still tracked during the preservation window, so the
	// predicate matches and delivery drops it without reactivating the
	// already-canceled waiter.
	resp := &message.Response{JSONRPC: message.Version, ID: req.ID}
	assert.True(t, c.matchResponse(resp))
	c.deliver(resp)

	c.mu.Lock()
	_, stillPending := c.pending[key]
	c.mu.Unlock()
	assert.True(t, stillPending, "entry should survive until the preservation window elapses")

	time.Sleep(80 * time.Millisecond)
	c.mu.Lock()
	_, stillPending = c.pending[key]
	c.mu.Unlock()
	assert.False(t, stillPending, "entry should be evicted once the preservation window elapses")
}

// drain discards every message read from r until ctx is canceled, so a
// test's outgoing Write over the in-memory pipe doesn't block forever
// waiting on a reader nobody otherwise provides.
func drain(ctx context.Context, r wire.Reader) {
	for {
		if _, err := r.Read(ctx); err != nil {
			return
		}
	}
}
