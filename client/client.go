// file: client/client.go
package client

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dkoosis/jrpc/internal/logging"
	"github.com/dkoosis/jrpc/message"
	"github.com/dkoosis/jrpc/rpcerrors"
	"github.com/dkoosis/jrpc/wire"
)

const defaultForeignResponseWindow = 60 * time.Second

// Option configures a Client.
type Option func(*Client)

// WithIDPrefix sets the prefix used to build outgoing request ids
// ("<prefix>#<counter>"). The default prefix is "c".
func WithIDPrefix(prefix string) Option {
	return func(c *Client) { c.idPrefix = prefix }
}

// WithLogger overrides the client's logger, which defaults to a no-op.
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithPreserveForeignResponses keeps a canceled call's pending-table
// entry for window after cancellation so a late-arriving response is
// matched and dropped quietly instead of being treated as unsolicited
// (spec §4.6). A zero window keeps the default 60s window; preservation
// itself is off unless this option is passed.
func WithPreserveForeignResponses(window time.Duration) Option {
	return func(c *Client) {
		c.preserveForeign = true
		if window > 0 {
			c.foreignWindow = window
		}
	}
}

// Client is the duplex correlation engine described in spec §4.6: a
// Writer-bound sender, a pending-request table keyed by message id, and
// (once Attach is called) a background reader loop that demultiplexes
// inbound responses to their waiters. Client implements Handler so it
// can be used wherever a Handler is expected.
type Client struct {
	writer wire.Writer
	logger logging.Logger

	idPrefix string
	counter  uint64

	mu              sync.Mutex
	pending         map[any]*waiter
	preserveForeign bool
	foreignWindow   time.Duration

	closeOnce sync.Once
	closed    chan struct{}
}

// NewClient builds a correlation engine that writes outgoing requests
// and notifications through writer. Call Attach once a Reader for
// inbound responses is available; until then, SendRequest will block
// forever since nothing completes its waiter.
func NewClient(writer wire.Writer, opts ...Option) *Client {
	c := &Client{
		writer:        writer,
		logger:        logging.GetNoopLogger(),
		idPrefix:      "c",
		pending:       make(map[any]*waiter),
		foreignWindow: defaultForeignResponseWindow,
		closed:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// nextID produces a unique MessageId of the form "<prefix>#<counter>";
// the counter is incremented atomically so concurrent callers never
// collide.
func (c *Client) nextID() *message.ID {
	n := atomic.AddUint64(&c.counter, 1)
	return message.StringID(fmt.Sprintf("%s#%d", c.idPrefix, n))
}

// Send implements Handler: a notification is transmitted and returns
// immediately with a nil response; a request is correlated through the
// pending table exactly as SendRequest does.
func (c *Client) Send(ctx context.Context, req *message.Request) (*message.Response, error) {
	if req.IsNotification() {
		return nil, c.transmit(ctx, req)
	}
	return c.call(ctx, req)
}

// SendRequest builds a request with a fresh id and awaits its matching
// response (spec §4.6 sendRequest).
func (c *Client) SendRequest(ctx context.Context, method string, params any) (*message.Response, error) {
	req, err := message.NewRequest(c.nextID(), method, params)
	if err != nil {
		return nil, err
	}
	return c.call(ctx, req)
}

// SendNotification builds and transmits a notification (absent id). It
// never registers a pending waiter and returns as soon as the writer
// accepts the message (spec §4.6 sendNotification).
func (c *Client) SendNotification(ctx context.Context, method string, params any) error {
	req, err := message.NewRequest(nil, method, params)
	if err != nil {
		return err
	}
	return c.transmit(ctx, req)
}

// call implements spec §4.6 sendRequest steps 2-5: pre-register a
// waiter, transmit, await completion, and remove the pending entry
// before returning, except that a call canceled while preserving foreign
// responses leaves its entry to cancelWaiter's preservation window.
func (c *Client) call(ctx context.Context, req *message.Request) (*message.Response, error) {
	key := req.ID.Key()

	c.mu.Lock()
	if _, exists := c.pending[key]; exists {
		c.mu.Unlock()
		return nil, rpcerrors.NewContractError(fmt.Errorf("duplicate pending request id %s", req.ID))
	}
	w := newWaiter()
	c.pending[key] = w
	c.mu.Unlock()

	if err := c.transmit(ctx, req); err != nil {
		c.mu.Lock()
		delete(c.pending, key)
		c.mu.Unlock()
		return nil, err
	}

	select {
	case <-ctx.Done():
		c.cancelWaiter(key, req.ID)
		return nil, ctx.Err()
	case <-c.closed:
		c.removeWaiter(key)
		return nil, rpcerrors.NewClientError(fmt.Errorf("client closed while awaiting response to id %s", req.ID))
	case <-w.done:
		c.removeWaiter(key)
		if w.err != nil {
			return nil, w.err
		}
		return w.resp, nil
	}
}

// cancelWaiter implements the spec's cancellation hook: the waiter is
// marked canceled, and unless the client preserves foreign responses,
// its entry is removed from the pending table immediately. When
// preserving, the entry is kept for a bounded window so a late response
// is matched and discarded quietly rather than treated as unsolicited.
func (c *Client) cancelWaiter(key any, id *message.ID) {
	c.mu.Lock()
	w, ok := c.pending[key]
	if ok {
		w.canceled = true
		if !c.preserveForeign {
			delete(c.pending, key)
		}
	}
	c.mu.Unlock()
	if !ok {
		return
	}
	w.fail(context.Canceled)

	if c.preserveForeign {
		window := c.foreignWindow
		go func() {
			timer := time.NewTimer(window)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-c.closed:
			}
			c.mu.Lock()
			delete(c.pending, key)
			c.mu.Unlock()
			c.logger.Debug("preserved foreign-response window expired", "id", id.String())
		}()
	}
}

func (c *Client) removeWaiter(key any) {
	c.mu.Lock()
	delete(c.pending, key)
	c.mu.Unlock()
}

func (c *Client) transmit(ctx context.Context, req *message.Request) error {
	if err := c.writer.Write(ctx, req); err != nil {
		return rpcerrors.NewClientError(err)
	}
	return nil
}

// Attach starts the background reader loop against reader (spec §4.6).
// It runs until ctx is done or the reader fails, at which point every
// still-pending waiter is woken with a ClientError rather than left
// blocked forever. Attach returns immediately; the loop runs in its own
// goroutine.
func (c *Client) Attach(ctx context.Context, reader wire.Reader) {
	go c.readLoop(ctx, reader)
}

func (c *Client) readLoop(ctx context.Context, reader wire.Reader) {
	for {
		msg, err := reader.ReadMatching(ctx, c.matchResponse)
		if err != nil {
			c.logger.Debug("client reader loop exiting", "error", err)
			c.shutdown(err)
			return
		}
		resp, ok := msg.(*message.Response)
		if !ok {
			continue
		}
		c.deliver(resp)
	}
}

// matchResponse is the reader predicate from spec §4.6: "is-response,
// and if preserving, id is in pendingMap". Without preservation every
// response is accepted and unmatched ones are discarded after lookup;
// with preservation only responses for ids still tracked (active or
// within their preservation window) are consumed, leaving anything else
// for another reader on the same stream.
func (c *Client) matchResponse(msg any) bool {
	resp, ok := msg.(*message.Response)
	if !ok {
		return false
	}
	if !c.preserveForeign {
		return true
	}
	c.mu.Lock()
	_, pending := c.pending[resp.ID.Key()]
	c.mu.Unlock()
	return pending
}

// deliver looks up resp's id in the pending table; if present, it
// completes the matching waiter exactly once. If absent, the response
// is unsolicited (already canceled without preservation, or never sent
// by this client) and is discarded.
func (c *Client) deliver(resp *message.Response) {
	key := resp.ID.Key()
	c.mu.Lock()
	w, ok := c.pending[key]
	if ok && !w.canceled {
		delete(c.pending, key)
	}
	c.mu.Unlock()
	if !ok {
		c.logger.Debug("discarding unsolicited response", "id", resp.ID.String())
		return
	}
	if w.canceled {
		// Preserved foreign-response window: matched and dropped quietly.
		return
	}
	w.complete(resp)
}

// Close stops the reader loop's effect on any in-flight calls immediately,
// waking every pending waiter with a ClientError. It does not close the
// underlying Reader/Writer, whose lifetime belongs to the transport.
func (c *Client) Close() {
	c.shutdown(fmt.Errorf("client closed"))
}

func (c *Client) shutdown(cause error) {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.mu.Lock()
		pending := c.pending
		c.pending = make(map[any]*waiter)
		c.mu.Unlock()
		for _, w := range pending {
			w.fail(rpcerrors.NewClientError(fmt.Errorf("connection closed: %w", cause)))
		}
	})
}
