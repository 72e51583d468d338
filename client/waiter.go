// file: client/waiter.go
package client

import (
	"sync"

	"github.com/dkoosis/jrpc/message"
)

// waiter is the per-pending-request completion slot in the correlation
// table (spec §4.6). It is completed exactly once: either the background
// reader loop delivers a matching response, cancellation fires, or the
// client shuts down. resolve is guarded by a sync.Once rather than relying
// purely on the owning Client's mutex, since a preserved (foreign-response
// window) waiter can be canceled once and then still sit reachable from
// both a late deliver() and a concurrent shutdown().
type waiter struct {
	done chan struct{}
	once sync.Once
	resp *message.Response
	err  error

	// canceled is set by cancelWaiter under the owning Client's mutex. A
	// preserved entry stays in the pending table after cancellation
	// purely so a late response can be matched and dropped quietly;
	// canceled tells deliver not to treat that match as a real
	// completion.
	canceled bool
}

func newWaiter() *waiter {
	return &waiter{done: make(chan struct{})}
}

// complete resolves the waiter with a response. A no-op if the waiter
// was already resolved.
func (w *waiter) complete(resp *message.Response) {
	w.once.Do(func() {
		w.resp = resp
		close(w.done)
	})
}

// fail resolves the waiter with an error, used for cancellation and
// connection failure. A no-op if the waiter was already resolved.
func (w *waiter) fail(err error) {
	w.once.Do(func() {
		w.err = err
		close(w.done)
	})
}
