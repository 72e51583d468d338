// file: server/middleware.go
package server

import "context"

// Handler processes one RequestContext. The dispatcher (Dispatch) is the
// innermost Handler; middleware wraps it.
type Handler func(ctx context.Context, rc *RequestContext)

// Middleware wraps a Handler with additional behavior: inspect/mutate the
// request, invoke next, inspect/mutate the response, or short-circuit
// by not calling next at all (spec §4.5).
type Middleware func(next Handler) Handler

// chain composes middleware onion-style: the first Use'd middleware runs
// outermost, wrapping everything added after it, mirroring the teacher's
// middlewareChain.Handler() (apply in reverse order so index 0 ends up
// outside).
type chain struct {
	final       Handler
	middlewares []Middleware
	built       Handler
}

func newChain(final Handler) *chain {
	return &chain{final: final}
}

func (c *chain) use(mw Middleware) {
	c.built = nil
	c.middlewares = append(c.middlewares, mw)
}

func (c *chain) handler() Handler {
	if c.built != nil {
		return c.built
	}
	h := c.final
	for i := len(c.middlewares) - 1; i >= 0; i-- {
		h = c.middlewares[i](h)
	}
	c.built = h
	return h
}
