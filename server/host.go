// file: server/host.go
package server

import (
	"context"
	"reflect"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/dkoosis/jrpc/contract"
	"github.com/dkoosis/jrpc/features"
	"github.com/dkoosis/jrpc/internal/logging"
	"github.com/dkoosis/jrpc/message"
	"github.com/dkoosis/jrpc/wire"
)

// ServiceHost is the server-side pipeline coordinator (GLOSSARY). It owns
// an immutable MethodRegistry (built once, per spec §3 Lifecycle), a
// middleware chain, and the shared default FeatureCollection each
// RequestContext is scoped from.
type ServiceHost struct {
	registry *contract.Resolver
	methods  *contract.MethodRegistry
	chain    *chain
	defaults *features.Collection
	logger   logging.Logger

	svcFactory      ServiceFactory
	emitStackTraces bool
	ordered         bool
}

// HostOption configures a ServiceHost at construction time (spec §6:
// "Host configuration (programmatic, not CLI)").
type HostOption func(*ServiceHost)

// WithNaming sets the NamingStrategy used to derive wire names for
// methods and params-struct fields registered after this option is
// applied.
func WithNaming(naming contract.NamingStrategy) HostOption {
	return func(h *ServiceHost) { h.registry.Naming = naming }
}

// WithConverter sets the default Converter used by subsequently
// registered methods.
func WithConverter(conv contract.Converter) HostOption {
	return func(h *ServiceHost) { h.registry.Converter = conv }
}

// WithServiceFactory overrides DefaultServiceFactory.
func WithServiceFactory(f ServiceFactory) HostOption {
	return func(h *ServiceHost) { h.svcFactory = f }
}

// WithLogger attaches a logger; every RequestContext inherits it.
func WithLogger(logger logging.Logger) HostOption {
	return func(h *ServiceHost) { h.logger = logger }
}

// WithStackTraces enables embedding a stack trace in UnhandledException
// payloads (spec §4.8: "MUST be omitted unless the server is configured
// to emit it"). Off by default.
func WithStackTraces(enabled bool) HostOption {
	return func(h *ServiceHost) { h.emitStackTraces = enabled }
}

// WithMiddleware appends mw to the chain, outermost-added-runs-outermost
// (spec §4.5).
func WithMiddleware(mw Middleware) HostOption {
	return func(h *ServiceHost) { h.chain.use(mw) }
}

// WithOrderedResponses opts into the legacy "consistent response
// sequence" behavior (spec §5): responses are still computed
// concurrently, but emitted to the Writer in receive order via a reorder
// buffer. Not the default: per spec, the core provides no ordering
// guarantee between responses.
func WithOrderedResponses() HostOption {
	return func(h *ServiceHost) { h.ordered = true }
}

// NewServiceHost builds a ServiceHost. The registry starts empty; call
// Register for each exposed service method before Serve.
func NewServiceHost(opts ...HostOption) *ServiceHost {
	h := &ServiceHost{
		registry: contract.NewResolver(nil, nil),
		methods:  contract.NewMethodRegistry(),
		defaults: features.New(),
		logger:   logging.GetNoopLogger(),
		svcFactory: DefaultServiceFactory,
	}
	h.chain = newChain(Dispatch)
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register exposes one Go method of serviceType under its wire name
// (spec §4.3). Call before the first Serve; the registry is immutable
// once dispatch begins (spec §3 Lifecycle).
func (h *ServiceHost) Register(serviceType reflect.Type, goMethodName string, opts ...contract.MethodOption) error {
	return h.registry.Register(h.methods, serviceType, goMethodName, opts...)
}

// Defaults returns the host's shared FeatureCollection, the base every
// RequestContext is scoped from (spec §4.7).
func (h *ServiceHost) Defaults() *features.Collection { return h.defaults }

func (h *ServiceHost) factory() ServiceFactory { return h.svcFactory }

// handle runs one incoming message through the middleware chain and, for
// a non-notification, writes the resulting response.
func (h *ServiceHost) handle(ctx context.Context, req *message.Request, writer wire.Writer) {
	rc := newRequestContext(ctx, h, req)
	h.chain.handler()(ctx, rc)
	if rc.Response == nil {
		return
	}
	if err := writer.Write(ctx, rc.Response); err != nil {
		h.logger.Error("failed to write response", "method", req.Method, "error", err)
	}
}

// Serve reads requests from reader until ctx is done or the reader
// reports EOF, dispatching each one concurrently (spec §5: "parallel
// with cooperative suspension"; "the pipeline makes no attempt to
// serialize requests"). Responses for concurrently dispatched requests
// are written in completion order unless WithOrderedResponses was set.
func (h *ServiceHost) Serve(ctx context.Context, reader wire.Reader, writer wire.Writer) error {
	var emit func(ctx context.Context, req *message.Request, seq uint64)
	var orderer *orderedEmitter
	if h.ordered {
		orderer = newOrderedEmitter(writer, h.logger)
		emit = func(ctx context.Context, req *message.Request, seq uint64) {
			rc := newRequestContext(ctx, h, req)
			h.chain.handler()(ctx, rc)
			orderer.emit(ctx, seq, rc.Response)
		}
	} else {
		emit = func(ctx context.Context, req *message.Request, _ uint64) {
			h.handle(ctx, req, writer)
		}
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		msg, err := reader.ReadMatching(ctx, isRequest)
		if err != nil {
			var readerErr *wire.ReaderError
			if errors.As(err, &readerErr) {
				// A request-shaped-but-invalid message (bad JSON, wrong or
				// missing jsonrpc version, malformed id, non-object params,
				// a request with no recognizable method) never reaches a
				// *message.Request: message.Decode already rejected it.
				// That's a fault in one frame, not the transport, so the
				// connection keeps serving (spec §3: a parse failure still
				// gets a response, with id echoed when recoverable and null
				// otherwise).
				h.emitDecodeError(ctx, readerErr, writer)
				continue
			}
			return err
		}
		req, ok := msg.(*message.Request)
		if !ok {
			continue
		}
		var seq uint64
		if orderer != nil {
			// Reserved on the read loop, before the goroutine starts, so
			// reservation order equals receive order.
			seq = orderer.reserve()
		}
		wg.Add(1)
		go func(r *message.Request, s uint64) {
			defer wg.Done()
			emit(ctx, r, s)
		}(req, seq)
	}
}

// emitDecodeError writes an error Response for a message that failed to
// decode, echoing message.CodecError's reserved code and message. The id
// is always null: a message.Decode failure means no *Request was ever
// constructed, so there is no id to echo back (spec §3).
func (h *ServiceHost) emitDecodeError(ctx context.Context, readerErr *wire.ReaderError, writer wire.Writer) {
	code := message.CodeParseError
	errMsg := readerErr.Error()
	var codecErr *message.CodecError
	if errors.As(readerErr, &codecErr) {
		code = codecErr.Code
		errMsg = codecErr.Message
	}
	resp := message.NewErrorResponse(message.NullID(), &message.Error{Code: code, Message: errMsg})
	if err := writer.Write(ctx, resp); err != nil {
		h.logger.Error("failed to write decode-error response", "error", err)
	}
}

func isRequest(msg any) bool {
	_, ok := msg.(*message.Request)
	return ok
}
