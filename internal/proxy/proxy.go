package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/claude-vim/claude-bridge/internal/claudeadapter/bedrockconverse"
	"github.com/claude-vim/claude-bridge/internal/observability/middleware"
)

// ReadinessChecker reports whether the application can serve traffic.
type ReadinessChecker interface {
	IsReady() bool
}

// Proxy serves the Claude-compatible HTTP API backed by Bedrock Converse.
type Proxy struct {
	handler http.Handler
	server  *http.Server
}

// Compile-time check that Proxy implements http.Handler
var _ http.Handler = (*Proxy)(nil)

type options struct {
	requestOptions  bedrockconverse.RequestOptions
	models          []string
	maxRequestBytes int64
	logger          *slog.Logger
}

// Option configures a Proxy.
type Option func(*options)

// WithRequestOptions sets the defaults applied to translated requests.
func WithRequestOptions(opts bedrockconverse.RequestOptions) Option {
	return func(o *options) {
		o.requestOptions = opts
	}
}

// WithModels sets the model ids advertised by GET /v1/models.
func WithModels(models []string) Option {
	return func(o *options) {
		o.models = models
	}
}

// WithMaxRequestBytes limits the size of request bodies.
func WithMaxRequestBytes(n int64) Option {
	return func(o *options) {
		o.maxRequestBytes = n
	}
}

// WithLogger sets the logger used for request logging. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates a Proxy forwarding message requests to streamer.
func New(streamer bedrockconverse.Streamer, health ReadinessChecker, opts ...Option) (*Proxy, error) {
	if streamer == nil {
		return nil, errors.New("streamer cannot be nil")
	}
	if health == nil {
		return nil, errors.New("readiness checker cannot be nil")
	}

	o := options{
		maxRequestBytes: 10 << 20,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	messages := &CreateMessagesHandler{
		Adapter:  bedrockconverse.NewCreateMessageAdapter(o.requestOptions),
		Streamer: streamer,
	}

	models := o.models
	if len(models) == 0 && o.requestOptions.ModelID != "" {
		models = []string{o.requestOptions.ModelID}
	}

	mux := http.NewServeMux()
	mux.Handle("POST /v1/messages", applyMiddlewares(messages, RequestSizeLimit(o.maxRequestBytes)))
	mux.Handle("GET /v1/models", modelsHandler(models))
	mux.Handle("GET /health/liveness", livenessHandler())
	mux.Handle("GET /health/readiness", readinessHandler(health))

	handler := applyMiddlewares(mux,
		middleware.RequestIDGeneration,
		middleware.TraceContextExtraction,
		middleware.Logging(o.logger),
		middleware.RequestIDPropagation,
		Recovery,
	)

	return &Proxy{handler: handler}, nil
}

// ServeHTTP implements http.Handler.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.handler.ServeHTTP(w, r)
}

// Start listens on addr and serves in the background. Listen errors are returned
// directly; serve errors are delivered on the returned channel, which is closed
// when the server stops.
func (p *Proxy) Start(ctx context.Context, addr string) (<-chan error, error) {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	p.server = &http.Server{
		Handler:           p.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		slog.InfoContext(ctx, "proxy listening", "addr", listener.Addr().String())
		if err := p.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	return errCh, nil
}

// Shutdown gracefully stops the server, waiting for active streams until ctx expires.
func (p *Proxy) Shutdown(ctx context.Context) error {
	if p.server == nil {
		return nil
	}
	if err := p.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down proxy: %w", err)
	}
	return nil
}
