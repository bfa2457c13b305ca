package httpclient

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/consultdesk/apiclient/logger"
)

// Call phases, logged at debug level as each call advances.
const (
	PhaseBuilding            = "building"
	PhaseRequestIntercepted  = "request-intercepted"
	PhaseSent                = "sent"
	PhaseResponseIntercepted = "response-intercepted"
	PhaseSucceeded           = "succeeded"
	PhaseFailed              = "failed"
)

// Client is the single entry point for outbound API calls. It is safe for
// concurrent use; calls share only the config and the interceptor registry.
type Client struct {
	mu        sync.RWMutex
	config    Config
	registry  *InterceptorRegistry
	transport *transport
	log       *logger.Logger
}

// Option configures a Client at construction.
type Option func(*clientOptions)

type clientOptions struct {
	registry     *InterceptorRegistry
	log          *logger.Logger
	roundTripper http.RoundTripper
}

// WithRegistry makes the client use a caller-owned interceptor registry.
func WithRegistry(r *InterceptorRegistry) Option {
	return func(o *clientOptions) { o.registry = r }
}

// WithLogger sets the logger used for call phases and failures.
func WithLogger(l *logger.Logger) Option {
	return func(o *clientOptions) { o.log = l }
}

// WithRoundTripper replaces the network transport. TLS settings from
// Config are ignored when a round tripper is supplied.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(o *clientOptions) { o.roundTripper = rt }
}

// New creates a client. Each client owns its registry unless one is injected.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = NewInterceptorRegistry()
	}
	if o.log == nil {
		o.log = logger.WithComponent("httpclient")
	}

	tr, err := newTransport(cfg, o.roundTripper)
	if err != nil {
		return nil, err
	}

	return &Client{
		config:    cfg.clone(),
		registry:  o.registry,
		transport: tr,
		log:       o.log,
	}, nil
}

// Config returns a copy of the current configuration.
func (c *Client) Config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config.clone()
}

// SetConfig shallow-merges the patch into the configuration. It applies to
// calls issued afterwards; calls already in flight keep their snapshot.
func (c *Client) SetConfig(p ConfigPatch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := p.apply(c.config)
	if err != nil {
		return err
	}
	c.config = next
	return nil
}

// Registry returns the client's interceptor registry.
func (c *Client) Registry() *InterceptorRegistry {
	return c.registry
}

// AddRequestInterceptor appends a request interceptor.
func (c *Client) AddRequestInterceptor(fn RequestInterceptor) {
	c.registry.AddRequest(fn)
}

// AddResponseInterceptor appends a response interceptor.
func (c *Client) AddResponseInterceptor(fn ResponseInterceptor) {
	c.registry.AddResponse(fn)
}

// Get issues a GET with optional query parameters.
func (c *Client) Get(ctx context.Context, url string, params map[string]string, opts ...CallOption) (*Response, error) {
	return c.Request(ctx, http.MethodGet, url, nil, params, opts...)
}

// Post issues a POST with an optional body.
func (c *Client) Post(ctx context.Context, url string, data any, opts ...CallOption) (*Response, error) {
	return c.Request(ctx, http.MethodPost, url, data, nil, opts...)
}

// Put issues a PUT with an optional body.
func (c *Client) Put(ctx context.Context, url string, data any, opts ...CallOption) (*Response, error) {
	return c.Request(ctx, http.MethodPut, url, data, nil, opts...)
}

// Patch issues a PATCH with an optional body.
func (c *Client) Patch(ctx context.Context, url string, data any, opts ...CallOption) (*Response, error) {
	return c.Request(ctx, http.MethodPatch, url, data, nil, opts...)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, url string, opts ...CallOption) (*Response, error) {
	return c.Request(ctx, http.MethodDelete, url, nil, nil, opts...)
}

// Upload POSTs a multipart body. Any configured or per-call Content-Type is
// dropped; the transport sends multipart/form-data with its boundary.
func (c *Client) Upload(ctx context.Context, url string, body *MultipartBody, opts ...CallOption) (*Response, error) {
	return c.Request(ctx, http.MethodPost, url, body, nil, opts...)
}

// Request runs one call through the pipeline: encode, request interceptors,
// transport, response interceptors, then the 2xx branch. A non-nil error is
// always an *Error.
func (c *Client) Request(ctx context.Context, method, url string, data any, params map[string]string, opts ...CallOption) (*Response, error) {
	start := time.Now()
	log := c.log.WithFields(logger.Fields(logger.FieldMethod, method, logger.FieldURL, url))
	log.Debug("call", logger.Fields(logger.FieldPhase, PhaseBuilding))

	spec, encErr := buildSpec(c.Config(), method, url, data, params, resolveCallOptions(opts))
	if encErr != nil {
		return nil, c.fail(log, start, encErr)
	}

	reqChain, respChain := c.registry.snapshot()
	spec = runRequestChain(ctx, reqChain, spec)
	log.Debug("call", logger.Fields(logger.FieldPhase, PhaseRequestIntercepted, logger.FieldURL, spec.URL))

	resp, txErr := c.transport.execute(ctx, spec)
	if txErr != nil {
		return nil, c.fail(log, start, txErr)
	}
	log.Debug("call", logger.Fields(logger.FieldPhase, PhaseSent, logger.FieldStatus, resp.Status))

	resp.Data = runResponseChain(ctx, respChain, spec, resp)
	log.Debug("call", logger.Fields(logger.FieldPhase, PhaseResponseIntercepted))

	if !resp.IsSuccess() {
		return nil, c.fail(log, start, NewHTTPStatusError(resp))
	}

	log.Debug("call", logger.MergeWithDuration(logger.Fields(
		logger.FieldPhase, PhaseSucceeded,
		logger.FieldStatus, resp.Status,
	), time.Since(start)))
	return resp, nil
}

// Close releases idle connections held by the transport.
func (c *Client) Close() {
	c.transport.httpClient.CloseIdleConnections()
}

func (c *Client) fail(log *logger.Logger, start time.Time, e *Error) *Error {
	log.Warn(e.Message, logger.MergeWithDuration(logger.Fields(
		logger.FieldPhase, PhaseFailed,
		logger.FieldKind, e.Code.String(),
		logger.FieldStatus, e.Status,
	), time.Since(start)))
	return e
}
