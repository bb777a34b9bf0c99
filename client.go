package restclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/restclient/logger"
)

const tracerName = "github.com/kbukum/restclient"

// Client is the request façade. It normalizes CRUD verbs, uploads, and
// downloads behind one pipeline with pluggable hooks and a unified error
// model. A Client is immutable after construction and safe for concurrent
// use; it holds no per-call state.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cfg        Config
	log        *logger.Logger
	saver      FileSaver
	tracer     trace.Tracer
}

// New creates a client from the given configuration.
func New(cfg Config) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// Credentials (cookies) are always carried, so the default transport
		// gets its own jar.
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("restclient: creating cookie jar: %w", err)
		}
		httpClient = &http.Client{Jar: jar}
	}

	log := cfg.Logger
	if log == nil {
		if cfg.Debug {
			log = logger.New(&cfg.Logging, "restclient")
		} else {
			log = logger.Nop()
		}
	}

	saver := cfg.Saver
	if saver == nil {
		saver = DirSaver{Dir: cfg.DownloadDir}
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: httpClient,
		cfg:        cfg,
		log:        log,
		saver:      saver,
		tracer:     otel.Tracer(tracerName),
	}, nil
}

// Get performs a GET request and returns the decoded response body.
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (any, error) {
	return c.verb(ctx, http.MethodGet, path, nil, opts)
}

// Post performs a POST request with the given body.
func (c *Client) Post(ctx context.Context, path string, body Body, opts ...RequestOption) (any, error) {
	return c.verb(ctx, http.MethodPost, path, body, opts)
}

// Put performs a PUT request with the given body.
func (c *Client) Put(ctx context.Context, path string, body Body, opts ...RequestOption) (any, error) {
	return c.verb(ctx, http.MethodPut, path, body, opts)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (any, error) {
	return c.verb(ctx, http.MethodDelete, path, nil, opts)
}

// Do executes an arbitrary request through the full pipeline: descriptor
// build, pre-request hook, dispatch, decode, processor, post-response hook,
// error normalization.
func (c *Client) Do(ctx context.Context, req Request) (any, error) {
	v, err := c.do(ctx, req)
	return v, c.surface(err)
}

// DoRaw executes a request and returns the raw response after error
// normalization but without body decoding, processor, or post-response hook.
// The typed layer and Download build on this.
func (c *Client) DoRaw(ctx context.Context, req Request) (*RawResponse, error) {
	raw, err := c.roundTrip(ctx, req)
	return raw, c.surface(err)
}

func (c *Client) verb(ctx context.Context, method, path string, body Body, opts []RequestOption) (any, error) {
	req := Request{Method: method, Path: path, Body: body}
	for _, opt := range opts {
		opt(&req)
	}
	v, err := c.do(ctx, req)
	return v, c.surface(err)
}

// do runs the full pipeline without surfacing; callers surface exactly once.
func (c *Client) do(ctx context.Context, req Request) (any, error) {
	raw, err := c.roundTrip(ctx, req)
	if err != nil {
		return nil, err
	}

	var decoded any
	if req.rawResult {
		decoded = raw.Body
	} else {
		decoded, err = decodeBody(raw)
		if err != nil {
			return nil, err
		}
	}

	if c.cfg.Debug {
		c.log.Debug("response decoded", logger.Fields(
			logger.FieldStatus, raw.Status,
			"payload", previewPayload(decoded),
		))
	}

	if req.Processor != nil {
		decoded, err = req.Processor(decoded)
		if err != nil {
			// Processor failures are the caller's own; they bypass
			// normalization the same way saver failures do.
			return nil, err
		}
	}

	if c.cfg.PostResponseHook != nil {
		decoded, err = c.cfg.PostResponseHook(ctx, decoded)
		if err != nil {
			return nil, err
		}
	}

	return decoded, nil
}

// roundTrip builds the descriptor, dispatches it, and normalizes transport
// and server failures. A nil error means status < 300.
func (c *Client) roundTrip(ctx context.Context, req Request) (*RawResponse, error) {
	httpReq, timeout, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, newConfigError(err)
	}

	ctx = httpReq.Context()
	ctx, span := c.tracer.Start(ctx, req.Method+" "+req.Path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.full", httpReq.URL.String()),
		))
	defer span.End()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	httpReq = httpReq.WithContext(ctx)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		terr := newTransportError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, terr.Error())
		return nil, terr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		terr := newTransportError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, terr.Error())
		return nil, terr
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if c.cfg.Debug {
		c.log.Debug("request completed", logger.Fields(
			logger.FieldMethod, req.Method,
			logger.FieldURL, httpReq.URL.String(),
			logger.FieldStatus, resp.StatusCode,
			logger.FieldRequestID, httpReq.Header.Get(headerRequestID),
			logger.FieldDuration, time.Since(start).Milliseconds(),
		))
	}

	raw := &RawResponse{Status: resp.StatusCode, Headers: resp.Header, Body: body}

	// Redirects are followed by the transport; a status in [300,400) only
	// lands here when following was exhausted or disabled, and is then
	// treated like any other error status.
	if resp.StatusCode >= 300 {
		serr := newServerError(resp.StatusCode, http.StatusText(resp.StatusCode), raw.ContentType(), body)
		span.SetStatus(codes.Error, serr.Error())
		return raw, serr
	}

	return raw, nil
}

const headerRequestID = "X-Request-Id"

// buildRequest turns a Request into a ready-to-send *http.Request and
// resolves the effective timeout. All failures here mean the request was
// never dispatched.
func (c *Client) buildRequest(ctx context.Context, req Request) (*http.Request, time.Duration, error) {
	if req.Method == "" {
		return nil, 0, fmt.Errorf("missing request method")
	}

	// Base URL and path concatenate verbatim; callers own path shape.
	target := c.baseURL + req.Path

	var (
		reader      io.Reader
		contentType string
		size        = sizeUnknown
	)
	if req.Body != nil {
		var err error
		reader, contentType, size, err = req.Body.encode()
		if err != nil {
			return nil, 0, fmt.Errorf("encoding body: %w", err)
		}
	}

	if req.progress != nil && reader != nil {
		reader = &progressReader{r: reader, total: size, fn: req.progress}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	if size >= 0 {
		httpReq.ContentLength = size
	}

	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	// Default headers, then per-request headers, then the hook. Later layers
	// win key by key.
	for k, v := range c.cfg.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	switch {
	case isMultipart(req.Body):
		// Multipart carries its boundary; nothing may override it.
		httpReq.Header.Set("Content-Type", contentType)
	case req.contentType != "":
		httpReq.Header.Set("Content-Type", req.contentType)
	case req.Body != nil && httpReq.Header.Get("Content-Type") == "":
		if contentType == "" {
			contentType = "application/json"
		}
		httpReq.Header.Set("Content-Type", contentType)
	}

	httpReq.Header.Set(headerRequestID, uuid.NewString())

	timeout := c.cfg.Timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}

	if c.cfg.PreRequestHook != nil {
		if pre := c.cfg.PreRequestHook(req.Method, httpReq.URL.String()); pre != nil {
			for k, v := range pre.Headers {
				httpReq.Header.Set(k, v)
			}
			if pre.Timeout > 0 {
				timeout = pre.Timeout
			}
		}
	}

	if c.cfg.Debug {
		c.log.Debug("request built", logger.Fields(
			logger.FieldMethod, req.Method,
			logger.FieldURL, httpReq.URL.String(),
			logger.FieldRequestID, httpReq.Header.Get(headerRequestID),
			"timeout", timeout.String(),
		))
	}

	return httpReq, timeout, nil
}

// surface hands a normalized error to the error hook, exactly once, right
// before it reaches the caller. The hook's return value never suppresses
// propagation. Non-Error failures (processor, post-hook, saver) pass through
// untouched.
func (c *Client) surface(err error) error {
	if err == nil {
		return nil
	}
	if e, ok := AsError(err); ok && c.cfg.ErrorHook != nil {
		c.cfg.ErrorHook(e)
	}
	return err
}

func isMultipart(b Body) bool {
	_, ok := b.(multipartBody)
	return ok
}

// previewPayload bounds debug log output for large payloads.
func previewPayload(v any) any {
	if b, ok := v.([]byte); ok {
		if len(b) > 256 {
			return fmt.Sprintf("%d bytes", len(b))
		}
		return string(b)
	}
	return v
}
