package restclient

import (
	"context"
	"net/http"
	"time"
)

// Processor is a caller-supplied synchronous transform applied to the decoded
// response body before the post-response hook runs. It must be pure: no I/O,
// no retained references to the input.
type Processor func(v any) (any, error)

// PreInterceptor is the result of a pre-request hook. Headers overwrite the
// descriptor's headers key by key; a positive Timeout overrides the default.
type PreInterceptor struct {
	Headers map[string]string
	Timeout time.Duration
}

// PreRequestHook augments a request before dispatch. It receives the method
// and the fully resolved URL and may return nil to leave the request
// untouched. The hook runs synchronously on the request path: it must resolve
// its values (auth tokens in particular) without blocking on network work.
type PreRequestHook func(method, url string) *PreInterceptor

// PostResponseHook transforms a successfully decoded response body. Unlike
// the pre-request hook it may do ctx-aware work.
type PostResponseHook func(ctx context.Context, v any) (any, error)

// ErrorHook observes every Error before it is surfaced to the caller. The
// returned value is purely informational for the hook's own bookkeeping; the
// error propagates regardless.
type ErrorHook func(err *Error) bool

// Request describes a single call through the pipeline. A fresh Request is
// built per call and discarded afterwards; it is never shared or reused.
type Request struct {
	// Method is the HTTP method. Verb helpers fill this in.
	Method string
	// Path is appended verbatim to the client's base URL. No slash
	// normalization is performed; callers supply correctly formed paths.
	Path string
	// Query are URL query parameters.
	Query map[string]string
	// Headers are request-specific headers. They override the client's
	// default headers and are in turn overridden by the pre-request hook.
	Headers map[string]string
	// Body is the tagged request payload, or nil.
	Body Body
	// Timeout overrides the client default for this request. The pre-request
	// hook takes precedence over both.
	Timeout time.Duration
	// Processor is the optional response transform.
	Processor Processor

	// contentType forces the Content-Type header, overriding the body's own.
	contentType string
	// fieldName is the multipart file field name for uploads.
	fieldName string
	// rawResult skips JSON decoding and returns the body bytes untouched.
	rawResult bool
	// progress observes upload progress as (bytesSent, totalBytes).
	progress func(sent, total int64)
}

// RequestOption configures a single request.
type RequestOption func(*Request)

// WithQuery sets the request query parameters.
func WithQuery(params map[string]string) RequestOption {
	return func(r *Request) {
		r.Query = params
	}
}

// WithHeader sets a single request header.
func WithHeader(key, value string) RequestOption {
	return func(r *Request) {
		if r.Headers == nil {
			r.Headers = make(map[string]string)
		}
		r.Headers[key] = value
	}
}

// WithHeaders merges headers into the request.
func WithHeaders(headers map[string]string) RequestOption {
	return func(r *Request) {
		if r.Headers == nil {
			r.Headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			r.Headers[k] = v
		}
	}
}

// WithContentType overrides the Content-Type header, e.g. for XML payloads.
// Ignored for multipart uploads, whose content type carries the boundary.
func WithContentType(contentType string) RequestOption {
	return func(r *Request) {
		r.contentType = contentType
	}
}

// WithTimeout overrides the client's default timeout for this request.
func WithTimeout(d time.Duration) RequestOption {
	return func(r *Request) {
		r.Timeout = d
	}
}

// WithProcessor sets the synchronous response transform.
func WithProcessor(p Processor) RequestOption {
	return func(r *Request) {
		r.Processor = p
	}
}

// WithMethod overrides the HTTP method. Used by Download, which defaults to
// GET but may need POST against some endpoints.
func WithMethod(method string) RequestOption {
	return func(r *Request) {
		r.Method = method
	}
}

// WithBody attaches a body to a request that does not take one as a direct
// argument (Download in particular).
func WithBody(body Body) RequestOption {
	return func(r *Request) {
		r.Body = body
	}
}

// WithFieldName sets the multipart field name for the uploaded file.
// Defaults to "filename".
func WithFieldName(name string) RequestOption {
	return func(r *Request) {
		r.fieldName = name
	}
}

// RawResponse is the transport-level result of a request after error
// normalization but before body decoding.
type RawResponse struct {
	// Status is the HTTP status code.
	Status int
	// Headers are the response headers.
	Headers http.Header
	// Body is the raw response body.
	Body []byte
}

// ContentType returns the response's declared media type.
func (r *RawResponse) ContentType() string {
	return r.Headers.Get("Content-Type")
}

// IsSuccess returns true if the status code is 2xx.
func (r *RawResponse) IsSuccess() bool {
	return r.Status >= 200 && r.Status < 300
}
