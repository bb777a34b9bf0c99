package restclient

import (
	"context"
	"io"
	"math"
	"net/http"
	"sync"
)

// defaultFileField is the multipart field name used when the caller does not
// override it with WithFieldName.
const defaultFileField = "filename"

// UploadCallback receives the outcomes of an asynchronous upload. All
// functions are optional; the callback is used for the duration of the call
// and not retained by the client.
type UploadCallback struct {
	// OnProgress receives the transfer percentage, 0-100. It is never called
	// when the total size is unknown, and never with a value lower than one
	// it has already seen.
	OnProgress func(percent int)
	// OnComplete receives the decoded response body. Exactly one of
	// OnComplete and OnError fires per upload, unless the upload is
	// cancelled, in which case neither does.
	OnComplete func(result any)
	// OnError receives the normalized failure.
	OnError func(err *Error)
}

// UploadProgress is the handle returned by AsyncUpload.
type UploadProgress struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel aborts the in-flight upload. Cancelling after the upload has
// settled is a safe no-op. Bytes already sent are not rolled back.
func (p *UploadProgress) Cancel() {
	p.cancel()
}

// Done is closed once the upload settles: success, failure, or cancellation.
func (p *UploadProgress) Done() <-chan struct{} {
	return p.done
}

// Upload sends a file as a multipart form along with scalar fields and
// returns the decoded response body. Failures surface through the normal
// error path, exactly like the CRUD verbs.
func (c *Client) Upload(ctx context.Context, path string, fields map[string]string, file File, opts ...RequestOption) (any, error) {
	req := uploadRequest(path, fields, file, opts)
	v, err := c.do(ctx, req)
	return v, c.surface(err)
}

// AsyncUpload starts the transfer and immediately returns a handle whose
// Cancel aborts it. All outcomes are delivered through cb, never through the
// handle: completion and non-cancellation failures invoke exactly one
// terminal callback, while cancellation is a deliberate abort and is not
// reported as an error.
func (c *Client) AsyncUpload(ctx context.Context, path string, fields map[string]string, file File, cb UploadCallback, opts ...RequestOption) *UploadProgress {
	ctx, cancel := context.WithCancel(ctx)
	handle := &UploadProgress{cancel: cancel, done: make(chan struct{})}

	req := uploadRequest(path, fields, file, opts)
	req.progress = progressFunc(cb.OnProgress)

	go func() {
		defer close(handle.done)
		defer cancel()

		v, err := c.do(ctx, req)
		if err == nil {
			if cb.OnComplete != nil {
				cb.OnComplete(v)
			}
			return
		}

		if IsCancelled(err) {
			return
		}

		err = c.surface(err)
		if cb.OnError != nil {
			if e, ok := AsError(err); ok {
				cb.OnError(e)
			} else {
				cb.OnError(newConfigError(err))
			}
		}
	}()

	return handle
}

func uploadRequest(path string, fields map[string]string, file File, opts []RequestOption) Request {
	req := Request{Method: http.MethodPost, Path: path}
	for _, opt := range opts {
		opt(&req)
	}
	req.Body = multipartBody{fields: fields, fieldName: req.fieldName, file: file}
	return req
}

// progressFunc converts a percentage callback into a byte-level progress
// observer, skipping entirely when the total is unknown and keeping reported
// percentages monotonically non-decreasing.
func progressFunc(onProgress func(percent int)) func(sent, total int64) {
	if onProgress == nil {
		return nil
	}
	var mu sync.Mutex
	last := -1
	return func(sent, total int64) {
		if total <= 0 {
			return
		}
		pct := int(math.Round(float64(sent) * 100 / float64(total)))
		if pct > 100 {
			pct = 100
		}
		mu.Lock()
		defer mu.Unlock()
		if pct <= last {
			return
		}
		last = pct
		onProgress(pct)
	}
}

// progressReader counts bytes as the transport drains the request body.
type progressReader struct {
	r     io.Reader
	total int64
	sent  int64
	fn    func(sent, total int64)
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.sent += int64(n)
		if pr.fn != nil {
			pr.fn(pr.sent, pr.total)
		}
	}
	return n, err
}
