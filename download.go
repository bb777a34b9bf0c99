package restclient

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
)

// FileSaver is the save-bytes-as-file capability consumed by Download.
// Implementations persist the payload under the given name with its declared
// media type. Saver failures propagate to the caller as-is; they are not
// folded into the unified error model.
type FileSaver interface {
	Save(filename string, data []byte, mediaType string) error
}

// DirSaver writes downloads into a directory on the local filesystem. Only
// the base name of the requested filename is used, so a hostile server cannot
// steer the file outside Dir.
type DirSaver struct {
	Dir string
}

// Save implements FileSaver.
func (s DirSaver) Save(filename string, data []byte, _ string) error {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	return os.WriteFile(filepath.Join(dir, filepath.Base(filename)), data, 0o644)
}

// Download fetches the response as raw bytes and hands them to the client's
// FileSaver under the given filename, together with the response's declared
// media type. The method defaults to GET; override with WithMethod and attach
// a body with WithBody where an endpoint requires POST. Request failures are
// normalized like any other call and never silently swallowed.
func (c *Client) Download(ctx context.Context, path, filename string, opts ...RequestOption) error {
	req := Request{Method: http.MethodGet, Path: path, rawResult: true}
	for _, opt := range opts {
		opt(&req)
	}

	raw, err := c.roundTrip(ctx, req)
	if err != nil {
		return c.surface(err)
	}

	return c.saver.Save(filename, raw.Body, raw.ContentType())
}
