package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kbukum/restclient"
)

// Client is a typed layer over the core pipeline. It shares the core
// client's hooks, error model, and transport; it only adds JSON decoding
// into caller-supplied types.
type Client struct {
	core *restclient.Client
}

// New creates a typed client from the given config. An Accept header is
// applied unless the config already sets one.
func New(cfg restclient.Config) (*Client, error) {
	if cfg.Headers == nil {
		cfg.Headers = make(map[string]string)
	}
	if _, ok := cfg.Headers["Accept"]; !ok {
		cfg.Headers["Accept"] = "application/json"
	}

	c, err := restclient.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{core: c}, nil
}

// NewFromClient wraps an existing core client.
func NewFromClient(c *restclient.Client) *Client {
	return &Client{core: c}
}

// Core returns the underlying core client.
func (c *Client) Core() *restclient.Client {
	return c.core
}

// Get performs a GET request and decodes the JSON response into type T.
func Get[T any](ctx context.Context, c *Client, path string, opts ...restclient.RequestOption) (T, error) {
	return do[T](ctx, c, http.MethodGet, path, nil, opts)
}

// Post performs a POST request and decodes the response into type T.
func Post[T any](ctx context.Context, c *Client, path string, body restclient.Body, opts ...restclient.RequestOption) (T, error) {
	return do[T](ctx, c, http.MethodPost, path, body, opts)
}

// Put performs a PUT request and decodes the response into type T.
func Put[T any](ctx context.Context, c *Client, path string, body restclient.Body, opts ...restclient.RequestOption) (T, error) {
	return do[T](ctx, c, http.MethodPut, path, body, opts)
}

// Delete performs a DELETE request and decodes the response into type T.
func Delete[T any](ctx context.Context, c *Client, path string, opts ...restclient.RequestOption) (T, error) {
	return do[T](ctx, c, http.MethodDelete, path, nil, opts)
}

func do[T any](ctx context.Context, c *Client, method, path string, body restclient.Body, opts []restclient.RequestOption) (T, error) {
	var target T

	req := restclient.Request{Method: method, Path: path, Body: body}
	for _, opt := range opts {
		opt(&req)
	}

	raw, err := c.core.DoRaw(ctx, req)
	if err != nil {
		return target, err
	}

	if len(raw.Body) == 0 {
		return target, nil
	}
	if err := json.Unmarshal(raw.Body, &target); err != nil {
		return target, fmt.Errorf("rest: decode response: %w", err)
	}
	return target, nil
}
