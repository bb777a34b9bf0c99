package rest

import "github.com/kbukum/restclient"

// Error helpers re-exported so typed-layer users don't need to import the
// core package for error checking.

// IsServerError checks if the error is an HTTP error response (status >= 400).
func IsServerError(err error) bool { return restclient.IsServerError(err) }

// IsTransportError checks if the error is a network-level failure.
func IsTransportError(err error) bool { return restclient.IsTransportError(err) }

// IsTimeout checks if the error is a request timeout.
func IsTimeout(err error) bool { return restclient.IsTimeout(err) }

// IsCancelled checks if the error is a caller-initiated cancellation.
func IsCancelled(err error) bool { return restclient.IsCancelled(err) }

// IsConfigError checks if the error is a local configuration failure.
func IsConfigError(err error) bool { return restclient.IsConfigError(err) }
