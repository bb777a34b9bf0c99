package restclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// Network and configuration error codes. These are stable application-level
// codes carried by Error when no HTTP response was received (Status == -1).
const (
	// CodeUnknownNetwork indicates an unclassified transport failure.
	CodeUnknownNetwork = 100
	// CodeTimeout indicates the request timed out or was aborted by its deadline.
	CodeTimeout = 101
	// CodeUnreachable indicates the network or host was unreachable.
	CodeUnreachable = 102
	// CodeCancelled indicates the request was cancelled by the caller.
	CodeCancelled = 103
	// CodeHostNotFound indicates DNS resolution failed.
	CodeHostNotFound = 104
	// CodeConnectionRefused indicates the remote host refused the connection.
	CodeConnectionRefused = 105
	// CodeConfig indicates the request was never dispatched due to a local
	// configuration failure (malformed descriptor, body encoding, etc).
	CodeConfig = 106
)

// htmlSnippetLen bounds the HTML detail captured from error pages.
const htmlSnippetLen = 200

// ErrorDetails is the structured detail payload of an Error. Which fields are
// populated depends on how the failure was classified:
//
//   - JSON error response: Parsed holds the decoded body; if the body claimed
//     to be JSON but was malformed, ParseError and Raw are set instead.
//   - HTML error response: HTMLContent holds the first 200 characters.
//   - Other error responses: Raw holds the body verbatim.
//   - Transport failures: NetworkError is true, OriginalCode/OriginalMessage
//     describe the underlying failure.
//   - Configuration failures: ConfigError is true, Message describes the cause.
type ErrorDetails struct {
	Code            int    `json:"code"`
	Parsed          any    `json:"parsed,omitempty"`
	HTMLContent     string `json:"htmlContent,omitempty"`
	Raw             string `json:"raw,omitempty"`
	Status          string `json:"status,omitempty"`
	ParseError      string `json:"parseError,omitempty"`
	Message         string `json:"message,omitempty"`
	NetworkError    bool   `json:"networkError,omitempty"`
	ConfigError     bool   `json:"configError,omitempty"`
	OriginalCode    string `json:"originalCode,omitempty"`
	OriginalMessage string `json:"originalMessage,omitempty"`
}

// Error is the unified failure entity covering server errors, transport
// errors, and configuration errors. Every failed call surfaces exactly one
// Error; callers should treat Status == -1 as "not a real HTTP response" and
// branch on Details.Code for finer classification.
type Error struct {
	// Status is the HTTP status code, or -1 for transport and config failures.
	Status int
	// Code is the application or network error code. For server errors it
	// mirrors the HTTP status; for transport/config failures it is one of the
	// Code* constants.
	Code int
	// Details carries the structured failure payload.
	Details ErrorDetails
	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Status >= 400:
		return fmt.Sprintf("restclient: server error (HTTP %d)", e.Status)
	case e.Details.ConfigError:
		return fmt.Sprintf("restclient: %s", e.Details.Message)
	case e.Details.NetworkError:
		return fmt.Sprintf("restclient: network error %d: %s", e.Code, e.Details.OriginalMessage)
	default:
		return fmt.Sprintf("restclient: error %d", e.Code)
	}
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// newServerError classifies an HTTP error response into an Error whose
// detail shape is driven by the response content type.
func newServerError(status int, statusText, contentType string, body []byte) *Error {
	e := &Error{Status: status, Code: status}

	switch {
	case isJSONContentType(contentType):
		var parsed any
		if err := json.Unmarshal(body, &parsed); err != nil {
			e.Details = ErrorDetails{
				Code:       status,
				Status:     statusText,
				ParseError: err.Error(),
				Raw:        string(body),
			}
		} else {
			e.Details = ErrorDetails{Code: status, Parsed: parsed}
		}
	case strings.Contains(contentType, "text/html"):
		e.Details = ErrorDetails{Code: status, HTMLContent: truncate(string(body), htmlSnippetLen)}
	default:
		e.Details = ErrorDetails{Code: status, Raw: string(body)}
	}

	return e
}

// newParseError wraps a malformed JSON body from a success-status response.
// Per the error taxonomy, parse failures are never a distinct error kind; they
// surface through the same detail fields as a broken JSON error body.
func newParseError(status int, statusText string, body []byte, cause error) *Error {
	return &Error{
		Status: status,
		Code:   status,
		Details: ErrorDetails{
			Code:       status,
			Status:     statusText,
			ParseError: cause.Error(),
			Raw:        string(body),
		},
		Err: cause,
	}
}

// newTransportError maps a failure where the request was sent but no response
// was received onto a stable network error code.
func newTransportError(cause error) *Error {
	code, origCode := classifyTransport(cause)
	return &Error{
		Status: -1,
		Code:   code,
		Details: ErrorDetails{
			Code:            code,
			NetworkError:    true,
			OriginalCode:    origCode,
			OriginalMessage: cause.Error(),
		},
		Err: cause,
	}
}

// newConfigError wraps a failure where the request was never dispatched.
func newConfigError(cause error) *Error {
	return &Error{
		Status: -1,
		Code:   CodeConfig,
		Details: ErrorDetails{
			Code:            CodeConfig,
			Message:         fmt.Sprintf("configuration error: %s", cause),
			ConfigError:     true,
			OriginalMessage: cause.Error(),
		},
		Err: cause,
	}
}

// classifyTransport maps Go transport errors onto the fixed code table.
// Cancellation is checked before timeout so a caller-initiated abort is never
// misreported as a deadline.
func classifyTransport(err error) (code int, original string) {
	switch {
	case errors.Is(err, context.Canceled):
		return CodeCancelled, "context.Canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout, "context.DeadlineExceeded"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return CodeHostNotFound, "dns:" + dnsErr.Name
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return CodeConnectionRefused, "ECONNREFUSED"
	case errors.Is(err, syscall.ENETUNREACH):
		return CodeUnreachable, "ENETUNREACH"
	case errors.Is(err, syscall.EHOSTUNREACH):
		return CodeUnreachable, "EHOSTUNREACH"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CodeTimeout, "net:timeout"
	}

	return CodeUnknownNetwork, "unknown"
}

// AsError extracts a *Error from an error chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// IsServerError checks if an error is an HTTP error response (status >= 400).
func IsServerError(err error) bool {
	e, ok := AsError(err)
	return ok && e.Status >= 400
}

// IsTransportError checks if an error is a network-level failure.
func IsTransportError(err error) bool {
	e, ok := AsError(err)
	return ok && e.Status == -1 && e.Details.NetworkError
}

// IsTimeout checks if an error is a request timeout.
func IsTimeout(err error) bool {
	e, ok := AsError(err)
	return ok && e.Code == CodeTimeout
}

// IsCancelled checks if an error is a caller-initiated cancellation.
func IsCancelled(err error) bool {
	e, ok := AsError(err)
	return ok && e.Code == CodeCancelled
}

// IsHostNotFound checks if an error is a DNS resolution failure.
func IsHostNotFound(err error) bool {
	e, ok := AsError(err)
	return ok && e.Code == CodeHostNotFound
}

// IsConnectionRefused checks if an error is a refused connection.
func IsConnectionRefused(err error) bool {
	e, ok := AsError(err)
	return ok && e.Code == CodeConnectionRefused
}

// IsConfigError checks if an error is a local configuration failure.
func IsConfigError(err error) bool {
	e, ok := AsError(err)
	return ok && e.Code == CodeConfig && e.Details.ConfigError
}

func isJSONContentType(ct string) bool {
	return strings.Contains(ct, "json")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
