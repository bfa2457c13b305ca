package httpclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies HTTP client failures.
type ErrorCode int

const (
	// ErrCodeHTTPStatus indicates a response was received with a non-2xx status.
	ErrCodeHTTPStatus ErrorCode = iota
	// ErrCodeNetwork indicates no response was received (refused, DNS, reset, canceled).
	ErrCodeNetwork
	// ErrCodeTimeout indicates the call deadline passed before a response completed.
	ErrCodeTimeout
	// ErrCodeParse indicates the response body could not be read.
	ErrCodeParse
	// ErrCodeEncode indicates the request body could not be encoded; nothing was sent.
	ErrCodeEncode
	// ErrCodeUnknown wraps foreign errors passed to the error handler.
	ErrCodeUnknown
)

// Human messages shown for transport-level failures.
const (
	MessageNetwork = "Network error: unable to reach the server"
	MessageTimeout = "Request timed out"
	MessageParse   = "Failed to parse response"
	MessageEncode  = "Failed to encode request"
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeHTTPStatus:
		return "http_status"
	case ErrCodeNetwork:
		return "network"
	case ErrCodeTimeout:
		return "timeout"
	case ErrCodeParse:
		return "parse"
	case ErrCodeEncode:
		return "encode"
	default:
		return "unknown"
	}
}

// Error is the single failure shape returned by every Client call.
type Error struct {
	// Code classifies the failure.
	Code ErrorCode
	// Message is a human-readable description, safe to show to users.
	Message string
	// Status is the HTTP status code (0 when no response was received).
	Status int
	// StatusText is the HTTP reason phrase.
	StatusText string
	// Headers are the response headers (nil when no response was received).
	Headers map[string]string
	// Data is the response body after the response-interceptor chain.
	Data any
	// Err is the underlying cause for transport-level failures.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("httpclient: %s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewHTTPStatusError builds the failure for a received non-2xx response.
func NewHTTPStatusError(resp *Response) *Error {
	return &Error{
		Code:       ErrCodeHTTPStatus,
		Message:    fmt.Sprintf("HTTP %d: %s", resp.Status, resp.StatusText),
		Status:     resp.Status,
		StatusText: resp.StatusText,
		Headers:    resp.Headers,
		Data:       resp.Data,
	}
}

// NewNetworkError creates a network failure.
func NewNetworkError(err error) *Error {
	return &Error{Code: ErrCodeNetwork, Message: MessageNetwork, Err: err}
}

// NewTimeoutError creates a timeout failure.
func NewTimeoutError(err error) *Error {
	return &Error{Code: ErrCodeTimeout, Message: MessageTimeout, Err: err}
}

// NewParseError creates a body read failure. Status fields are kept when
// the status line had already been received.
func NewParseError(status int, statusText string, err error) *Error {
	return &Error{
		Code:       ErrCodeParse,
		Message:    MessageParse,
		Status:     status,
		StatusText: statusText,
		Err:        err,
	}
}

// NewEncodeError creates a request encoding failure.
func NewEncodeError(err error) *Error {
	return &Error{Code: ErrCodeEncode, Message: MessageEncode, Err: err}
}

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	e, ok := AsError(err)
	return ok && e.Code == ErrCodeTimeout
}

// IsNetwork checks if an error is a network error.
func IsNetwork(err error) bool {
	e, ok := AsError(err)
	return ok && e.Code == ErrCodeNetwork
}

// IsParse checks if an error is a body parse error.
func IsParse(err error) bool {
	e, ok := AsError(err)
	return ok && e.Code == ErrCodeParse
}

// IsHTTPStatus checks if an error carries a non-2xx response.
func IsHTTPStatus(err error) bool {
	e, ok := AsError(err)
	return ok && e.Code == ErrCodeHTTPStatus
}

// IsUnauthorized checks if an error is an HTTP 401.
func IsUnauthorized(err error) bool {
	e, ok := AsError(err)
	return ok && e.Code == ErrCodeHTTPStatus && e.Status == http.StatusUnauthorized
}

// IsRetryable reports whether a caller-driven retry could succeed.
// The client itself never retries.
func IsRetryable(err error) bool {
	e, ok := AsError(err)
	if !ok {
		return false
	}
	switch e.Code {
	case ErrCodeTimeout, ErrCodeNetwork:
		return true
	case ErrCodeHTTPStatus:
		return e.Status == http.StatusTooManyRequests || e.Status >= 500
	default:
		return false
	}
}
