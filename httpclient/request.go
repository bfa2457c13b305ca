package httpclient

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"
)

// ResponseKind selects how the transport decodes a response body.
type ResponseKind int

const (
	// ResponseJSON decodes JSON into any, falling back to the raw text when
	// the body is not valid JSON.
	ResponseJSON ResponseKind = iota
	// ResponseText delivers the body as a string.
	ResponseText
	// ResponseBytes delivers the body as []byte.
	ResponseBytes
)

// String returns the response kind name.
func (k ResponseKind) String() string {
	switch k {
	case ResponseJSON:
		return "json"
	case ResponseText:
		return "text"
	case ResponseBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// RequestSpec is the fully resolved description of one outbound call.
// The encoder builds it, request interceptors rewrite Body and Headers,
// and the transport consumes it without modification.
type RequestSpec struct {
	Method string
	// URL is absolute (base URL applied) and carries the encoded query.
	URL string
	// Body is nil, a raw value (string, []byte, json.RawMessage, io.Reader),
	// a *MultipartBody, or a structured value still to be JSON-encoded.
	Body any
	// Query holds the parameters already appended to URL.
	Query map[string]string
	// Headers are canonicalised header names to values.
	Headers      map[string]string
	Timeout      time.Duration
	ResponseKind ResponseKind
}

// Response is the normalized envelope of a completed call.
type Response struct {
	// Status is the HTTP status code.
	Status int
	// StatusText is the HTTP reason phrase.
	StatusText string
	// Headers are the response headers; repeated values are joined by ", ".
	Headers map[string]string
	// Data is the decoded body after the response-interceptor chain.
	Data any
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.Status >= 200 && r.Status < 300
}

// Decode converts the decoded response data into T.
// Data produced by ResponseJSON is re-marshalled; string and []byte data
// is parsed as JSON text.
func Decode[T any](resp *Response) (T, error) {
	var out T
	var raw []byte
	switch v := resp.Data.(type) {
	case nil:
		return out, nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return out, fmt.Errorf("httpclient: decode response: %w", err)
		}
		raw = b
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("httpclient: decode response: %w", err)
	}
	return out, nil
}

// callOptions holds per-call settings collected from CallOption values.
type callOptions struct {
	headers      map[string]string
	query        map[string]string
	timeout      time.Duration
	responseKind ResponseKind
}

// CallOption configures a single call.
type CallOption func(*callOptions)

// WithHeader sets a per-call header, overriding the client default.
func WithHeader(key, value string) CallOption {
	return func(o *callOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[key] = value
	}
}

// WithHeaders sets several per-call headers.
func WithHeaders(h map[string]string) CallOption {
	return func(o *callOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string, len(h))
		}
		maps.Copy(o.headers, h)
	}
}

// WithQueryParam adds a query parameter to the call.
func WithQueryParam(key, value string) CallOption {
	return func(o *callOptions) {
		if o.query == nil {
			o.query = make(map[string]string)
		}
		o.query[key] = value
	}
}

// WithTimeout overrides the configured timeout for the call.
func WithTimeout(d time.Duration) CallOption {
	return func(o *callOptions) {
		o.timeout = d
	}
}

// WithResponseKind selects how the response body is decoded.
func WithResponseKind(kind ResponseKind) CallOption {
	return func(o *callOptions) {
		o.responseKind = kind
	}
}

func resolveCallOptions(opts []CallOption) callOptions {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
