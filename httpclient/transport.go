package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
)

// transport executes exactly one request per RequestSpec.
type transport struct {
	httpClient *http.Client
}

// newTransport builds the executor. Redirects are never followed, so a 3xx
// status reaches the response interceptors and is reported as a failure.
func newTransport(cfg Config, rt http.RoundTripper) (*transport, error) {
	if rt == nil {
		base := http.DefaultTransport.(*http.Transport).Clone()
		tlsCfg, err := cfg.TLS.Build()
		if err != nil {
			return nil, err
		}
		if tlsCfg != nil {
			base.TLSClientConfig = tlsCfg
		}
		rt = base
	}
	return &transport{
		httpClient: &http.Client{
			Transport: rt,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

// execute sends the request and returns the envelope or a normalized failure.
// Non-2xx responses are returned as envelopes; the caller branches on status.
func (t *transport) execute(ctx context.Context, spec RequestSpec) (*Response, *Error) {
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	body, contentType, err := bodyReader(spec.Body)
	if err != nil {
		return nil, NewEncodeError(err)
	}

	req, err := http.NewRequestWithContext(ctx, spec.Method, spec.URL, body)
	if err != nil {
		return nil, NewNetworkError(err)
	}
	for k, v := range spec.Headers {
		req.Header.Set(k, v)
	}
	if contentType != "" {
		req.Header.Set(headerContentType, contentType)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	statusText := reasonPhrase(resp)
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if isDeadline(err) {
			return nil, NewTimeoutError(err)
		}
		return nil, NewParseError(resp.StatusCode, statusText, fmt.Errorf("read response body: %w", err))
	}

	return &Response{
		Status:     resp.StatusCode,
		StatusText: statusText,
		Headers:    flattenHeaders(resp.Header),
		Data:       decodeBody(raw, spec.ResponseKind),
	}, nil
}

// bodyReader turns an encoded body into a reader. The returned content type
// is non-empty only for multipart bodies, whose boundary the transport owns.
func bodyReader(body any) (io.Reader, string, error) {
	switch v := body.(type) {
	case nil:
		return nil, "", nil
	case *MultipartBody:
		if v == nil {
			return nil, "", nil
		}
		return v.encode()
	case MultipartBody:
		return v.encode()
	case io.Reader:
		return v, "", nil
	case string:
		return strings.NewReader(v), "", nil
	case []byte:
		return bytes.NewReader(v), "", nil
	case json.RawMessage:
		return bytes.NewReader(v), "", nil
	default:
		// A request interceptor replaced the data with a structured value.
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "", nil
	}
}

// decodeBody applies the response kind. Invalid JSON falls back to the raw
// text so plain bodies such as "OK" never fail a call. Only an empty body
// decodes to nil; whitespace is returned as text.
func decodeBody(raw []byte, kind ResponseKind) any {
	switch kind {
	case ResponseBytes:
		return raw
	case ResponseText:
		return string(raw)
	default:
		if len(raw) == 0 {
			return nil
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return string(raw)
		}
		return v
	}
}

func classifyTransportError(err error) *Error {
	if isDeadline(err) {
		return NewTimeoutError(err)
	}
	return NewNetworkError(err)
}

func isDeadline(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// reasonPhrase extracts the reason phrase from the status line.
func reasonPhrase(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// flattenHeaders converts multi-value headers to single values joined by ", ".
func flattenHeaders(h http.Header) map[string]string {
	result := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			result[k] = strings.Join(v, ", ")
		}
	}
	return result
}
