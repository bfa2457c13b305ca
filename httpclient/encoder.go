package httpclient

import (
	"encoding/json"
	"io"
	"net/textproto"
	"net/url"
	"strings"
)

const headerContentType = "Content-Type"

// buildSpec composes the RequestSpec for one call from a config snapshot.
func buildSpec(cfg Config, method, rawURL string, body any, params map[string]string, o callOptions) (RequestSpec, *Error) {
	query := mergeParams(params, o.query)

	headers := canonicalHeaders(cfg.Headers)
	for k, v := range o.headers {
		headers[textproto.CanonicalMIMEHeaderKey(k)] = v
	}

	encoded, err := encodePayload(body)
	if err != nil {
		return RequestSpec{}, NewEncodeError(err)
	}
	if isMultipart(body) {
		// Stripped after both merges so neither defaults nor per-call
		// headers can re-add a stale type; the transport sets the boundary.
		delete(headers, headerContentType)
	}

	timeout := cfg.Timeout
	if o.timeout > 0 {
		timeout = o.timeout
	}

	return RequestSpec{
		Method:       strings.ToUpper(method),
		URL:          appendQuery(resolveURL(cfg.BaseURL, rawURL), query),
		Body:         encoded,
		Query:        query,
		Headers:      headers,
		Timeout:      timeout,
		ResponseKind: o.responseKind,
	}, nil
}

// resolveURL prefixes base to relative URLs; absolute URLs pass through.
func resolveURL(base, rawURL string) string {
	if base == "" || isAbsoluteURL(rawURL) {
		return rawURL
	}
	if rawURL == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(rawURL, "/")
}

func isAbsoluteURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// appendQuery URL-encodes params onto u, using '&' when u already has a
// query. The query goes before any fragment.
func appendQuery(u string, params map[string]string) string {
	if len(params) == 0 {
		return u
	}
	values := make(url.Values, len(params))
	for k, v := range params {
		values.Set(k, v)
	}
	base, fragment, hasFragment := strings.Cut(u, "#")
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	out := base + sep + values.Encode()
	if hasFragment {
		out += "#" + fragment
	}
	return out
}

func mergeParams(params, extra map[string]string) map[string]string {
	if len(params) == 0 && len(extra) == 0 {
		return nil
	}
	out := make(map[string]string, len(params)+len(extra))
	for k, v := range params {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// canonicalHeaders copies h with canonical header names.
func canonicalHeaders(h map[string]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[textproto.CanonicalMIMEHeaderKey(k)] = v
	}
	return out
}

// encodePayload applies the body policy: multipart markers and raw values
// pass through, structured values are serialized to JSON text.
func encodePayload(body any) (any, error) {
	switch v := body.(type) {
	case nil, string, []byte, json.RawMessage, io.Reader, *MultipartBody:
		return body, nil
	case MultipartBody:
		return &v, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return json.RawMessage(data), nil
	}
}

func isMultipart(body any) bool {
	switch body.(type) {
	case *MultipartBody, MultipartBody:
		return true
	default:
		return false
	}
}
