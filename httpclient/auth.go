package httpclient

import (
	"context"
	"encoding/base64"
)

// DefaultAPIKeyHeader is the header APIKeyInterceptor uses when name is empty.
const DefaultAPIKeyHeader = "X-API-Key"

// BasicAuthInterceptor sets HTTP Basic credentials on every request that
// does not already carry an Authorization header.
func BasicAuthInterceptor(username, password string) RequestInterceptor {
	value := "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
	return func(_ context.Context, req *OutgoingRequest) *RequestOverride {
		if req.Headers["Authorization"] != "" {
			return nil
		}
		req.Headers["Authorization"] = value
		return ReplaceHeaders(req.Headers)
	}
}

// APIKeyInterceptor sends key in the named header (X-API-Key when empty).
// An empty key leaves requests unchanged.
func APIKeyInterceptor(name, key string) RequestInterceptor {
	if name == "" {
		name = DefaultAPIKeyHeader
	}
	return func(_ context.Context, req *OutgoingRequest) *RequestOverride {
		if key == "" {
			return nil
		}
		req.Headers[name] = key
		return ReplaceHeaders(req.Headers)
	}
}
