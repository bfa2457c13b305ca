package httpclient

import (
	"context"

	"github.com/google/uuid"

	"github.com/consultdesk/apiclient/logger"
)

// HeaderRequestID carries the per-call correlation id.
const HeaderRequestID = "X-Request-Id"

// RequestIDInterceptor adds a random X-Request-ID header unless the call
// already carries one.
func RequestIDInterceptor() RequestInterceptor {
	return func(_ context.Context, req *OutgoingRequest) *RequestOverride {
		if req.Headers[HeaderRequestID] != "" {
			return nil
		}
		req.Headers[HeaderRequestID] = uuid.NewString()
		return ReplaceHeaders(req.Headers)
	}
}

// LoggingInterceptors returns a side-effect-only pair that logs each
// outgoing request and each received response. Header values are not
// logged; only the header names are.
func LoggingInterceptors(log *logger.Logger) (RequestInterceptor, ResponseInterceptor) {
	onRequest := func(_ context.Context, req *OutgoingRequest) *RequestOverride {
		names := make([]string, 0, len(req.Headers))
		for k := range req.Headers {
			names = append(names, k)
		}
		log.Debug("outgoing request", logger.Fields(
			logger.FieldMethod, req.Method,
			logger.FieldURL, req.URL,
			logger.FieldRequestID, req.Headers[HeaderRequestID],
			"headers", names,
		))
		return nil
	}
	onResponse := func(_ context.Context, resp *IncomingResponse) *ResponseOverride {
		log.Debug("incoming response", logger.Fields(
			logger.FieldMethod, resp.Method,
			logger.FieldURL, resp.URL,
			logger.FieldStatus, resp.Status,
		))
		return nil
	}
	return onRequest, onResponse
}
