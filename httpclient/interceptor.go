package httpclient

import (
	"context"
	"maps"
)

// OutgoingRequest is the view a request interceptor receives. It is a copy:
// changes made to it are discarded, return a RequestOverride instead.
type OutgoingRequest struct {
	Method  string
	URL     string
	Data    any
	Headers map[string]string
}

// RequestInterceptor observes an outgoing request. Returning nil leaves the
// request unchanged; a non-nil override replaces the data and/or headers
// seen by later interceptors and by the transport.
type RequestInterceptor func(ctx context.Context, req *OutgoingRequest) *RequestOverride

// RequestOverride replaces parts of the running request. Only the parts
// set through ReplaceData/ReplaceHeaders (or WithData/WithHeaders) apply.
type RequestOverride struct {
	data       any
	headers    map[string]string
	hasData    bool
	hasHeaders bool
}

// ReplaceData returns an override that replaces the request body. A nil
// data value clears the body.
func ReplaceData(data any) *RequestOverride {
	return (&RequestOverride{}).WithData(data)
}

// ReplaceHeaders returns an override that replaces the whole header set.
func ReplaceHeaders(headers map[string]string) *RequestOverride {
	return (&RequestOverride{}).WithHeaders(headers)
}

// WithData adds a body replacement to the override.
func (o *RequestOverride) WithData(data any) *RequestOverride {
	o.data = data
	o.hasData = true
	return o
}

// WithHeaders adds a header replacement to the override.
func (o *RequestOverride) WithHeaders(headers map[string]string) *RequestOverride {
	o.headers = headers
	o.hasHeaders = true
	return o
}

// IncomingResponse is the view a response interceptor receives.
type IncomingResponse struct {
	Method     string
	URL        string
	Status     int
	StatusText string
	Headers    map[string]string
	Data       any
}

// ResponseInterceptor observes every received response, before the
// success/failure decision. Returning nil leaves the data unchanged.
type ResponseInterceptor func(ctx context.Context, resp *IncomingResponse) *ResponseOverride

// ResponseOverride replaces the running response data.
type ResponseOverride struct {
	data any
}

// ReplaceResponse returns an override that replaces the response data.
func ReplaceResponse(data any) *ResponseOverride {
	return &ResponseOverride{data: data}
}

// runRequestChain applies interceptors in order and returns the final spec.
func runRequestChain(ctx context.Context, chain []RequestInterceptor, spec RequestSpec) RequestSpec {
	for _, fn := range chain {
		ov := fn(ctx, &OutgoingRequest{
			Method:  spec.Method,
			URL:     spec.URL,
			Data:    spec.Body,
			Headers: maps.Clone(spec.Headers),
		})
		if ov == nil {
			continue
		}
		if ov.hasData {
			spec.Body = ov.data
		}
		if ov.hasHeaders {
			spec.Headers = canonicalHeaders(ov.headers)
		}
	}
	return spec
}

// runResponseChain applies interceptors in order and returns the final data.
func runResponseChain(ctx context.Context, chain []ResponseInterceptor, spec RequestSpec, resp *Response) any {
	data := resp.Data
	for _, fn := range chain {
		ov := fn(ctx, &IncomingResponse{
			Method:     spec.Method,
			URL:        spec.URL,
			Status:     resp.Status,
			StatusText: resp.StatusText,
			Headers:    maps.Clone(resp.Headers),
			Data:       data,
		})
		if ov != nil {
			data = ov.data
		}
	}
	return data
}
