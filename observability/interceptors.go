package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"

	"github.com/consultdesk/apiclient/httpclient"
)

// TracePropagation returns a request interceptor that injects the trace
// context of the call's ctx using the global propagator.
func TracePropagation() httpclient.RequestInterceptor {
	return TracePropagationWith(nil)
}

// TracePropagationWith is TracePropagation with an explicit propagator.
// A nil propagator resolves the global one on every call.
func TracePropagationWith(p propagation.TextMapPropagator) httpclient.RequestInterceptor {
	return func(ctx context.Context, req *httpclient.OutgoingRequest) *httpclient.RequestOverride {
		prop := p
		if prop == nil {
			prop = otel.GetTextMapPropagator()
		}
		carrier := propagation.MapCarrier{}
		prop.Inject(ctx, carrier)
		if len(carrier) == 0 {
			return nil
		}
		for k, v := range carrier {
			req.Headers[k] = v
		}
		return httpclient.ReplaceHeaders(req.Headers)
	}
}

// ResponseMetrics returns a side-effect-only response interceptor counting
// every received response, failures included.
func ResponseMetrics(meter metric.Meter) (httpclient.ResponseInterceptor, error) {
	m, err := NewClientMetrics(meter)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, resp *httpclient.IncomingResponse) *httpclient.ResponseOverride {
		m.RecordResponse(ctx, resp.Method, resp.Status)
		return nil
	}, nil
}

func methodAttr(method string) attribute.KeyValue {
	return attribute.String(AttrMethod, method)
}

func statusAttr(status int) attribute.KeyValue {
	return attribute.Int(AttrStatus, status)
}

func statusClassAttr(status int) attribute.KeyValue {
	return attribute.String(AttrStatusClass, fmt.Sprintf("%dxx", status/100))
}
