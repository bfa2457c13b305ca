package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/consultdesk/apiclient/httpclient"
	"github.com/consultdesk/apiclient/logger"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", DefaultConfig("svc"), false},
		{"disabled without endpoint", Config{}, false},
		{"enabled without endpoint", Config{Enabled: true}, true},
		{"bad endpoint", Config{Endpoint: "no-port"}, true},
		{"sample rate too high", Config{SampleRate: 1.5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSetup_Disabled(t *testing.T) {
	tel, err := Setup(context.Background(), Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tel.TracerProvider != nil || tel.MeterProvider != nil {
		t.Error("disabled setup should not create providers")
	}
	if err := tel.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{0.5, "ParentBased"},
	}
	for _, tt := range tests {
		if got := sampler(tt.rate).Description(); !strings.HasPrefix(got, tt.want) {
			t.Errorf("sampler(%v) = %q, want prefix %q", tt.rate, got, tt.want)
		}
	}
}

func TestNewResource(t *testing.T) {
	res := newResource(Config{ServiceName: "consultctl", ServiceVersion: "2.0.0", Environment: "test"})
	v, ok := res.Set().Value(attribute.Key(AttrServiceName))
	if !ok || v.AsString() != "consultctl" {
		t.Errorf("expected service.name consultctl, got %v", v)
	}
}

func TestTracePropagation(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("test").Start(context.Background(), "list-tenants")
	traceID := span.SpanContext().TraceID().String()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Traceparent"); !strings.Contains(got, traceID) {
			t.Errorf("expected traceparent with %s, got %q", traceID, got)
		}
		w.WriteHeader(200)
	}))
	defer srv.Close()

	c, err := httpclient.New(httpclient.Config{BaseURL: srv.URL}, httpclient.WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.AddRequestInterceptor(TracePropagationWith(propagation.TraceContext{}))

	if _, err := c.Get(ctx, "/tenants", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	span.End()
	if len(exporter.GetSpans()) != 1 {
		t.Errorf("expected 1 exported span, got %d", len(exporter.GetSpans()))
	}
}

func TestTracePropagation_NoSpan(t *testing.T) {
	fn := TracePropagationWith(propagation.TraceContext{})
	ov := fn(context.Background(), &httpclient.OutgoingRequest{Headers: map[string]string{}})
	if ov != nil {
		t.Error("expected no override without an active span")
	}
}

func TestResponseMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	fn, err := ResponseMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	for _, status := range []int{200, 201, 404} {
		if ov := fn(ctx, &httpclient.IncomingResponse{Method: "GET", Status: status}); ov != nil {
			t.Error("metrics interceptor must not override data")
		}
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != MetricResponses {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("expected int64 sum, got %T", m.Data)
			}
			for _, dp := range sum.DataPoints {
				class, _ := dp.Attributes.Value(attribute.Key(AttrStatusClass))
				counts[class.AsString()] += dp.Value
			}
		}
	}
	if counts["2xx"] != 2 || counts["4xx"] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}
}

func TestCheck(t *testing.T) {
	up := CheckFunc(func(context.Context) Health { return Health{Name: "api", Status: HealthStatusUp} })
	degraded := CheckFunc(func(context.Context) Health { return Health{Name: "cache", Status: HealthStatusDegraded} })
	down := CheckFunc(func(context.Context) Health { return Health{Name: "tokenstore", Status: HealthStatusDown} })

	sh := Check(context.Background(), "consultctl", "1.0.0", up, nil, degraded)
	if sh.Status != HealthStatusDegraded || len(sh.Components) != 2 {
		t.Errorf("unexpected health %+v", sh)
	}

	sh = Check(context.Background(), "consultctl", "1.0.0", down, degraded)
	if sh.Status != HealthStatusDown {
		t.Errorf("degraded must not override down, got %s", sh.Status)
	}

	slow := CheckFunc(func(context.Context) Health {
		time.Sleep(5 * time.Millisecond)
		return Health{Name: "slow", Status: HealthStatusUp}
	})
	sh = Check(context.Background(), "consultctl", "1.0.0", slow)
	if sh.Components[0].LatencyMS < 5 {
		t.Errorf("expected latency of at least 5ms, got %d", sh.Components[0].LatencyMS)
	}
}
