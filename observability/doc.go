// Package observability wires OpenTelemetry into the API client.
//
// Setup exports traces and metrics over OTLP/HTTP:
//
//	tel, err := observability.Setup(ctx, cfg.Telemetry)
//	defer tel.Shutdown(ctx)
//
// The interceptors plug into an httpclient registry:
//
//	client.AddRequestInterceptor(observability.TracePropagation())
//	counter, err := observability.ResponseMetrics(observability.Meter("consultctl"))
//	client.AddResponseInterceptor(counter)
//
// Health reporting:
//
//	health := observability.NewServiceHealth("consultctl", "1.0.0")
//	health.AddComponent(store.CheckHealth(ctx))
package observability
