package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/consultdesk/apiclient/httpclient"
	"github.com/consultdesk/apiclient/logger"
	"github.com/consultdesk/apiclient/navigation"
	"github.com/consultdesk/apiclient/notify"
	"github.com/consultdesk/apiclient/observability"
	"github.com/consultdesk/apiclient/retry"
	"github.com/consultdesk/apiclient/tokenstore"
)

type app struct {
	cfg       *AppConfig
	log       *logger.Logger
	telemetry *observability.Telemetry
	store     tokenstore.Store
	history   *navigation.History
	client    *httpclient.Client
	handler   *httpclient.ErrorHandler
}

func newApp(ctx context.Context, cfg *AppConfig) (*app, error) {
	logger.Init(&cfg.Logging, cfg.Name)
	log := logger.WithComponent(serviceName)

	tel, err := observability.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("setup telemetry: %w", err)
	}

	store, err := tokenstore.New(cfg.TokenStore, logger.WithComponent("tokenstore"))
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("open token store: %w", err)
	}

	a := &app{
		cfg:       cfg,
		log:       log,
		telemetry: tel,
		store:     store,
		history:   navigation.NewHistory(cfg.Session.StartPath),
		handler:   httpclient.NewErrorHandler(notify.NewLogNotifier(log), log),
	}
	if a.client, err = a.buildClient(); err != nil {
		a.Close(ctx)
		return nil, err
	}
	return a, nil
}

// buildClient installs the interceptors in their run order: request id,
// trace context, static credentials, bearer token, logging; then metrics,
// session expiry and response logging.
func (a *app) buildClient() (*httpclient.Client, error) {
	client, err := httpclient.New(a.cfg.API, httpclient.WithLogger(logger.WithComponent("httpclient")))
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	metrics, err := observability.ResponseMetrics(observability.Meter(serviceName))
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("create metrics: %w", err)
	}

	reg := client.Registry()
	reg.AddRequest(httpclient.RequestIDInterceptor())
	reg.AddRequest(observability.TracePropagation())
	if auth := a.cfg.Auth; auth.Username != "" {
		reg.AddRequest(httpclient.BasicAuthInterceptor(auth.Username, auth.Password))
	}
	if auth := a.cfg.Auth; auth.APIKey != "" {
		reg.AddRequest(httpclient.APIKeyInterceptor(auth.APIKeyHeader, auth.APIKey))
	}
	reg.AddResponse(metrics)
	httpclient.InstallSessionInterceptors(reg, httpclient.SessionConfig{
		Tokens:    a.store,
		Navigator: navigation.NewLogging(a.history, a.log),
		TokenKey:  a.cfg.Session.TokenKey,
		LoginPath: a.cfg.Session.LoginPath,
	})
	onRequest, onResponse := httpclient.LoggingInterceptors(a.log)
	reg.AddRequest(onRequest)
	reg.AddResponse(onResponse)
	return client, nil
}

// Close releases the client, the store and the telemetry providers.
func (a *app) Close(ctx context.Context) {
	if a.client != nil {
		a.client.Close()
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn("token store close failed", logger.ErrorFields("close", err))
	}
	if err := a.telemetry.Shutdown(ctx); err != nil {
		a.log.Warn("telemetry shutdown failed", logger.ErrorFields("shutdown", err))
	}
}

// Login stores the session token used by later calls.
func (a *app) Login(ctx context.Context, token string) error {
	if err := a.store.Set(ctx, a.cfg.Session.TokenKey, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	a.log.Info("session token stored", logger.Fields(logger.FieldStoreKey, a.cfg.Session.TokenKey))
	return nil
}

// Logout removes the session token.
func (a *app) Logout(ctx context.Context) error {
	if err := a.store.Remove(ctx, a.cfg.Session.TokenKey); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

// Health checks the token store and the API health endpoint.
func (a *app) Health(ctx context.Context, w io.Writer) error {
	var checkers []observability.HealthChecker
	if hc, ok := a.store.(observability.HealthChecker); ok {
		checkers = append(checkers, hc)
	}
	checkers = append(checkers, observability.CheckFunc(a.checkAPI))

	sh := observability.Check(ctx, a.cfg.Name, a.cfg.Version, checkers...)
	if err := writeJSON(w, sh); err != nil {
		return err
	}
	if sh.Status == observability.HealthStatusDown {
		return fmt.Errorf("service is %s", sh.Status)
	}
	return nil
}

func (a *app) checkAPI(ctx context.Context) observability.Health {
	h := observability.Health{
		Name:    "api",
		Status:  observability.HealthStatusUp,
		Details: map[string]string{"base_url": a.cfg.API.BaseURL, "path": a.cfg.HealthPath},
	}
	_, err := a.client.Get(ctx, a.cfg.HealthPath, nil, httpclient.WithResponseKind(httpclient.ResponseText))
	if err == nil {
		return h
	}
	h.Message = err.Error()
	h.Status = observability.HealthStatusDown
	if e, ok := httpclient.AsError(err); ok && e.Code == httpclient.ErrCodeHTTPStatus && e.Status < 500 {
		h.Status = observability.HealthStatusDegraded
	}
	return h
}

// Call performs one request and prints the decoded response data.
func (a *app) Call(ctx context.Context, o *options, w io.Writer) error {
	params, err := splitPairs(o.params)
	if err != nil {
		return fmt.Errorf("--param: %w", err)
	}
	headers, err := splitPairs(o.headers)
	if err != nil {
		return fmt.Errorf("--header: %w", err)
	}
	var callOpts []httpclient.CallOption
	if headers != nil {
		callOpts = append(callOpts, httpclient.WithHeaders(headers))
	}
	if o.timeout > 0 {
		callOpts = append(callOpts, httpclient.WithTimeout(o.timeout))
	}

	body, err := requestBody(o)
	if err != nil {
		return err
	}

	ctx, span := observability.StartSpan(ctx, "consultctl "+o.method)
	defer span.End()

	retryCfg := a.cfg.Retry
	retryCfg.OnRetry = func(attempt int, err error, wait time.Duration) {
		a.log.Warn("retrying request", logger.Fields(
			"attempt", attempt,
			logger.FieldError, err.Error(),
			"wait", wait.String(),
		))
	}
	resp, err := retry.Do(ctx, retryCfg, func(ctx context.Context) (*httpclient.Response, error) {
		return a.client.Request(ctx, o.method, o.path, body, params, callOpts...)
	})
	if err != nil {
		e := a.handler.Handle(err, httpclient.DefaultHandleOptions())
		if redirects := a.history.Redirects(); len(redirects) > 0 {
			a.log.Warn("session expired, log in again with --token", logger.Fields(logger.FieldPath, redirects[len(redirects)-1]))
		}
		return e
	}
	return writeData(w, resp.Data)
}

// requestBody builds the payload from --file or --data. JSON text is
// decoded so the client re-encodes it; other text is sent as is.
func requestBody(o *options) (any, error) {
	if len(o.files) > 0 {
		return multipartBody(o.files)
	}
	if o.data == "" {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal([]byte(o.data), &v); err == nil {
		return v, nil
	}
	return o.data, nil
}

func multipartBody(files []string) (*httpclient.MultipartBody, error) {
	body := &httpclient.MultipartBody{}
	for _, spec := range files {
		field, path, ok := strings.Cut(spec, "=")
		if !ok || field == "" || path == "" {
			return nil, fmt.Errorf("--file: expected field=path, got %q", spec)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("--file %s: %w", field, err)
		}
		body.Files = append(body.Files, httpclient.FileField{
			FieldName: field,
			FileName:  filepath.Base(path),
			Data:      data,
		})
	}
	return body, nil
}

func writeData(w io.Writer, data any) error {
	switch v := data.(type) {
	case nil:
		return nil
	case string:
		_, err := fmt.Fprintln(w, v)
		return err
	case []byte:
		_, err := w.Write(v)
		return err
	default:
		return writeJSON(w, v)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
