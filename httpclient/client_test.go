package httpclient

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/consultdesk/apiclient/logger"
)

func newTestClient(t *testing.T, cfg Config, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithLogger(logger.Nop())}, opts...)
	c, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestClient_Get_BaseURLAndQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/tenants" {
			t.Errorf("expected /tenants, got %s", r.URL.Path)
		}
		if r.URL.RawQuery != "status=ACTIVE" {
			t.Errorf("expected status=ACTIVE, got %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]string{{"name": "Acme"}})
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})
	resp, err := c.Get(context.Background(), "/tenants", map[string]string{"status": "ACTIVE"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != 200 || !resp.IsSuccess() {
		t.Errorf("expected 200 success, got %d", resp.Status)
	}
	if resp.StatusText != "OK" {
		t.Errorf("expected status text OK, got %q", resp.StatusText)
	}
	list, ok := resp.Data.([]any)
	if !ok || len(list) != 1 {
		t.Fatalf("expected decoded list, got %#v", resp.Data)
	}
	if resp.Headers["Content-Type"] != "application/json" {
		t.Errorf("unexpected headers %v", resp.Headers)
	}
}

func TestClient_Get_ExistingQueryUsesAmpersand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "page=2&status=ACTIVE" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		w.WriteHeader(204)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})
	resp, err := c.Get(context.Background(), "/tenants?page=2", map[string]string{"status": "ACTIVE"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Data != nil {
		t.Errorf("expected nil data for empty body, got %#v", resp.Data)
	}
}

func TestClient_QueryBeforeFragment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "status=ACTIVE" {
			t.Errorf("expected status=ACTIVE, got %q", r.URL.RawQuery)
		}
		w.WriteHeader(200)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})
	if _, err := c.Get(context.Background(), "/tenants#top", map[string]string{"status": "ACTIVE"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_AbsoluteURLIgnoresBaseURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("expected /health, got %s", r.URL.Path)
		}
		w.Write([]byte("OK"))
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: "https://api.example.invalid"})
	resp, err := c.Get(context.Background(), srv.URL+"/health", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Data != "OK" {
		t.Errorf("expected raw text fallback, got %#v", resp.Data)
	}
}

func TestClient_Post_JSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", ct)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(201)
		json.NewEncoder(w).Encode(body)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})
	payload := map[string]any{"name": "Bob", "seats": float64(3), "tags": []any{"a", "b"}}
	resp, err := c.Post(context.Background(), "/users", payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != 201 {
		t.Errorf("expected 201, got %d", resp.Status)
	}
	if !reflect.DeepEqual(resp.Data, payload) {
		t.Errorf("round trip mismatch: got %#v, want %#v", resp.Data, payload)
	}
}

func TestClient_Post_RawStringPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		if string(b) != "name=Bob" {
			t.Errorf("expected raw body, got %q", b)
		}
		w.WriteHeader(200)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})
	_, err := c.Post(context.Background(), "/form", "name=Bob",
		WithHeader("content-type", "application/x-www-form-urlencoded"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_Methods(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"method":"` + r.Method + `"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})
	ctx := context.Background()
	calls := map[string]func() (*Response, error){
		http.MethodPut:    func() (*Response, error) { return c.Put(ctx, "/x", map[string]int{"a": 1}) },
		http.MethodPatch:  func() (*Response, error) { return c.Patch(ctx, "/x", nil) },
		http.MethodDelete: func() (*Response, error) { return c.Delete(ctx, "/x") },
		"OPTIONS":         func() (*Response, error) { return c.Request(ctx, "options", "/x", nil, nil) },
	}
	for method, call := range calls {
		t.Run(method, func(t *testing.T) {
			resp, err := call()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got, _ := resp.Data.(map[string]any)["method"].(string)
			if got != method {
				t.Errorf("expected %s, got %s", method, got)
			}
		})
	}
}

func TestClient_PerCallHeadersOverrideDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Tenant"); got != "override" {
			t.Errorf("expected X-Tenant=override, got %q", got)
		}
		if got := r.Header.Get("X-Client"); got != "web" {
			t.Errorf("expected X-Client=web, got %q", got)
		}
		w.WriteHeader(200)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{
		BaseURL: srv.URL,
		Headers: map[string]string{"X-Tenant": "default", "X-Client": "web"},
	})
	_, err := c.Get(context.Background(), "/", nil, WithHeader("x-tenant", "override"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_Upload_SendsNoJSONContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil {
			t.Errorf("ParseMediaType error: %v", err)
			return
		}
		if mediaType != "multipart/form-data" {
			t.Errorf("Content-Type = %q, want multipart/form-data", mediaType)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm error: %v", err)
			return
		}
		if got := r.FormValue("tenant"); got != "acme" {
			t.Errorf("tenant field = %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile error: %v", err)
			return
		}
		defer file.Close()
		if header.Filename != "logo.png" {
			t.Errorf("filename = %q", header.Filename)
		}
		w.Write([]byte(`{"id":"f1"}`))
	}))
	defer srv.Close()

	var seen map[string]string
	c := newTestClient(t, Config{
		BaseURL: srv.URL,
		Headers: map[string]string{"Content-Type": "application/json"},
	})
	c.AddRequestInterceptor(func(_ context.Context, req *OutgoingRequest) *RequestOverride {
		seen = req.Headers
		return nil
	})

	resp, err := c.Upload(context.Background(), "/files", &MultipartBody{
		Fields: map[string]string{"tenant": "acme"},
		Files:  []FileField{{FieldName: "file", FileName: "logo.png", Data: []byte("png")}},
	}, WithHeader("Content-Type", "application/json"))
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}
	if _, ok := seen["Content-Type"]; ok {
		t.Errorf("expected Content-Type stripped before send, got %v", seen)
	}
	if resp.Data.(map[string]any)["id"] != "f1" {
		t.Errorf("unexpected data %#v", resp.Data)
	}
}

func TestClient_HTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Trace", "t1")
		w.WriteHeader(500)
		w.Write([]byte(`{"message":"boom"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})
	resp, err := c.Get(context.Background(), "/fail", nil)
	if resp != nil {
		t.Error("expected nil response on failure")
	}
	e, ok := AsError(err)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if e.Code != ErrCodeHTTPStatus || e.Status != 500 {
		t.Errorf("unexpected error %+v", e)
	}
	if !strings.Contains(e.Message, "HTTP 500") {
		t.Errorf("message should contain HTTP 500, got %q", e.Message)
	}
	if e.Message != "HTTP 500: Internal Server Error" {
		t.Errorf("unexpected message %q", e.Message)
	}
	if e.Data.(map[string]any)["message"] != "boom" {
		t.Errorf("expected data.message boom, got %#v", e.Data)
	}
	if e.Headers["X-Trace"] != "t1" {
		t.Errorf("expected headers on error, got %v", e.Headers)
	}
}

func TestClient_RedirectIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/target" {
			t.Error("redirect should not be followed")
		}
		http.Redirect(w, r, "/target", http.StatusFound)
	}))
	defer srv.Close()

	var observed int
	c := newTestClient(t, Config{BaseURL: srv.URL})
	c.AddResponseInterceptor(func(_ context.Context, resp *IncomingResponse) *ResponseOverride {
		observed = resp.Status
		return nil
	})

	_, err := c.Get(context.Background(), "/old", nil)
	e, ok := AsError(err)
	if !ok || e.Status != http.StatusFound {
		t.Fatalf("expected 302 failure, got %v", err)
	}
	if observed != http.StatusFound {
		t.Errorf("response interceptor should observe 302, got %d", observed)
	}
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL, Timeout: 5 * time.Second})
	_, err := c.Get(context.Background(), "/slow", nil, WithTimeout(50*time.Millisecond))
	if !IsTimeout(err) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if IsNetwork(err) {
		t.Error("timeout must be distinguishable from network failure")
	}
	e, _ := AsError(err)
	if e.Message != MessageTimeout {
		t.Errorf("unexpected message %q", e.Message)
	}
}

func TestClient_ConfiguredTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	if _, err := c.Get(context.Background(), "/slow", nil); !IsTimeout(err) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := newTestClient(t, Config{BaseURL: url})
	_, err := c.Get(context.Background(), "/", nil)
	if !IsNetwork(err) {
		t.Fatalf("expected network error, got %v", err)
	}
	e, _ := AsError(err)
	if e.Message != MessageNetwork || e.Err == nil {
		t.Errorf("unexpected error %+v", e)
	}
}

func TestClient_CanceledContextIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestClient(t, Config{BaseURL: srv.URL})
	_, err := c.Get(ctx, "/", nil)
	if !IsNetwork(err) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestClient_ResponseKinds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"a":1}`))
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})
	ctx := context.Background()

	resp, err := c.Get(ctx, "/", nil, WithResponseKind(ResponseText))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Data != `{"a":1}` {
		t.Errorf("text kind: got %#v", resp.Data)
	}

	resp, err = c.Get(ctx, "/", nil, WithResponseKind(ResponseBytes))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b, ok := resp.Data.([]byte); !ok || string(b) != `{"a":1}` {
		t.Errorf("bytes kind: got %#v", resp.Data)
	}
}

func TestClient_EncodeError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})
	_, err := c.Post(context.Background(), "/", map[string]any{"ch": make(chan int)})
	e, ok := AsError(err)
	if !ok || e.Code != ErrCodeEncode {
		t.Fatalf("expected encode error, got %v", err)
	}
	if hits.Load() != 0 {
		t.Error("no request should be sent when encoding fails")
	}
}

func TestClient_SetConfig(t *testing.T) {
	first := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`"first"`))
	}))
	defer first.Close()
	second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Version") != "2" {
			t.Errorf("expected replaced default headers, got %v", r.Header)
		}
		if r.Header.Get("Content-Type") != "" {
			t.Error("headers patch should replace the whole default set")
		}
		w.Write([]byte(`"second"`))
	}))
	defer second.Close()

	c := newTestClient(t, Config{BaseURL: first.URL})
	ctx := context.Background()

	resp, _ := c.Get(ctx, "/", nil)
	if resp.Data != "first" {
		t.Fatalf("expected first, got %#v", resp.Data)
	}

	err := c.SetConfig(ConfigPatch{}.WithBaseURL(second.URL).WithHeaders(map[string]string{"X-Version": "2"}))
	if err != nil {
		t.Fatalf("SetConfig error: %v", err)
	}
	resp, _ = c.Get(ctx, "/", nil)
	if resp.Data != "second" {
		t.Fatalf("expected second, got %#v", resp.Data)
	}
	if c.Config().Timeout != defaultTimeout {
		t.Errorf("unpatched timeout should be kept, got %v", c.Config().Timeout)
	}
}

func TestClient_SetConfig_Idempotent(t *testing.T) {
	c := newTestClient(t, Config{BaseURL: "https://api.example.com"})
	patch := ConfigPatch{}.WithTimeout(5 * time.Second)

	if err := c.SetConfig(patch); err != nil {
		t.Fatalf("SetConfig error: %v", err)
	}
	once := c.Config()
	if err := c.SetConfig(patch); err != nil {
		t.Fatalf("SetConfig error: %v", err)
	}
	if twice := c.Config(); !reflect.DeepEqual(once, twice) {
		t.Errorf("config changed on repeat: %+v vs %+v", once, twice)
	}
	if once.Timeout != 5*time.Second {
		t.Errorf("expected 5s, got %v", once.Timeout)
	}
}

func TestClient_SetConfig_RejectsInvalid(t *testing.T) {
	c := newTestClient(t, Config{})
	if err := c.SetConfig(ConfigPatch{}.WithTimeout(-time.Second)); err == nil {
		t.Fatal("expected error for negative timeout")
	}
	if c.Config().Timeout != defaultTimeout {
		t.Error("config must be unchanged after a rejected patch")
	}
}

func TestClient_Config_ReturnsCopy(t *testing.T) {
	c := newTestClient(t, Config{})
	cfg := c.Config()
	cfg.Headers["X-Leak"] = "1"
	if _, ok := c.Config().Headers["X-Leak"]; ok {
		t.Error("Config() must return a copy")
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	if _, err := New(Config{BaseURL: "::not a url"}); err == nil {
		t.Fatal("expected error for invalid base URL")
	}
}
