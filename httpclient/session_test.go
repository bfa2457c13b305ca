package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/consultdesk/apiclient/logger"
)

type fakeTokens struct {
	mu      sync.Mutex
	values  map[string]string
	removes int
	getErr  error
}

func newFakeTokens(kv ...string) *fakeTokens {
	f := &fakeTokens{values: map[string]string{}}
	for i := 0; i+1 < len(kv); i += 2 {
		f.values[kv[i]] = kv[i+1]
	}
	return f
}

func (f *fakeTokens) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", false, f.getErr
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeTokens) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removes++
	delete(f.values, key)
	return nil
}

type fakeNavigator struct {
	mu        sync.Mutex
	path      string
	redirects []string
}

func (n *fakeNavigator) CurrentPath() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.path
}

func (n *fakeNavigator) RedirectTo(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.redirects = append(n.redirects, path)
	n.path = path
}

func newSessionClient(t *testing.T, url string, tokens TokenSource, nav Navigator) *Client {
	t.Helper()
	c := newTestClient(t, Config{BaseURL: url})
	InstallSessionInterceptors(c.Registry(), SessionConfig{
		Tokens:    tokens,
		Navigator: nav,
		Logger:    logger.Nop(),
	})
	return c
}

func TestBearerToken_Present(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer abc" {
			t.Errorf("expected Bearer abc, got %q", got)
		}
		w.WriteHeader(200)
	}))
	defer srv.Close()

	c := newSessionClient(t, srv.URL, newFakeTokens(DefaultTokenKey, "abc"), &fakeNavigator{path: "/home"})
	if _, err := c.Get(context.Background(), "/me", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBearerToken_Absent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["Authorization"]; ok {
			t.Errorf("expected no Authorization header, got %q", r.Header.Get("Authorization"))
		}
		w.WriteHeader(200)
	}))
	defer srv.Close()

	for name, tokens := range map[string]*fakeTokens{
		"missing": newFakeTokens(),
		"empty":   newFakeTokens(DefaultTokenKey, ""),
		"error":   {values: map[string]string{}, getErr: errors.New("store down")},
	} {
		t.Run(name, func(t *testing.T) {
			c := newSessionClient(t, srv.URL, tokens, nil)
			if _, err := c.Get(context.Background(), "/public", nil); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestBearerToken_CustomKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer xyz" {
			t.Errorf("expected Bearer xyz, got %q", got)
		}
		w.WriteHeader(200)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})
	c.AddRequestInterceptor(BearerTokenInterceptor(SessionConfig{
		Tokens:   newFakeTokens("session", "xyz"),
		TokenKey: "session",
		Logger:   logger.Nop(),
	}))
	if _, err := c.Get(context.Background(), "/", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func unauthorizedServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"token expired"}`))
	}))
}

func TestSessionExpiry_ClearsTokenAndRedirects(t *testing.T) {
	srv := unauthorizedServer()
	defer srv.Close()

	tokens := newFakeTokens(DefaultTokenKey, "abc")
	nav := &fakeNavigator{path: "/dashboard"}
	c := newSessionClient(t, srv.URL, tokens, nav)

	_, err := c.Get(context.Background(), "/me", nil)
	if !IsUnauthorized(err) {
		t.Fatalf("expected 401 error, got %v", err)
	}
	if tokens.removes != 1 {
		t.Errorf("expected 1 removal, got %d", tokens.removes)
	}
	if _, ok := tokens.values[DefaultTokenKey]; ok {
		t.Error("token should be removed")
	}
	if len(nav.redirects) != 1 || nav.redirects[0] != DefaultLoginPath {
		t.Errorf("expected redirect to /login, got %v", nav.redirects)
	}
}

func TestSessionExpiry_OnLoginPageNoRedirect(t *testing.T) {
	srv := unauthorizedServer()
	defer srv.Close()

	tokens := newFakeTokens(DefaultTokenKey, "abc")
	nav := &fakeNavigator{path: DefaultLoginPath}
	c := newSessionClient(t, srv.URL, tokens, nav)

	_, err := c.Post(context.Background(), "/auth/login", map[string]string{"user": "bob"})
	if !IsUnauthorized(err) {
		t.Fatalf("expected 401 error, got %v", err)
	}
	if tokens.removes != 1 {
		t.Errorf("token should be cleared exactly once, got %d", tokens.removes)
	}
	if len(nav.redirects) != 0 {
		t.Errorf("expected no redirect on login page, got %v", nav.redirects)
	}
}

func TestSessionExpiry_IgnoresOtherStatuses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	tokens := newFakeTokens(DefaultTokenKey, "abc")
	nav := &fakeNavigator{path: "/dashboard"}
	c := newSessionClient(t, srv.URL, tokens, nav)

	if _, err := c.Get(context.Background(), "/admin", nil); !IsHTTPStatus(err) {
		t.Fatalf("expected status error, got %v", err)
	}
	if tokens.removes != 0 || len(nav.redirects) != 0 {
		t.Errorf("403 must not touch the session: removes=%d redirects=%v", tokens.removes, nav.redirects)
	}
}

func TestSessionExpiry_NilNavigator(t *testing.T) {
	srv := unauthorizedServer()
	defer srv.Close()

	tokens := newFakeTokens(DefaultTokenKey, "abc")
	c := newSessionClient(t, srv.URL, tokens, nil)
	if _, err := c.Get(context.Background(), "/", nil); !IsUnauthorized(err) {
		t.Fatalf("expected 401 error, got %v", err)
	}
	if tokens.removes != 1 {
		t.Errorf("expected 1 removal, got %d", tokens.removes)
	}
}

func TestSessionExpiry_ConcurrentUnauthorized(t *testing.T) {
	srv := unauthorizedServer()
	defer srv.Close()

	tokens := newFakeTokens(DefaultTokenKey, "abc")
	nav := &fakeNavigator{path: "/dashboard"}
	c := newSessionClient(t, srv.URL, tokens, nav)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Get(context.Background(), "/me", nil)
		}()
	}
	wg.Wait()

	if len(nav.redirects) != 1 {
		t.Errorf("expected a single redirect, got %v", nav.redirects)
	}
	if tokens.removes != 10 {
		t.Errorf("expected a removal per 401, got %d", tokens.removes)
	}
}

func TestSession_NilTokenStore(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if _, ok := r.Header["Authorization"]; ok {
			t.Errorf("expected no Authorization header, got %q", r.Header.Get("Authorization"))
		}
		if r.URL.Path == "/private" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(200)
	}))
	defer srv.Close()

	nav := &fakeNavigator{path: "/home"}
	c := newTestClient(t, Config{BaseURL: srv.URL})
	InstallSessionInterceptors(c.Registry(), SessionConfig{Navigator: nav, Logger: logger.Nop()})

	if _, err := c.Get(context.Background(), "/public", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Get(context.Background(), "/private", nil); !IsUnauthorized(err) {
		t.Fatalf("expected 401 error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 requests, got %d", calls)
	}
	if len(nav.redirects) != 1 || nav.redirects[0] != DefaultLoginPath {
		t.Errorf("expected one redirect to login, got %v", nav.redirects)
	}
}
