package httpclient

import (
	"context"
	"net/http"
	"sync"

	"github.com/consultdesk/apiclient/logger"
)

const (
	// DefaultTokenKey is the token store key holding the bearer token.
	DefaultTokenKey = "auth_token"
	// DefaultLoginPath is the login entry point used after a 401.
	DefaultLoginPath = "/login"
)

// TokenSource is the part of a token store the session interceptors need.
type TokenSource interface {
	// Get returns the stored value and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Remove deletes the key; removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// Navigator is the navigation primitive used after a session expires.
type Navigator interface {
	CurrentPath() string
	RedirectTo(path string)
}

// SessionConfig wires the default session interceptors.
type SessionConfig struct {
	Tokens    TokenSource
	Navigator Navigator
	TokenKey  string
	LoginPath string
	Logger    *logger.Logger
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *SessionConfig) ApplyDefaults() {
	if c.TokenKey == "" {
		c.TokenKey = DefaultTokenKey
	}
	if c.LoginPath == "" {
		c.LoginPath = DefaultLoginPath
	}
	if c.Logger == nil {
		c.Logger = logger.WithComponent("session")
	}
}

// InstallSessionInterceptors appends the bearer-token request interceptor
// and the session-expiry response interceptor, in that order.
func InstallSessionInterceptors(r *InterceptorRegistry, cfg SessionConfig) {
	cfg.ApplyDefaults()
	r.AddRequest(BearerTokenInterceptor(cfg))
	r.AddResponse(SessionExpiryInterceptor(cfg))
}

// BearerTokenInterceptor injects "Authorization: Bearer <token>" when the
// store holds a non-empty token. Store failures and a nil store count as
// no token.
func BearerTokenInterceptor(cfg SessionConfig) RequestInterceptor {
	cfg.ApplyDefaults()
	return func(ctx context.Context, req *OutgoingRequest) *RequestOverride {
		if cfg.Tokens == nil {
			return nil
		}
		token, ok, err := cfg.Tokens.Get(ctx, cfg.TokenKey)
		if err != nil {
			cfg.Logger.Warn("token lookup failed", logger.ErrorFields("get_token", err))
			return nil
		}
		if !ok || token == "" {
			return nil
		}
		req.Headers["Authorization"] = "Bearer " + token
		return ReplaceHeaders(req.Headers)
	}
}

// SessionExpiryInterceptor reacts to 401 responses: it removes the stored
// token and redirects to the login path unless the navigator is already
// there. The reaction runs under a lock shared by all calls of the client.
// With a nil store only the redirect happens.
func SessionExpiryInterceptor(cfg SessionConfig) ResponseInterceptor {
	cfg.ApplyDefaults()
	var mu sync.Mutex
	return func(ctx context.Context, resp *IncomingResponse) *ResponseOverride {
		if resp.Status != http.StatusUnauthorized {
			return nil
		}

		mu.Lock()
		defer mu.Unlock()

		if cfg.Tokens != nil {
			if err := cfg.Tokens.Remove(ctx, cfg.TokenKey); err != nil {
				cfg.Logger.Warn("token removal failed", logger.ErrorFields("remove_token", err))
			}
		}
		if cfg.Navigator == nil {
			return nil
		}
		if current := cfg.Navigator.CurrentPath(); current == cfg.LoginPath {
			cfg.Logger.Debug("session expired on login page", logger.Fields(logger.FieldPath, current))
			return nil
		}
		cfg.Logger.Info("session expired, redirecting", logger.Fields(logger.FieldPath, cfg.LoginPath))
		cfg.Navigator.RedirectTo(cfg.LoginPath)
		return nil
	}
}
