package httpclient

import (
	"testing"
	"time"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Timeout != 30*time.Second {
		t.Errorf("expected Timeout=30s, got %v", cfg.Timeout)
	}
	if cfg.Headers["Content-Type"] != "application/json" {
		t.Errorf("expected JSON default header, got %v", cfg.Headers)
	}

	custom := Config{Timeout: time.Second, Headers: map[string]string{}}
	custom.ApplyDefaults()
	if custom.Timeout != time.Second || len(custom.Headers) != 0 {
		t.Error("explicit values must be kept")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{BaseURL: "https://api.example.com", Timeout: time.Second}, false},
		{"no base url", Config{Timeout: time.Second}, false},
		{"bad base url", Config{BaseURL: "not-a-url", Timeout: time.Second}, true},
		{"zero timeout", Config{BaseURL: "https://api.example.com"}, true},
		{"half tls pair", Config{Timeout: time.Second, TLS: &TLSConfig{CertFile: "c.pem"}}, true},
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

func TestConfigPatch_Apply(t *testing.T) {
	base := Config{BaseURL: "https://a.example.com", Timeout: time.Second, Headers: map[string]string{"X-A": "1"}}

	next, err := ConfigPatch{}.WithBaseURL("https://b.example.com").apply(base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.BaseURL != "https://b.example.com" || next.Timeout != time.Second || next.Headers["X-A"] != "1" {
		t.Errorf("unexpected merge %+v", next)
	}

	headers := map[string]string{"X-B": "2"}
	next, _ = ConfigPatch{}.WithHeaders(headers).apply(base)
	headers["X-B"] = "mutated"
	if next.Headers["X-B"] != "2" || next.Headers["X-A"] != "" {
		t.Errorf("headers patch should replace and copy, got %v", next.Headers)
	}

	if _, err := (ConfigPatch{}).WithTimeout(0).apply(base); err == nil {
		t.Error("expected validation error for zero timeout")
	}
}

func TestTLSConfig_Build(t *testing.T) {
	var nilCfg *TLSConfig
	if c, err := nilCfg.Build(); c != nil || err != nil {
		t.Errorf("nil config should build nil, got %v, %v", c, err)
	}

	c, err := (&TLSConfig{SkipVerify: true, ServerName: "api.internal"}).Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.InsecureSkipVerify || c.ServerName != "api.internal" {
		t.Errorf("unexpected tls config %+v", c)
	}

	if _, err := (&TLSConfig{CAFile: "/does/not/exist.pem"}).Build(); err == nil {
		t.Error("expected error for missing CA file")
	}
}
