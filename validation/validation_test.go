package validation

import (
	"errors"
	"strings"
	"testing"
)

type storeConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=memory redis bolt"`
	Path   string `mapstructure:"path" validate:"required_if=Driver bolt"`
}

type sampleConfig struct {
	BaseURL   string      `mapstructure:"base_url" validate:"omitempty,url"`
	LoginPath string      `mapstructure:"login_path" validate:"required,startswith=/"`
	Store     storeConfig `mapstructure:"store"`
}

func TestValidate_Valid(t *testing.T) {
	cfg := sampleConfig{
		BaseURL:   "https://api.example.com",
		LoginPath: "/login",
		Store:     storeConfig{Driver: "memory"},
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_ReportsEveryField(t *testing.T) {
	cfg := sampleConfig{
		BaseURL: "not a url",
		Store:   storeConfig{Driver: "bolt"},
	}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	got := map[string]string{}
	for _, f := range verr.Fields {
		got[f.Field] = f.Message
	}
	if got["base_url"] != "must be a valid URL" {
		t.Errorf("base_url message = %q", got["base_url"])
	}
	if got["login_path"] != "is required" {
		t.Errorf("login_path message = %q", got["login_path"])
	}
	if !strings.HasPrefix(got["store.path"], "is required when") {
		t.Errorf("store.path message = %q", got["store.path"])
	}
	if !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("unexpected error string %q", err.Error())
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"BaseURL":   "base_u_r_l",
		"LoginPath": "login_path",
		"name":      "name",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
