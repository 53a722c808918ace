package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flemzord/sealdrop/internal/security"
)

func withBearer(c *Config, _ *Options) {
	c.Auth = AuthConfig{BearerToken: "gateway-secret", BasicUser: "admin", BasicPass: "hunter22"}
}

func TestAuth_Required(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, withBearer)

	tests := []struct {
		name  string
		setup func(*http.Request)
		want  int
	}{
		{"missing", func(*http.Request) {}, http.StatusUnauthorized},
		{"wrong bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer gateway-secret") }, http.StatusOK},
		{"basic", func(r *http.Request) { r.SetBasicAuth("admin", "hunter22") }, http.StatusOK},
		{"wrong basic", func(r *http.Request) { r.SetBasicAuth("admin", "nope") }, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/preferences", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			env.handler.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}

	failures := 0
	for _, typ := range env.audit.types() {
		if typ == security.EventAuthFailure {
			failures++
		}
	}
	if failures != 3 {
		t.Errorf("auth failures audited = %d, want 3", failures)
	}
}

func TestAuth_PublicRoutes(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, withBearer)
	for _, path := range []string{"/health", "/metrics"} {
		if w := env.do(t, http.MethodGet, path, nil); w.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, w.Code)
		}
	}
	if w := env.do(t, http.MethodGet, "/status", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("/status status = %d, want 401", w.Code)
	}
}

func TestConfig_NonLoopbackRequiresAuth(t *testing.T) {
	t.Parallel()

	if err := WithDefaults(Config{Bind: "0.0.0.0:8390"}).Validate(); err == nil {
		t.Error("expected error for unauthenticated public bind")
	}
	cfg := WithDefaults(Config{Bind: "0.0.0.0:8390", Auth: AuthConfig{BearerToken: "x"}})
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	for _, bind := range []string{"127.0.0.1:1", "localhost:1", "[::1]:1"} {
		if err := WithDefaults(Config{Bind: bind}).Validate(); err != nil {
			t.Errorf("Validate(%s): %v", bind, err)
		}
	}
	if err := WithDefaults(Config{Bind: "nope"}).Validate(); err == nil {
		t.Error("expected error for malformed bind")
	}
}

func TestConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg := WithDefaults(Config{})
	if cfg.Bind != "127.0.0.1:8390" {
		t.Errorf("Bind = %q", cfg.Bind)
	}
	if cfg.RateLimit == nil || *cfg.RateLimit != security.DefaultRateLimitConfig() {
		t.Errorf("RateLimit = %v", cfg.RateLimit)
	}
	if cfg.ReadTimeout <= 0 || cfg.WriteTimeout <= cfg.ReadTimeout || cfg.ShutdownTimeout <= 0 {
		t.Errorf("timeouts = %v %v %v", cfg.ReadTimeout, cfg.WriteTimeout, cfg.ShutdownTimeout)
	}
}
