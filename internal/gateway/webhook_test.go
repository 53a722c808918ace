package gateway

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flemzord/sealdrop/internal/delivery"
	"github.com/flemzord/sealdrop/internal/security"
)

func withWebhooks(c *Config, _ *Options) {
	c.Webhooks = map[string]WebhookSourceCfg{
		"signed":   {Secret: "hook-secret"},
		"unsigned": {},
	}
}

func postWebhook(env *testEnv, source, body, sig string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/"+source, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if sig != "" {
		req.Header.Set(SignatureHeader, sig)
	}
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	return w
}

func TestWebhook_Signed(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, withWebhooks)
	env.fake.uploadOn = true
	body := `{"path":"/dl/a.flac","title":"A"}`

	if w := postWebhook(env, "signed", body, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("unsigned status = %d, want 401", w.Code)
	}
	if w := postWebhook(env, "signed", body, Sign([]byte(body), "wrong")); w.Code != http.StatusUnauthorized {
		t.Errorf("bad signature status = %d, want 401", w.Code)
	}

	w := postWebhook(env, "signed", body, Sign([]byte(body), "hook-secret"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
	resp := decode[DeliveryResponse](t, w)
	if resp.Delivered == nil || !*resp.Delivered {
		t.Errorf("delivered = %v, want true", resp.Delivered)
	}
	targets := env.fake.deliveredTargets()
	if len(targets) != 1 || targets[0].Path != "/dl/a.flac" {
		t.Errorf("targets = %+v", targets)
	}
}

func TestWebhook_UnknownSource(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, withWebhooks)
	if w := postWebhook(env, "other", `{"path":"/x"}`, ""); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestWebhook_BadPayload(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, withWebhooks)
	for _, body := range []string{"nope", `{"title":"no path"}`} {
		if w := postWebhook(env, "unsigned", body, ""); w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
	}
}

func TestWebhook_DeliveryFailure(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, withWebhooks)
	env.fake.uploadOn = true
	env.fake.err = &delivery.Error{Kind: delivery.KindFileMissing, Message: "gone"}

	if w := postWebhook(env, "unsigned", `{"path":"/x"}`, ""); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestWebhook_RateLimited(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, withWebhooks, func(c *Config, _ *Options) {
		c.RateLimit = &security.RateLimitConfig{DeliveriesPerMin: 1}
	})

	postWebhook(env, "unsigned", `{"path":"/x"}`, "")
	if w := postWebhook(env, "unsigned", `{"path":"/x"}`, ""); w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
}

func TestWebhook_RequiresJSON(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, withWebhooks)
	env.fake.uploadOn = true

	req := httptest.NewRequest(http.MethodPost, "/webhooks/unsigned", bytes.NewBufferString(`{"path":"/x"}`))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", w.Code)
	}
	if n := len(env.fake.deliveredTargets()); n != 0 {
		t.Errorf("deliveries = %d, want 0", n)
	}
}
