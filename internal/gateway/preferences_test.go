package gateway

import (
	"net/http"
	"strings"
	"testing"

	"github.com/flemzord/sealdrop/internal/prefs"
	"github.com/flemzord/sealdrop/internal/security"
)

const prefsToken = "123456789:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw"

func TestPreferences_GetMasksToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	_ = env.prefs.SetString(prefs.KeyBotToken, prefsToken)
	_ = env.prefs.SetString(prefs.KeyChatID, "-100")

	w := env.do(t, http.MethodGet, "/api/preferences", nil)
	if strings.Contains(w.Body.String(), prefsToken) {
		t.Fatalf("token leaked: %s", w.Body.String())
	}
	resp := decode[PreferencesResponse](t, w)
	if resp.BotToken != prefs.MaskToken(prefsToken) {
		t.Errorf("bot_token = %q", resp.BotToken)
	}
	if !resp.Configured || resp.ChatID != "-100" || resp.UploadEnabled {
		t.Errorf("response = %+v", resp)
	}
}

func TestPreferences_UpdateInOneRequest(t *testing.T) {
	t.Parallel()

	var notified int
	env := newTestEnv(t, func(_ *Config, o *Options) {
		o.OnPreferencesChanged = func() { notified++ }
	})

	w := env.do(t, http.MethodPut, "/api/preferences", map[string]any{
		"bot_token":      " " + prefsToken + " ",
		"chat_id":        "-100",
		"upload_enabled": true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}

	cfg := prefs.Load(env.prefs)
	if cfg.BotToken != prefsToken || cfg.ChatID != "-100" || !cfg.UploadEnabled {
		t.Errorf("stored = %+v", cfg)
	}
	if notified != 1 {
		t.Errorf("notified = %d, want 1", notified)
	}
	if types := env.audit.types(); len(types) != 1 || types[0] != security.EventPreferenceChange {
		t.Errorf("audit events = %v", types)
	}
}

func TestPreferences_EnableWithoutCredentials(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	w := env.do(t, http.MethodPut, "/api/preferences", map[string]any{"upload_enabled": true})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	if env.prefs.Bool(prefs.KeyUploadEnabled) {
		t.Error("upload must stay disabled")
	}
}

func TestPreferences_MalformedToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	w := env.do(t, http.MethodPut, "/api/preferences", map[string]any{"bot_token": "123:a\nb"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if got := env.prefs.String(prefs.KeyBotToken); got != "" {
		t.Errorf("stored token = %q, want empty", got)
	}
}

func TestPreferences_ClearingTokenDisablesUpload(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	_ = env.prefs.SetString(prefs.KeyBotToken, prefsToken)
	_ = env.prefs.SetString(prefs.KeyChatID, "-100")
	_ = env.prefs.SetBool(prefs.KeyUploadEnabled, true)

	w := env.do(t, http.MethodPut, "/api/preferences", map[string]any{"bot_token": ""})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decode[PreferencesResponse](t, w)
	if resp.UploadEnabled || resp.Configured || resp.BotToken != "" {
		t.Errorf("response = %+v", resp)
	}
}

func TestConfigView_Redacted(t *testing.T) {
	t.Parallel()

	type section struct {
		BearerToken string `yaml:"bearer_token"`
		Bind        string `yaml:"bind"`
	}
	env := newTestEnv(t, func(_ *Config, o *Options) {
		o.ConfigView = func() any {
			return map[string]any{"gateway": section{BearerToken: "s3cr3t-value", Bind: "127.0.0.1:1"}}
		}
	})

	w := env.do(t, http.MethodGet, "/api/config", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if strings.Contains(body, "s3cr3t-value") {
		t.Errorf("secret leaked: %s", body)
	}
	if !strings.Contains(body, security.RedactPlaceholder) || !strings.Contains(body, "127.0.0.1:1") {
		t.Errorf("body = %s", body)
	}
}

func TestConfigView_Unavailable(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	if w := env.do(t, http.MethodGet, "/api/config", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}
