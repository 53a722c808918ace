package gateway

import (
	"errors"
	"net/http"
	"strings"

	"github.com/flemzord/sealdrop/internal/prefs"
	"github.com/flemzord/sealdrop/internal/security"
)

// PreferencesResponse is the JSON view of the stored preferences. The bot
// token is masked.
type PreferencesResponse struct {
	BotToken      string `json:"bot_token"`
	ChatID        string `json:"chat_id"`
	UploadEnabled bool   `json:"upload_enabled"`
	FastMode      bool   `json:"fast_mode"`
	Configured    bool   `json:"configured"`
}

// PreferencesUpdate is the body of PUT /api/preferences. Absent fields are
// left unchanged.
type PreferencesUpdate struct {
	BotToken      *string `json:"bot_token" validate:"omitempty,max=256"`
	ChatID        *string `json:"chat_id" validate:"omitempty,max=64"`
	UploadEnabled *bool   `json:"upload_enabled"`
	FastMode      *bool   `json:"fast_mode"`
}

func preferencesView(r prefs.Reader) PreferencesResponse {
	cfg := prefs.Load(r)
	resp := PreferencesResponse{
		ChatID:        cfg.ChatID,
		UploadEnabled: cfg.UploadEnabled,
		FastMode:      cfg.FastModeEnabled,
		Configured:    cfg.Configured(),
	}
	if cfg.BotToken != "" {
		resp.BotToken = prefs.MaskToken(cfg.BotToken)
	}
	return resp
}

func (g *Gateway) handleGetPreferences() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, preferencesView(g.opts.Prefs))
	}
}

// handleUpdatePreferences applies a partial update. Credentials are
// applied before the flags so a single request can configure and enable
// upload.
func (g *Gateway) handleUpdatePreferences() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PreferencesUpdate
		if err := g.decodeBody(r, &req, false); err != nil {
			writeBodyError(w, err)
			return
		}

		changed, err := g.applyPreferences(req)
		if len(changed) > 0 {
			g.opts.Audit.Log(security.AuditEvent{
				Type:   security.EventPreferenceChange,
				Remote: r.RemoteAddr,
				Path:   r.URL.Path,
				Detail: strings.Join(changed, ","),
			})
			if g.opts.OnPreferencesChanged != nil {
				g.opts.OnPreferencesChanged()
			}
		}
		if errors.Is(err, prefs.ErrNotConfigured) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		if errors.Is(err, prefs.ErrMalformedToken) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			g.logger.Error("failed to update preferences", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to update preferences")
			return
		}
		writeJSON(w, http.StatusOK, preferencesView(g.opts.Prefs))
	}
}

func (g *Gateway) applyPreferences(req PreferencesUpdate) ([]string, error) {
	var changed []string
	if req.BotToken != nil {
		if err := g.settings.SetBotToken(strings.TrimSpace(*req.BotToken)); err != nil {
			return changed, err
		}
		changed = append(changed, prefs.KeyBotToken)
	}
	if req.ChatID != nil {
		if err := g.settings.SetChatID(strings.TrimSpace(*req.ChatID)); err != nil {
			return changed, err
		}
		changed = append(changed, prefs.KeyChatID)
	}
	if req.UploadEnabled != nil {
		if err := g.settings.SetUploadEnabled(*req.UploadEnabled); err != nil {
			return changed, err
		}
		changed = append(changed, prefs.KeyUploadEnabled)
	}
	if req.FastMode != nil {
		if err := g.settings.SetFastMode(*req.FastMode); err != nil {
			return changed, err
		}
		changed = append(changed, prefs.KeyFastMode)
	}
	return changed, nil
}
