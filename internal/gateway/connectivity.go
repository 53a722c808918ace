package gateway

import (
	"net/http"

	"github.com/flemzord/sealdrop/internal/security"
)

// ConnectivityRequest is the optional body of POST /api/connectivity.
// Without credentials the stored ones are probed.
type ConnectivityRequest struct {
	BotToken string `json:"bot_token" validate:"required_with=ChatID,max=256"`
	ChatID   string `json:"chat_id" validate:"required_with=BotToken,max=64"`
}

// handleConnectivity runs the connectivity probe.
func (g *Gateway) handleConnectivity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ConnectivityRequest
		if err := g.decodeBody(r, &req, true); err != nil {
			writeBodyError(w, err)
			return
		}
		if !g.allow(w, r, security.ActionProbe) {
			return
		}
		g.opts.Audit.Log(security.AuditEvent{
			Type:   security.EventProbeRequest,
			Remote: r.RemoteAddr,
			Path:   r.URL.Path,
		})

		var err error
		if req.BotToken == "" {
			err = g.opts.Delivery.TestConfigured(r.Context())
		} else {
			err = g.opts.Delivery.TestConnection(r.Context(), req.BotToken, req.ChatID)
		}
		if err != nil {
			writeDeliveryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "connected"})
	}
}
