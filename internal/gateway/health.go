package gateway

import (
	"net/http"

	"github.com/flemzord/sealdrop/internal/delivery"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status string                `json:"status"` // "ok" or "degraded"
	Probe  *delivery.ProbeResult `json:"probe,omitempty"`
}

// handleHealth returns 200 unless the last connectivity probe failed, in
// which case it returns 503.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{Status: "ok"}

		if probe, ok := g.opts.Delivery.LastProbe(); ok {
			resp.Probe = &probe
			if !probe.OK {
				resp.Status = "degraded"
			}
		}

		code := http.StatusOK
		if resp.Status == "degraded" {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, resp)
	}
}
