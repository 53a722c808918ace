package gateway

import (
	"net/http"
	"time"

	"github.com/docker/go-units"

	"github.com/flemzord/sealdrop/internal/delivery"
	"github.com/flemzord/sealdrop/internal/prefs"
)

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	Uptime        int64                 `json:"uptime_seconds"`
	Metrics       MetricsSnapshot       `json:"metrics"`
	Configured    bool                  `json:"configured"`
	UploadEnabled bool                  `json:"upload_enabled"`
	MaxFileSize   string                `json:"max_file_size"`
	Subscribers   int                   `json:"progress_subscribers"`
	Probe         *delivery.ProbeResult `json:"probe,omitempty"`
}

// handleStatus returns an http.HandlerFunc for GET /status.
func (g *Gateway) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		cfg := prefs.Load(g.opts.Prefs)
		resp := StatusResponse{
			Uptime:        int64(time.Since(g.startedAt) / time.Second),
			Metrics:       g.metrics.Snapshot(),
			Configured:    cfg.Configured(),
			UploadEnabled: cfg.UploadEnabled,
			MaxFileSize:   units.BytesSize(float64(g.opts.Delivery.MaxFileSize())),
			Subscribers:   g.hub.Len(),
		}
		if probe, ok := g.opts.Delivery.LastProbe(); ok {
			resp.Probe = &probe
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
