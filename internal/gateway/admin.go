package gateway

import (
	"net/http"

	"gopkg.in/yaml.v3"
)

// handleGetConfig returns the effective configuration with secrets redacted.
func (g *Gateway) handleGetConfig() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if g.opts.ConfigView == nil {
			writeError(w, http.StatusServiceUnavailable, "config not available")
			return
		}

		// YAML keeps the configuration's own key names and duration format.
		raw, err := yaml.Marshal(g.opts.ConfigView())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to serialize config")
			return
		}
		var generic map[string]any
		if err := yaml.Unmarshal(raw, &generic); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to parse config")
			return
		}

		g.opts.Redactor.RedactMap(generic)
		writeJSON(w, http.StatusOK, generic)
	}
}
