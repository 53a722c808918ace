package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flemzord/sealdrop/internal/security"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(g.countRequests)
	r.Use(g.crossOriginGuard().Handler)

	// Public, no auth required.
	r.Get("/health", g.handleHealth())
	r.Handle("/metrics", promhttp.HandlerFor(g.opts.Gatherer, promhttp.HandlerOpts{}))

	// Webhooks carry their own HMAC auth per source.
	r.Post("/webhooks/{source}", g.webhooks.ServeHTTP)

	r.Group(func(r chi.Router) {
		if g.config.Auth.IsConfigured() {
			r.Use(authMiddleware(g.config.Auth, g.opts.Audit))
		}
		r.Get("/status", g.handleStatus())
		r.Get("/ws/progress", g.handleProgressStream())
		r.Route("/api", func(r chi.Router) {
			r.Post("/deliveries", g.handleDeliver())
			r.Get("/deliveries", g.handleListDeliveries())
			r.Post("/downloads/completed", g.handleDownloadCompleted())
			r.Post("/connectivity", g.handleConnectivity())
			r.Get("/preferences", g.handleGetPreferences())
			r.Put("/preferences", g.handleUpdatePreferences())
			r.Get("/config", g.handleGetConfig())
		})
	})

	return r
}

// crossOriginGuard rejects state-changing browser requests sent from another
// origin. Requests without Origin or Sec-Fetch-Site headers (curl, the
// download engine) pass through.
func (g *Gateway) crossOriginGuard() *http.CrossOriginProtection {
	cop := http.NewCrossOriginProtection()
	cop.SetDenyHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.opts.Audit.Log(security.AuditEvent{
			Type:   security.EventAuthFailure,
			Remote: r.RemoteAddr,
			Path:   r.URL.Path,
			Detail: "cross-origin request from " + r.Header.Get("Origin"),
		})
		writeError(w, http.StatusForbidden, "cross-origin request rejected")
	}))
	return cop
}

func (g *Gateway) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.metrics.RecordRequest()
		next.ServeHTTP(w, r)
	})
}
