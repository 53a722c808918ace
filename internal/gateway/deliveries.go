package gateway

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/flemzord/sealdrop/internal/delivery"
	"github.com/flemzord/sealdrop/internal/history"
	"github.com/flemzord/sealdrop/internal/security"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// DeliveryRequest is the body of POST /api/deliveries and
// POST /api/downloads/completed.
type DeliveryRequest struct {
	Path           string `json:"path" validate:"required,max=4096"`
	Title          string `json:"title" validate:"max=1024"`
	NotificationID int    `json:"notification_id" validate:"gte=0"`
}

// DeliveryResponse is returned by a successful delivery request.
type DeliveryResponse struct {
	DeliveryID string `json:"delivery_id"`
	Status     string `json:"status,omitempty"`
	Delivered  *bool  `json:"delivered,omitempty"`
}

func newDeliveryID() string {
	return uuid.NewString()
}

func (req DeliveryRequest) target() delivery.UploadTarget {
	return delivery.UploadTarget{Path: req.Path, Title: req.Title, NotificationID: req.NotificationID}
}

// handleDeliver delivers a file synchronously.
func (g *Gateway) handleDeliver() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DeliveryRequest
		if err := g.decodeBody(r, &req, false); err != nil {
			writeBodyError(w, err)
			return
		}
		if !g.allow(w, r, security.ActionDelivery) {
			return
		}
		g.auditDelivery(r, req)

		id := g.newID()
		err := g.opts.Delivery.Deliver(r.Context(), req.target(), g.hub.Reporter(id, req))
		g.hub.Finish(id, req, err)
		g.metrics.RecordDelivery(err)
		if err != nil {
			writeDeliveryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, DeliveryResponse{DeliveryID: id, Status: "delivered"})
	}
}

// handleDownloadCompleted is the hook for download engines: the file is
// delivered only when automatic upload is enabled.
func (g *Gateway) handleDownloadCompleted() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DeliveryRequest
		if err := g.decodeBody(r, &req, false); err != nil {
			writeBodyError(w, err)
			return
		}
		if !g.allow(w, r, security.ActionDelivery) {
			return
		}

		g.auditDelivery(r, req)
		id, delivered, err := g.autoDeliver(r.Context(), req)
		if err != nil {
			writeDeliveryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, DeliveryResponse{DeliveryID: id, Delivered: &delivered})
	}
}

func (g *Gateway) autoDeliver(ctx context.Context, req DeliveryRequest) (string, bool, error) {
	id := g.newID()
	attempted, err := g.opts.Delivery.AutoDeliver(ctx, req.target(), g.hub.Reporter(id, req))
	if !attempted {
		g.metrics.RecordSkipped()
		return id, false, nil
	}
	g.hub.Finish(id, req, err)
	g.metrics.RecordDelivery(err)
	return id, err == nil, err
}

func (g *Gateway) auditDelivery(r *http.Request, req DeliveryRequest) {
	g.opts.Audit.Log(security.AuditEvent{
		Type:   security.EventDeliveryRequest,
		Remote: r.RemoteAddr,
		Path:   r.URL.Path,
		Detail: req.Path,
	})
}

// handleListDeliveries returns recent delivery records, newest first.
func (g *Gateway) handleListDeliveries() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultHistoryLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = min(n, maxHistoryLimit)
		}

		recs, err := g.opts.History.Recent(r.Context(), limit)
		if err != nil {
			g.logger.Error("failed to read delivery history", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to read history")
			return
		}
		if recs == nil {
			recs = []history.Record{}
		}
		writeJSON(w, http.StatusOK, recs)
	}
}
