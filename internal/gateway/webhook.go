package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/flemzord/sealdrop/internal/security"
)

// SignatureHeader carries the HMAC-SHA256 signature of a webhook body.
const SignatureHeader = "X-Signature-256"

var (
	errBadPayload  = errors.New("invalid webhook payload")
	errRateLimited = errors.New("too many requests")
)

// WebhookHandler processes a validated webhook payload.
type WebhookHandler interface {
	HandleWebhook(ctx context.Context, source string, body []byte, headers http.Header) (any, error)
}

type webhookEntry struct {
	handler WebhookHandler
	secret  string
}

// WebhookDispatcher routes incoming webhooks to registered handlers with
// HMAC validation.
type WebhookDispatcher struct {
	mu       sync.RWMutex
	handlers map[string]webhookEntry
	logger   *slog.Logger
}

// NewWebhookDispatcher creates a ready-to-use dispatcher.
func NewWebhookDispatcher(logger *slog.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{
		handlers: make(map[string]webhookEntry),
		logger:   logger,
	}
}

// Register adds a handler for the given source with an optional HMAC secret.
func (d *WebhookDispatcher) Register(source string, h WebhookHandler, secret string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[source] = webhookEntry{handler: h, secret: secret}
}

// Sources returns the number of registered sources.
func (d *WebhookDispatcher) Sources() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers)
}

// ServeHTTP extracts the source from the chi URL param, validates the HMAC
// signature if a secret is configured, and dispatches to the handler.
func (d *WebhookDispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")

	d.mu.RLock()
	entry, ok := d.handlers[source]
	d.mu.RUnlock()
	if !ok {
		d.logger.Warn("webhook received for unregistered source", "source", source)
		writeError(w, http.StatusNotFound, "unknown webhook source")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	if entry.secret != "" && !validateHMAC(body, r.Header.Get(SignatureHeader), entry.secret) {
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	resp, err := entry.handler.HandleWebhook(r.Context(), source, body, r.Header)
	switch {
	case errors.Is(err, errUnsupportedMedia):
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, errBadPayload):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case err != nil:
		d.logger.Error("webhook handler failed", "source", source, "error", err)
		writeDeliveryError(w, err)
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

// validateHMAC checks an HMAC-SHA256 signature in constant time.
func validateHMAC(body []byte, signature, secret string) bool {
	return subtle.ConstantTimeCompare([]byte(Sign(body, secret)), []byte(signature)) == 1
}

// Sign returns the signature header value for body.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// downloadWebhook treats a webhook as a download-completed notification.
type downloadWebhook struct {
	g *Gateway
}

func (h downloadWebhook) HandleWebhook(ctx context.Context, source string, body []byte, headers http.Header) (any, error) {
	if !isJSON(headers) {
		return nil, errUnsupportedMedia
	}
	var req DeliveryRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadPayload, err)
	}
	if err := h.g.validateStruct(&req); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadPayload, err)
	}
	if err := h.g.limiter.Allow(security.ActionDelivery); err != nil {
		h.g.metrics.RecordRateLimited()
		return nil, errRateLimited
	}

	h.g.opts.Audit.Log(security.AuditEvent{
		Type:     security.EventDeliveryRequest,
		Path:     "/webhooks/" + source,
		Detail:   req.Path,
		Metadata: map[string]string{"source": source},
	})
	id, delivered, err := h.g.autoDeliver(ctx, req)
	if err != nil {
		return nil, err
	}
	return DeliveryResponse{DeliveryID: id, Delivered: &delivered}, nil
}
