package gateway

import (
	"context"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/flemzord/sealdrop/internal/delivery"
)

// Progress event states.
const (
	ProgressUploading = "uploading"
	ProgressDelivered = "delivered"
	ProgressFailed    = "failed"
)

// ProgressEvent is broadcast to /ws/progress subscribers.
type ProgressEvent struct {
	DeliveryID     string `json:"delivery_id"`
	NotificationID int    `json:"notification_id"`
	Title          string `json:"title,omitempty"`
	Percent        int    `json:"percent"`
	State          string `json:"state"`
	Error          string `json:"error,omitempty"`
	Kind           string `json:"kind,omitempty"`
}

const subscriberBuffer = 64

// ProgressHub fans progress events out to subscribers. Slow subscribers
// lose events rather than slowing uploads down.
type ProgressHub struct {
	mu     sync.Mutex
	subs   map[chan ProgressEvent]struct{}
	closed bool
}

// NewProgressHub creates an empty hub.
func NewProgressHub() *ProgressHub {
	return &ProgressHub{subs: make(map[chan ProgressEvent]struct{})}
}

// Subscribe registers a subscriber. The returned function unsubscribes and
// closes the channel.
func (h *ProgressHub) Subscribe() (<-chan ProgressEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan ProgressEvent, subscriberBuffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
}

// Publish sends ev to every subscriber without blocking.
func (h *ProgressHub) Publish(ev ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Reporter returns a progress callback publishing events for one delivery.
func (h *ProgressHub) Reporter(id string, req DeliveryRequest) delivery.ProgressFunc {
	return func(percent int) {
		h.Publish(ProgressEvent{
			DeliveryID:     id,
			NotificationID: req.NotificationID,
			Title:          req.Title,
			Percent:        percent,
			State:          ProgressUploading,
		})
	}
}

// Finish publishes the final state of a delivery.
func (h *ProgressHub) Finish(id string, req DeliveryRequest, err error) {
	ev := ProgressEvent{
		DeliveryID:     id,
		NotificationID: req.NotificationID,
		Title:          req.Title,
		Percent:        100,
		State:          ProgressDelivered,
	}
	if err != nil {
		ev.Percent = 0
		ev.State = ProgressFailed
		ev.Error = err.Error()
		ev.Kind = delivery.KindOf(err).String()
	}
	h.Publish(ev)
}

// Len returns the number of subscribers.
func (h *ProgressHub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close disconnects every subscriber. Later subscriptions are closed
// immediately.
func (h *ProgressHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
	h.closed = true
}

// handleProgressStream streams progress events as JSON WebSocket messages.
// Messages from the client are ignored.
func (g *Gateway) handleProgressStream() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: g.config.AllowedOrigins,
		})
		if err != nil {
			g.logger.Warn("progress stream: accept failed", "error", err)
			return
		}
		defer func() { _ = conn.CloseNow() }()

		events, unsubscribe := g.hub.Subscribe()
		defer unsubscribe()

		ctx := conn.CloseRead(r.Context())
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
					return
				}
				if err := writeEvent(ctx, conn, ev); err != nil {
					g.logger.Debug("progress stream: write failed", "error", err)
					return
				}
			}
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, ev ProgressEvent) error {
	return wsjson.Write(ctx, conn, ev)
}
