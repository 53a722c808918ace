package security

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/flemzord/sealdrop/internal/delivery"
)

// RedactingHandler wraps a slog.Handler and redacts bot tokens and other
// secrets from the message and every attribute before passing the record on.
// Delivery errors are logged as a group carrying their kind and remote
// status code; URLs inside transport errors lose their /bot<token>/ segment
// even when the token is malformed.
type RedactingHandler struct {
	inner    slog.Handler
	redactor *Redactor
}

var _ slog.Handler = (*RedactingHandler)(nil)

// NewRedactingHandler creates a handler that wraps inner, applying
// redactor to every string attribute value.
func NewRedactingHandler(inner slog.Handler, redactor *Redactor) *RedactingHandler {
	return &RedactingHandler{
		inner:    inner,
		redactor: redactor,
	}
}

// Enabled delegates to the inner handler.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle redacts string values in the record's attributes and message,
// then delegates to the inner handler.
func (h *RedactingHandler) Handle(ctx context.Context, record slog.Record) error {
	redacted := slog.NewRecord(record.Time, record.Level, h.redactor.Redact(record.Message), record.PC)
	record.Attrs(func(a slog.Attr) bool {
		redacted.AddAttrs(h.redactAttr(a))
		return true
	})

	return h.inner.Handle(ctx, redacted)
}

// WithAttrs returns a new handler with pre-resolved, redacted attributes.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redactAttr(a)
	}
	return &RedactingHandler{
		inner:    h.inner.WithAttrs(redacted),
		redactor: h.redactor,
	}
}

// WithGroup returns a new handler with the given group name.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{
		inner:    h.inner.WithGroup(name),
		redactor: h.redactor,
	}
}

// redactAttr recursively redacts string values in an attribute.
func (h *RedactingHandler) redactAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	switch a.Value.Kind() {
	case slog.KindString:
		a.Value = slog.StringValue(h.redactor.Redact(a.Value.String()))
	case slog.KindGroup:
		attrs := a.Value.Group()
		redacted := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			redacted[i] = h.redactAttr(ga)
		}
		a.Value = slog.GroupValue(redacted...)
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			a.Value = h.errorValue(err)
			break
		}
		resolved := a.Value.String()
		if redacted := h.redactor.Redact(resolved); redacted != resolved {
			a.Value = slog.StringValue(redacted)
		}
	}
	return a
}

// errorValue renders err for a log record.
func (h *RedactingHandler) errorValue(err error) slog.Value {
	text := h.errorText(err)

	var derr *delivery.Error
	if !errors.As(err, &derr) {
		return slog.StringValue(text)
	}
	attrs := []slog.Attr{
		slog.String("kind", derr.Kind.String()),
		slog.String("msg", text),
	}
	if derr.StatusCode != 0 {
		attrs = append(attrs, slog.Int("status_code", derr.StatusCode))
	}
	return slog.GroupValue(attrs...)
}

// errorText is err's message with every URL from a wrapped *url.Error
// stripped of its token, then passed through the redactor.
func (h *RedactingHandler) errorText(err error) string {
	text := err.Error()
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		text = strings.ReplaceAll(text, strconv.Quote(urlErr.URL), strconv.Quote(RedactBotPath(urlErr.URL)))
		text = strings.ReplaceAll(text, urlErr.URL, RedactBotPath(urlErr.URL))
	}
	return h.redactor.Redact(text)
}
