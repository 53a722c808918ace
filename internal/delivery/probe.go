package delivery

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/flemzord/sealdrop/internal/prefs"
	"github.com/flemzord/sealdrop/internal/telegram"
)

// ProbeResult is the outcome of the most recent connectivity probe.
type ProbeResult struct {
	CheckedAt time.Time     `json:"checked_at"`
	Duration  time.Duration `json:"duration_ns"`
	OK        bool          `json:"ok"`
	Kind      string        `json:"kind,omitempty"`
	Message   string        `json:"message,omitempty"`
}

// TestConnection checks token with getMe, then sends a test message to
// chatID. The second request is only made when the first succeeds. Blank
// credentials fail with KindNotConfigured without any request.
func (s *Service) TestConnection(ctx context.Context, token, chatID string) error {
	ctx, span := s.tracer.Start(ctx, "delivery.TestConnection")
	defer span.End()

	start := s.now()
	err := s.probe(ctx, token, chatID)
	s.recordProbe(start, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, KindOf(err).String())
		s.logger.Warn("connectivity probe failed", "kind", KindOf(err).String(), "error", err)
	} else {
		span.SetStatus(codes.Ok, "")
		s.logger.Info("connectivity probe succeeded", "chat_id", chatID)
	}
	return err
}

// TestConfigured runs TestConnection with the stored credentials.
func (s *Service) TestConfigured(ctx context.Context) error {
	cfg := prefs.Load(s.prefs)
	return s.TestConnection(ctx, cfg.BotToken, cfg.ChatID)
}

// LastProbe returns the result of the most recent probe, if any.
func (s *Service) LastProbe() (ProbeResult, bool) {
	s.probeMu.RLock()
	defer s.probeMu.RUnlock()
	if s.lastProbe == nil {
		return ProbeResult{}, false
	}
	return *s.lastProbe, true
}

func (s *Service) probe(ctx context.Context, token, chatID string) error {
	if strings.TrimSpace(token) == "" || strings.TrimSpace(chatID) == "" {
		return &Error{Kind: KindNotConfigured, Message: s.messages.Text(MsgNotConfigured)}
	}

	client := s.client(token)

	if err := ctx.Err(); err != nil {
		return s.transportFailure(err)
	}
	me, err := client.GetMe(ctx)
	if err != nil {
		var apiErr *telegram.APIError
		if errors.As(err, &apiErr) {
			return &Error{
				Kind:       KindInvalidToken,
				Message:    s.messages.Text(MsgInvalidToken),
				StatusCode: apiErr.StatusCode,
				Body:       apiErr.Body,
				Err:        err,
			}
		}
		return s.transportFailure(err)
	}
	s.logger.Debug("bot token accepted", "bot", me.Username)

	if err := ctx.Err(); err != nil {
		return s.transportFailure(err)
	}
	if _, err := client.SendMessage(ctx, chatID, s.messages.Text(MsgTestMessage)); err != nil {
		var apiErr *telegram.APIError
		if errors.As(err, &apiErr) {
			return &Error{
				Kind:       KindChatUnreachable,
				Message:    s.messages.Text(MsgChatUnreachable, apiErr.Body),
				StatusCode: apiErr.StatusCode,
				Body:       apiErr.Body,
				Err:        err,
			}
		}
		return s.transportFailure(err)
	}
	return nil
}

func (s *Service) recordProbe(start time.Time, err error) {
	res := &ProbeResult{
		CheckedAt: start,
		Duration:  s.now().Sub(start),
		OK:        err == nil,
	}
	if err != nil {
		res.Kind = KindOf(err).String()
		res.Message = err.Error()
	}

	s.probeMu.Lock()
	s.lastProbe = res
	s.probeMu.Unlock()

	s.metrics.observeProbe(outcomeLabel(err))
}
