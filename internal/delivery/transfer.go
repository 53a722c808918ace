package delivery

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/flemzord/sealdrop/internal/history"
	"github.com/flemzord/sealdrop/internal/prefs"
	"github.com/flemzord/sealdrop/internal/telegram"
)

// UploadFile delivers the file at path to the configured chat.
func (s *Service) UploadFile(ctx context.Context, path, title string, notificationID int, onProgress ProgressFunc) error {
	return s.Deliver(ctx, UploadTarget{Path: path, Title: title, NotificationID: notificationID}, onProgress)
}

// AutoDeliver delivers target only when automatic upload is enabled. It
// reports whether a delivery was attempted.
func (s *Service) AutoDeliver(ctx context.Context, target UploadTarget, onProgress ProgressFunc) (bool, error) {
	if !prefs.Load(s.prefs).UploadEnabled {
		s.logger.Debug("automatic upload disabled, skipping", "file", filepath.Base(target.Path))
		return false, nil
	}
	return true, s.Deliver(ctx, target, onProgress)
}

// Deliver validates, classifies and uploads target. It makes at most one
// request and none when validation fails. onProgress may be nil.
func (s *Service) Deliver(ctx context.Context, target UploadTarget, onProgress ProgressFunc) error {
	ctx, span := s.tracer.Start(ctx, "delivery.Deliver", trace.WithAttributes(
		attribute.String("file.name", filepath.Base(target.Path)),
		attribute.Int("notification.id", target.NotificationID),
	))
	defer span.End()

	rec := history.Record{
		ID:             s.newID(),
		Path:           target.Path,
		Title:          target.Title,
		NotificationID: target.NotificationID,
		StartedAt:      s.now(),
	}

	err := s.transfer(ctx, target, &rec, onProgress)
	rec.FinishedAt = s.now()

	span.SetAttributes(
		attribute.String("delivery.endpoint", rec.Endpoint),
		attribute.Int64("file.size", rec.Size),
	)
	if err != nil {
		rec.Outcome = history.OutcomeFailed
		rec.ErrorKind = KindOf(err).String()
		rec.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, rec.ErrorKind)
		s.logger.Warn("delivery failed",
			"file", filepath.Base(target.Path),
			"title", target.Title,
			"kind", rec.ErrorKind,
			"error", err)
	} else {
		rec.Outcome = history.OutcomeDelivered
		span.SetStatus(codes.Ok, "")
		s.logger.Info("delivery completed",
			"file", filepath.Base(target.Path),
			"title", target.Title,
			"endpoint", rec.Endpoint,
			"size", rec.Size,
			"duration", rec.Duration())
	}

	s.metrics.observeDelivery(rec.Endpoint, outcomeLabel(err), rec.Size, rec.Duration())

	if s.history != nil {
		if herr := s.history.Append(context.WithoutCancel(ctx), rec); herr != nil {
			s.logger.Error("failed to record delivery", "id", rec.ID, "error", herr)
		}
	}
	return err
}

func (s *Service) transfer(ctx context.Context, target UploadTarget, rec *history.Record, onProgress ProgressFunc) error {
	cfg := prefs.Load(s.prefs)
	if err := s.gate.Validate(cfg, target); err != nil {
		return err
	}

	class := Classify(Extension(target.Path))
	rec.Endpoint = string(class.Endpoint)
	rec.MIMEType = class.MIMEType

	f, err := os.Open(target.Path)
	if err != nil {
		return &Error{Kind: KindFileMissing, Message: s.messages.Text(MsgFileMissing, target.Path), Err: err}
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return &Error{Kind: KindFileMissing, Message: s.messages.Text(MsgFileMissing, target.Path), Err: err}
	}
	rec.Size = info.Size()
	// The file may have grown since the gate looked at it.
	if err := s.gate.checkSize(rec.Size); err != nil {
		return err
	}

	rec.DetectedMIME, err = detectMIME(f)
	if err != nil {
		return &Error{Kind: KindFileMissing, Message: s.messages.Text(MsgFileMissing, target.Path), Err: err}
	}

	if err := ctx.Err(); err != nil {
		return s.transportFailure(err)
	}

	prog := newProgress(onProgress, rec.Size)
	prog.start()

	s.logger.Debug("uploading file",
		"file", filepath.Base(target.Path),
		"endpoint", class.Endpoint,
		"mime", class.MIMEType,
		"detected_mime", rec.DetectedMIME,
		"size", rec.Size)

	_, err = s.client(cfg.BotToken).SendFile(ctx, string(class.Endpoint), cfg.ChatID, telegram.InputFile{
		Field:    string(class.Field),
		Name:     filepath.Base(target.Path),
		MIMEType: class.MIMEType,
		Reader:   &progressReader{r: f, p: prog},
		Size:     rec.Size,
	})
	if err != nil {
		prog.finish(false)
		var apiErr *telegram.APIError
		if errors.As(err, &apiErr) {
			return &Error{
				Kind:       KindRemoteRejected,
				Message:    s.messages.Text(MsgRemoteRejected, apiErr.StatusCode, apiErr.Body),
				StatusCode: apiErr.StatusCode,
				Body:       apiErr.Body,
				Err:        err,
			}
		}
		return s.transportFailure(err)
	}

	prog.finish(true)
	return nil
}

// detectMIME sniffs the content type of f for diagnostics and rewinds it.
// The upload MIME type always comes from the extension.
func detectMIME(f *os.File) (string, error) {
	mt, detectErr := mimetype.DetectReader(f)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	if detectErr != nil {
		return "", nil
	}
	return mt.String(), nil
}
