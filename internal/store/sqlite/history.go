package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/flemzord/sealdrop/internal/history"
)

// HistoryStore is a history.Store backed by the deliveries table.
type HistoryStore struct {
	db *DB
}

var _ history.Store = (*HistoryStore)(nil)

// History returns the delivery history store.
func (d *DB) History() *HistoryStore {
	return &HistoryStore{db: d}
}

// Append inserts rec. Records with an existing ID are replaced.
func (h *HistoryStore) Append(ctx context.Context, rec history.Record) error {
	_, err := h.db.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO deliveries (
			id, path, title, notification_id, endpoint, mime_type, detected_mime,
			size, outcome, error_kind, error, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Path, rec.Title, rec.NotificationID, rec.Endpoint, rec.MIMEType, rec.DetectedMIME,
		rec.Size, string(rec.Outcome), rec.ErrorKind, rec.Error,
		formatTime(rec.StartedAt), formatTime(rec.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: append delivery: %w", err)
	}
	return nil
}

// Recent returns up to n records, newest first.
func (h *HistoryStore) Recent(ctx context.Context, n int) ([]history.Record, error) {
	if n <= 0 {
		return nil, nil
	}

	rows, err := h.db.db.QueryContext(ctx, `
		SELECT id, path, title, notification_id, endpoint, mime_type, detected_mime,
		       size, outcome, error_kind, error, started_at, finished_at
		FROM deliveries
		ORDER BY finished_at DESC, rowid DESC
		LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("sqlite: recent deliveries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var recs []history.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: recent deliveries rows: %w", err)
	}
	return recs, nil
}

// PruneBefore deletes records that finished before t.
func (h *HistoryStore) PruneBefore(ctx context.Context, t time.Time) (int, error) {
	res, err := h.db.db.ExecContext(ctx, "DELETE FROM deliveries WHERE finished_at < ?", formatTime(t))
	if err != nil {
		return 0, fmt.Errorf("sqlite: prune deliveries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: prune deliveries: %w", err)
	}
	return int(n), nil
}

func scanRecord(rows *sql.Rows) (history.Record, error) {
	var (
		rec               history.Record
		outcome           string
		started, finished string
	)
	err := rows.Scan(
		&rec.ID, &rec.Path, &rec.Title, &rec.NotificationID, &rec.Endpoint, &rec.MIMEType, &rec.DetectedMIME,
		&rec.Size, &outcome, &rec.ErrorKind, &rec.Error, &started, &finished,
	)
	if err != nil {
		return history.Record{}, fmt.Errorf("sqlite: scan delivery: %w", err)
	}
	rec.Outcome = history.Outcome(outcome)
	if rec.StartedAt, err = parseTime(started); err != nil {
		return history.Record{}, err
	}
	if rec.FinishedAt, err = parseTime(finished); err != nil {
		return history.Record{}, err
	}
	return rec, nil
}

// Times are stored as fixed-width UTC text so they sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse time %q: %w", s, err)
	}
	return t, nil
}
