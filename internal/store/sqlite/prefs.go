package sqlite

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"sync"

	"github.com/flemzord/sealdrop/internal/prefs"
)

// PreferenceStore is a prefs.Store backed by the preferences table.
// Reads are served from a cache filled at construction; writes go to the
// database first.
type PreferenceStore struct {
	db *DB

	mu    sync.RWMutex
	cache map[string]string
}

var _ prefs.Store = (*PreferenceStore)(nil)

// Preferences loads every stored preference and returns the store.
func (d *DB) Preferences(ctx context.Context) (*PreferenceStore, error) {
	p := &PreferenceStore{db: d}
	if err := p.Reload(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Reload refreshes the cache from the database, picking up changes made
// by other processes.
func (p *PreferenceStore) Reload(ctx context.Context) error {
	rows, err := p.db.db.QueryContext(ctx, "SELECT key, value FROM preferences")
	if err != nil {
		return fmt.Errorf("sqlite: load preferences: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cache := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return fmt.Errorf("sqlite: scan preference: %w", err)
		}
		cache[k] = v
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: load preferences rows: %w", err)
	}

	p.mu.Lock()
	p.cache = cache
	p.mu.Unlock()
	return nil
}

// String returns the value of key, or "" when unset.
func (p *PreferenceStore) String(key string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cache[key]
}

// Bool returns the value of key parsed as a boolean, or false.
func (p *PreferenceStore) Bool(key string) bool {
	b, _ := strconv.ParseBool(p.String(key))
	return b
}

// SetString stores value under key.
func (p *PreferenceStore) SetString(key, value string) error {
	return p.set(context.Background(), key, value)
}

// SetBool stores value under key.
func (p *PreferenceStore) SetBool(key string, value bool) error {
	return p.set(context.Background(), key, strconv.FormatBool(value))
}

// Snapshot returns a copy of every stored preference.
func (p *PreferenceStore) Snapshot() map[string]string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return maps.Clone(p.cache)
}

func (p *PreferenceStore) set(ctx context.Context, key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, err := p.db.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("sqlite: set preference %s: %w", key, err)
	}
	p.cache[key] = value
	return nil
}
