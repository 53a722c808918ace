// Package reload notices preference changes committed by other processes,
// such as `sealdrop prefs set` while `sealdrop serve` is running.
package reload

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

const defaultPollInterval = 5 * time.Second

// VersionFunc returns a counter that changes whenever the watched data
// changes.
type VersionFunc func(ctx context.Context) (int64, error)

// WatcherConfig configures the watcher.
type WatcherConfig struct {
	Version VersionFunc

	// PollInterval defaults to 5 seconds if zero.
	PollInterval time.Duration
}

func (c WatcherConfig) pollIntervalOrDefault() time.Duration {
	if c.PollInterval > 0 {
		return c.PollInterval
	}
	return defaultPollInterval
}

// Event reports a change.
type Event struct {
	Version int64
}

// Watcher polls a VersionFunc and emits an Event when the value changes.
type Watcher struct {
	cfg     WatcherConfig
	events  chan Event
	stop    chan struct{}
	stopped chan struct{}

	started   atomic.Bool
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewWatcher creates a watcher.
func NewWatcher(cfg WatcherConfig) *Watcher {
	return &Watcher{
		cfg:     cfg,
		events:  make(chan Event, 1),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start begins polling. Only the first call starts the goroutine.
func (w *Watcher) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		w.started.Store(true)
		go w.poll(ctx)
	})
}

// Events returns the channel of change events. Changes that happen while
// an event is pending are coalesced.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Stop stops the watcher. Safe to call multiple times and before Start.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
	})
	if w.started.Load() {
		<-w.stopped
	}
}

func (w *Watcher) poll(ctx context.Context) {
	defer close(w.stopped)

	ticker := time.NewTicker(w.cfg.pollIntervalOrDefault())
	defer ticker.Stop()

	last, err := w.cfg.Version(ctx)
	known := err == nil

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
			current, err := w.cfg.Version(ctx)
			if err != nil {
				continue
			}
			if !known {
				last, known = current, true
				continue
			}
			if current == last {
				continue
			}
			last = current
			select {
			case w.events <- Event{Version: current}:
			default:
			}
		}
	}
}
