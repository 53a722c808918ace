package cron

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// simpleJob is a minimal Job for scheduler tests.
type simpleJob struct {
	name     string
	schedule string
	runFunc  func(ctx context.Context) error
	mu       sync.Mutex
	calls    int
}

func (j *simpleJob) Name() string     { return j.name }
func (j *simpleJob) Schedule() string { return j.schedule }
func (j *simpleJob) Run(ctx context.Context) error {
	j.mu.Lock()
	j.calls++
	j.mu.Unlock()
	if j.runFunc != nil {
		return j.runFunc(ctx)
	}
	return nil
}

func (j *simpleJob) callCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.calls
}

func TestScheduler_RegisterJob_DuplicateName(t *testing.T) {
	t.Parallel()

	s := NewScheduler(slog.Default())
	if err := s.RegisterJob(&simpleJob{name: "test", schedule: "* * * * *"}); err != nil {
		t.Fatalf("first registration should succeed: %v", err)
	}
	if err := s.RegisterJob(&simpleJob{name: "test", schedule: "* * * * *"}); err == nil {
		t.Fatal("duplicate registration should fail")
	}
}

func TestScheduler_Start_InvalidSchedule(t *testing.T) {
	t.Parallel()

	s := NewScheduler(slog.Default())
	_ = s.RegisterJob(&simpleJob{name: "bad", schedule: "invalid"})

	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestScheduler_StartStopAndNextRun(t *testing.T) {
	t.Parallel()

	s := NewScheduler(slog.Default())
	_ = s.RegisterJob(&simpleJob{name: "noop", schedule: "@every 1h"})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if next := s.NextRun("noop"); next.Before(time.Now()) {
		t.Errorf("NextRun() = %v, want a future time", next)
	}
	if !s.NextRun("unknown").IsZero() {
		t.Error("NextRun(unknown) should be zero")
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil)
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
}

func TestScheduler_SkipsOverlappingTick(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{})
	job := &simpleJob{name: "slow", runFunc: func(context.Context) error {
		close(started)
		<-release
		return nil
	}}

	s := NewScheduler(slog.New(slog.DiscardHandler))
	lock := &sync.Mutex{}

	done := make(chan struct{})
	go func() {
		s.runJob(context.Background(), job, lock)
		close(done)
	}()
	<-started

	s.runJob(context.Background(), job, lock)
	close(release)
	<-done

	if got := job.callCount(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestScheduler_JobErrorIsLogged(t *testing.T) {
	t.Parallel()

	job := &simpleJob{name: "failing", runFunc: func(context.Context) error {
		return errors.New("job failed")
	}}
	s := NewScheduler(slog.New(slog.DiscardHandler))
	s.runJob(context.Background(), job, &sync.Mutex{})

	if got := job.callCount(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestParseSchedule(t *testing.T) {
	t.Parallel()

	for _, expr := range []string{"*/5 * * * *", "@daily", "@every 30m"} {
		if _, err := ParseSchedule(expr); err != nil {
			t.Errorf("ParseSchedule(%q) error: %v", expr, err)
		}
	}
	for _, expr := range []string{"", "invalid", "60 * * * *", "* * * * * *"} {
		if _, err := ParseSchedule(expr); err == nil {
			t.Errorf("ParseSchedule(%q) succeeded, want error", expr)
		}
	}
}
