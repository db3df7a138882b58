package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStaleSweeperFailsOldPending(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var gotBefore, gotAt time.Time
	var gotReason string
	repo := &fakeNotificationRepo{
		failStalePendingFn: func(ctx context.Context, createdBefore time.Time, reason string, at time.Time) (int64, error) {
			gotBefore, gotReason, gotAt = createdBefore, reason, at
			return 3, nil
		},
	}

	sweeper, err := NewStaleSweeper(repo, time.Minute, 30*time.Minute, nil)
	if err != nil {
		t.Fatalf("NewStaleSweeper() error = %v", err)
	}
	sweeper.now = func() time.Time { return now }

	swept, err := sweeper.sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep() error = %v", err)
	}
	if swept != 3 {
		t.Fatalf("swept = %d, want 3", swept)
	}
	if want := now.Add(-30 * time.Minute); !gotBefore.Equal(want) {
		t.Fatalf("createdBefore = %s, want %s", gotBefore, want)
	}
	if !gotAt.Equal(now) {
		t.Fatalf("at = %s, want %s", gotAt, now)
	}
	if gotReason != staleReason {
		t.Fatalf("reason = %q, want %q", gotReason, staleReason)
	}
}

func TestStaleSweeperRepositoryError(t *testing.T) {
	t.Parallel()

	repo := &fakeNotificationRepo{
		failStalePendingFn: func(ctx context.Context, createdBefore time.Time, reason string, at time.Time) (int64, error) {
			return 0, errors.New("db unavailable")
		},
	}
	sweeper, err := NewStaleSweeper(repo, time.Minute, time.Minute, nil)
	if err != nil {
		t.Fatalf("NewStaleSweeper() error = %v", err)
	}

	if _, err := sweeper.sweep(context.Background()); err == nil {
		t.Fatal("expected sweep() error")
	}
}

func TestNewStaleSweeperAppliesDefaults(t *testing.T) {
	t.Parallel()

	sweeper, err := NewStaleSweeper(&fakeNotificationRepo{}, 0, 0, nil)
	if err != nil {
		t.Fatalf("NewStaleSweeper() error = %v", err)
	}
	if sweeper.interval != defaultStaleSweepInterval {
		t.Fatalf("interval = %s, want %s", sweeper.interval, defaultStaleSweepInterval)
	}
	if sweeper.after != defaultStalePendingAfter {
		t.Fatalf("after = %s, want %s", sweeper.after, defaultStalePendingAfter)
	}

	if _, err := NewStaleSweeper(nil, 0, 0, nil); err == nil {
		t.Fatal("NewStaleSweeper(nil) expected error")
	}
}

func TestStaleSweeperStartReturnsOnContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sweeper, err := NewStaleSweeper(&fakeNotificationRepo{}, time.Second, time.Minute, nil)
	if err != nil {
		t.Fatalf("NewStaleSweeper() error = %v", err)
	}
	if err := sweeper.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
}
