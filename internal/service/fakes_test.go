package service

import (
	"context"
	"sync"
	"time"

	"github.com/kursadbilgin/fare-alert-engine/internal/domain"
)

type fakeAlertRepo struct {
	getByIDFn       func(ctx context.Context, id string) (*domain.Alert, error)
	listActiveFn    func(ctx context.Context) ([]domain.Alert, error)
	flagForReviewFn func(ctx context.Context, id string, reason string) error
	markNotifiedFn  func(ctx context.Context, id string, at time.Time) error

	mu       sync.Mutex
	flagged  map[string]string
	notified []string
}

func (f *fakeAlertRepo) GetByID(ctx context.Context, id string) (*domain.Alert, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeAlertRepo) ListActive(ctx context.Context) ([]domain.Alert, error) {
	if f.listActiveFn != nil {
		return f.listActiveFn(ctx)
	}
	return nil, nil
}

func (f *fakeAlertRepo) FlagForReview(ctx context.Context, id string, reason string) error {
	f.mu.Lock()
	if f.flagged == nil {
		f.flagged = make(map[string]string)
	}
	f.flagged[id] = reason
	f.mu.Unlock()
	if f.flagForReviewFn != nil {
		return f.flagForReviewFn(ctx, id, reason)
	}
	return nil
}

func (f *fakeAlertRepo) MarkNotified(ctx context.Context, id string, at time.Time) error {
	f.mu.Lock()
	f.notified = append(f.notified, id)
	f.mu.Unlock()
	if f.markNotifiedFn != nil {
		return f.markNotifiedFn(ctx, id, at)
	}
	return nil
}

func (f *fakeAlertRepo) flaggedReason(id string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reason, ok := f.flagged[id]
	return reason, ok
}

type fakePriceCheckRepo struct {
	recordCheckFn func(ctx context.Context, check *domain.PriceCheck) error
	listByAlertFn func(ctx context.Context, alertID string, limit int) ([]domain.PriceCheck, error)

	mu     sync.Mutex
	checks []domain.PriceCheck
}

func (f *fakePriceCheckRepo) RecordCheck(ctx context.Context, check *domain.PriceCheck) error {
	if f.recordCheckFn != nil {
		if err := f.recordCheckFn(ctx, check); err != nil {
			return err
		}
	}
	f.mu.Lock()
	f.checks = append(f.checks, *check)
	f.mu.Unlock()
	return nil
}

func (f *fakePriceCheckRepo) ListByAlert(ctx context.Context, alertID string, limit int) ([]domain.PriceCheck, error) {
	if f.listByAlertFn != nil {
		return f.listByAlertFn(ctx, alertID, limit)
	}
	return nil, nil
}

func (f *fakePriceCheckRepo) recorded() []domain.PriceCheck {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.PriceCheck, len(f.checks))
	copy(out, f.checks)
	return out
}

type fakeNotificationRepo struct {
	createFn           func(ctx context.Context, n *domain.Notification) error
	getByIDFn          func(ctx context.Context, id string) (*domain.Notification, error)
	updateOutcomeFn    func(ctx context.Context, n *domain.Notification) error
	failStalePendingFn func(ctx context.Context, createdBefore time.Time, reason string, at time.Time) (int64, error)

	mu       sync.Mutex
	created  []domain.Notification
	outcomes []domain.Notification
}

func (f *fakeNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	if f.createFn != nil {
		if err := f.createFn(ctx, n); err != nil {
			return err
		}
	}
	f.mu.Lock()
	f.created = append(f.created, *n)
	f.mu.Unlock()
	return nil
}

func (f *fakeNotificationRepo) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeNotificationRepo) UpdateOutcome(ctx context.Context, n *domain.Notification) error {
	if f.updateOutcomeFn != nil {
		if err := f.updateOutcomeFn(ctx, n); err != nil {
			return err
		}
	}
	f.mu.Lock()
	f.outcomes = append(f.outcomes, *n)
	f.mu.Unlock()
	return nil
}

func (f *fakeNotificationRepo) FailStalePending(ctx context.Context, createdBefore time.Time, reason string, at time.Time) (int64, error) {
	if f.failStalePendingFn != nil {
		return f.failStalePendingFn(ctx, createdBefore, reason, at)
	}
	return 0, nil
}

func (f *fakeNotificationRepo) createdNotifications() []domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Notification, len(f.created))
	copy(out, f.created)
	return out
}

func (f *fakeNotificationRepo) storedOutcomes() []domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Notification, len(f.outcomes))
	copy(out, f.outcomes)
	return out
}

type fakeAttemptRepo struct {
	createFn func(ctx context.Context, attempt *domain.DeliveryAttempt) error
	listFn   func(ctx context.Context, notificationID string) ([]domain.DeliveryAttempt, error)

	mu       sync.Mutex
	attempts []domain.DeliveryAttempt
}

func (f *fakeAttemptRepo) Create(ctx context.Context, attempt *domain.DeliveryAttempt) error {
	if f.createFn != nil {
		if err := f.createFn(ctx, attempt); err != nil {
			return err
		}
	}
	f.mu.Lock()
	f.attempts = append(f.attempts, *attempt)
	f.mu.Unlock()
	return nil
}

func (f *fakeAttemptRepo) ListByNotificationID(ctx context.Context, notificationID string) ([]domain.DeliveryAttempt, error) {
	if f.listFn != nil {
		return f.listFn(ctx, notificationID)
	}
	return nil, nil
}

func (f *fakeAttemptRepo) recorded() []domain.DeliveryAttempt {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.DeliveryAttempt, len(f.attempts))
	copy(out, f.attempts)
	return out
}

type fakeOwnerRepo struct {
	getByIDFn           func(ctx context.Context, id string) (*domain.Owner, error)
	latestDeviceTokenFn func(ctx context.Context, ownerID string) (*domain.DeviceToken, error)
}

func (f *fakeOwnerRepo) GetByID(ctx context.Context, id string) (*domain.Owner, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return &domain.Owner{ID: id, Email: id + "@example.com", Active: true}, nil
}

func (f *fakeOwnerRepo) LatestDeviceToken(ctx context.Context, ownerID string) (*domain.DeviceToken, error) {
	if f.latestDeviceTokenFn != nil {
		return f.latestDeviceTokenFn(ctx, ownerID)
	}
	return nil, domain.ErrNotFound
}

type fakeJobRunRepo struct {
	createFn     func(ctx context.Context, run *domain.JobRun) error
	finishFn     func(ctx context.Context, run *domain.JobRun) error
	listRecentFn func(ctx context.Context, limit int) ([]domain.JobRun, error)

	mu       sync.Mutex
	started  int
	finished []domain.JobRun
}

func (f *fakeJobRunRepo) Create(ctx context.Context, run *domain.JobRun) error {
	f.mu.Lock()
	f.started++
	f.mu.Unlock()
	if f.createFn != nil {
		return f.createFn(ctx, run)
	}
	return nil
}

func (f *fakeJobRunRepo) Finish(ctx context.Context, run *domain.JobRun) error {
	f.mu.Lock()
	f.finished = append(f.finished, *run)
	f.mu.Unlock()
	if f.finishFn != nil {
		return f.finishFn(ctx, run)
	}
	return nil
}

func (f *fakeJobRunRepo) ListRecent(ctx context.Context, limit int) ([]domain.JobRun, error) {
	if f.listRecentFn != nil {
		return f.listRecentFn(ctx, limit)
	}
	return nil, nil
}

func (f *fakeJobRunRepo) finishedRuns() []domain.JobRun {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.JobRun, len(f.finished))
	copy(out, f.finished)
	return out
}

type fakeSender struct {
	channel domain.Channel
	readyFn func() error
	sendFn  func(ctx context.Context, n *domain.Notification) (string, error)

	mu   sync.Mutex
	sent []domain.Notification
}

func (f *fakeSender) Channel() domain.Channel { return f.channel }

func (f *fakeSender) Ready() error {
	if f.readyFn != nil {
		return f.readyFn()
	}
	return nil
}

func (f *fakeSender) Send(ctx context.Context, n *domain.Notification) (string, error) {
	f.mu.Lock()
	f.sent = append(f.sent, *n)
	f.mu.Unlock()
	if f.sendFn != nil {
		return f.sendFn(ctx, n)
	}
	return "msg-" + n.ID, nil
}

func (f *fakeSender) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeLimiter struct {
	allowFn   func(ctx context.Context, ch domain.Channel) (bool, error)
	releaseFn func(ctx context.Context, ch domain.Channel) error
}

func (f *fakeLimiter) Release(ctx context.Context, ch domain.Channel) error {
	if f.releaseFn != nil {
		return f.releaseFn(ctx, ch)
	}
	return nil
}

func (f *fakeLimiter) Allow(ctx context.Context, ch domain.Channel) (bool, error) {
	if f.allowFn != nil {
		return f.allowFn(ctx, ch)
	}
	return true, nil
}
