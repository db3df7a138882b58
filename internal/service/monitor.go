package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/kursadbilgin/fare-alert-engine/internal/domain"
	"github.com/kursadbilgin/fare-alert-engine/internal/observability"
	"github.com/kursadbilgin/fare-alert-engine/internal/pricing"
	"github.com/kursadbilgin/fare-alert-engine/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultMonitorInterval    = time.Hour
	defaultProviderTimeout    = 15 * time.Second
	defaultMonitorConcurrency = 8
	finishRunTimeout          = 5 * time.Second
)

// ErrTickInProgress is returned when a tick is requested while one runs.
var ErrTickInProgress = errors.New("monitoring tick already in progress")

// ErrMonitorStopped is returned by Trigger outside the Start lifecycle.
var ErrMonitorStopped = errors.New("monitor is not accepting ticks")

// Per-alert outcomes, used as metric labels.
const (
	outcomeInvalid        = "invalid"
	outcomeNotDue         = "not_due"
	outcomeNoOffers       = "no_offers"
	outcomeUnavailable    = "unavailable"
	outcomeInvalidRequest = "invalid_request"
	outcomeNotMatched     = "not_matched"
	outcomeNoRecipient    = "no_recipient"
	outcomeNotified       = "notified"
	outcomeSendFailed     = "send_failed"
	outcomeCanceled       = "canceled"
	outcomeError          = "error"
)

type recipientResolver interface {
	Resolve(ctx context.Context, alert *domain.Alert, owner *domain.Owner, channel domain.Channel) (*Recipient, error)
}

type notificationDispatcher interface {
	Dispatch(ctx context.Context, n *domain.Notification) bool
}

type MonitorConfig struct {
	Interval         time.Duration
	ProviderTimeout  time.Duration
	Concurrency      int
	RunOnStart       bool
	RespectFrequency bool
	// Manual disables the ticker; ticks run only through Trigger or RunOnce.
	Manual bool
}

type MonitorDeps struct {
	Alerts        repository.AlertRepository
	PriceChecks   repository.PriceCheckRepository
	Notifications repository.NotificationRepository
	Owners        repository.OwnerRepository
	Runs          repository.JobRunRepository
	Pricing       pricing.Client
	Resolver      recipientResolver
	Dispatcher    notificationDispatcher
}

// Monitor runs monitoring ticks on a fixed interval. At most one tick runs at
// a time; a tick that fires while another is running is dropped, not queued.
// Alerts within a tick are processed by a bounded worker pool and a failure
// in one alert never affects the others.
type Monitor struct {
	deps    MonitorDeps
	cfg     MonitorConfig
	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time

	running atomic.Bool
	wg      sync.WaitGroup

	mu      sync.Mutex
	baseCtx context.Context
	started bool
	stopped bool
	ready   chan struct{}
}

func NewMonitor(deps MonitorDeps, cfg MonitorConfig, logger *zap.Logger) (*Monitor, error) {
	switch {
	case deps.Alerts == nil:
		return nil, fmt.Errorf("alert repository is required")
	case deps.PriceChecks == nil:
		return nil, fmt.Errorf("price check repository is required")
	case deps.Notifications == nil:
		return nil, fmt.Errorf("notification repository is required")
	case deps.Owners == nil:
		return nil, fmt.Errorf("owner repository is required")
	case deps.Runs == nil:
		return nil, fmt.Errorf("job run repository is required")
	case deps.Pricing == nil:
		return nil, fmt.Errorf("pricing client is required")
	case deps.Resolver == nil:
		return nil, fmt.Errorf("recipient resolver is required")
	case deps.Dispatcher == nil:
		return nil, fmt.Errorf("dispatcher is required")
	}

	if cfg.Interval <= 0 {
		cfg.Interval = defaultMonitorInterval
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = defaultProviderTimeout
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = defaultMonitorConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Monitor{
		deps:    deps,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		baseCtx: context.Background(),
		ready:   make(chan struct{}),
	}, nil
}

func (m *Monitor) SetMetrics(metrics *observability.Metrics) {
	if m == nil {
		return
	}
	m.metrics = metrics
}

// Start ticks until ctx is canceled, then waits for an in-flight tick to
// observe the cancellation and return. A monitor can be started once.
func (m *Monitor) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return errors.New("monitor already started")
	}
	m.started = true
	m.baseCtx = ctx
	close(m.ready)
	m.mu.Unlock()

	m.logger.Info("monitor started",
		zap.Duration("interval", m.cfg.Interval),
		zap.Int("concurrency", m.cfg.Concurrency),
		zap.Bool("respectFrequency", m.cfg.RespectFrequency),
		zap.Bool("manual", m.cfg.Manual),
	)

	if m.cfg.Manual {
		<-ctx.Done()
		m.stop()
		return nil
	}

	if m.cfg.RunOnStart {
		_ = m.launch(ctx)
	}

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.stop()
			return nil
		case <-ticker.C:
			_ = m.launch(ctx)
		}
	}
}

// stop refuses new ticks before waiting, so no launch can race the Wait.
func (m *Monitor) stop() {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()

	m.wg.Wait()
	m.logger.Info("monitor stopped")
}

// Trigger starts a tick in the background under the context Start was given.
// It returns ErrTickInProgress when a tick is running and ErrMonitorStopped
// when Start has not run yet or has returned.
func (m *Monitor) Trigger() error {
	m.mu.Lock()
	ctx, accepting := m.baseCtx, m.started && !m.stopped
	m.mu.Unlock()
	if !accepting {
		return ErrMonitorStopped
	}
	return m.launch(ctx)
}

// Running reports whether a tick is in progress.
func (m *Monitor) Running() bool {
	return m.running.Load()
}

// RunOnce runs a tick synchronously.
func (m *Monitor) RunOnce(ctx context.Context) (*domain.JobRun, error) {
	if !m.running.CompareAndSwap(false, true) {
		m.dropTick()
		return nil, ErrTickInProgress
	}
	defer m.running.Store(false)

	return m.tick(ctx)
}

func (m *Monitor) launch(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return ErrMonitorStopped
	}
	if !m.running.CompareAndSwap(false, true) {
		m.dropTick()
		return ErrTickInProgress
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.running.Store(false)

		if _, err := m.tick(ctx); err != nil && ctx.Err() == nil {
			m.logger.Error("monitoring tick failed", zap.Error(err))
		}
	}()
	return nil
}

func (m *Monitor) dropTick() {
	m.metrics.IncTick(observability.TickSkipped)
	m.logger.Debug("monitoring tick dropped, previous tick still running")
}

type tickCounters struct {
	checked    atomic.Int64
	matched    atomic.Int64
	notified   atomic.Int64
	sendFailed atomic.Int64
	skipped    atomic.Int64
	errors     atomic.Int64
}

func (m *Monitor) tick(ctx context.Context) (*domain.JobRun, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	start := m.now()
	run := &domain.JobRun{
		ID:        uuid.NewString(),
		StartedAt: start.UTC(),
		Status:    domain.JobRunRunning,
	}
	ctx = observability.WithRunID(ctx, run.ID)
	logger := observability.WithContextLogger(m.logger, ctx)

	if err := m.deps.Runs.Create(ctx, run); err != nil {
		logger.Error("failed to record job run start", zap.Error(err))
	}
	logger.Info("monitoring tick started")

	var counters tickCounters
	alerts, listErr := m.deps.Alerts.ListActive(ctx)
	if listErr != nil {
		counters.errors.Add(1)
		listErr = fmt.Errorf("failed to list active alerts: %w", listErr)
	}

	var g errgroup.Group
	g.SetLimit(m.cfg.Concurrency)
	for i := range alerts {
		if ctx.Err() != nil {
			break
		}
		alert := alerts[i]
		if !alert.Active {
			continue
		}
		run.AlertsTotal++

		g.Go(func() error {
			m.processAlertSafely(ctx, &alert, &counters)
			return nil
		})
	}
	_ = g.Wait()

	finishedAt := m.now().UTC()
	run.FinishedAt = &finishedAt
	run.Status = domain.JobRunCompleted
	result := observability.TickCompleted
	if ctx.Err() != nil {
		run.Status = domain.JobRunCanceled
		result = observability.TickCanceled
	}
	run.Checked = int(counters.checked.Load())
	run.Matched = int(counters.matched.Load())
	run.Notified = int(counters.notified.Load())
	run.SendFailed = int(counters.sendFailed.Load())
	run.Skipped = int(counters.skipped.Load())
	run.Errors = int(counters.errors.Load())

	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishRunTimeout)
	defer cancel()
	if err := m.deps.Runs.Finish(finishCtx, run); err != nil {
		logger.Error("failed to record job run finish", zap.Error(err))
	}

	m.metrics.IncTick(result)
	m.metrics.ObserveTickDuration(finishedAt.Sub(start))
	logger.Info("monitoring tick finished",
		zap.String("status", run.Status.String()),
		zap.Int("alerts", run.AlertsTotal),
		zap.Int("checked", run.Checked),
		zap.Int("matched", run.Matched),
		zap.Int("notified", run.Notified),
		zap.Int("sendFailed", run.SendFailed),
		zap.Int("skipped", run.Skipped),
		zap.Int("errors", run.Errors),
		zap.Duration("duration", finishedAt.Sub(start)),
	)

	return run, listErr
}

func (m *Monitor) processAlertSafely(ctx context.Context, alert *domain.Alert, counters *tickCounters) {
	ctx = observability.WithAlertID(ctx, alert.ID)
	logger := observability.WithContextLogger(m.logger, ctx)

	defer func() {
		if r := recover(); r != nil {
			counters.errors.Add(1)
			m.metrics.IncAlertCheck(outcomeError)
			logger.Error("alert processing panicked", zap.Any("panic", r))
		}
	}()

	outcome, err := m.processAlert(ctx, logger, alert, counters)
	if err != nil {
		counters.errors.Add(1)
		outcome = outcomeError
		logger.Error("alert processing failed", zap.Error(err))
	}
	m.metrics.IncAlertCheck(outcome)
}

func (m *Monitor) processAlert(ctx context.Context, logger *zap.Logger, alert *domain.Alert, counters *tickCounters) (string, error) {
	if err := alert.ValidateForCheck(); err != nil {
		counters.skipped.Add(1)
		logger.Warn("alert is missing required fields, skipping", zap.Error(err))
		return outcomeInvalid, nil
	}
	if m.cfg.RespectFrequency && !alert.IsDue(m.now()) {
		counters.skipped.Add(1)
		return outcomeNotDue, nil
	}

	query, err := pricing.QueryFromAlert(alert)
	if err != nil {
		counters.skipped.Add(1)
		logger.Warn("alert query is invalid, skipping", zap.Error(err))
		return outcomeInvalid, nil
	}

	quote, err := m.queryPrice(ctx, query)
	if err != nil {
		counters.skipped.Add(1)
		return m.handleQueryError(ctx, logger, alert, err)
	}

	payload, matched := Evaluate(alert, quote)
	check := &domain.PriceCheck{
		ID:        uuid.NewString(),
		AlertID:   alert.ID,
		Price:     quote.Price,
		Currency:  payload.Currency,
		Provider:  quote.Provider,
		Matched:   matched,
		Details:   quote.Details,
		CheckedAt: m.now().UTC(),
	}
	if err := m.deps.PriceChecks.RecordCheck(ctx, check); err != nil {
		return "", fmt.Errorf("failed to record price check: %w", err)
	}
	counters.checked.Add(1)

	if !matched {
		logger.Debug("price above target", zap.String("price", payload.Price), zap.String("target", payload.TargetPrice))
		return outcomeNotMatched, nil
	}
	counters.matched.Add(1)
	logger.Info("target price reached", zap.String("price", payload.Price), zap.String("target", payload.TargetPrice))

	recipient, err := m.resolveRecipient(ctx, alert)
	if err != nil {
		return "", err
	}
	if recipient == nil {
		counters.skipped.Add(1)
		logger.Warn("no recipient for alert owner, not sending")
		return outcomeNoRecipient, nil
	}
	if ctx.Err() != nil {
		return outcomeCanceled, nil
	}

	runID, _ := observability.RunIDFromContext(ctx)
	now := m.now().UTC()
	n := &domain.Notification{
		ID:        uuid.NewString(),
		OwnerID:   alert.OwnerID,
		AlertID:   alert.ID,
		RunID:     runID,
		Channel:   recipient.Channel,
		Recipient: recipient.Address,
		Payload:   payload,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := n.Validate(); err != nil {
		return "", fmt.Errorf("invalid notification: %w", err)
	}
	if err := m.deps.Notifications.Create(ctx, n); err != nil {
		return "", fmt.Errorf("failed to create notification: %w", err)
	}

	if !m.deps.Dispatcher.Dispatch(ctx, n) {
		counters.sendFailed.Add(1)
		return outcomeSendFailed, nil
	}
	counters.notified.Add(1)

	if err := m.deps.Alerts.MarkNotified(context.WithoutCancel(ctx), alert.ID, m.now().UTC()); err != nil {
		logger.Warn("failed to update last notified time", zap.Error(err))
	}
	return outcomeNotified, nil
}

func (m *Monitor) queryPrice(ctx context.Context, q pricing.Query) (*domain.PriceQuote, error) {
	queryCtx, cancel := context.WithTimeout(ctx, m.cfg.ProviderTimeout)
	defer cancel()

	start := m.now()
	quote, err := m.deps.Pricing.QueryPrice(queryCtx, q)
	m.metrics.ObserveProviderQuery(m.deps.Pricing.Name(), m.now().Sub(start))
	if err == nil && quote == nil {
		return nil, fmt.Errorf("pricing client returned no quote and no error")
	}
	return quote, err
}

// handleQueryError leaves the alert untouched except for InvalidRequest,
// which flags it for review while keeping it active.
func (m *Monitor) handleQueryError(ctx context.Context, logger *zap.Logger, alert *domain.Alert, err error) (string, error) {
	switch pricing.KindOf(err) {
	case pricing.KindNoOffersFound:
		logger.Info("no offers found, skipping this tick")
		return outcomeNoOffers, nil
	case pricing.KindUpstreamUnavailable:
		if ctx.Err() != nil {
			return outcomeCanceled, nil
		}
		logger.Warn("pricing upstream unavailable, retrying next tick", zap.Error(err))
		return outcomeUnavailable, nil
	case pricing.KindInvalidRequest:
		logger.Warn("pricing provider rejected alert query, flagging for review", zap.Error(err))
		if flagErr := m.deps.Alerts.FlagForReview(ctx, alert.ID, err.Error()); flagErr != nil {
			return "", fmt.Errorf("failed to flag alert for review: %w", flagErr)
		}
		return outcomeInvalidRequest, nil
	}

	if errors.Is(err, domain.ErrValidation) {
		logger.Warn("alert query is invalid, skipping", zap.Error(err))
		return outcomeInvalid, nil
	}
	if ctx.Err() != nil {
		return outcomeCanceled, nil
	}
	return "", fmt.Errorf("price query failed: %w", err)
}

func (m *Monitor) resolveRecipient(ctx context.Context, alert *domain.Alert) (*Recipient, error) {
	owner, err := m.deps.Owners.GetByID(ctx, alert.OwnerID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load alert owner: %w", err)
	}

	recipient, err := m.deps.Resolver.Resolve(ctx, alert, owner, alert.Channel)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve recipient: %w", err)
	}
	return recipient, nil
}
