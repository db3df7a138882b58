package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/fare-alert-engine/internal/domain"
	"github.com/kursadbilgin/fare-alert-engine/internal/service"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type MonitorRunner interface {
	Trigger() error
	Running() bool
}

type HistoryService interface {
	ListRuns(ctx context.Context, limit int) ([]domain.JobRun, error)
	ListPriceChecks(ctx context.Context, alertID string, limit int) ([]domain.PriceCheck, error)
	GetNotification(ctx context.Context, id string) (*service.NotificationDetail, error)
}

type MonitorHandler struct {
	monitor MonitorRunner
	history HistoryService
}

func NewMonitorHandler(monitor MonitorRunner, history HistoryService) (*MonitorHandler, error) {
	if monitor == nil {
		return nil, fmt.Errorf("monitor is required")
	}
	if history == nil {
		return nil, fmt.Errorf("history service is required")
	}
	return &MonitorHandler{monitor: monitor, history: history}, nil
}

func RegisterMonitorRoutes(router fiber.Router, monitor MonitorRunner, history HistoryService) error {
	h, err := NewMonitorHandler(monitor, history)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/monitor/runs", h.TriggerRun)
	v1.Get("/monitor/runs", h.ListRuns)
	v1.Get("/monitor/status", h.Status)
	v1.Get("/alerts/:id/price-checks", h.ListPriceChecks)
	v1.Get("/notifications/:id", h.GetNotification)

	return nil
}

type jobRunResponse struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"startedAt"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
	AlertsTotal int        `json:"alertsTotal"`
	Checked     int        `json:"checked"`
	Matched     int        `json:"matched"`
	Notified    int        `json:"notified"`
	SendFailed  int        `json:"sendFailed"`
	Skipped     int        `json:"skipped"`
	Errors      int        `json:"errors"`
}

type priceCheckResponse struct {
	ID        string             `json:"id"`
	AlertID   string             `json:"alertId"`
	Price     string             `json:"price"`
	Currency  string             `json:"currency"`
	Provider  string             `json:"provider"`
	Matched   bool               `json:"matched"`
	Details   domain.FareDetails `json:"details"`
	CheckedAt time.Time          `json:"checkedAt"`
}

type attemptResponse struct {
	AttemptNumber     int       `json:"attemptNumber"`
	Channel           string    `json:"channel"`
	Error             *string   `json:"error,omitempty"`
	ProviderMessageID *string   `json:"providerMessageId,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

type notificationResponse struct {
	ID        string            `json:"id"`
	AlertID   string            `json:"alertId"`
	OwnerID   string            `json:"ownerId"`
	RunID     string            `json:"runId,omitempty"`
	Channel   string            `json:"channel"`
	Recipient string            `json:"recipient"`
	Status    string            `json:"status"`
	Attempts  int               `json:"attempts"`
	LastError *string           `json:"lastError,omitempty"`
	Payload   domain.Payload    `json:"payload"`
	CreatedAt time.Time         `json:"createdAt"`
	SentAt    *time.Time        `json:"sentAt,omitempty"`
	History   []attemptResponse `json:"history"`
}

type listResponse[T any] struct {
	Data []T `json:"data"`
}

func (h *MonitorHandler) TriggerRun(c *fiber.Ctx) error {
	err := h.monitor.Trigger()
	switch {
	case err == nil:
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"status": "started",
		})
	case errors.Is(err, service.ErrTickInProgress):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"status": "already_running",
		})
	default:
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unavailable",
		})
	}
}

func (h *MonitorHandler) Status(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"running": h.monitor.Running(),
	})
}

func (h *MonitorHandler) ListRuns(c *fiber.Ctx) error {
	limit, err := parseLimit(c)
	if err != nil {
		return toHTTPError(err)
	}

	runs, err := h.history.ListRuns(c.Context(), limit)
	if err != nil {
		return toHTTPError(err)
	}

	data := make([]jobRunResponse, 0, len(runs))
	for i := range runs {
		data = append(data, toJobRunResponse(&runs[i]))
	}
	return c.Status(fiber.StatusOK).JSON(listResponse[jobRunResponse]{Data: data})
}

func (h *MonitorHandler) ListPriceChecks(c *fiber.Ctx) error {
	limit, err := parseLimit(c)
	if err != nil {
		return toHTTPError(err)
	}

	alertID := strings.TrimSpace(c.Params("id"))
	checks, err := h.history.ListPriceChecks(c.Context(), alertID, limit)
	if err != nil {
		return toHTTPError(err)
	}

	data := make([]priceCheckResponse, 0, len(checks))
	for i := range checks {
		data = append(data, toPriceCheckResponse(&checks[i]))
	}
	return c.Status(fiber.StatusOK).JSON(listResponse[priceCheckResponse]{Data: data})
}

func (h *MonitorHandler) GetNotification(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	detail, err := h.history.GetNotification(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toNotificationResponse(detail))
}

func parseLimit(c *fiber.Ctx) (int, error) {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return defaultListLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: limit must be an integer", domain.ErrValidation)
	}
	if limit < 1 {
		return 0, fmt.Errorf("%w: limit must be >= 1", domain.ErrValidation)
	}
	if limit > maxListLimit {
		return 0, fmt.Errorf("%w: limit must be <= %d", domain.ErrValidation, maxListLimit)
	}
	return limit, nil
}

func toJobRunResponse(r *domain.JobRun) jobRunResponse {
	return jobRunResponse{
		ID:          r.ID,
		Status:      r.Status.String(),
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
		AlertsTotal: r.AlertsTotal,
		Checked:     r.Checked,
		Matched:     r.Matched,
		Notified:    r.Notified,
		SendFailed:  r.SendFailed,
		Skipped:     r.Skipped,
		Errors:      r.Errors,
	}
}

func toPriceCheckResponse(p *domain.PriceCheck) priceCheckResponse {
	return priceCheckResponse{
		ID:        p.ID,
		AlertID:   p.AlertID,
		Price:     p.Price.StringFixed(2),
		Currency:  p.Currency,
		Provider:  p.Provider,
		Matched:   p.Matched,
		Details:   p.Details,
		CheckedAt: p.CheckedAt,
	}
}

func toNotificationResponse(d *service.NotificationDetail) notificationResponse {
	n := d.Notification
	history := make([]attemptResponse, 0, len(d.Attempts))
	for _, a := range d.Attempts {
		history = append(history, attemptResponse{
			AttemptNumber:     a.AttemptNumber,
			Channel:           a.Channel.String(),
			Error:             a.Error,
			ProviderMessageID: a.ProviderMessageID,
			CreatedAt:         a.CreatedAt,
		})
	}

	return notificationResponse{
		ID:        n.ID,
		AlertID:   n.AlertID,
		OwnerID:   n.OwnerID,
		RunID:     n.RunID,
		Channel:   n.Channel.String(),
		Recipient: n.Recipient,
		Status:    n.Status.String(),
		Attempts:  n.Attempts,
		LastError: n.LastError,
		Payload:   n.Payload,
		CreatedAt: n.CreatedAt,
		SentAt:    n.SentAt,
		History:   history,
	}
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}
