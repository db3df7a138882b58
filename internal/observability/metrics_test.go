package observability

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsMonitorCollectors(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()

	metrics.IncTick(TickCompleted)
	metrics.IncTick(TickSkipped)
	metrics.IncTick(TickSkipped)
	metrics.ObserveTickDuration(2 * time.Second)
	metrics.IncAlertCheck("Matched")
	metrics.ObserveProviderQuery("amadeus", 300*time.Millisecond)
	metrics.AddStaleSwept(3)

	if got := testutil.ToFloat64(metrics.ticksTotal.WithLabelValues("skipped")); got != 2 {
		t.Fatalf("ticks_total{skipped} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.alertChecksTotal.WithLabelValues("matched")); got != 1 {
		t.Fatalf("alert_checks_total{matched} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.staleSweptTotal); got != 3 {
		t.Fatalf("stale_notifications_failed_total = %v, want 3", got)
	}
}

func TestMetricsNotificationCollectors(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()

	metrics.IncNotificationSent("EMAIL")
	metrics.IncNotificationFailed("push", "rate_limited")
	metrics.IncNotificationFailed("push", "")
	metrics.ObserveNotificationSendDuration("email", 120*time.Millisecond)

	if got := testutil.ToFloat64(metrics.notificationsSentTotal.WithLabelValues("email")); got != 1 {
		t.Fatalf("notifications_sent_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.notificationsFailedTotal.WithLabelValues("push", "rate_limited")); got != 1 {
		t.Fatalf("notifications_failed_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.notificationsFailedTotal.WithLabelValues("push", "unknown")); got != 1 {
		t.Fatalf("notifications_failed_total{unknown} = %v, want 1", got)
	}
}

func TestMetricsNilReceiver(t *testing.T) {
	t.Parallel()

	var metrics *Metrics
	metrics.IncTick(TickCompleted)
	metrics.IncAlertCheck("checked")
	metrics.IncNotificationSent("email")
	metrics.AddStaleSwept(1)

	if metrics.Handler() == nil {
		t.Fatal("Handler() returned nil for nil metrics")
	}
}

func TestMetricsHTTPMiddlewareRecordsRequest(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()
	app := fiber.New()
	app.Use(metrics.HTTPMiddleware())
	app.Get("/livez", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/livez", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if got := testutil.ToFloat64(metrics.httpRequestsTotal.WithLabelValues("GET", "/livez", "200")); got != 1 {
		t.Fatalf("http_requests_total = %v, want 1", got)
	}
}

func TestMetricsHTTPMiddlewareRecordsErrorStatus(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()
	app := fiber.New()
	app.Use(metrics.HTTPMiddleware())
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("boom")
	})

	req := httptest.NewRequest("GET", "/boom", nil)
	_, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	if got := testutil.ToFloat64(metrics.httpRequestsTotal.WithLabelValues("GET", "/boom", "500")); got != 1 {
		t.Fatalf("http_requests_total = %v, want 1", got)
	}
}
