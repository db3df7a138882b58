package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const readinessTimeout = 2 * time.Second

type probe struct {
	name string
	ping func(ctx context.Context) error
}

// RegisterHealthRoutes mounts the probes. rdb is nil when the rate limiter
// runs in memory, and readiness then skips the redis check.
func RegisterHealthRoutes(app fiber.Router, sqlDB *sql.DB, rdb *redis.Client) {
	probes := []probe{{name: "postgres", ping: sqlDB.PingContext}}
	if rdb != nil {
		probes = append(probes, probe{
			name: "redis",
			ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	}

	app.Get("/livez", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/readyz", readyz(probes))
}

func readyz(probes []probe) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), readinessTimeout)
		defer cancel()

		checks := make(map[string]string, len(probes))
		code, status := fiber.StatusOK, "ready"
		for _, p := range probes {
			if err := p.ping(ctx); err != nil {
				checks[p.name] = "down"
				code, status = fiber.StatusServiceUnavailable, "not_ready"
				continue
			}
			checks[p.name] = "ok"
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}
