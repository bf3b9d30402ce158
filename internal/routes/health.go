package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RegisterHealthRoutes adds the health endpoint, reporting backend
// connectivity when Postgres or Redis are configured.
func RegisterHealthRoutes(app *fiber.App, d Deps) {
	app.Get("/api/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		backends := fiber.Map{}
		if d.DB != nil {
			if err := d.DB.Ping(ctx); err != nil {
				backends["postgres"] = err.Error()
				status = http.StatusServiceUnavailable
			} else {
				backends["postgres"] = "ok"
			}
		}
		if d.Cache != nil {
			if err := d.Cache.Ping(ctx).Err(); err != nil {
				backends["redis"] = err.Error()
				status = http.StatusServiceUnavailable
			} else {
				backends["redis"] = "ok"
			}
		}

		body := fiber.Map{"status": "OK"}
		if status != http.StatusOK {
			body["status"] = "DEGRADED"
		}
		if len(backends) > 0 {
			body["backends"] = backends
		}
		return c.Status(status).JSON(body)
	})
}
