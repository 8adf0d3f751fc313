package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

// httpObserver lo implementa *metrics.Metrics.
type httpObserver interface {
	ObserveHTTP(method, route string, status int, elapsed time.Duration)
}

// MetricsMiddleware registra método, ruta (patrón, no la URL) y status de cada petición.
func MetricsMiddleware(obs httpObserver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		route := c.Route().Path
		if route == "" || route == "/" {
			route = "unmatched"
		}
		obs.ObserveHTTP(c.Method(), route, status, time.Since(start))
		return err
	}
}
