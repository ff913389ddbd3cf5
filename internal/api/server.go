// Package api wires the identity switcher HTTP surface.
package api

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/fluxbase-eu/identityswitcher/internal/config"
	"github.com/fluxbase-eu/identityswitcher/internal/observability"
	"github.com/fluxbase-eu/identityswitcher/internal/session"
	"github.com/fluxbase-eu/identityswitcher/internal/switcher"
)

// Server is the HTTP server hosting the identity switcher endpoints.
type Server struct {
	app     *fiber.App
	address string
}

// NewServer assembles the fiber application: middleware, health and
// metrics endpoints, and the tenant-scoped identity routes.
func NewServer(cfg *config.Config, svc *switcher.Service, sessions *session.Service, metrics *observability.Metrics) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "identityswitcher",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	})

	app.Use(requestLogger(metrics))

	app.Get("/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	settings := switcher.Settings{
		SortBy:      switcher.ParseSortOrder(cfg.Switcher.SortBy),
		IncludeHost: cfg.Switcher.IncludeHost,
	}
	handler := NewIdentityHandler(svc, settings, cfg.Switcher.LogoffURL,
		cfg.Server.SecureCookies, cfg.Auth.SessionTTL)
	handler.SetMetrics(metrics)

	RegisterRoutes(app, handler, sessions)

	return &Server{app: app, address: cfg.Server.Address}
}

// RegisterRoutes mounts the identity endpoints under the tenant group.
// The legacy route names of the original module are kept as aliases.
func RegisterRoutes(app *fiber.App, handler *IdentityHandler, sessions *session.Service) {
	tenant := app.Group("/api/v1/tenants/:tenantID", RequireAdmin(sessions))

	tenant.Get("/identity/search-items", handler.GetSearchItems)
	tenant.Get("/identity/users", handler.GetUsers)
	tenant.Post("/identity/switch", SwitchRateLimiter(30, time.Minute), handler.SwitchUser)

	// Aliases matching the original module's endpoint names.
	tenant.Get("/GetSearchItems", handler.GetSearchItems)
	tenant.Get("/GetUsers", handler.GetUsers)
	tenant.Post("/SwitchUser", SwitchRateLimiter(30, time.Minute), handler.SwitchUser)
}

// requestLogger logs each request and records request metrics.
func requestLogger(metrics *observability.Metrics) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				status = fiberErr.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		duration := time.Since(start)

		if metrics != nil {
			metrics.ObserveRequest(c.Method(), c.Path(), status, duration)
		}
		log.Info().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration", duration).
			Str("ip", c.IP()).
			Msg("Request handled")
		return err
	}
}

// Listen starts serving. Blocks until Shutdown or a listener error.
func (s *Server) Listen() error {
	log.Info().Str("address", s.address).Msg("HTTP server listening")
	return s.app.Listen(s.address)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber application for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
