// Package server exposes matching over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/spigell/grant-matcher/internal/app"
	"github.com/spigell/grant-matcher/internal/metrics"
)

const (
	DefaultAddr     = ":8080"
	shutdownTimeout = 10 * time.Second
)

// New builds the fiber application with all routes registered.
func New(svc *app.Service, m *metrics.Manager, log *zap.Logger) *fiber.App {
	if m == nil {
		m = metrics.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}

	f := fiber.New(fiber.Config{
		AppName:               "grant-matcher",
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          2 * time.Minute,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	f.Use(recover.New())
	f.Use(requestLogger(m, log))
	f.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	h := &handler{svc: svc, logger: log}

	f.Get("/healthz", h.health)
	f.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	api := f.Group("/api/v1")
	api.Get("/foundations", h.foundations)
	api.Post("/matches", h.match)
	api.Get("/applications", h.applications)
	api.Get("/applications/:id/matches", h.applicationMatches)

	return f
}

// Run serves until ctx is cancelled, then shuts down gracefully. A listener
// that cannot start is returned as an error.
func Run(ctx context.Context, f *fiber.App, addr string, log *zap.Logger) error {
	if addr == "" {
		addr = DefaultAddr
	}
	if log == nil {
		log = zap.NewNop()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", addr))
		errCh <- f.Listen(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listening on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
		log.Info("shutting down http server")
		if err := f.ShutdownWithTimeout(shutdownTimeout); err != nil {
			return err
		}
		return nil
	}
}

func requestLogger(m *metrics.Manager, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		started := time.Now()
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
		elapsed := time.Since(started)
		m.RecordHTTPRequest(route, c.Method(), status, elapsed)

		log.Debug("http request",
			zap.String("method", c.Method()),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", elapsed),
		)
		return err
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
