// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/mia-platform/devlog/internal/info"
	"github.com/mia-platform/devlog/internal/logger"
	"github.com/mia-platform/devlog/internal/pretty"
	"github.com/mia-platform/devlog/internal/record"
	"github.com/mia-platform/devlog/internal/sink"
	"github.com/mia-platform/devlog/internal/style"
)

const (
	loggerName = "devlog:server"

	// LogsPath receives one record or an array of records.
	LogsPath = "/logs"
)

var (
	ErrServerListen   = errors.New("server listen error")
	ErrServerShutdown = errors.New("server shutdown error")
)

// Server is the ingest HTTP server.
type Server struct {
	config

	app  *fiber.App
	sink sink.Sink
}

// NewServer configures a Server from the environment; every received record
// is written to recordSink.
func NewServer(ctx context.Context, recordSink sink.Sink) (*Server, error) {
	cfg, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		AppName:               info.AppName,
		DisableStartupMessage: cfg.DisableStartupMessage,
		BodyLimit:             cfg.BodyLimitBytes,
	})
	app.Use(logger.RequestMiddlewareLogger(logger.FromContext(ctx), []string{"/-/"}))

	srv := &Server{
		config: *cfg,
		app:    app,
		sink:   recordSink,
	}

	statusRoutes(app, info.AppName, info.Version)
	app.Post(LogsPath, srv.ingest)

	return srv, nil
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.HTTPHost, strconv.Itoa(s.HTTPPort))
}

func (s *Server) ingest(c *fiber.Ctx) error {
	records, err := record.ParseMany(c.Body())
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	for idx, rec := range records {
		if err := s.sink.Write(rec); err != nil {
			status := http.StatusInternalServerError
			if isRecordError(err) {
				status = http.StatusBadRequest
			}
			return errorResponse(c, status, fmt.Errorf("item %d: %w", idx, err))
		}
	}

	return c.SendStatus(http.StatusNoContent)
}

// isRecordError reports whether err is caused by the content of a record
// rather than by the output.
func isRecordError(err error) bool {
	return errors.Is(err, style.ErrUnknownLevel) ||
		errors.Is(err, pretty.ErrMissingFileName) ||
		errors.Is(err, pretty.ErrUnsupportedValue) ||
		errors.Is(err, pretty.ErrTooDeep)
}

func errorResponse(c *fiber.Ctx, status int, err error) error {
	logger.FromContext(c.UserContext()).WithName(loggerName).Warn("record rejected", "error", err.Error())
	return c.Status(status).JSON(fiber.Map{
		"statusCode": status,
		"error":      http.StatusText(status),
		"message":    err.Error(),
	})
}

func statusRoutes(app *fiber.App, serviceName, serviceVersion string) {
	status := fiber.Map{
		"status":  "OK",
		"name":    serviceName,
		"version": serviceVersion,
	}

	app.Get("/-/healthz", func(c *fiber.Ctx) error {
		return c.JSON(status)
	})
	app.Get("/-/ready", func(c *fiber.Ctx) error {
		return c.JSON(status)
	})
}

// Stop shuts the server down, waiting for in flight requests.
func (s *Server) Stop() error {
	if err := s.app.Shutdown(); err != nil {
		return fmt.Errorf("%w: %w", ErrServerShutdown, err)
	}
	return nil
}

// Run binds the configured address and serves until ctx is cancelled, then
// shuts the server down. A failure to bind is returned before serving starts.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrServerListen, err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.app.Listener(listener)
	}()

	select {
	case err := <-errChan:
		_ = listener.Close()
		return err
	case <-ctx.Done():
		stopErr := s.Stop()
		// the listener may not be registered by the server yet
		_ = listener.Close()
		if err := <-errChan; err != nil && !errors.Is(err, net.ErrClosed) {
			return err
		}
		return stopErr
	}
}
