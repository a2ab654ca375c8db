// Package server provides the HTTP server and Echo setup for the Slack
// backend.
package server

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/slack-go/slack"
)

// Server is the HTTP server (Echo) with request verification and registered
// handlers.
type Server struct {
	echo   *echo.Echo
	addr   string
	logger *slog.Logger
}

// Handler registers routes on the Echo instance.
type Handler interface {
	Register(e *echo.Echo)
}

// NewServer builds the Echo server with recovery, request logging, Slack
// request-signature verification on /slack routes, and the given handlers.
// Verification is skipped when signingSecret is empty.
func NewServer(log *slog.Logger, addr, signingSecret string,
	handlers ...Handler,
) *Server {
	if log == nil {
		log = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", c.RealIP()),
			)
			return nil
		},
	}))
	if signingSecret != "" {
		e.Use(SlackSignatureMiddleware(signingSecret))
	}

	for _, h := range handlers {
		if h != nil {
			h.Register(e)
		}
	}

	return &Server{
		echo:   e,
		addr:   addr,
		logger: log.With(slog.String("component", "server")),
	}
}

// SlackSignatureMiddleware verifies the Slack request signature on /slack
// routes. The body is buffered and restored so handlers can re-read it.
func SlackSignatureMiddleware(signingSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !strings.HasPrefix(req.URL.Path, "/slack/") {
				return next(c)
			}

			body, err := io.ReadAll(req.Body)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "read body")
			}
			req.Body = io.NopCloser(bytes.NewReader(body))

			verifier, err := slack.NewSecretsVerifier(req.Header, signingSecret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing signature headers")
			}
			if _, err := verifier.Write(body); err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "verify signature")
			}
			if err := verifier.Ensure(); err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid signature")
			}
			return next(c)
		}
	}
}

// Start starts the HTTP server (blocks until shutdown).
func (s *Server) Start() error {
	return s.echo.Start(s.addr)
}

// Stop gracefully shuts down the server using the given context.
func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
