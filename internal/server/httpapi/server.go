// Package httpapi serves the Counter API over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/viewkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/viewkeeper/internal/common"
	"github.com/dmitrijs2005/viewkeeper/internal/logging"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	slogecho "github.com/samber/slog-echo"
)

// Counter is the store the API reads and bumps.
type Counter interface {
	Get(ctx context.Context, sel common.Selector) (int64, error)
	Increment(ctx context.Context, sel common.Selector) (int64, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger func(ctx context.Context) error

type Options struct {
	Address    string
	TitleTable string
	Metrics    bool
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	Ping       Pinger
}

type Server struct {
	address  string
	table    string
	counters Counter
	ping     Pinger
	logger   logging.Logger
	echo     *echo.Echo
}

func NewServer(opts Options, counters Counter, l *logging.SlogLogger) *Server {
	s := &Server{
		address:  opts.Address,
		table:    opts.TitleTable,
		counters: counters,
		ping:     opts.Ping,
		logger:   l.With("module", "http_server"),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(slogecho.New(l.Slog()))
	e.Use(middleware.Recover())
	e.Use(corsHeaders)
	e.HTTPErrorHandler = s.errorHandler

	if opts.Metrics {
		reg, gat := opts.Registerer, opts.Gatherer
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		if gat == nil {
			gat = prometheus.DefaultGatherer
		}
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Subsystem:  "viewkeeper",
			Registerer: reg,
		}))
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gat, promhttp.HandlerOpts{})))
	}

	e.GET("/_health", s.handleHealthCheck)
	e.Any("/api/views", s.handleViews)
	e.Any("/views", s.handleViews)

	s.echo = e
	return s
}

// Handler exposes the routed echo instance, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown error", "err", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := s.echo.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type HealthStatus struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Message string `json:"msg,omitempty"`
}

func (s *Server) handleHealthCheck(c echo.Context) error {
	if s.ping != nil {
		if err := s.ping(c.Request().Context()); err != nil {
			s.logger.Error(c.Request().Context(), "healthcheck can't reach store", "err", err)
			return c.JSON(http.StatusInternalServerError, HealthStatus{Status: "error", Version: buildinfo.Version(), Message: "can't reach store"})
		}
	}
	return c.JSON(http.StatusOK, HealthStatus{Status: "ok", Version: buildinfo.Version()})
}

func (s *Server) errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := msgInternal
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	}
	if code >= 500 {
		s.logger.Warn(c.Request().Context(), "HTTP request error", "statusCode", code, "path", c.Path(), "err", err)
	}
	if c.Response().Committed {
		return
	}
	if err := c.JSON(code, errorBody{Error: msg}); err != nil {
		s.logger.Error(c.Request().Context(), "write error response", "err", err)
	}
}
