package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/presence/core"
	"github.com/trezcool/presence/core/reconcile"
)

var errNoRunYet = echo.NewHTTPError(http.StatusNotFound, "no run yet")

type (
	serverOptions struct {
		Address        string
		DisableReqLogs bool
		Debug          bool
		Location       *time.Location
		Gatherer       prometheus.Gatherer
		Runner         *runner
		Logger         core.Logger
	}

	// server is the scheduler's operations endpoint: health, metrics & manual runs.
	server struct {
		opts *serverOptions
		app  *echo.Echo
	}

	runResponse struct {
		reconcile.Report
		Error string `json:"error,omitempty"`
	}
)

func newServer(opts *serverOptions) *server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.HideBanner = true
	s.app.Logger.SetLevel(log.INFO)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV mode
	if !s.opts.Debug {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newHTTPErrorHandler(s.opts.Logger)
	s.app.Debug = s.opts.Debug

	s.app.GET("/healthz", health)
	s.app.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})))
	s.app.GET("/runs/last", s.lastRun)
	s.app.POST("/runs", s.triggerRun)
}

// Start blocks until the server stops; it returns http.ErrServerClosed after Shutdown.
func (s *server) Start() error {
	return s.app.Start(s.opts.Address)
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func newRunResponse(rep reconcile.Report, err error) runResponse {
	resp := runResponse{Report: rep}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}

func (s *server) lastRun(ctx echo.Context) error {
	rep, err := s.opts.Runner.lastRun()
	if rep == nil {
		return errNoRunYet
	}
	return ctx.JSON(http.StatusOK, newRunResponse(*rep, err))
}

// triggerRun reconciles ?date=YYYY-MM-DD, today by default. Partial failures are reported with a 200.
func (s *server) triggerRun(ctx echo.Context) error {
	var date time.Time
	if value := ctx.QueryParam("date"); value != "" {
		var err error
		if date, err = core.ParseDate(value, s.opts.Location); err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "date", Error: "date must be YYYY-MM-DD"})
		}
	}

	rep, err := s.opts.Runner.runOnce(ctx.Request().Context(), date)
	if err != nil {
		if _, ok := core.AsBatchError(err); !ok {
			return err
		}
	}
	return ctx.JSON(http.StatusOK, newRunResponse(rep, err))
}
