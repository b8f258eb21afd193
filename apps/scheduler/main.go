package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/trezcool/presence/apps/di"
	"github.com/trezcool/presence/core"
	"github.com/trezcool/presence/core/accounting"
	logsvc "github.com/trezcool/presence/services/logger"
)

func main() {
	c := di.New("SCHEDULER")

	err := c.Invoke(func(
		conf *core.Config,
		logger *logsvc.RollbarLogger,
		db *sql.DB,
		svc *accounting.Service,
		gatherer prometheus.Gatherer,
	) {
		defer logger.Close()
		defer func() {
			if err := db.Close(); err != nil {
				logger.Error("failed to close database", err)
			}
		}()
		defer logger.Info("scheduler stopped")

		logger.Info(fmt.Sprintf("scheduler initializing : version %q", conf.Build))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// =========================================================================
		// Start Auto-Absent Runner

		r := newRunner(svc, conf.Attendance.ReconcileInterval, logger)
		runnerDone := make(chan struct{})
		go func() {
			defer close(runnerDone)
			r.start(ctx)
		}()

		// =========================================================================
		// Start Debug Service

		srv := newServer(&serverOptions{
			Address:  conf.Server.DebugHost,
			Debug:    conf.Debug,
			Location: conf.Location,
			Gatherer: gatherer,
			Runner:   r,
			Logger:   logger,
		})
		serverErrors := make(chan error, 1)
		go func() {
			if err := srv.Start(); err != nil && err != http.ErrServerClosed {
				serverErrors <- err
			}
		}()

		// =========================================================================
		// Shutdown

		select {
		case err := <-serverErrors:
			logger.Error(fmt.Sprintf("debug server error: %v", err), err)
			stop()
		case <-ctx.Done():
			logger.Info("Start shutdown...")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
			if err = srv.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
		<-runnerDone
	})
	if err != nil {
		log.Fatal(err)
	}
}
