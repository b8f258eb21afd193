// Package di wires the engine's dependencies for the binaries.
package di

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/dig"

	"github.com/trezcool/presence/core"
	"github.com/trezcool/presence/core/academic"
	"github.com/trezcool/presence/core/accounting"
	"github.com/trezcool/presence/core/activity"
	"github.com/trezcool/presence/core/attendance"
	"github.com/trezcool/presence/core/daystatus"
	"github.com/trezcool/presence/core/period"
	"github.com/trezcool/presence/core/reconcile"
	"github.com/trezcool/presence/core/report"
	logsvc "github.com/trezcool/presence/services/logger"
	metricsvc "github.com/trezcool/presence/services/metrics"
	"github.com/trezcool/presence/storage/database"
	sqlxrepos "github.com/trezcool/presence/storage/database/sqlx"
	boiledrepos "github.com/trezcool/presence/storage/database/sqlboiler"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type appName string

func newLogger(name appName, conf *core.Config) (core.Logger, *logsvc.RollbarLogger) {
	stdLogger := log.New(os.Stdout, string(name)+" : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	return logger, logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sql.DB, core.DB, *sqlx.DB) {
	ctx := context.Background()
	setUp := func() (*sql.DB, error) {
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, err
		}
		db, err := database.Open(ctx, conf)
		if err != nil {
			return nil, err
		}
		if err = database.Migrate(db, "up"); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db, database.X(db)
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	attendance.InitValidators(validate, translator)
	period.InitValidators(validate, translator)
	return validate
}

func newRegistry() (*prometheus.Registry, prometheus.Registerer, prometheus.Gatherer) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg, reg, reg
}

func newRecorder(reg prometheus.Registerer) reconcile.Recorder {
	return metricsvc.NewRecorder(reg)
}

func newPeriodResolver(store period.OverrideStore, conf *core.Config, logger core.Logger) (*period.Resolver, daystatus.PeriodResolver) {
	r := period.NewResolver(store, conf, logger)
	return r, r
}

// New returns a new dependency injection dig.Container for the named binary.
func New(name string) *dig.Container {
	c := dig.New()

	must(c.Provide(func() appName { return appName(name) }))
	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(newRegistry))
	must(c.Provide(newRecorder))

	// storage
	must(c.Provide(sqlxrepos.NewLedgerRepository))
	must(c.Provide(sqlxrepos.NewRosterRepository, dig.As(new(academic.Roster))))
	must(c.Provide(func(db core.DB, conf *core.Config) academic.Calendar {
		return boiledrepos.NewCalendarRepository(db, conf)
	}))
	must(c.Provide(func(db core.DB) academic.Schedule { return boiledrepos.NewScheduleRepository(db) }))
	must(c.Provide(boiledrepos.NewOverrideRepository, dig.As(new(period.OverrideStore))))

	// engine
	must(c.Provide(newPeriodResolver))
	must(c.Provide(period.NewService))
	must(c.Provide(activity.NewLedgerDetector, dig.As(new(activity.Detector))))
	must(c.Provide(daystatus.NewClassifier))
	must(c.Provide(report.NewAggregator))
	must(c.Provide(reconcile.NewAutoAbsent))
	must(c.Provide(reconcile.NewCascade))
	must(c.Provide(accounting.NewService))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
