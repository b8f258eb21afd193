package main

import (
	"database/sql"
	"log"
	"os"

	"github.com/trezcool/presence/apps/di"
	"github.com/trezcool/presence/core"
	"github.com/trezcool/presence/core/accounting"
	"github.com/trezcool/presence/core/period"
	logsvc "github.com/trezcool/presence/services/logger"
)

func main() {
	c := di.New("ADMIN")

	var code int
	err := c.Invoke(func(
		conf *core.Config,
		logger *logsvc.RollbarLogger,
		db *sql.DB,
		svc *accounting.Service,
		overrides *period.Service,
	) {
		defer logger.Close()
		defer func() { _ = db.Close() }()

		// start CLI
		cli := commandLine{
			migrate:   migrator(db),
			svc:       svc,
			overrides: overrides,
			loc:       conf.Location,
			out:       os.Stdout,
		}
		if err := cli.run(os.Args); err != nil {
			if err != errHelp {
				logger.Error("admin command failed", err)
			}
			code = 1
		}
	})
	if err != nil {
		log.Fatal(err)
	}
	os.Exit(code)
}
