package main

import (
	"database/sql"

	"github.com/trezcool/presence/storage/database"
)

var migrateFunc = database.Migrate // mockable

// migrator runs goose commands against db: COMMAND [ARGS].
func migrator(db *sql.DB) func(args []string) error {
	return func(args []string) error {
		return migrateFunc(db, args[0], args[1:]...)
	}
}
