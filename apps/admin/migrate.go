package main

import (
	"database/sql"

	"github.com/trezcool/goose"

	"github.com/trezcool/workbook/fs"
	"github.com/trezcool/workbook/storage/database"
)

// mockable
var gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
	return goose.RunFS(command, db, appfs.FS, dir, args...)
}

func (cli *commandLine) migrate(args []string) error {
	if err := database.SetDialect(cli.db); err != nil {
		return err
	}
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], cli.db.DB, database.MigrationsDir(cli.db.DriverName()), arguments...)
}
