package main

import (
	"github.com/mprata/pollclass/storage/database"
)

var migrateRunFunc = database.RunMigrationCommand // mockable

func (cli *commandLine) migrate(args []string) error {
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return migrateRunFunc(cli.db.DB, args[0], arguments...)
}
