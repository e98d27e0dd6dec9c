package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/shule/apps/api/di"
	"github.com/trezcool/shule/core/user"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	var (
		cli commandLine
		db  *sqlx.DB
	)
	err := di.New(nil).Invoke(func(conn *sqlx.DB, validate *validator.Validate, usrSvc user.ServiceInterface) {
		db = conn
		cli = commandLine{usrSvc: usrSvc, validate: validate}
	})
	errAndDie(err)
	defer db.Close()

	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
