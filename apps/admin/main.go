package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/user"
	"github.com/trezcool/academia/services/logger"
	"github.com/trezcool/academia/storage"
)

func main() {
	conf := core.Conf

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	ctx, cancel := context.WithTimeout(context.Background(), conf.Database.Timeout)
	stores, err := storage.Open(ctx, conf, false /* setUp */)
	cancel()
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{usrSvc: user.NewService(stores.Users, validate)}
	if stores.SQL != nil {
		cli.db = stores.SQL.DB
	}
	err = cli.run(os.Args)
	_ = stores.Close(context.Background())
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("\nerror: %s\n", err), err)
		}
		os.Exit(1)
	}
}
