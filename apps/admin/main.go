package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/user"
	"github.com/trezcool/academia/storage/database"
	sqlxrepos "github.com/trezcool/academia/storage/database/sqlx"
)

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	conf := core.NewConfig()
	if conf.Database.InMemory() {
		logger.Fatal("the admin CLI needs a postgres database")
	}

	// set up DB
	ctx := context.Background()
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		logger.WithError(err).Fatal("creating database")
	}
	db, err := database.Open(ctx, conf)
	if err != nil {
		logger.WithError(err).Fatal("opening database")
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		db:       db,
		usrSvc:   user.NewService(sqlxrepos.NewUserRepository(db), conf),
		validate: validate,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			if verrs, ok := err.(validator.ValidationErrors); ok {
				for fld, msg := range core.TranslateValidationErrors(verrs, translator) {
					fmt.Printf("%s: %s\n", fld, msg)
				}
			}
			logger.WithError(err).Error("command failed")
		}
		os.Exit(1)
	}
}
