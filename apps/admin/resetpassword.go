package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/user"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	// the password policy applies as on registration
	nu := user.NewUser{Username: usr.Username, Email: usr.Email, Password: pwd, Role: usr.Role}
	if err = cli.validate.Struct(nu); err != nil {
		return err
	}
	if _, err = cli.usrSvc.SetPassword(ctx, usr, pwd); err != nil {
		return errors.Wrap(err, "setting password")
	}
	return nil
}
