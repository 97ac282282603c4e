package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/user"
)

// addUser creates a user.User with any role, admins included.
func (cli *commandLine) addUser(uname, email, pwd string, role user.Role) error {
	ctx := context.Background()
	nu := user.NewUser{
		Username: uname,
		Email:    email,
		Password: pwd,
		Role:     role,
	}
	if err := nu.Validate(ctx, cli.validate, cli.usrSvc); err != nil {
		return err
	}
	usr, err := cli.usrSvc.Create(ctx, nu)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	fmt.Printf("user %d created (%s, %s)\n", usr.ID, usr.Email, usr.Role)
	return nil
}
