package main

import (
	"context"
	"fmt"

	"github.com/trezcool/shule/core/user"
)

// addUser creates an active user.User
func (cli *commandLine) addUser(nu user.NewUser) error {
	if err := nu.Validate(cli.validate); err != nil {
		return err
	}
	usr, err := cli.usrSvc.Create(context.Background(), nu)
	if err != nil {
		return err
	}
	fmt.Printf("user %q created with role %q\n", usr.Username, usr.Role)
	return nil
}
