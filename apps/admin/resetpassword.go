package main

import (
	"context"
	"fmt"

	"github.com/trezcool/shule/core/user"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	rp := user.ResetPassword{Username: uname, Password: pwd, PasswordConfirm: pwd}
	if err := rp.Validate(cli.validate); err != nil {
		return err
	}
	usr, err := cli.usrSvc.ResetPassword(context.Background(), rp)
	if err != nil {
		return err
	}
	fmt.Printf("password of %q reset\n", usr.Username)
	return nil
}
