package main

import (
	"context"

	"github.com/trezcool/academia/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(name, email, role, pwd string) error {
	_, err := cli.usrSvc.Upsert(context.Background(), user.NewUser{
		Name:     name,
		Email:    email,
		Password: pwd,
		Role:     role,
	})
	return err
}
