package main

import "context"

func (cli *commandLine) resetPassword(email, pwd string) error {
	return cli.usrSvc.SetPassword(context.Background(), email, pwd)
}
