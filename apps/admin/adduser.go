package main

import (
	"context"

	"github.com/coursehub/lms/core"
	"github.com/coursehub/lms/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(name, email, pwd string, isAdmin bool) error {
	usr := user.User{
		FullName: core.CleanString(name),
		Email:    email,
		Role:     user.RoleUser,
		IsActive: true,
	}
	if isAdmin {
		usr.Role = user.RoleAdmin
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	_, err := cli.usrSvc.Save(context.Background(), usr)
	return err
}
