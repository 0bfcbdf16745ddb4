package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) enroll(email, courseID string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	status, err := cli.progressSvc.Enroll(ctx, usr.ID, courseID)
	if err != nil {
		return err
	}
	fmt.Printf("%s enrolled: %d/%d lectures watched, %s\n", usr.Email, status.LecturesWatched, status.LecturesTotal, status.State)
	return nil
}
