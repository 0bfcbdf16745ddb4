package main

import (
	"context"
	"log"
	"os"

	"github.com/coursehub/lms/core"
	"github.com/coursehub/lms/core/course"
	"github.com/coursehub/lms/core/progress"
	"github.com/coursehub/lms/core/user"
	emailsvc "github.com/coursehub/lms/services/email"
	logsvc "github.com/coursehub/lms/services/logger"
	mediasvc "github.com/coursehub/lms/services/media"
	"github.com/coursehub/lms/storage/database"
	sqlxrepos "github.com/coursehub/lms/storage/database/sqlx"
)

var logger core.Logger

func main() {
	conf := core.NewConfig()

	rollbarLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger = rollbarLogger

	// set up DB
	db, err := database.Open(context.Background(), conf)
	errAndDie(err)

	// the video lookup is never used by the admin commands
	courseSvc := course.NewService(sqlxrepos.NewCourseRepository(db), mediasvc.NewLocalStore(conf), nil, logger)
	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), emailsvc.NewConsoleService(os.Stdout, logger, conf))
	records := sqlxrepos.NewRecordRepository(db)
	progressSvc := progress.NewService(
		sqlxrepos.NewProgressRepository(db),
		records,
		courseSvc,
		usrSvc,
		progress.NewSyncMirror(records, logger),
		conf,
	)

	// start CLI
	cli := commandLine{
		db:          db.DB,
		usrSvc:      usrSvc,
		progressSvc: progressSvc,
	}
	err = cli.run(os.Args)

	_ = db.Close()
	rollbarLogger.Close()

	if err != nil {
		if err != errHelp {
			logger.Error("command failed: "+err.Error(), err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
