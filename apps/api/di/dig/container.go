package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/coursehub/lms/apps/api/echo"
	"github.com/coursehub/lms/core"
	"github.com/coursehub/lms/core/certificate"
	"github.com/coursehub/lms/core/course"
	"github.com/coursehub/lms/core/progress"
	"github.com/coursehub/lms/core/user"
	emailsvc "github.com/coursehub/lms/services/email"
	logsvc "github.com/coursehub/lms/services/logger"
	mediasvc "github.com/coursehub/lms/services/media"
	videosvc "github.com/coursehub/lms/services/video"
	"github.com/coursehub/lms/storage/database"
	inmemdb "github.com/coursehub/lms/storage/database/inmem"
	sqlxrepos "github.com/coursehub/lms/storage/database/sqlx"
)

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// DBCloser releases the database connections.
	DBCloser func() error

	Repositories struct {
		dig.Out
		Users        user.Repository
		Courses      course.Repository
		Progress     progress.Repository
		Records      progress.RecordRepository
		Certificates certificate.Repository
		Close        DBCloser
	}

	ServerParams struct {
		dig.In
		Conf           *core.Config
		Logger         core.Logger
		Validate       *validator.Validate
		Translator     ut.Translator
		UserSvc        *user.Service
		CourseSvc      *course.Service
		ProgressSvc    *progress.Service
		CertificateSvc *certificate.Service
	}
)

func newRollbarLogger(conf *core.Config) *logsvc.RollbarLogger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newLogger(logger *logsvc.RollbarLogger) core.Logger {
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	setUp := func(ctx context.Context) (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, err
		}

		db, err := database.Open(ctx, conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(ctx, db.DB, "up"); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp(context.Background())
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newRepositories(conf *core.Config, loggerParam DBLoggerParam) Repositories {
	if conf.Database.Engine == "memory" {
		loggerParam.Logger.Info("using the in-memory database: data is lost on shutdown")
		db := inmemdb.Open()
		return Repositories{
			Users:        inmemdb.NewUserRepository(db),
			Courses:      inmemdb.NewCourseRepository(db),
			Progress:     inmemdb.NewProgressRepository(db),
			Records:      inmemdb.NewRecordRepository(db),
			Certificates: inmemdb.NewCertificateRepository(db),
			Close:        func() error { return nil },
		}
	}

	db := newDB(conf, loggerParam)
	return Repositories{
		Users:        sqlxrepos.NewUserRepository(db),
		Courses:      sqlxrepos.NewCourseRepository(db),
		Progress:     sqlxrepos.NewProgressRepository(db),
		Records:      sqlxrepos.NewRecordRepository(db),
		Certificates: sqlxrepos.NewCertificateRepository(db),
		Close:        db.Close,
	}
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(os.Stdout, logger, conf)
	}
	return emailsvc.NewSendgridService(logger, conf)
}

func newValidator() *validator.Validate {
	return validator.New()
}

func newMediaStore(conf *core.Config) (core.MediaStore, error) {
	if conf.Media.Driver == "cloudinary" {
		return mediasvc.NewCloudinaryStore(conf)
	}
	return mediasvc.NewLocalStore(conf), nil
}

func newVideoLookup(conf *core.Config) (core.VideoDurationLookup, error) {
	return videosvc.NewLookup(context.Background(), conf)
}

func newMirror(m *progress.QueuedMirror) progress.Mirror {
	return m
}

func newProgressService(
	repo progress.Repository,
	records progress.RecordRepository,
	courseSvc *course.Service,
	userSvc *user.Service,
	mirror progress.Mirror,
	conf *core.Config,
) *progress.Service {
	return progress.NewService(repo, records, courseSvc, userSvc, mirror, conf)
}

func newCertificateService(
	repo certificate.Repository,
	progressSvc *progress.Service,
	courseSvc *course.Service,
	userSvc *user.Service,
	mailSvc core.EmailService,
	logger core.Logger,
	conf *core.Config,
) *certificate.Service {
	return certificate.NewService(repo, progressSvc, courseSvc, userSvc, mailSvc, logger, conf)
}

func newServer(p ServerParams) echoapi.Server {
	return echoapi.NewServer(&echoapi.Options{
		Conf:           p.Conf,
		Logger:         p.Logger,
		Validate:       p.Validate,
		Translator:     p.Translator,
		UserSvc:        p.UserSvc,
		CourseSvc:      p.CourseSvc,
		ProgressSvc:    p.ProgressSvc,
		CertificateSvc: p.CertificateSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newRollbarLogger))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newRepositories))
	must(c.Provide(newEmailService))
	must(c.Provide(newMediaStore))
	must(c.Provide(newVideoLookup))
	must(c.Provide(newValidator))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(user.NewService))
	must(c.Provide(course.NewService))
	must(c.Provide(progress.NewQueuedMirror))
	must(c.Provide(newMirror))
	must(c.Provide(newProgressService))
	must(c.Provide(newCertificateService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
