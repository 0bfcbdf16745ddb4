package certificate

import (
	"bytes"
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/coursehub/lms/core"
	"github.com/coursehub/lms/core/course"
	"github.com/coursehub/lms/core/progress"
	"github.com/coursehub/lms/core/user"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound     = core.NewError(core.KindNotFound, "certificate not found")
	ErrNotCompleted = core.NewError(core.KindNotCompleted, "course not completed yet")
	ErrInvalidCode  = core.NewError(core.KindNotFound, "invalid certificate code")
)

type (
	Repository interface {
		// CreateCertificate creates cert unless one exists for (cert.UserID, cert.CourseID).
		// It returns the stored certificate and whether it was created.
		CreateCertificate(ctx context.Context, cert Certificate) (Certificate, bool, error)
		GetCertificate(ctx context.Context, id string) (Certificate, error)
		QueryCertificatesByUser(ctx context.Context, userID string) ([]Certificate, error)
	}

	ProgressReader interface {
		GetProgress(ctx context.Context, userID, courseID string) (progress.Status, error)
	}

	CourseReader interface {
		Get(ctx context.Context, id string) (course.Course, error)
	}

	UserReader interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	Service struct {
		repo     Repository
		progress ProgressReader
		courses  CourseReader
		users    UserReader
		mailSvc  core.EmailService
		logger   core.Logger
		secret   []byte
	}
)

func NewService(
	repo Repository,
	progress ProgressReader,
	courses CourseReader,
	users UserReader,
	mailSvc core.EmailService,
	logger core.Logger,
	conf *core.Config,
) *Service {
	return &Service{
		repo:     repo,
		progress: progress,
		courses:  courses,
		users:    users,
		mailSvc:  mailSvc,
		logger:   logger,
		secret:   []byte(conf.SecretKey),
	}
}

func (svc *Service) withCode(cert Certificate) Certificate {
	cert.Code = makeCode(cert, svc.secret)
	return cert
}

// IssueIfEligible returns the certificate of a user for a course, creating it on first call.
// It fails with ErrNotCompleted unless the user completed the course.
// On creation the certificate is emailed to the user.
func (svc *Service) IssueIfEligible(ctx context.Context, userID, courseID string) (Issued, error) {
	st, err := svc.progress.GetProgress(ctx, userID, courseID)
	if err != nil {
		if core.KindOf(err) == core.KindNotEnrolled {
			return Issued{}, ErrNotCompleted
		}
		return Issued{}, errors.Wrap(err, "getting progress")
	}
	if !st.Progress.IsCompleted {
		return Issued{}, ErrNotCompleted
	}

	cert, created, err := svc.repo.CreateCertificate(ctx, Certificate{
		UserID:     userID,
		CourseID:   courseID,
		DateIssued: NowFunc().UTC(),
	})
	if err != nil {
		return Issued{}, errors.Wrap(err, "creating certificate")
	}

	iss, err := svc.load(ctx, cert)
	if err != nil {
		return Issued{}, err
	}
	if created {
		svc.sendCertificate(iss)
	}
	return iss, nil
}

func (svc *Service) load(ctx context.Context, cert Certificate) (Issued, error) {
	usr, err := svc.users.GetByID(ctx, cert.UserID)
	if err != nil {
		return Issued{}, errors.Wrap(err, "getting user")
	}
	c, err := svc.courses.Get(ctx, cert.CourseID)
	if err != nil {
		return Issued{}, errors.Wrap(err, "getting course")
	}
	return Issued{Certificate: svc.withCode(cert), User: usr, Course: c}, nil
}

// sendCertificate emails the PDF to the recipient. Failures are logged only.
func (svc *Service) sendCertificate(iss Issued) {
	var buf bytes.Buffer
	if err := Render(&buf, iss); err != nil {
		svc.logger.Error(fmt.Sprintf("rendering certificate %s: %v", iss.Certificate.ID, err), err, iss.User)
		return
	}

	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: iss.User.FullName, Address: iss.User.Email}},
		Subject:      "Your certificate for " + iss.Course.Title,
		TemplateName: "certificate_issued",
		TemplateData: map[string]string{
			"FullName":    iss.User.FullName,
			"CourseTitle": iss.Course.Title,
			"Code":        iss.Certificate.Code,
		},
	}
	if err := msg.Attach(&buf, FileName(iss), "application/pdf"); err != nil {
		svc.logger.Error(fmt.Sprintf("attaching certificate %s: %v", iss.Certificate.ID, err), err, iss.User)
		return
	}
	svc.mailSvc.SendMessages(msg)
}

// ListForUser returns the certificates issued to a user.
func (svc *Service) ListForUser(ctx context.Context, userID string) ([]Certificate, error) {
	certs, err := svc.repo.QueryCertificatesByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying certificates")
	}
	for i := range certs {
		certs[i] = svc.withCode(certs[i])
	}
	return certs, nil
}

// Verify checks a verification code and returns what the certificate attests.
func (svc *Service) Verify(ctx context.Context, code string) (Verification, error) {
	id, err := parseCode(code)
	if err != nil {
		return Verification{}, ErrInvalidCode
	}
	cert, err := svc.repo.GetCertificate(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Verification{}, ErrInvalidCode
		}
		return Verification{}, errors.Wrap(err, "getting certificate")
	}
	if err = verifyCode(cert, code, svc.secret); err != nil {
		return Verification{}, ErrInvalidCode
	}

	iss, err := svc.load(ctx, cert)
	if err != nil {
		return Verification{}, err
	}
	return Verification{
		Valid:       true,
		Recipient:   iss.User.FullName,
		CourseTitle: iss.Course.Title,
		DateIssued:  cert.DateIssued,
	}, nil
}
