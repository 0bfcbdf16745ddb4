package certificate

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursehub/lms/core"
	"github.com/coursehub/lms/core/course"
	"github.com/coursehub/lms/core/progress"
	"github.com/coursehub/lms/core/user"
)

type (
	certRepo struct {
		mu    sync.Mutex
		certs []Certificate
	}

	progressReader map[string]progress.Status // {userID/courseID: status}
	courseReader   map[string]course.Course
	userReader     map[string]user.User

	mailer struct {
		sent []*core.EmailMessage
	}

	nopLogger struct{}
)

func (r *certRepo) CreateCertificate(_ context.Context, cert Certificate) (Certificate, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.certs {
		if c.UserID == cert.UserID && c.CourseID == cert.CourseID {
			return c, false, nil
		}
	}
	cert.ID = uuid.NewString()
	r.certs = append(r.certs, cert)
	return cert, true, nil
}

func (r *certRepo) GetCertificate(_ context.Context, id string) (Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.certs {
		if c.ID == id {
			return c, nil
		}
	}
	return Certificate{}, ErrNotFound
}

func (r *certRepo) QueryCertificatesByUser(_ context.Context, userID string) ([]Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []Certificate
	for _, c := range r.certs {
		if c.UserID == userID {
			res = append(res, c)
		}
	}
	return res, nil
}

func (pr progressReader) GetProgress(_ context.Context, userID, courseID string) (progress.Status, error) {
	if st, ok := pr[userID+"/"+courseID]; ok {
		return st, nil
	}
	return progress.Status{}, progress.ErrNotEnrolled
}

func (cr courseReader) Get(_ context.Context, id string) (course.Course, error) {
	if c, ok := cr[id]; ok {
		return c, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (ur userReader) GetByID(_ context.Context, id string) (user.User, error) {
	if u, ok := ur[id]; ok {
		return u, nil
	}
	return user.User{}, user.ErrNotFound
}

func (m *mailer) SendMessages(messages ...*core.EmailMessage) { m.sent = append(m.sent, messages...) }

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func setup() (*Service, *certRepo, *mailer) {
	repo := new(certRepo)
	mailSvc := new(mailer)
	statuses := progressReader{
		"grace/go101": {Progress: progress.Progress{UserID: "grace", CourseID: "go101", IsCompleted: true}},
		"alan/go101":  {Progress: progress.Progress{UserID: "alan", CourseID: "go101"}},
	}
	courses := courseReader{"go101": {ID: "go101", Title: "Go 101", CreatedBy: "Rob Pike"}}
	users := userReader{
		"grace": {ID: "grace", FullName: "Grace Hopper", Email: "grace@navy.mil"},
		"alan":  {ID: "alan", FullName: "Alan Turing", Email: "alan@bletchley.uk"},
	}
	svc := NewService(repo, statuses, courses, users, mailSvc, nopLogger{}, core.NewTestConfig())
	return svc, repo, mailSvc
}

func TestService_IssueIfEligible(t *testing.T) {
	now := time.Date(2026, time.May, 4, 9, 30, 0, 0, time.UTC)
	NowFunc = func() time.Time { return now }
	defer func() { NowFunc = time.Now }()

	t.Run("not completed", func(t *testing.T) {
		svc, repo, mailSvc := setup()
		_, err := svc.IssueIfEligible(context.Background(), "alan", "go101")
		assert.Equal(t, ErrNotCompleted, err)
		assert.Empty(t, repo.certs)
		assert.Empty(t, mailSvc.sent)
	})

	t.Run("not enrolled", func(t *testing.T) {
		svc, repo, _ := setup()
		_, err := svc.IssueIfEligible(context.Background(), "grace", "rust101")
		assert.Equal(t, ErrNotCompleted, err)
		assert.Equal(t, core.KindNotCompleted, core.KindOf(err))
		assert.Empty(t, repo.certs)
	})

	t.Run("issued once", func(t *testing.T) {
		svc, repo, mailSvc := setup()
		ctx := context.Background()

		first, err := svc.IssueIfEligible(ctx, "grace", "go101")
		require.NoError(t, err)
		assert.Equal(t, now, first.Certificate.DateIssued)
		assert.Equal(t, "Grace Hopper", first.User.FullName)
		assert.Equal(t, "Go 101", first.Course.Title)
		assert.NotEmpty(t, first.Certificate.Code)

		NowFunc = func() time.Time { return now.Add(48 * time.Hour) }
		second, err := svc.IssueIfEligible(ctx, "grace", "go101")
		require.NoError(t, err)
		assert.Equal(t, first.Certificate, second.Certificate)
		assert.Len(t, repo.certs, 1)

		require.Len(t, mailSvc.sent, 1)
		msg := mailSvc.sent[0]
		assert.Equal(t, "grace@navy.mil", msg.To[0].Address)
		assert.Equal(t, "certificate_issued", msg.TemplateName)
		require.True(t, msg.HasAttachments())
		assert.Equal(t, "application/pdf", msg.Attachments[0].ContentType)
		assert.Equal(t, "Certificate_Grace_Hopper_Go_101.pdf", msg.Attachments[0].Filename)
	})
}

func TestService_Verify(t *testing.T) {
	svc, _, _ := setup()
	ctx := context.Background()

	iss, err := svc.IssueIfEligible(ctx, "grace", "go101")
	require.NoError(t, err)

	got, err := svc.Verify(ctx, iss.Certificate.Code)
	require.NoError(t, err)
	assert.Equal(t, Verification{
		Valid:       true,
		Recipient:   "Grace Hopper",
		CourseTitle: "Go 101",
		DateIssued:  iss.Certificate.DateIssued,
	}, got)

	unknown := makeCode(Certificate{ID: uuid.NewString(), UserID: "grace", CourseID: "go101"}, svc.secret)
	for _, code := range []string{"", "garbage", iss.Certificate.Code + "x", unknown} {
		_, err = svc.Verify(ctx, code)
		assert.Equal(t, ErrInvalidCode, err, code)
	}
}

func TestService_ListForUser(t *testing.T) {
	svc, _, _ := setup()
	ctx := context.Background()

	certs, err := svc.ListForUser(ctx, "grace")
	require.NoError(t, err)
	assert.Empty(t, certs)

	iss, err := svc.IssueIfEligible(ctx, "grace", "go101")
	require.NoError(t, err)

	certs, err = svc.ListForUser(ctx, "grace")
	require.NoError(t, err)
	require.Len(t, certs, 1)
	assert.Equal(t, iss.Certificate, certs[0])
}

func TestRender(t *testing.T) {
	iss := Issued{
		Certificate: Certificate{ID: "c1", DateIssued: time.Date(2026, time.May, 4, 0, 0, 0, 0, time.UTC), Code: "YzE.abc"},
		User:        user.User{FullName: "Ada Lovelace"},
		Course:      course.Course{Title: "Analytical Engines: théorie & pratique", CreatedBy: "Charles Babbage"},
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, iss))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Equal(t, "Certificate_Ada_Lovelace_Analytical_Engines_th_orie_pratique.pdf", FileName(iss))
}
