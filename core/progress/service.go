package progress

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/coursehub/lms/core"
	"github.com/coursehub/lms/core/course"
	"github.com/coursehub/lms/core/user"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotEnrolled     = core.NewError(core.KindNotEnrolled, "you are not enrolled in this course")
	ErrAnswersRequired = core.NewValidationError(
		errors.New("answers are required"),
		core.FieldError{Field: "answers", Error: "this field is required"},
	)
)

type (
	// Repository stores Progress. Every mutation is a single atomic update of one
	// (user, course) document: concurrent mutations never lose each other's writes.
	Repository interface {
		// CreateProgress creates p unless it exists; it returns the stored Progress and whether it was created.
		CreateProgress(ctx context.Context, p Progress) (Progress, bool, error)
		// GetProgress returns ErrNotEnrolled if the user is not enrolled in the course.
		GetProgress(ctx context.Context, userID, courseID string) (Progress, error)
		// AddCompletedLecture inserts lectureID in the completed set unless already there.
		AddCompletedLecture(ctx context.Context, userID, courseID, lectureID string, at time.Time) (Progress, error)
		// AppendQuizScore appends s to the quiz scores.
		AppendQuizScore(ctx context.Context, userID, courseID string, s QuizScore) (Progress, error)
		// MarkCompleted sets IsCompleted.
		MarkCompleted(ctx context.Context, userID, courseID string, at time.Time) (Progress, error)
		QueryProgressByCourse(ctx context.Context, courseID string) ([]Progress, error)
		QueryProgressByUser(ctx context.Context, userID string) ([]Progress, error)
	}

	// RecordRepository stores the reporting Records.
	RecordRepository interface {
		// UpsertRecord creates r, or overwrites the existing record of (r.StudentID, r.CourseID)
		// only if r.Supersedes it.
		UpsertRecord(ctx context.Context, r Record) error
		// QueryRecordsByCourse returns the records of a course, most recently updated first.
		QueryRecordsByCourse(ctx context.Context, courseID string) ([]Record, error)
	}

	CourseReader interface {
		Get(ctx context.Context, id string) (course.Course, error)
	}

	UserReader interface {
		QueryByIDs(ctx context.Context, ids []string) ([]user.User, error)
	}

	Service struct {
		repo          Repository
		records       RecordRepository
		courses       CourseReader
		users         UserReader
		mirror        Mirror
		passThreshold float64
	}
)

func NewService(
	repo Repository,
	records RecordRepository,
	courses CourseReader,
	users UserReader,
	mirror Mirror,
	conf *core.Config,
) *Service {
	return &Service{
		repo:          repo,
		records:       records,
		courses:       courses,
		users:         users,
		mirror:        mirror,
		passThreshold: conf.Course.PassThreshold,
	}
}

// Enroll enrolls a user in a course. Enrolling twice is a no-op.
func (svc *Service) Enroll(ctx context.Context, userID, courseID string) (Status, error) {
	c, err := svc.courses.Get(ctx, courseID)
	if err != nil {
		return Status{}, errors.Wrap(err, "getting course")
	}

	now := NowFunc().UTC()
	p, _, err := svc.repo.CreateProgress(ctx, Progress{
		UserID:            userID,
		CourseID:          courseID,
		LecturesCompleted: []string{},
		QuizScores:        []QuizScore{},
		EnrolledAt:        now,
		UpdatedAt:         now,
	})
	if err != nil {
		return Status{}, errors.Wrap(err, "creating progress")
	}
	return statusOf(p, c), nil
}

// GetProgress returns the user's progress in a course.
// Progress that became eligible after the course changed (eg. its last unwatched lecture was deleted)
// is completed here.
func (svc *Service) GetProgress(ctx context.Context, userID, courseID string) (Status, error) {
	c, err := svc.courses.Get(ctx, courseID)
	if err != nil {
		return Status{}, errors.Wrap(err, "getting course")
	}
	p, err := svc.repo.GetProgress(ctx, userID, courseID)
	if err != nil {
		return Status{}, errors.Wrap(err, "getting progress")
	}
	if !p.IsCompleted && eligible(p, c, svc.passThreshold) {
		if p, err = svc.complete(ctx, p, c); err != nil {
			return Status{}, err
		}
		svc.syncProgressRecord(ctx, p)
	}
	return statusOf(p, c), nil
}

// IsEnrolled reports whether the user is enrolled in the course.
func (svc *Service) IsEnrolled(ctx context.Context, userID, courseID string) (bool, error) {
	_, err := svc.repo.GetProgress(ctx, userID, courseID)
	switch {
	case err == nil:
		return true, nil
	case errors.Cause(err) == ErrNotEnrolled:
		return false, nil
	default:
		return false, errors.Wrap(err, "getting progress")
	}
}

// Enrollments returns the progress of a user in every course they are enrolled in.
func (svc *Service) Enrollments(ctx context.Context, userID string) ([]Status, error) {
	progresses, err := svc.repo.QueryProgressByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying progress")
	}

	res := make([]Status, 0, len(progresses))
	for _, p := range progresses {
		c, err := svc.courses.Get(ctx, p.CourseID)
		if err != nil {
			if core.KindOf(err) == core.KindNotFound {
				continue
			}
			return nil, errors.Wrap(err, "getting course")
		}
		res = append(res, statusOf(p, c))
	}
	return res, nil
}

// MarkLectureComplete records that the user watched a lecture. Marking a lecture twice is a no-op.
// The course completes once every lecture is watched and, if the course has a quiz bank,
// a passing final assignment score was recorded.
func (svc *Service) MarkLectureComplete(ctx context.Context, userID, courseID, lectureID string) (Status, error) {
	c, err := svc.courses.Get(ctx, courseID)
	if err != nil {
		return Status{}, errors.Wrap(err, "getting course")
	}
	if _, err = svc.repo.GetProgress(ctx, userID, courseID); err != nil {
		return Status{}, errors.Wrap(err, "getting progress")
	}
	if !c.HasLecture(lectureID) {
		return Status{}, course.ErrLectureNotFound
	}

	p, err := svc.repo.AddCompletedLecture(ctx, userID, courseID, lectureID, NowFunc().UTC())
	if err != nil {
		return Status{}, errors.Wrap(err, "adding completed lecture")
	}
	if p, err = svc.complete(ctx, p, c); err != nil {
		return Status{}, err
	}

	svc.syncProgressRecord(ctx, p)
	return statusOf(p, c), nil
}

// SubmitFinalAssignment grades answers against the course's quiz bank and records the score.
// It is not idempotent: every submission appends a score.
func (svc *Service) SubmitFinalAssignment(ctx context.Context, userID, courseID string, answers []course.Answer) (Submission, error) {
	if len(answers) == 0 {
		return Submission{}, ErrAnswersRequired
	}

	c, err := svc.courses.Get(ctx, courseID)
	if err != nil {
		return Submission{}, errors.Wrap(err, "getting course")
	}
	p, err := svc.repo.GetProgress(ctx, userID, courseID)
	if err != nil {
		return Submission{}, errors.Wrap(err, "getting progress")
	}

	report := course.Score(c.Quizzes, answers)
	if report.NoQuestions {
		return Submission{ScoreReport: report, Status: statusOf(p, c), PassThreshold: svc.passThreshold}, nil
	}

	p, err = svc.recordQuizScore(ctx, userID, c, &report)
	if err != nil {
		return Submission{}, err
	}
	return Submission{ScoreReport: report, Status: statusOf(p, c), PassThreshold: svc.passThreshold}, nil
}

// RecordQuizScore appends the percentage of report to the user's quiz scores and decides Passed.
func (svc *Service) RecordQuizScore(ctx context.Context, userID, courseID string, report *course.ScoreReport) (Progress, error) {
	c, err := svc.courses.Get(ctx, courseID)
	if err != nil {
		return Progress{}, errors.Wrap(err, "getting course")
	}
	return svc.recordQuizScore(ctx, userID, c, report)
}

func (svc *Service) recordQuizScore(ctx context.Context, userID string, c course.Course, report *course.ScoreReport) (Progress, error) {
	report.Passed = !report.NoQuestions && report.Percentage >= svc.passThreshold

	p, err := svc.repo.AppendQuizScore(ctx, userID, c.ID, QuizScore{
		QuizID:  c.ID,
		Score:   report.Percentage,
		TakenAt: NowFunc().UTC(),
	})
	if err != nil {
		return Progress{}, errors.Wrap(err, "appending quiz score")
	}
	if p, err = svc.complete(ctx, p, c); err != nil {
		return Progress{}, err
	}

	svc.syncProgressRecord(ctx, p)
	return p, nil
}

// complete marks p completed if it became eligible.
func (svc *Service) complete(ctx context.Context, p Progress, c course.Course) (Progress, error) {
	if p.IsCompleted || !eligible(p, c, svc.passThreshold) {
		return p, nil
	}
	p, err := svc.repo.MarkCompleted(ctx, p.UserID, p.CourseID, NowFunc().UTC())
	return p, errors.Wrap(err, "marking progress completed")
}

// syncProgressRecord hands the reporting copy of p to the mirror. It never fails the caller.
func (svc *Service) syncProgressRecord(ctx context.Context, p Progress) {
	svc.mirror.Sync(ctx, recordOf(p))
}

func (svc *Service) students(ctx context.Context, ids []string) (map[string]Student, error) {
	users, err := svc.users.QueryByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	res := make(map[string]Student, len(users))
	for _, u := range users {
		res[u.ID] = Student{ID: u.ID, FullName: u.FullName, Email: u.Email}
	}
	return res, nil
}

// EnrolledStudents returns the users enrolled in a course along with their progress.
func (svc *Service) EnrolledStudents(ctx context.Context, courseID string) ([]EnrolledStudent, error) {
	c, err := svc.courses.Get(ctx, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "getting course")
	}
	progresses, err := svc.repo.QueryProgressByCourse(ctx, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying progress")
	}

	ids := make([]string, 0, len(progresses))
	for _, p := range progresses {
		ids = append(ids, p.UserID)
	}
	students, err := svc.students(ctx, ids)
	if err != nil {
		return nil, err
	}

	res := make([]EnrolledStudent, 0, len(progresses))
	for _, p := range progresses {
		p := p
		if st, ok := students[p.UserID]; ok {
			res = append(res, EnrolledStudent{Student: st, Progress: p, State: DeriveState(&p, c)})
		}
	}
	return res, nil
}

// MonitorCourse returns the reporting records of a course, most recently updated first.
func (svc *Service) MonitorCourse(ctx context.Context, courseID string) ([]MonitorEntry, error) {
	if _, err := svc.courses.Get(ctx, courseID); err != nil {
		return nil, errors.Wrap(err, "getting course")
	}
	records, err := svc.records.QueryRecordsByCourse(ctx, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying progress records")
	}

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.StudentID)
	}
	students, err := svc.students(ctx, ids)
	if err != nil {
		return nil, err
	}

	res := make([]MonitorEntry, 0, len(records))
	for _, r := range records {
		st, ok := students[r.StudentID]
		if !ok {
			st = Student{ID: r.StudentID}
		}
		res = append(res, MonitorEntry{Record: r, Student: st})
	}
	return res, nil
}
