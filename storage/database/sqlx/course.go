package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"

	"github.com/coursehub/lms/core"
	"github.com/coursehub/lms/core/course"
)

const (
	courseColumns  = `id, title, description, category, created_by, price, thumbnail_public_id, thumbnail_url, created_at, updated_at`
	lectureColumns = `id, course_id, title, description, media_kind, media_public_id, media_url, duration`
	quizColumns    = `id, course_id, question, options, correct_answer`
)

type (
	courseRow struct {
		ID                string      `db:"id"`
		Title             string      `db:"title"`
		Description       string      `db:"description"`
		Category          string      `db:"category"`
		CreatedBy         string      `db:"created_by"`
		Price             float64     `db:"price"`
		ThumbnailPublicID null.String `db:"thumbnail_public_id"`
		ThumbnailURL      null.String `db:"thumbnail_url"`
		CreatedAt         time.Time   `db:"created_at"`
		UpdatedAt         time.Time   `db:"updated_at"`
	}

	lectureRow struct {
		ID            string      `db:"id"`
		CourseID      string      `db:"course_id"`
		Title         string      `db:"title"`
		Description   string      `db:"description"`
		MediaKind     string      `db:"media_kind"`
		MediaPublicID null.String `db:"media_public_id"`
		MediaURL      string      `db:"media_url"`
		Duration      string      `db:"duration"`
	}

	quizRow struct {
		ID            string         `db:"id"`
		CourseID      string         `db:"course_id"`
		Question      string         `db:"question"`
		Options       pq.StringArray `db:"options"`
		CorrectAnswer string         `db:"correct_answer"`
	}
)

func (r courseRow) course() course.Course {
	c := course.Course{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		CreatedBy:   r.CreatedBy,
		Price:       r.Price,
		Lectures:    []course.Lecture{},
		Quizzes:     []course.QuizQuestion{},
		CreatedAt:   utc(r.CreatedAt),
		UpdatedAt:   utc(r.UpdatedAt),
	}
	if r.ThumbnailPublicID.Valid {
		c.Thumbnail = &core.UploadedFile{PublicID: r.ThumbnailPublicID.String, URL: r.ThumbnailURL.String}
	}
	return c
}

func (r lectureRow) lecture() course.Lecture {
	return course.Lecture{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Media: course.Media{
			Kind:     r.MediaKind,
			PublicID: r.MediaPublicID.String,
			URL:      r.MediaURL,
		},
		Duration: r.Duration,
	}
}

func (r quizRow) question() course.QuizQuestion {
	return course.QuizQuestion{
		ID:            r.ID,
		Question:      r.Question,
		Options:       []string(r.Options),
		CorrectAnswer: r.CorrectAnswer,
	}
}

func thumbnailCols(c course.Course) (null.String, null.String) {
	if c.Thumbnail == nil {
		return null.String{}, null.String{}
	}
	return null.StringFrom(c.Thumbnail.PublicID), null.StringFrom(c.Thumbnail.URL)
}

func mediaPublicID(m course.Media) null.String {
	return null.NewString(m.PublicID, m.IsUploaded())
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

func insertLecture(ctx context.Context, ex sqlx.ExecerContext, courseID string, l course.Lecture) (course.Lecture, error) {
	l.ID = uuid.NewString()
	_, err := ex.ExecContext(ctx,
		`INSERT INTO lectures (`+lectureColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		l.ID, courseID, l.Title, l.Description, l.Media.Kind, mediaPublicID(l.Media), l.Media.URL, l.Duration,
	)
	switch {
	case pqCode(err) == foreignKeyViolation:
		return course.Lecture{}, course.ErrNotFound
	case err != nil:
		return course.Lecture{}, storageErr(err, "inserting lecture")
	}
	return l, nil
}

func insertQuizQuestion(ctx context.Context, ex sqlx.ExecerContext, courseID string, q course.QuizQuestion) (course.QuizQuestion, error) {
	q.ID = uuid.NewString()
	_, err := ex.ExecContext(ctx,
		`INSERT INTO quiz_questions (`+quizColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		q.ID, courseID, q.Question, pq.Array(q.Options), q.CorrectAnswer,
	)
	switch {
	case pqCode(err) == foreignKeyViolation:
		return course.QuizQuestion{}, course.ErrNotFound
	case err != nil:
		return course.QuizQuestion{}, storageErr(err, "inserting quiz question")
	}
	return q, nil
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	c.ID = uuid.NewString()
	thumbID, thumbURL := thumbnailCols(c)

	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO courses (`+courseColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			c.ID, c.Title, c.Description, c.Category, c.CreatedBy, c.Price, thumbID, thumbURL, c.CreatedAt, c.UpdatedAt,
		)
		if err != nil {
			return storageErr(err, "inserting course")
		}
		for i, l := range c.Lectures {
			if c.Lectures[i], err = insertLecture(ctx, tx, c.ID, l); err != nil {
				return err
			}
		}
		for i, q := range c.Quizzes {
			if c.Quizzes[i], err = insertQuizQuestion(ctx, tx, c.ID, q); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return course.Course{}, err
	}
	return c, nil
}

// attach loads the lectures and quiz questions of courses.
func (repo *courseRepository) attach(ctx context.Context, courses []course.Course) error {
	if len(courses) == 0 {
		return nil
	}
	ids := make([]string, 0, len(courses))
	idx := make(map[string]int, len(courses))
	for i, c := range courses {
		ids = append(ids, c.ID)
		idx[c.ID] = i
	}

	var lectures []lectureRow
	err := repo.db.SelectContext(ctx, &lectures,
		`SELECT `+lectureColumns+` FROM lectures WHERE course_id = ANY($1::uuid[]) ORDER BY position`, pq.Array(ids))
	if err != nil {
		return storageErr(err, "selecting lectures")
	}
	for _, l := range lectures {
		c := &courses[idx[l.CourseID]]
		c.Lectures = append(c.Lectures, l.lecture())
	}

	var quizzes []quizRow
	err = repo.db.SelectContext(ctx, &quizzes,
		`SELECT `+quizColumns+` FROM quiz_questions WHERE course_id = ANY($1::uuid[]) ORDER BY position`, pq.Array(ids))
	if err != nil {
		return storageErr(err, "selecting quiz questions")
	}
	for _, q := range quizzes {
		c := &courses[idx[q.CourseID]]
		c.Quizzes = append(c.Quizzes, q.question())
	}
	return nil
}

func orderBy(ordering []core.DBOrdering) string {
	if len(ordering) == 0 {
		return "created_at DESC"
	}
	clauses := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		clauses = append(clauses, ord.String())
	}
	return strings.Join(append(clauses, "id"), ", ")
}

// QueryCourses expects ordering fields to be column names (see core.FilterOrderings).
func (repo *courseRepository) QueryCourses(ctx context.Context, ordering []core.DBOrdering) ([]course.Course, error) {
	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT `+courseColumns+` FROM courses ORDER BY `+orderBy(ordering)); err != nil {
		return nil, storageErr(err, "selecting courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.course())
	}
	if err := repo.attach(ctx, courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	if !validUUID(id) {
		return course.Course{}, course.ErrNotFound
	}
	var row courseRow
	err := repo.db.GetContext(ctx, &row, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id)
	switch {
	case err == sql.ErrNoRows:
		return course.Course{}, course.ErrNotFound
	case err != nil:
		return course.Course{}, storageErr(err, "selecting course")
	}
	courses := []course.Course{row.course()}
	if err = repo.attach(ctx, courses); err != nil {
		return course.Course{}, err
	}
	return courses[0], nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	if !validUUID(c.ID) {
		return course.Course{}, course.ErrNotFound
	}
	thumbID, thumbURL := thumbnailCols(c)
	res, err := repo.db.ExecContext(ctx, `
		UPDATE courses SET
			title = $2,
			description = $3,
			category = $4,
			created_by = $5,
			price = $6,
			thumbnail_public_id = $7,
			thumbnail_url = $8,
			updated_at = $9
		WHERE id = $1`,
		c.ID, c.Title, c.Description, c.Category, c.CreatedBy, c.Price, thumbID, thumbURL, c.UpdatedAt,
	)
	if err != nil {
		return course.Course{}, storageErr(err, "updating course")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return repo.GetCourse(ctx, c.ID)
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	if !validUUID(id) {
		return course.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return storageErr(err, "deleting course")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.ErrNotFound
	}
	return nil
}

func (repo *courseRepository) AddLecture(ctx context.Context, courseID string, l course.Lecture) (course.Lecture, error) {
	if !validUUID(courseID) {
		return course.Lecture{}, course.ErrNotFound
	}
	return insertLecture(ctx, repo.db, courseID, l)
}

func (repo *courseRepository) UpdateLecture(ctx context.Context, courseID string, l course.Lecture) (course.Lecture, error) {
	if !validUUID(courseID) || !validUUID(l.ID) {
		return course.Lecture{}, course.ErrLectureNotFound
	}
	res, err := repo.db.ExecContext(ctx, `
		UPDATE lectures SET
			title = $3,
			description = $4,
			media_kind = $5,
			media_public_id = $6,
			media_url = $7,
			duration = $8
		WHERE id = $1 AND course_id = $2`,
		l.ID, courseID, l.Title, l.Description, l.Media.Kind, mediaPublicID(l.Media), l.Media.URL, l.Duration,
	)
	if err != nil {
		return course.Lecture{}, storageErr(err, "updating lecture")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.Lecture{}, course.ErrLectureNotFound
	}
	return l, nil
}

func (repo *courseRepository) DeleteLecture(ctx context.Context, courseID, lectureID string) error {
	if !validUUID(courseID) || !validUUID(lectureID) {
		return course.ErrLectureNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM lectures WHERE id = $1 AND course_id = $2`, lectureID, courseID)
	if err != nil {
		return storageErr(err, "deleting lecture")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.ErrLectureNotFound
	}
	return nil
}

func (repo *courseRepository) AddQuizQuestion(ctx context.Context, courseID string, q course.QuizQuestion) (course.QuizQuestion, error) {
	if !validUUID(courseID) {
		return course.QuizQuestion{}, course.ErrNotFound
	}
	return insertQuizQuestion(ctx, repo.db, courseID, q)
}
