package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/coursehub/lms/core/progress"
)

const progressColumns = `user_id, course_id, lectures_completed, is_completed, enrolled_at, updated_at`

type (
	progressRow struct {
		UserID            string         `db:"user_id"`
		CourseID          string         `db:"course_id"`
		LecturesCompleted pq.StringArray `db:"lectures_completed"`
		IsCompleted       bool           `db:"is_completed"`
		EnrolledAt        time.Time      `db:"enrolled_at"`
		UpdatedAt         time.Time      `db:"updated_at"`
	}

	quizScoreRow struct {
		UserID   string    `db:"user_id"`
		CourseID string    `db:"course_id"`
		QuizID   string    `db:"quiz_id"`
		Score    float64   `db:"score"`
		TakenAt  time.Time `db:"taken_at"`
	}
)

func (r progressRow) progress(scores []quizScoreRow) progress.Progress {
	p := progress.Progress{
		UserID:            r.UserID,
		CourseID:          r.CourseID,
		LecturesCompleted: append([]string{}, r.LecturesCompleted...),
		QuizScores:        make([]progress.QuizScore, 0, len(scores)),
		IsCompleted:       r.IsCompleted,
		EnrolledAt:        utc(r.EnrolledAt),
		UpdatedAt:         utc(r.UpdatedAt),
	}
	for _, s := range scores {
		p.QuizScores = append(p.QuizScores, progress.QuizScore{QuizID: s.QuizID, Score: s.Score, TakenAt: utc(s.TakenAt)})
	}
	return p
}

// progressRepository keeps every mutation to a single UPDATE of the (user, course) row,
// which postgres serializes with a row lock.
type progressRepository struct {
	db *sqlx.DB
}

var _ progress.Repository = (*progressRepository)(nil)

func NewProgressRepository(db *sqlx.DB) progress.Repository {
	return &progressRepository{db: db}
}

func (repo *progressRepository) scores(ctx context.Context, q sqlx.QueryerContext, where string, args ...interface{}) (map[[2]string][]quizScoreRow, error) {
	var rows []quizScoreRow
	err := sqlx.SelectContext(ctx, q, &rows,
		`SELECT user_id, course_id, quiz_id, score, taken_at FROM quiz_scores WHERE `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, storageErr(err, "selecting quiz scores")
	}
	res := make(map[[2]string][]quizScoreRow)
	for _, r := range rows {
		key := [2]string{r.UserID, r.CourseID}
		res[key] = append(res[key], r)
	}
	return res, nil
}

func (repo *progressRepository) withScores(ctx context.Context, q sqlx.QueryerContext, row progressRow) (progress.Progress, error) {
	scores, err := repo.scores(ctx, q, `user_id = $1 AND course_id = $2`, row.UserID, row.CourseID)
	if err != nil {
		return progress.Progress{}, err
	}
	return row.progress(scores[[2]string{row.UserID, row.CourseID}]), nil
}

// update runs an UPDATE ... RETURNING on the (user, course) row.
func (repo *progressRepository) update(ctx context.Context, op, query string, args ...interface{}) (progress.Progress, error) {
	var row progressRow
	err := repo.db.GetContext(ctx, &row, query+` RETURNING `+progressColumns, args...)
	switch {
	case err == sql.ErrNoRows:
		return progress.Progress{}, progress.ErrNotEnrolled
	case err != nil:
		return progress.Progress{}, storageErr(err, op)
	}
	return repo.withScores(ctx, repo.db, row)
}

func (repo *progressRepository) CreateProgress(ctx context.Context, p progress.Progress) (progress.Progress, bool, error) {
	if !validUUID(p.UserID) || !validUUID(p.CourseID) {
		return progress.Progress{}, false, progress.ErrNotEnrolled
	}
	var row progressRow
	err := repo.db.GetContext(ctx, &row, `
		INSERT INTO course_progress (`+progressColumns+`) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, course_id) DO NOTHING
		RETURNING `+progressColumns,
		p.UserID, p.CourseID, pq.Array(p.LecturesCompleted), p.IsCompleted, p.EnrolledAt, p.UpdatedAt,
	)
	switch {
	case err == sql.ErrNoRows: // already enrolled
		existing, err := repo.GetProgress(ctx, p.UserID, p.CourseID)
		return existing, false, err
	case err != nil:
		return progress.Progress{}, false, storageErr(err, "inserting progress")
	}
	return row.progress(nil), true, nil
}

func (repo *progressRepository) GetProgress(ctx context.Context, userID, courseID string) (progress.Progress, error) {
	if !validUUID(userID) || !validUUID(courseID) {
		return progress.Progress{}, progress.ErrNotEnrolled
	}
	var row progressRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT `+progressColumns+` FROM course_progress WHERE user_id = $1 AND course_id = $2`, userID, courseID)
	switch {
	case err == sql.ErrNoRows:
		return progress.Progress{}, progress.ErrNotEnrolled
	case err != nil:
		return progress.Progress{}, storageErr(err, "selecting progress")
	}
	return repo.withScores(ctx, repo.db, row)
}

func (repo *progressRepository) AddCompletedLecture(ctx context.Context, userID, courseID, lectureID string, at time.Time) (progress.Progress, error) {
	if !validUUID(userID) || !validUUID(courseID) {
		return progress.Progress{}, progress.ErrNotEnrolled
	}
	return repo.update(ctx, "adding completed lecture", `
		UPDATE course_progress SET
			lectures_completed = CASE WHEN $3::text = ANY (lectures_completed)
				THEN lectures_completed ELSE array_append(lectures_completed, $3::text) END,
			updated_at = CASE WHEN $3::text = ANY (lectures_completed) THEN updated_at ELSE $4 END
		WHERE user_id = $1 AND course_id = $2`,
		userID, courseID, lectureID, at,
	)
}

func (repo *progressRepository) AppendQuizScore(ctx context.Context, userID, courseID string, s progress.QuizScore) (progress.Progress, error) {
	if !validUUID(userID) || !validUUID(courseID) {
		return progress.Progress{}, progress.ErrNotEnrolled
	}
	var p progress.Progress
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var row progressRow
		err := tx.GetContext(ctx, &row, `
			UPDATE course_progress SET updated_at = $3
			WHERE user_id = $1 AND course_id = $2
			RETURNING `+progressColumns,
			userID, courseID, s.TakenAt,
		)
		switch {
		case err == sql.ErrNoRows:
			return progress.ErrNotEnrolled
		case err != nil:
			return storageErr(err, "updating progress")
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO quiz_scores (user_id, course_id, quiz_id, score, taken_at) VALUES ($1, $2, $3, $4, $5)`,
			userID, courseID, s.QuizID, s.Score, s.TakenAt,
		)
		if err != nil {
			return storageErr(err, "inserting quiz score")
		}
		p, err = repo.withScores(ctx, tx, row)
		return err
	})
	return p, err
}

func (repo *progressRepository) MarkCompleted(ctx context.Context, userID, courseID string, at time.Time) (progress.Progress, error) {
	if !validUUID(userID) || !validUUID(courseID) {
		return progress.Progress{}, progress.ErrNotEnrolled
	}
	return repo.update(ctx, "marking progress completed", `
		UPDATE course_progress SET
			updated_at = CASE WHEN is_completed THEN updated_at ELSE $3 END,
			is_completed = true
		WHERE user_id = $1 AND course_id = $2`,
		userID, courseID, at,
	)
}

func (repo *progressRepository) query(ctx context.Context, col, id string) ([]progress.Progress, error) {
	res := make([]progress.Progress, 0)
	if !validUUID(id) {
		return res, nil
	}
	var rows []progressRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+progressColumns+` FROM course_progress WHERE `+col+` = $1 ORDER BY enrolled_at`, id)
	if err != nil {
		return nil, storageErr(err, "selecting progress")
	}
	scores, err := repo.scores(ctx, repo.db, col+` = $1`, id)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		res = append(res, r.progress(scores[[2]string{r.UserID, r.CourseID}]))
	}
	return res, nil
}

func (repo *progressRepository) QueryProgressByCourse(ctx context.Context, courseID string) ([]progress.Progress, error) {
	return repo.query(ctx, "course_id", courseID)
}

func (repo *progressRepository) QueryProgressByUser(ctx context.Context, userID string) ([]progress.Progress, error) {
	return repo.query(ctx, "user_id", userID)
}
