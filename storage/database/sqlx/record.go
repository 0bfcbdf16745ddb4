package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/coursehub/lms/core/progress"
)

type recordRow struct {
	ID               string         `db:"id"`
	StudentID        string         `db:"student_id"`
	CourseID         string         `db:"course_id"`
	LessonsCompleted pq.StringArray `db:"lessons_completed"`
	Status           string         `db:"status"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

type recordRepository struct {
	db *sqlx.DB
}

var _ progress.RecordRepository = (*recordRepository)(nil)

func NewRecordRepository(db *sqlx.DB) progress.RecordRepository {
	return &recordRepository{db: db}
}

// UpsertRecord applies the progress.Record.Supersedes guard in the ON CONFLICT clause.
func (repo *recordRepository) UpsertRecord(ctx context.Context, r progress.Record) error {
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO progress_records (id, student_id, course_id, lessons_completed, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (student_id, course_id) DO UPDATE SET
			lessons_completed = EXCLUDED.lessons_completed,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
		WHERE cardinality(EXCLUDED.lessons_completed) >= cardinality(progress_records.lessons_completed)
			AND NOT (progress_records.status = $8 AND EXCLUDED.status <> $8)`,
		uuid.NewString(), r.StudentID, r.CourseID, pq.Array(r.LessonsCompleted), r.Status, r.CreatedAt, r.UpdatedAt,
		progress.StatusCompleted,
	)
	return storageErr(err, "upserting progress record")
}

func (repo *recordRepository) QueryRecordsByCourse(ctx context.Context, courseID string) ([]progress.Record, error) {
	res := make([]progress.Record, 0)
	if !validUUID(courseID) {
		return res, nil
	}
	var rows []recordRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT id, student_id, course_id, lessons_completed, status, created_at, updated_at
		FROM progress_records WHERE course_id = $1
		ORDER BY updated_at DESC`, courseID)
	if err != nil {
		return nil, storageErr(err, "selecting progress records")
	}
	for _, r := range rows {
		res = append(res, progress.Record{
			ID:               r.ID,
			StudentID:        r.StudentID,
			CourseID:         r.CourseID,
			LessonsCompleted: append([]string{}, r.LessonsCompleted...),
			Status:           r.Status,
			CreatedAt:        utc(r.CreatedAt),
			UpdatedAt:        utc(r.UpdatedAt),
		})
	}
	return res, nil
}
