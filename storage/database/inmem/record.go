package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/coursehub/lms/core/progress"
)

type recordRepository struct {
	db *DB
}

var _ progress.RecordRepository = (*recordRepository)(nil)

func NewRecordRepository(db *DB) progress.RecordRepository {
	return &recordRepository{db: db}
}

func copyRecord(r progress.Record) progress.Record {
	r.LessonsCompleted = copyStrings(r.LessonsCompleted)
	return r
}

func (repo *recordRepository) UpsertRecord(_ context.Context, r progress.Record) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	key := progressKey{r.StudentID, r.CourseID}
	old, ok := repo.db.records[key]
	switch {
	case !ok:
		r.ID = uuid.NewString()
	case r.Supersedes(*old):
		r.ID = old.ID
		r.CreatedAt = old.CreatedAt
	default:
		return nil
	}
	stored := copyRecord(r)
	repo.db.records[key] = &stored
	return nil
}

func (repo *recordRepository) QueryRecordsByCourse(_ context.Context, courseID string) ([]progress.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	res := make([]progress.Record, 0)
	for key, r := range repo.db.records {
		if key.courseID == courseID {
			res = append(res, copyRecord(*r))
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].UpdatedAt.After(res[j].UpdatedAt) })
	return res, nil
}
