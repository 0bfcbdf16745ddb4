package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/coursehub/lms/core/progress"
)

type progressRepository struct {
	db *DB
}

var _ progress.Repository = (*progressRepository)(nil)

func NewProgressRepository(db *DB) progress.Repository {
	return &progressRepository{db: db}
}

func copyProgress(p progress.Progress) progress.Progress {
	p.LecturesCompleted = copyStrings(p.LecturesCompleted)
	p.QuizScores = append([]progress.QuizScore{}, p.QuizScores...)
	return p
}

func (repo *progressRepository) CreateProgress(_ context.Context, p progress.Progress) (progress.Progress, bool, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	key := progressKey{p.UserID, p.CourseID}
	if existing, ok := repo.db.progress[key]; ok {
		return copyProgress(*existing), false, nil
	}
	stored := copyProgress(p)
	repo.db.progress[key] = &stored
	return copyProgress(stored), true, nil
}

func (repo *progressRepository) GetProgress(_ context.Context, userID, courseID string) (progress.Progress, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if p, ok := repo.db.progress[progressKey{userID, courseID}]; ok {
		return copyProgress(*p), nil
	}
	return progress.Progress{}, progress.ErrNotEnrolled
}

// update applies fn to the stored progress under the write lock.
func (repo *progressRepository) update(userID, courseID string, fn func(p *progress.Progress)) (progress.Progress, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	p, ok := repo.db.progress[progressKey{userID, courseID}]
	if !ok {
		return progress.Progress{}, progress.ErrNotEnrolled
	}
	fn(p)
	return copyProgress(*p), nil
}

func (repo *progressRepository) AddCompletedLecture(_ context.Context, userID, courseID, lectureID string, at time.Time) (progress.Progress, error) {
	return repo.update(userID, courseID, func(p *progress.Progress) {
		for _, id := range p.LecturesCompleted {
			if id == lectureID {
				return
			}
		}
		p.LecturesCompleted = append(p.LecturesCompleted, lectureID)
		p.UpdatedAt = at
	})
}

func (repo *progressRepository) AppendQuizScore(_ context.Context, userID, courseID string, s progress.QuizScore) (progress.Progress, error) {
	return repo.update(userID, courseID, func(p *progress.Progress) {
		p.QuizScores = append(p.QuizScores, s)
		p.UpdatedAt = s.TakenAt
	})
}

func (repo *progressRepository) MarkCompleted(_ context.Context, userID, courseID string, at time.Time) (progress.Progress, error) {
	return repo.update(userID, courseID, func(p *progress.Progress) {
		if !p.IsCompleted {
			p.IsCompleted = true
			p.UpdatedAt = at
		}
	})
}

func (repo *progressRepository) query(match func(key progressKey) bool) []progress.Progress {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	res := make([]progress.Progress, 0)
	for key, p := range repo.db.progress {
		if match(key) {
			res = append(res, copyProgress(*p))
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].EnrolledAt.Before(res[j].EnrolledAt) })
	return res
}

func (repo *progressRepository) QueryProgressByCourse(_ context.Context, courseID string) ([]progress.Progress, error) {
	return repo.query(func(key progressKey) bool { return key.courseID == courseID }), nil
}

func (repo *progressRepository) QueryProgressByUser(_ context.Context, userID string) ([]progress.Progress, error) {
	return repo.query(func(key progressKey) bool { return key.userID == userID }), nil
}
