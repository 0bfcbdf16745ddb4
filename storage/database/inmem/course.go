package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/coursehub/lms/core"
	"github.com/coursehub/lms/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

func copyCourse(c course.Course) course.Course {
	if c.Thumbnail != nil {
		thumb := *c.Thumbnail
		c.Thumbnail = &thumb
	}
	c.Lectures = append([]course.Lecture{}, c.Lectures...)
	quizzes := make([]course.QuizQuestion, len(c.Quizzes))
	for i, q := range c.Quizzes {
		q.Options = copyStrings(q.Options)
		quizzes[i] = q
	}
	c.Quizzes = quizzes
	return c
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	c.ID = uuid.NewString()
	c = copyCourse(c)
	for i := range c.Lectures {
		c.Lectures[i].ID = uuid.NewString()
	}
	for i := range c.Quizzes {
		c.Quizzes[i].ID = uuid.NewString()
	}
	stored := copyCourse(c)
	repo.db.courses[c.ID] = &stored
	return c, nil
}

func lessCourse(a, b course.Course, field string) (less, equal bool) {
	switch field {
	case "title":
		return a.Title < b.Title, a.Title == b.Title
	case "category":
		return a.Category < b.Category, a.Category == b.Category
	case "price":
		return a.Price < b.Price, a.Price == b.Price
	case "updated_at":
		return a.UpdatedAt.Before(b.UpdatedAt), a.UpdatedAt.Equal(b.UpdatedAt)
	default:
		return a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.Equal(b.CreatedAt)
	}
}

func (repo *courseRepository) QueryCourses(_ context.Context, ordering []core.DBOrdering) ([]course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, c := range repo.db.courses {
		courses = append(courses, copyCourse(*c))
	}
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	sort.SliceStable(courses, func(i, j int) bool {
		for _, ord := range ordering {
			a, b := courses[i], courses[j]
			if !ord.Ascending {
				a, b = b, a
			}
			if less, equal := lessCourse(a, b, ord.Field); !equal {
				return less
			}
		}
		return strings.Compare(courses[i].ID, courses[j].ID) < 0
	})
	return courses, nil
}

func (repo *courseRepository) GetCourse(_ context.Context, id string) (course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if c, ok := repo.db.courses[id]; ok {
		return copyCourse(*c), nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) UpdateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.courses[c.ID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	c.Lectures = orig.Lectures
	c.Quizzes = orig.Quizzes
	c.CreatedAt = orig.CreatedAt
	stored := copyCourse(c)
	repo.db.courses[c.ID] = &stored
	return copyCourse(stored), nil
}

func (repo *courseRepository) DeleteCourse(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.courses[id]; !ok {
		return course.ErrNotFound
	}
	delete(repo.db.courses, id)
	for key := range repo.db.progress {
		if key.courseID == id {
			delete(repo.db.progress, key)
		}
	}
	for key := range repo.db.records {
		if key.courseID == id {
			delete(repo.db.records, key)
		}
	}
	return nil
}

func (repo *courseRepository) AddLecture(_ context.Context, courseID string, l course.Lecture) (course.Lecture, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	c, ok := repo.db.courses[courseID]
	if !ok {
		return course.Lecture{}, course.ErrNotFound
	}
	l.ID = uuid.NewString()
	c.Lectures = append(c.Lectures, l)
	return l, nil
}

func (repo *courseRepository) UpdateLecture(_ context.Context, courseID string, l course.Lecture) (course.Lecture, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	c, ok := repo.db.courses[courseID]
	if !ok {
		return course.Lecture{}, course.ErrNotFound
	}
	for i := range c.Lectures {
		if c.Lectures[i].ID == l.ID {
			c.Lectures[i] = l
			return l, nil
		}
	}
	return course.Lecture{}, course.ErrLectureNotFound
}

func (repo *courseRepository) DeleteLecture(_ context.Context, courseID, lectureID string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	c, ok := repo.db.courses[courseID]
	if !ok {
		return course.ErrNotFound
	}
	for i := range c.Lectures {
		if c.Lectures[i].ID == lectureID {
			c.Lectures = append(c.Lectures[:i:i], c.Lectures[i+1:]...)
			return nil
		}
	}
	return course.ErrLectureNotFound
}

func (repo *courseRepository) AddQuizQuestion(_ context.Context, courseID string, q course.QuizQuestion) (course.QuizQuestion, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	c, ok := repo.db.courses[courseID]
	if !ok {
		return course.QuizQuestion{}, course.ErrNotFound
	}
	q.ID = uuid.NewString()
	q.Options = copyStrings(q.Options)
	c.Quizzes = append(c.Quizzes, q)
	return q, nil
}
