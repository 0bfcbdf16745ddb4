package progress

import (
	"time"

	"github.com/coursehub/lms/core/course"
)

// State of a learner in a course.
type State string

const (
	StateNotEnrolled        State = "NotEnrolled"
	StateInProgress         State = "InProgress"
	StateAllLecturesWatched State = "AllLecturesWatched"
	StateCompleted          State = "Completed"
)

// Mirror record statuses
const (
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"
)

type QuizScore struct {
	QuizID  string    `json:"quizId"`
	Score   float64   `json:"score"` // percentage
	TakenAt time.Time `json:"takenAt"`
}

// Progress is a learner's enrollment in a course.
// LecturesCompleted is a set; IsCompleted never goes back to false.
type Progress struct {
	UserID            string      `json:"userId"`
	CourseID          string      `json:"courseId"`
	LecturesCompleted []string    `json:"lecturesCompleted"`
	QuizScores        []QuizScore `json:"quizScores"`
	IsCompleted       bool        `json:"isCompleted"`
	EnrolledAt        time.Time   `json:"enrolledAt"` // UTC
	UpdatedAt         time.Time   `json:"updatedAt"`  // UTC
}

// Record is the reporting copy of a Progress, used for admin monitoring.
type Record struct {
	ID               string    `json:"id"`
	StudentID        string    `json:"studentId"`
	CourseID         string    `json:"courseId"`
	LessonsCompleted []string  `json:"lessonsCompleted"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"createdAt"` // UTC
	UpdatedAt        time.Time `json:"updatedAt"` // UTC
}

// Supersedes reports whether r may overwrite old: it never has fewer lessons, nor leaves Completed.
func (r Record) Supersedes(old Record) bool {
	if len(r.LessonsCompleted) < len(old.LessonsCompleted) {
		return false
	}
	return !(old.Status == StatusCompleted && r.Status != StatusCompleted)
}

func recordOf(p Progress) Record {
	status := StatusInProgress
	if p.IsCompleted {
		status = StatusCompleted
	}
	lessons := make([]string, len(p.LecturesCompleted))
	copy(lessons, p.LecturesCompleted)
	return Record{
		StudentID:        p.UserID,
		CourseID:         p.CourseID,
		LessonsCompleted: lessons,
		Status:           status,
		CreatedAt:        p.UpdatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// Status is a Progress along with its derived State.
type Status struct {
	Progress        Progress `json:"courseProgress"`
	State           State    `json:"state"`
	LecturesWatched int      `json:"lecturesWatched"`
	LecturesTotal   int      `json:"lecturesTotal"`
	BestScore       *float64 `json:"bestScore"`
}

// Submission is the outcome of a final assignment submission.
type Submission struct {
	course.ScoreReport
	Status
	PassThreshold float64 `json:"passThreshold"`
}

type Student struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type EnrolledStudent struct {
	Student
	Progress Progress `json:"progress"`
	State    State    `json:"state"`
}

type MonitorEntry struct {
	Record
	Student Student `json:"student"`
}
