package certificate

import (
	"time"

	"github.com/coursehub/lms/core/course"
	"github.com/coursehub/lms/core/user"
)

// Certificate is issued at most once per (user, course) and never updated.
type Certificate struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	CourseID   string    `json:"courseId"`
	DateIssued time.Time `json:"dateIssued"` // UTC
	Code       string    `json:"code"`       // verification code, derived
}

// Issued is a certificate along with what is printed on it.
type Issued struct {
	Certificate Certificate   `json:"certificate"`
	User        user.User     `json:"-"`
	Course      course.Course `json:"-"`
}

// Verification is the public outcome of verifying a certificate code.
type Verification struct {
	Valid       bool      `json:"valid"`
	Recipient   string    `json:"recipient"`
	CourseTitle string    `json:"courseTitle"`
	DateIssued  time.Time `json:"dateIssued"`
}
