package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/coursehub/lms/core/course"
	"github.com/coursehub/lms/core/user"
)

// DefaultPassword is the password of the users created by CreateUser when none is given.
const DefaultPassword = "L3arn1ng-Is-Fun!"

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd string,
	role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	if pwd == "" {
		pwd = DefaultPassword
	}
	if role == "" {
		role = user.RoleUser
	}
	usr := user.User{
		FullName:  name,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateCourse creates a course with `lectures` external lectures and the given quiz bank.
// Question i is "Q<i>" with options {"right", "wrong"}: "right" is the correct answer.
func CreateCourse(t *testing.T, repo course.Repository, title string, lectures, questions int) course.Course {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC()
	c, err := repo.CreateCourse(ctx, course.Course{
		Title:       title,
		Description: title + " description",
		Category:    "Programming",
		CreatedBy:   "Grace Hopper",
		Price:       49.99,
		Lectures:    []course.Lecture{},
		Quizzes:     []course.QuizQuestion{},
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}

	for i := 0; i < lectures; i++ {
		_, err = repo.AddLecture(ctx, c.ID, course.Lecture{
			Title:       fmt.Sprintf("Lecture %d", i+1),
			Description: "watch me",
			Media:       course.ExternalMedia(fmt.Sprintf("https://youtu.be/lecture%04d", i+1)),
			Duration:    "10m 0s",
		})
		if err != nil {
			t.Fatalf("CreateCourse() failed: %v", err)
		}
	}
	for i := 0; i < questions; i++ {
		_, err = repo.AddQuizQuestion(ctx, c.ID, course.QuizQuestion{
			Question:      fmt.Sprintf("Q%d", i+1),
			Options:       []string{"right", "wrong"},
			CorrectAnswer: "right",
		})
		if err != nil {
			t.Fatalf("CreateCourse() failed: %v", err)
		}
	}

	c, err = repo.GetCourse(ctx, c.ID)
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return c
}

// Answers answers the quiz bank of c, getting the first `correct` questions right.
func Answers(c course.Course, correct int) []course.Answer {
	answers := make([]course.Answer, 0, len(c.Quizzes))
	for i, q := range c.Quizzes {
		ans := "wrong"
		if i < correct {
			ans = q.CorrectAnswer
		}
		answers = append(answers, course.Answer{QuestionID: q.ID, Answer: ans})
	}
	return answers
}
