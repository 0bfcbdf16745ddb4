package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coursehub/lms/core/course"
)

func testCourse(lectures int, withQuiz bool) course.Course {
	c := course.Course{ID: "c1"}
	for i := 0; i < lectures; i++ {
		c.Lectures = append(c.Lectures, course.Lecture{ID: string(rune('a' + i))})
	}
	if withQuiz {
		c.Quizzes = []course.QuizQuestion{{ID: "q1", Options: []string{"x", "y"}, CorrectAnswer: "x"}}
	}
	return c
}

func TestDeriveState(t *testing.T) {
	c := testCourse(2, true)
	tests := []struct {
		name string
		p    *Progress
		want State
	}{
		{name: "not enrolled", want: StateNotEnrolled},
		{name: "nothing watched", p: &Progress{}, want: StateInProgress},
		{name: "some watched", p: &Progress{LecturesCompleted: []string{"a"}}, want: StateInProgress},
		{name: "removed lecture does not count", p: &Progress{LecturesCompleted: []string{"a", "z"}}, want: StateInProgress},
		{name: "all watched", p: &Progress{LecturesCompleted: []string{"b", "a"}}, want: StateAllLecturesWatched},
		{name: "completed", p: &Progress{LecturesCompleted: []string{"a"}, IsCompleted: true}, want: StateCompleted},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveState(tc.p, c))
		})
	}
}

func TestBestScore(t *testing.T) {
	p := Progress{QuizScores: []QuizScore{
		{QuizID: "c1", Score: 40},
		{QuizID: "c2", Score: 100},
		{QuizID: "c1", Score: 75},
		{QuizID: "c1", Score: 50},
	}}

	best, ok := BestScore(p, "c1")
	assert.True(t, ok)
	assert.Equal(t, 75.0, best)

	_, ok = BestScore(p, "c3")
	assert.False(t, ok)
}

func Test_eligible(t *testing.T) {
	tests := []struct {
		name string
		p    Progress
		c    course.Course
		want bool
	}{
		{name: "no lectures no quiz", c: testCourse(0, false), want: true},
		{name: "lectures left", p: Progress{LecturesCompleted: []string{"a"}}, c: testCourse(2, false), want: false},
		{name: "all watched no quiz", p: Progress{LecturesCompleted: []string{"a", "b"}}, c: testCourse(2, false), want: true},
		{name: "all watched quiz not taken", p: Progress{LecturesCompleted: []string{"a"}}, c: testCourse(1, true), want: false},
		{
			name: "all watched quiz failed",
			p:    Progress{LecturesCompleted: []string{"a"}, QuizScores: []QuizScore{{QuizID: "c1", Score: 64.9}}},
			c:    testCourse(1, true),
			want: false,
		},
		{
			name: "all watched quiz passed once",
			p: Progress{LecturesCompleted: []string{"a"}, QuizScores: []QuizScore{
				{QuizID: "c1", Score: 65}, {QuizID: "c1", Score: 10},
			}},
			c:    testCourse(1, true),
			want: true,
		},
		{
			name: "passed another course's quiz",
			p:    Progress{LecturesCompleted: []string{"a"}, QuizScores: []QuizScore{{QuizID: "c2", Score: 100}}},
			c:    testCourse(1, true),
			want: false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, eligible(tc.p, tc.c, 65))
		})
	}
}

func TestRecord_Supersedes(t *testing.T) {
	inProgress := func(lessons ...string) Record { return Record{LessonsCompleted: lessons, Status: StatusInProgress} }
	completed := func(lessons ...string) Record { return Record{LessonsCompleted: lessons, Status: StatusCompleted} }

	tests := []struct {
		name     string
		old, new Record
		want     bool
	}{
		{name: "more lessons", old: inProgress("a"), new: inProgress("a", "b"), want: true},
		{name: "same lessons", old: inProgress("a"), new: inProgress("a"), want: true},
		{name: "fewer lessons", old: inProgress("a", "b"), new: inProgress("a"), want: false},
		{name: "completing", old: inProgress("a", "b"), new: completed("a", "b"), want: true},
		{name: "leaving completed", old: completed("a", "b"), new: inProgress("a", "b"), want: false},
		{name: "stale completed", old: completed("a", "b"), new: completed("a"), want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.new.Supersedes(tc.old))
		})
	}
}

func Test_recordOf(t *testing.T) {
	p := Progress{UserID: "u1", CourseID: "c1", LecturesCompleted: []string{"a"}, IsCompleted: true}
	r := recordOf(p)
	assert.Equal(t, "u1", r.StudentID)
	assert.Equal(t, "c1", r.CourseID)
	assert.Equal(t, StatusCompleted, r.Status)

	r.LessonsCompleted[0] = "z"
	assert.Equal(t, "a", p.LecturesCompleted[0])
}
