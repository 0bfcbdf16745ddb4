package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/coursehub/lms/apps/api/echo"
	"github.com/coursehub/lms/core/course"
	"github.com/coursehub/lms/core/progress"
	"github.com/coursehub/lms/core/user"
	"github.com/coursehub/lms/tests"
)

func markLecture(t *testing.T, token, courseID, lectureID string) progress.Status {
	t.Helper()
	req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+courseID+"/progress", token,
		marchallObj(t, MarkLectureRequest{LectureID: lectureID}))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var st progress.Status
	unmarshal(t, rec, &st)
	return st
}

func submit(t *testing.T, token, courseID string, answers []course.Answer) progress.Submission {
	t.Helper()
	req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+courseID+"/quiz/submit", token,
		marchallObj(t, SubmissionRequest{Answers: answers}))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var sub progress.Submission
	unmarshal(t, rec, &sub)
	return sub
}

func Test_progressApi_walkthrough(t *testing.T) {
	setup(t)
	c := testutil.CreateCourse(t, crsRepo, "Algorithms", 2, 4)
	student := testutil.CreateUser(t, usrRepo, "Student", "student@test.cd", "", "", true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, true)
	token := getToken(t, student)
	lecA, lecB := c.Lectures[0].ID, c.Lectures[1].ID

	// enroll
	req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+c.ID+"/enroll", token)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var st progress.Status
	unmarshal(t, rec, &st)
	assert.Equal(t, progress.StateInProgress, st.State)
	assert.Empty(t, st.Progress.LecturesCompleted)

	// A: 1/2
	st = markLecture(t, token, c.ID, lecA)
	assert.Equal(t, progress.StateInProgress, st.State)
	assert.Equal(t, 1, st.LecturesWatched)
	assert.Equal(t, 2, st.LecturesTotal)

	// A again: no duplicate
	st = markLecture(t, token, c.ID, lecA)
	assert.Equal(t, []string{lecA}, st.Progress.LecturesCompleted)

	// B: 2/2, the final assignment is still due
	st = markLecture(t, token, c.ID, lecB)
	assert.Equal(t, progress.StateAllLecturesWatched, st.State)
	assert.ElementsMatch(t, []string{lecA, lecB}, st.Progress.LecturesCompleted)
	assert.False(t, st.Progress.IsCompleted)

	// certificate is not available yet
	req, rec = newAuthRequest(http.MethodGet, "/v1/courses/"+c.ID+"/certificate", token)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"course not completed yet"}`, rec.Body.String())

	// 2/4 = 50%: failed
	sub := submit(t, token, c.ID, testutil.Answers(c, 2))
	assert.Equal(t, 2, sub.Score)
	assert.Equal(t, 4, sub.Total)
	assert.Equal(t, 50.0, sub.Percentage)
	assert.False(t, sub.Passed)
	assert.Equal(t, 65.0, sub.PassThreshold)
	assert.Len(t, sub.Results, 4)
	assert.Equal(t, progress.StateAllLecturesWatched, sub.State)
	assert.False(t, sub.Progress.IsCompleted)

	// 3/4 = 75%: passed
	sub = submit(t, token, c.ID, testutil.Answers(c, 3))
	assert.Equal(t, 75.0, sub.Percentage)
	assert.True(t, sub.Passed)
	assert.Equal(t, progress.StateCompleted, sub.State)
	assert.True(t, sub.Progress.IsCompleted)
	require.NotNil(t, sub.BestScore)
	assert.Equal(t, 75.0, *sub.BestScore)
	assert.Len(t, sub.Progress.QuizScores, 2)

	// failing afterwards does not undo the completion
	sub = submit(t, token, c.ID, testutil.Answers(c, 0))
	assert.Equal(t, 0.0, sub.Percentage)
	assert.Equal(t, progress.StateCompleted, sub.State)

	req, rec = newAuthRequest(http.MethodGet, "/v1/courses/"+c.ID+"/progress", token)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	unmarshal(t, rec, &st)
	assert.Equal(t, progress.StateCompleted, st.State)
	assert.True(t, st.Progress.IsCompleted)

	// admin monitoring
	adminToken := getToken(t, admin)
	req, rec = newAuthRequest(http.MethodGet, "/v1/courses/"+c.ID+"/students", adminToken)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var students []progress.EnrolledStudent
	unmarshal(t, rec, &students)
	require.Len(t, students, 1)
	assert.Equal(t, student.ID, students[0].ID)
	assert.Equal(t, student.Email, students[0].Email)
	assert.Equal(t, progress.StateCompleted, students[0].State)

	req, rec = newAuthRequest(http.MethodGet, "/v1/courses/"+c.ID+"/progress-monitor", adminToken)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var entries []progress.MonitorEntry
	unmarshal(t, rec, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, student.ID, entries[0].StudentID)
	assert.Equal(t, student.FullName, entries[0].Student.FullName)
	assert.Equal(t, progress.StatusCompleted, entries[0].Status)
	assert.ElementsMatch(t, []string{lecA, lecB}, entries[0].LessonsCompleted)
}

func Test_progressApi_errors(t *testing.T) {
	setup(t)
	c := testutil.CreateCourse(t, crsRepo, "Algorithms", 2, 4)
	empty := testutil.CreateCourse(t, crsRepo, "Empty", 0, 0)
	student := testutil.CreateUser(t, usrRepo, "Student", "student@test.cd", "", "", true)
	enrolled := testutil.CreateUser(t, usrRepo, "Enrolled", "enrolled@test.cd", "", "", true)
	token, enrolledToken := getToken(t, student), getToken(t, enrolled)

	req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+c.ID+"/enroll", enrolledToken)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	notEnrolled := marchallObj(t, httpErr{Error: progress.ErrNotEnrolled.Error()})
	lecture := marchallObj(t, MarkLectureRequest{LectureID: c.Lectures[0].ID})
	answers := marchallObj(t, SubmissionRequest{Answers: testutil.Answers(c, 4)})

	runHTTPTests(t, []httpTest{
		{
			name: "auth required", method: http.MethodPost, path: "/v1/courses/" + c.ID + "/progress", body: lecture,
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "enroll: unknown course", method: http.MethodPost, path: "/v1/courses/nope/enroll", token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: course.ErrNotFound.Error()}),
		},
		{
			name: "get: not enrolled", path: "/v1/courses/" + c.ID + "/progress", token: token,
			wantCode: http.StatusForbidden, wantData: notEnrolled,
		},
		{
			name: "mark: not enrolled", method: http.MethodPost, path: "/v1/courses/" + c.ID + "/progress", token: token,
			body: lecture, wantCode: http.StatusForbidden, wantData: notEnrolled,
		},
		{
			name: "mark: lecture required", method: http.MethodPost, path: "/v1/courses/" + c.ID + "/progress",
			token: enrolledToken, body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"lectureId": "this field is required"}),
		},
		{
			name: "mark: unknown lecture", method: http.MethodPost, path: "/v1/courses/" + c.ID + "/progress",
			token: enrolledToken, body: marchallObj(t, MarkLectureRequest{LectureID: "nope"}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: course.ErrLectureNotFound.Error()}),
		},
		{
			name: "submit: not enrolled", method: http.MethodPost, path: "/v1/courses/" + c.ID + "/quiz/submit",
			token: token, body: answers, wantCode: http.StatusForbidden, wantData: notEnrolled,
		},
		{
			name: "submit: answers required", method: http.MethodPost, path: "/v1/courses/" + c.ID + "/quiz/submit",
			token: enrolledToken, body: []byte(`{"answers":[]}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"answers": "this field is required"}),
		},
		{
			name: "certificate: not enrolled", path: "/v1/courses/" + c.ID + "/certificate", token: token,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "course not completed yet"}),
		},
		{
			name: "students: admin required", path: "/v1/courses/" + c.ID + "/students", token: enrolledToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "monitor: admin required", path: "/v1/courses/" + c.ID + "/progress-monitor", token: enrolledToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
	})

	t.Run("passing before watching everything", func(t *testing.T) {
		sub := submit(t, enrolledToken, c.ID, testutil.Answers(c, 4))
		assert.True(t, sub.Passed)
		assert.Equal(t, progress.StateInProgress, sub.State)

		markLecture(t, enrolledToken, c.ID, c.Lectures[0].ID)
		st := markLecture(t, enrolledToken, c.ID, c.Lectures[1].ID)
		assert.Equal(t, progress.StateCompleted, st.State)
	})

	t.Run("course without lectures nor quiz", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+empty.ID+"/enroll", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		sub := submit(t, token, empty.ID, []course.Answer{{QuestionID: "q", Answer: "a"}})
		assert.True(t, sub.NoQuestions)
		assert.False(t, sub.Passed)
		assert.Equal(t, 0, sub.Total)
		assert.Empty(t, sub.Progress.QuizScores)
	})
}
