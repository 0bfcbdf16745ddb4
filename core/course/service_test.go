package course_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursehub/lms/core"
	"github.com/coursehub/lms/core/course"
	inmemdb "github.com/coursehub/lms/storage/database/inmem"
)

type (
	fakeMedia struct {
		uploads   int
		deleted   []string
		uploadErr error
	}

	fakeVideos map[string]time.Duration

	nopLogger struct{}
)

func (m *fakeMedia) Upload(_ context.Context, r io.Reader, filename string, kind core.MediaKind) (core.UploadedFile, error) {
	if m.uploadErr != nil {
		return core.UploadedFile{}, m.uploadErr
	}
	if _, err := io.ReadAll(r); err != nil {
		return core.UploadedFile{}, err
	}
	m.uploads++
	id := string(kind) + "/" + filename
	return core.UploadedFile{PublicID: id, URL: "https://media.test/" + id}, nil
}

func (m *fakeMedia) Delete(_ context.Context, publicID string, _ core.MediaKind) error {
	m.deleted = append(m.deleted, publicID)
	return nil
}

func (v fakeVideos) Duration(_ context.Context, videoURL string) (time.Duration, error) {
	if d, ok := v[videoURL]; ok {
		return d, nil
	}
	return 0, core.ErrVideoNotFound
}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func setup() (*course.Service, *fakeMedia) {
	media := new(fakeMedia)
	videos := fakeVideos{"https://youtu.be/dQw4w9WgXcQ": 3*time.Minute + 33*time.Second}
	svc := course.NewService(inmemdb.NewCourseRepository(inmemdb.Open()), media, videos, nopLogger{})
	return svc, media
}

func upload(name string) *course.Upload {
	return &course.Upload{Reader: strings.NewReader("data"), Filename: name}
}

func newCourse(title string, price float64) course.NewCourse {
	return course.NewCourse{Title: title, Description: "desc", Category: "Dev", CreatedBy: "Rob", Price: price}
}

func TestService_CreateUpdateDelete(t *testing.T) {
	svc, media := setup()
	ctx := context.Background()

	c, err := svc.Create(ctx, newCourse("Go", 10), upload("go.png"))
	require.NoError(t, err)
	require.NotNil(t, c.Thumbnail)
	assert.Equal(t, "image/go.png", c.Thumbnail.PublicID)
	assert.Zero(t, c.NumberOfLectures())

	updated, err := svc.Update(ctx, c.ID, course.UpdateCourse{Title: "Go in Action"}, upload("go2.png"))
	require.NoError(t, err)
	assert.Equal(t, "Go in Action", updated.Title)
	assert.Equal(t, 10.0, updated.Price)
	assert.Equal(t, "image/go2.png", updated.Thumbnail.PublicID)
	assert.Equal(t, []string{"image/go.png"}, media.deleted)

	_, err = svc.AddLecture(ctx, c.ID, course.NewLecture{Title: "Intro", Description: "d"}, upload("intro.mp4"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, c.ID))
	assert.ElementsMatch(t, []string{"image/go.png", "image/go2.png", "video/intro.mp4"}, media.deleted)

	_, err = svc.Get(ctx, c.ID)
	assert.Equal(t, course.ErrNotFound, errors.Cause(err))
	assert.Equal(t, course.ErrNotFound, errors.Cause(svc.Delete(ctx, c.ID)))
}

func TestService_CreateUploadFailure(t *testing.T) {
	svc, media := setup()
	media.uploadErr = errors.New("cloud down")

	_, err := svc.Create(context.Background(), newCourse("Go", 10), upload("go.png"))
	assert.Error(t, err)

	courses, err := svc.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, courses)
}

func TestService_List(t *testing.T) {
	svc, _ := setup()
	ctx := context.Background()
	for _, nc := range []course.NewCourse{newCourse("B", 30), newCourse("A", 20), newCourse("C", 10)} {
		_, err := svc.Create(ctx, nc, nil)
		require.NoError(t, err)
	}

	titles := func(courses []course.Course) []string {
		res := make([]string, 0, len(courses))
		for _, c := range courses {
			res = append(res, c.Title)
		}
		return res
	}

	tests := []struct {
		name     string
		ordering []core.DBOrdering
		want     []string
	}{
		{name: "title asc", ordering: []core.DBOrdering{{Field: "title", Ascending: true}}, want: []string{"A", "B", "C"}},
		{name: "price desc", ordering: []core.DBOrdering{{Field: "price"}}, want: []string{"B", "A", "C"}},
		{
			name:     "unknown field ignored",
			ordering: []core.DBOrdering{{Field: "password"}, {Field: "price", Ascending: true}},
			want:     []string{"C", "A", "B"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			courses, err := svc.List(ctx, tc.ordering)
			require.NoError(t, err)
			assert.Equal(t, tc.want, titles(courses))
		})
	}
}

func TestService_Lectures(t *testing.T) {
	svc, media := setup()
	ctx := context.Background()
	c, err := svc.Create(ctx, newCourse("Go", 10), nil)
	require.NoError(t, err)

	_, err = svc.AddLecture(ctx, "nope", course.NewLecture{Title: "x", VideoURL: "https://youtu.be/x"}, nil)
	assert.Equal(t, course.ErrNotFound, errors.Cause(err))

	_, err = svc.AddLecture(ctx, c.ID, course.NewLecture{Title: "x", VideoURL: "https://youtu.be/x"}, upload("x.mp4"))
	assert.Equal(t, core.KindValidation, core.KindOf(err))
	_, err = svc.AddLecture(ctx, c.ID, course.NewLecture{Title: "x"}, nil)
	assert.Equal(t, core.KindValidation, core.KindOf(err))

	external, err := svc.AddLecture(ctx, c.ID, course.NewLecture{Title: "Ext", VideoURL: "https://youtu.be/x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, course.ExternalMedia("https://youtu.be/x"), external.Media)

	uploaded, err := svc.AddLecture(ctx, c.ID, course.NewLecture{Title: "Up"}, upload("up.mp4"))
	require.NoError(t, err)
	assert.True(t, uploaded.Media.IsUploaded())

	c, err = svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, c.NumberOfLectures())
	assert.Equal(t, []string{external.ID, uploaded.ID}, c.LectureIDs())

	// replacing uploaded media with an url deletes the upload
	replaced, err := svc.UpdateLecture(ctx, c.ID, uploaded.ID, course.NewLecture{Title: "Up2", VideoURL: "https://youtu.be/y"}, nil)
	require.NoError(t, err)
	assert.Equal(t, uploaded.ID, replaced.ID)
	assert.Equal(t, []string{"video/up.mp4"}, media.deleted)

	_, err = svc.UpdateLecture(ctx, c.ID, "nope", course.NewLecture{Title: "x", VideoURL: "https://youtu.be/y"}, nil)
	assert.Equal(t, course.ErrLectureNotFound, errors.Cause(err))

	require.NoError(t, svc.DeleteLecture(ctx, c.ID, external.ID))
	assert.Equal(t, course.ErrLectureNotFound, errors.Cause(svc.DeleteLecture(ctx, c.ID, external.ID)))

	c, err = svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, c.NumberOfLectures())
	assert.Equal(t, "Up2", c.Lectures[0].Title)
}

func TestService_AddQuizQuestion(t *testing.T) {
	svc, _ := setup()
	ctx := context.Background()
	c, err := svc.Create(ctx, newCourse("Go", 10), nil)
	require.NoError(t, err)

	q, err := svc.AddQuizQuestion(ctx, c.ID, course.NewQuizQuestion{
		Question:      "Who?",
		Options:       []string{"Rob", "Ken"},
		CorrectAnswer: "Ken",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, q.ID)

	c, err = svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, c.HasQuizBank())

	_, err = svc.AddQuizQuestion(ctx, "nope", course.NewQuizQuestion{Question: "x"})
	assert.Equal(t, course.ErrNotFound, errors.Cause(err))
}

func TestService_VideoDuration(t *testing.T) {
	svc, _ := setup()

	d, err := svc.VideoDuration(context.Background(), "  https://youtu.be/dQw4w9WgXcQ ")
	require.NoError(t, err)
	assert.Equal(t, "3m 33s", d)

	_, err = svc.VideoDuration(context.Background(), "https://youtu.be/unknown")
	assert.Equal(t, core.KindNotFound, core.KindOf(err))
}
