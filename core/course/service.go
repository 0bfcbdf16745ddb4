package course

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/coursehub/lms/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound         = core.NewError(core.KindNotFound, "course not found")
	ErrLectureNotFound  = core.NewError(core.KindNotFound, "lecture not found in the course")
	ErrBothVideoSources = errors.New("provide either a video file or a video url, not both")
	ErrNoVideoSource    = errors.New("either a video file or a video url must be provided")
)

// orderings allowed on course listings: {API field: column}
var courseOrderings = map[string]string{
	"title":     "title",
	"category":  "category",
	"price":     "price",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

type (
	Repository interface {
		CreateCourse(ctx context.Context, c Course) (Course, error)
		// QueryCourses returns all courses with their lectures and quiz bank.
		QueryCourses(ctx context.Context, ordering []core.DBOrdering) ([]Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		// UpdateCourse updates the course metadata only; lectures and quizzes are left untouched.
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		DeleteCourse(ctx context.Context, id string) error
		AddLecture(ctx context.Context, courseID string, l Lecture) (Lecture, error)
		UpdateLecture(ctx context.Context, courseID string, l Lecture) (Lecture, error)
		DeleteLecture(ctx context.Context, courseID, lectureID string) error
		AddQuizQuestion(ctx context.Context, courseID string, q QuizQuestion) (QuizQuestion, error)
	}

	// Upload is a file received along with a request.
	Upload struct {
		Reader   io.Reader
		Filename string
	}

	Service struct {
		repo   Repository
		media  core.MediaStore
		videos core.VideoDurationLookup
		logger core.Logger
	}
)

func NewService(repo Repository, media core.MediaStore, videos core.VideoDurationLookup, logger core.Logger) *Service {
	return &Service{repo: repo, media: media, videos: videos, logger: logger}
}

// List returns all courses; unknown ordering fields are ignored.
func (svc *Service) List(ctx context.Context, ordering []core.DBOrdering) ([]Course, error) {
	courses, err := svc.repo.QueryCourses(ctx, core.FilterOrderings(ordering, courseOrderings))
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	return courses, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *Service) Create(ctx context.Context, nc NewCourse, thumbnail *Upload) (Course, error) {
	now := NowFunc().UTC()
	c := Course{
		Title:       nc.Title,
		Description: nc.Description,
		Category:    nc.Category,
		CreatedBy:   nc.CreatedBy,
		Price:       nc.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if thumbnail != nil {
		f, err := svc.media.Upload(ctx, thumbnail.Reader, thumbnail.Filename, core.MediaImage)
		if err != nil {
			return Course{}, errors.Wrap(err, "uploading thumbnail")
		}
		c.Thumbnail = &f
	}

	created, err := svc.repo.CreateCourse(ctx, c)
	if err != nil {
		if c.Thumbnail != nil {
			svc.deleteMedia(ctx, c.Thumbnail.PublicID, core.MediaImage)
		}
		return Course{}, errors.Wrap(err, "creating course")
	}
	return created, nil
}

func (svc *Service) Update(ctx context.Context, id string, uc UpdateCourse, thumbnail *Upload) (Course, error) {
	c, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, errors.Wrap(err, "getting course")
	}
	oldThumb := c.Thumbnail

	c = uc.apply(c)
	c.UpdatedAt = NowFunc().UTC()
	if thumbnail != nil {
		f, err := svc.media.Upload(ctx, thumbnail.Reader, thumbnail.Filename, core.MediaImage)
		if err != nil {
			return Course{}, errors.Wrap(err, "uploading thumbnail")
		}
		c.Thumbnail = &f
	}

	c, err = svc.repo.UpdateCourse(ctx, c)
	if err != nil {
		return Course{}, errors.Wrap(err, "updating course")
	}
	if thumbnail != nil && oldThumb != nil {
		svc.deleteMedia(ctx, oldThumb.PublicID, core.MediaImage)
	}
	return c, nil
}

// Delete removes the course along with its hosted media.
func (svc *Service) Delete(ctx context.Context, id string) error {
	c, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return errors.Wrap(err, "getting course")
	}
	if err = svc.repo.DeleteCourse(ctx, id); err != nil {
		return errors.Wrap(err, "deleting course")
	}

	if c.Thumbnail != nil {
		svc.deleteMedia(ctx, c.Thumbnail.PublicID, core.MediaImage)
	}
	for _, l := range c.Lectures {
		if l.Media.IsUploaded() {
			svc.deleteMedia(ctx, l.Media.PublicID, core.MediaVideo)
		}
	}
	return nil
}

// lectureMedia uploads video, or falls back to the external url of nl.
func (svc *Service) lectureMedia(ctx context.Context, nl NewLecture, video *Upload) (Media, error) {
	switch {
	case video != nil && nl.VideoURL != "":
		return Media{}, core.NewValidationError(ErrBothVideoSources, core.FieldError{Field: "videoUrl", Error: ErrBothVideoSources.Error()})
	case video == nil && nl.VideoURL == "":
		return Media{}, core.NewValidationError(ErrNoVideoSource, core.FieldError{Field: "videoUrl", Error: ErrNoVideoSource.Error()})
	case video != nil:
		f, err := svc.media.Upload(ctx, video.Reader, video.Filename, core.MediaVideo)
		if err != nil {
			return Media{}, errors.Wrap(err, "uploading lecture")
		}
		return UploadedMedia(f), nil
	default:
		return ExternalMedia(nl.VideoURL), nil
	}
}

func (svc *Service) AddLecture(ctx context.Context, courseID string, nl NewLecture, video *Upload) (Lecture, error) {
	if _, err := svc.repo.GetCourse(ctx, courseID); err != nil {
		return Lecture{}, errors.Wrap(err, "getting course")
	}

	media, err := svc.lectureMedia(ctx, nl, video)
	if err != nil {
		return Lecture{}, err
	}
	if err = media.Validate(); err != nil {
		return Lecture{}, core.NewValidationError(err, core.FieldError{Field: "lecture", Error: err.Error()})
	}

	l, err := svc.repo.AddLecture(ctx, courseID, Lecture{
		Title:       nl.Title,
		Description: nl.Description,
		Media:       media,
		Duration:    nl.Duration,
	})
	if err != nil {
		if media.IsUploaded() {
			svc.deleteMedia(ctx, media.PublicID, core.MediaVideo)
		}
		return Lecture{}, errors.Wrap(err, "adding lecture")
	}
	return l, nil
}

// UpdateLecture replaces a lecture. Previously uploaded media is deleted from the media store.
func (svc *Service) UpdateLecture(ctx context.Context, courseID, lectureID string, nl NewLecture, video *Upload) (Lecture, error) {
	c, err := svc.repo.GetCourse(ctx, courseID)
	if err != nil {
		return Lecture{}, errors.Wrap(err, "getting course")
	}
	old, ok := c.LectureByID(lectureID)
	if !ok {
		return Lecture{}, ErrLectureNotFound
	}

	media, err := svc.lectureMedia(ctx, nl, video)
	if err != nil {
		return Lecture{}, err
	}
	if err = media.Validate(); err != nil {
		return Lecture{}, core.NewValidationError(err, core.FieldError{Field: "lecture", Error: err.Error()})
	}

	l, err := svc.repo.UpdateLecture(ctx, courseID, Lecture{
		ID:          lectureID,
		Title:       nl.Title,
		Description: nl.Description,
		Media:       media,
		Duration:    nl.Duration,
	})
	if err != nil {
		if media.IsUploaded() {
			svc.deleteMedia(ctx, media.PublicID, core.MediaVideo)
		}
		return Lecture{}, errors.Wrap(err, "updating lecture")
	}
	if old.Media.IsUploaded() && old.Media.PublicID != media.PublicID {
		svc.deleteMedia(ctx, old.Media.PublicID, core.MediaVideo)
	}
	return l, nil
}

func (svc *Service) DeleteLecture(ctx context.Context, courseID, lectureID string) error {
	c, err := svc.repo.GetCourse(ctx, courseID)
	if err != nil {
		return errors.Wrap(err, "getting course")
	}
	l, ok := c.LectureByID(lectureID)
	if !ok {
		return ErrLectureNotFound
	}
	if err = svc.repo.DeleteLecture(ctx, courseID, lectureID); err != nil {
		return errors.Wrap(err, "deleting lecture")
	}
	if l.Media.IsUploaded() {
		svc.deleteMedia(ctx, l.Media.PublicID, core.MediaVideo)
	}
	return nil
}

func (svc *Service) AddQuizQuestion(ctx context.Context, courseID string, nq NewQuizQuestion) (QuizQuestion, error) {
	q, err := svc.repo.AddQuizQuestion(ctx, courseID, QuizQuestion{
		Question:      nq.Question,
		Options:       nq.Options,
		CorrectAnswer: nq.CorrectAnswer,
	})
	if err != nil {
		return QuizQuestion{}, errors.Wrap(err, "adding quiz question")
	}
	return q, nil
}

// VideoDuration returns the formatted duration ("1h 2m 3s") of a hosted video.
func (svc *Service) VideoDuration(ctx context.Context, videoURL string) (string, error) {
	d, err := svc.videos.Duration(ctx, core.CleanString(videoURL))
	if err != nil {
		return "", errors.Wrap(err, "looking up video duration")
	}
	return core.FormatDuration(d), nil
}

// deleteMedia removes a hosted file. Failures are logged only.
func (svc *Service) deleteMedia(ctx context.Context, publicID string, kind core.MediaKind) {
	if publicID == "" {
		return
	}
	if err := svc.media.Delete(ctx, publicID, kind); err != nil {
		svc.logger.Warn(fmt.Sprintf("deleting %s %q: %v", kind, publicID, err), err)
	}
}
