package course

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/coursehub/lms/core"
)

// Lecture media variants
const (
	MediaUploaded = "uploaded"
	MediaExternal = "external"
)

var (
	errMediaKind     = errors.New("media must be either uploaded or external")
	errMediaURL      = errors.New("media url is required")
	errMediaPublicID = errors.New("uploaded media requires a public id")
	errMediaExternal = errors.New("external media cannot have a public id")
)

// Media is the video of a Lecture: either a file hosted by the media store, or an external URL.
type Media struct {
	Kind     string `json:"kind"`
	PublicID string `json:"publicId,omitempty"`
	URL      string `json:"url"`
}

func UploadedMedia(f core.UploadedFile) Media {
	return Media{Kind: MediaUploaded, PublicID: f.PublicID, URL: f.URL}
}

func ExternalMedia(url string) Media {
	return Media{Kind: MediaExternal, URL: url}
}

func (m Media) IsUploaded() bool { return m.Kind == MediaUploaded }

// Validate checks that exactly one variant is set.
func (m Media) Validate() error {
	if m.URL == "" {
		return errMediaURL
	}
	switch m.Kind {
	case MediaUploaded:
		if m.PublicID == "" {
			return errMediaPublicID
		}
	case MediaExternal:
		if m.PublicID != "" {
			return errMediaExternal
		}
	default:
		return errMediaKind
	}
	return nil
}

type Lecture struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Media       Media  `json:"lecture"`
	Duration    string `json:"duration"`
}

type QuizQuestion struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer,omitempty"`
}

type Course struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Category    string             `json:"category"`
	CreatedBy   string             `json:"createdBy"`
	Price       float64            `json:"price"`
	Thumbnail   *core.UploadedFile `json:"thumbnail,omitempty"`
	Lectures    []Lecture          `json:"lectures"`
	Quizzes     []QuizQuestion     `json:"quizzes"`
	CreatedAt   time.Time          `json:"createdAt"` // UTC
	UpdatedAt   time.Time          `json:"updatedAt"` // UTC
}

func (c Course) NumberOfLectures() int { return len(c.Lectures) }

func (c Course) HasQuizBank() bool { return len(c.Quizzes) > 0 }

// HasLecture reports whether id is one of the course's lectures.
func (c Course) HasLecture(id string) bool {
	for _, l := range c.Lectures {
		if l.ID == id {
			return true
		}
	}
	return false
}

func (c Course) LectureByID(id string) (Lecture, bool) {
	for _, l := range c.Lectures {
		if l.ID == id {
			return l, true
		}
	}
	return Lecture{}, false
}

// LectureIDs returns the ids of the course's lectures, in order.
func (c Course) LectureIDs() []string {
	ids := make([]string, 0, len(c.Lectures))
	for _, l := range c.Lectures {
		ids = append(ids, l.ID)
	}
	return ids
}

// View is the JSON representation of a Course.
type View struct {
	Course
	NumberOfLectures  int `json:"numberOfLectures"`
	NumberOfQuestions int `json:"numberOfQuestions"`
}

type ViewOptions struct {
	Lectures bool // include the lectures
	Quizzes  bool // include the quiz bank (without answers unless Answers)
	Answers  bool
}

// View builds the representation of c allowed by opts. The counts are always those of c.
func (c Course) View(opts ViewOptions) View {
	v := View{
		Course:            c,
		NumberOfLectures:  c.NumberOfLectures(),
		NumberOfQuestions: len(c.Quizzes),
	}
	if !opts.Lectures {
		v.Lectures = []Lecture{}
	}
	switch {
	case !opts.Quizzes:
		v.Quizzes = []QuizQuestion{}
	case !opts.Answers:
		quizzes := make([]QuizQuestion, 0, len(c.Quizzes))
		for _, q := range c.Quizzes {
			q.CorrectAnswer = ""
			quizzes = append(quizzes, q)
		}
		v.Quizzes = quizzes
	}
	if v.Lectures == nil {
		v.Lectures = []Lecture{}
	}
	if v.Quizzes == nil {
		v.Quizzes = []QuizQuestion{}
	}
	return v
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title       string  `json:"title" form:"title" validate:"required,max=200"`
	Description string  `json:"description" form:"description" validate:"required"`
	Category    string  `json:"category" form:"category" validate:"required"`
	CreatedBy   string  `json:"createdBy" form:"createdBy" validate:"required"`
	Price       float64 `json:"price" form:"price" validate:"required,gt=0"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	nc.Category = core.CleanString(nc.Category)
	nc.CreatedBy = core.CleanString(nc.CreatedBy)
	return validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
// Zero values keep the current ones.
type UpdateCourse struct {
	Title       string  `json:"title" form:"title" validate:"omitempty,max=200"`
	Description string  `json:"description" form:"description"`
	Category    string  `json:"category" form:"category"`
	CreatedBy   string  `json:"createdBy" form:"createdBy"`
	Price       float64 `json:"price" form:"price" validate:"omitempty,gt=0"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	uc.Title = core.CleanString(uc.Title)
	uc.Description = core.CleanString(uc.Description)
	uc.Category = core.CleanString(uc.Category)
	uc.CreatedBy = core.CleanString(uc.CreatedBy)
	return validate.Struct(uc)
}

func (uc UpdateCourse) apply(c Course) Course {
	if uc.Title != "" {
		c.Title = uc.Title
	}
	if uc.Description != "" {
		c.Description = uc.Description
	}
	if uc.Category != "" {
		c.Category = uc.Category
	}
	if uc.CreatedBy != "" {
		c.CreatedBy = uc.CreatedBy
	}
	if uc.Price != 0 {
		c.Price = uc.Price
	}
	return c
}

// NewLecture contains information needed to add or replace a Lecture.
// The video is either an uploaded file or VideoURL, never both.
type NewLecture struct {
	Title       string `json:"title" form:"title" validate:"required,max=200"`
	Description string `json:"description" form:"description" validate:"required"`
	VideoURL    string `json:"videoUrl" form:"videoUrl" validate:"omitempty,url"`
	Duration    string `json:"duration" form:"duration" validate:"max=32"`
}

// Validate validates nl; hasFile tells whether a video file was uploaded along with it.
func (nl *NewLecture) Validate(validate *validator.Validate, hasFile bool) error {
	nl.Title = core.CleanString(nl.Title)
	nl.Description = core.CleanString(nl.Description)
	nl.VideoURL = core.CleanString(nl.VideoURL)
	nl.Duration = core.CleanString(nl.Duration)

	if err := validate.Struct(nl); err != nil {
		return err
	}
	switch {
	case hasFile && nl.VideoURL != "":
		return core.NewValidationError(ErrBothVideoSources, core.FieldError{Field: "videoUrl", Error: ErrBothVideoSources.Error()})
	case !hasFile && nl.VideoURL == "":
		return core.NewValidationError(ErrNoVideoSource, core.FieldError{Field: "videoUrl", Error: ErrNoVideoSource.Error()})
	}
	return nil
}

// NewQuizQuestion contains information needed to add a question to a course's quiz bank.
type NewQuizQuestion struct {
	Question      string   `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"required,min=2,unique,dive,required"`
	CorrectAnswer string   `json:"correctAnswer" validate:"required"`
}

func (nq *NewQuizQuestion) Validate(validate *validator.Validate) error {
	nq.Question = core.CleanString(nq.Question)
	return validate.Struct(nq)
}
