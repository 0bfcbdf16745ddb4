package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/coursehub/lms/core/course"
	"github.com/coursehub/lms/core/progress"
)

type courseApi struct {
	auth        *Auth
	svc         *course.Service
	progressSvc *progress.Service
	validate    *validator.Validate
}

func registerCourseAPI(g *echo.Group, jwt, admin echo.MiddlewareFunc, auth *Auth, opts *Options) {
	api := courseApi{
		auth:        auth,
		svc:         opts.CourseSvc,
		progressSvc: opts.ProgressSvc,
		validate:    opts.Validate,
	}

	cg := g.Group("/courses")
	ag := cg.Group("", jwt)
	dg := ag.Group("/:id")

	// un-authed endpoints (registered after the authed group catch-alls)
	cg.GET("", api.list)

	// authed endpoints
	ag.POST("", api.create, admin)
	ag.POST("/video-duration", api.videoDuration, admin)

	// detail endpoints
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, admin)
	dg.DELETE("", api.destroy, admin)
	dg.POST("/lectures", api.addLecture, admin)
	dg.PUT("/lectures/:lectureId", api.updateLecture, admin)
	dg.DELETE("/lectures/:lectureId", api.destroyLecture, admin)
	dg.POST("/quiz", api.addQuizQuestion, admin)
}

// Handlers

func (api *courseApi) list(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	courses, err := api.svc.List(ctx.Request().Context(), ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "listing courses")
	}
	views := make([]course.View, 0, len(courses))
	for _, c := range courses {
		views = append(views, c.View(course.ViewOptions{}))
	}
	return ctx.JSON(http.StatusOK, views)
}

// retrieve shows the lectures to admins and enrolled users only. Answers are for admins.
func (api *courseApi) retrieve(ctx echo.Context) error {
	claims, err := api.auth.contextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	c, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting course")
	}

	if claims.IsAdmin {
		return ctx.JSON(http.StatusOK, c.View(course.ViewOptions{Lectures: true, Quizzes: true, Answers: true}))
	}
	enrolled, err := api.progressSvc.IsEnrolled(ctx.Request().Context(), claims.Subject, c.ID)
	if err != nil {
		return errors.Wrap(err, "checking enrollment")
	}
	return ctx.JSON(http.StatusOK, c.View(course.ViewOptions{Lectures: enrolled, Quizzes: enrolled}))
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	thumbnail, closeFile, err := formUpload(ctx, "thumbnail")
	if err != nil {
		return err
	}
	defer closeFile()

	c, err := api.svc.Create(ctx.Request().Context(), data, thumbnail)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, c.View(course.ViewOptions{Lectures: true, Quizzes: true, Answers: true}))
}

func (api *courseApi) update(ctx echo.Context) error {
	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	thumbnail, closeFile, err := formUpload(ctx, "thumbnail")
	if err != nil {
		return err
	}
	defer closeFile()

	c, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data, thumbnail)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, c.View(course.ViewOptions{Lectures: true, Quizzes: true, Answers: true}))
}

func (api *courseApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) bindLecture(ctx echo.Context) (course.NewLecture, *course.Upload, func(), error) {
	var data course.NewLecture
	if err := ctx.Bind(&data); err != nil {
		return data, nil, nil, errors.Wrap(err, "binding to NewLecture")
	}
	video, closeFile, err := formUpload(ctx, "video")
	if err != nil {
		return data, nil, nil, err
	}
	if err = data.Validate(api.validate, video != nil); err != nil {
		closeFile()
		return data, nil, nil, err
	}
	return data, video, closeFile, nil
}

func (api *courseApi) addLecture(ctx echo.Context) error {
	data, video, closeFile, err := api.bindLecture(ctx)
	if err != nil {
		return err
	}
	defer closeFile()

	l, err := api.svc.AddLecture(ctx.Request().Context(), ctx.Param("id"), data, video)
	if err != nil {
		return errors.Wrap(err, "adding lecture")
	}
	return ctx.JSON(http.StatusCreated, l)
}

func (api *courseApi) updateLecture(ctx echo.Context) error {
	data, video, closeFile, err := api.bindLecture(ctx)
	if err != nil {
		return err
	}
	defer closeFile()

	l, err := api.svc.UpdateLecture(ctx.Request().Context(), ctx.Param("id"), ctx.Param("lectureId"), data, video)
	if err != nil {
		return errors.Wrap(err, "updating lecture")
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *courseApi) destroyLecture(ctx echo.Context) error {
	if err := api.svc.DeleteLecture(ctx.Request().Context(), ctx.Param("id"), ctx.Param("lectureId")); err != nil {
		return errors.Wrap(err, "deleting lecture")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) addQuizQuestion(ctx echo.Context) error {
	var data course.NewQuizQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuizQuestion")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	q, err := api.svc.AddQuizQuestion(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "adding quiz question")
	}
	return ctx.JSON(http.StatusCreated, q)
}

func (api *courseApi) videoDuration(ctx echo.Context) error {
	var data VideoDurationRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to VideoDurationRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	d, err := api.svc.VideoDuration(ctx.Request().Context(), data.VideoURL)
	if err != nil {
		return errors.Wrap(err, "getting video duration")
	}
	return ctx.JSON(http.StatusOK, VideoDurationResponse{Duration: d})
}

type (
	VideoDurationRequest struct {
		VideoURL string `json:"videoUrl" validate:"required,url"`
	}

	VideoDurationResponse struct {
		Duration string `json:"duration"`
	}
)
