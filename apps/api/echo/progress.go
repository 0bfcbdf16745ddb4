package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/coursehub/lms/core/course"
	"github.com/coursehub/lms/core/progress"
)

type progressApi struct {
	auth     *Auth
	svc      *progress.Service
	validate *validator.Validate
}

func registerProgressAPI(g *echo.Group, jwt, admin echo.MiddlewareFunc, auth *Auth, opts *Options) {
	api := progressApi{
		auth:     auth,
		svc:      opts.ProgressSvc,
		validate: opts.Validate,
	}

	// no group here: its catch-all routes would shadow the course detail routes
	g.POST("/courses/:id/enroll", api.enroll, jwt)
	g.GET("/courses/:id/progress", api.retrieve, jwt)
	g.POST("/courses/:id/progress", api.markLectureComplete, jwt)
	g.POST("/courses/:id/quiz/submit", api.submitFinalAssignment, jwt)
	g.GET("/courses/:id/students", api.students, jwt, admin)
	g.GET("/courses/:id/progress-monitor", api.monitor, jwt, admin)
}

// Handlers

func (api *progressApi) enroll(ctx echo.Context) error {
	claims, err := api.auth.contextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	st, err := api.svc.Enroll(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "enrolling")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *progressApi) retrieve(ctx echo.Context) error {
	claims, err := api.auth.contextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	st, err := api.svc.GetProgress(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting progress")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *progressApi) markLectureComplete(ctx echo.Context) error {
	claims, err := api.auth.contextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	var data MarkLectureRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkLectureRequest")
	}
	if err = api.validate.Struct(&data); err != nil {
		return err
	}

	st, err := api.svc.MarkLectureComplete(ctx.Request().Context(), claims.Subject, ctx.Param("id"), data.LectureID)
	if err != nil {
		return errors.Wrap(err, "marking lecture complete")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *progressApi) submitFinalAssignment(ctx echo.Context) error {
	claims, err := api.auth.contextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	var data SubmissionRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmissionRequest")
	}

	sub, err := api.svc.SubmitFinalAssignment(ctx.Request().Context(), claims.Subject, ctx.Param("id"), data.Answers)
	if err != nil {
		return errors.Wrap(err, "submitting final assignment")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *progressApi) students(ctx echo.Context) error {
	students, err := api.svc.EnrolledStudents(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying enrolled students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *progressApi) monitor(ctx echo.Context) error {
	entries, err := api.svc.MonitorCourse(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "monitoring course progress")
	}
	return ctx.JSON(http.StatusOK, entries)
}

type (
	MarkLectureRequest struct {
		LectureID string `json:"lectureId" validate:"required"`
	}

	SubmissionRequest struct {
		Answers []course.Answer `json:"answers"`
	}
)
