package echoapi

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/course"
	"github.com/trezcool/academia/core/user"
)

const (
	msgEnrolled        = "Enrolled successfully"
	msgLiveSessionAdd  = "Live session added successfully"
	msgProgressUpdated = "Progress updated"
)

type courseApi struct {
	svc    *course.Service
	usrSvc *user.Service
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *course.Service, usrSvc *user.Service) {
	api := courseApi{
		svc:    svc,
		usrSvc: usrSvc,
	}

	// every course endpoint is authed
	cg := g.Group("/courses", jwt, contextUserMiddleware(usrSvc))

	cg.GET("", api.query)
	cg.POST("/create", api.create, instructorMiddleware(usrSvc))
	cg.POST("/enroll/:id", api.enroll)
	cg.GET("/instructor/courses", api.queryByInstructor)
	cg.GET("/instructor/analytics/summary", api.summary)

	// detail endpoints
	cg.GET("/:id", api.retrieve)
	cg.POST("/:id/comment", api.comment)
	cg.POST("/:id/live", api.addLiveSession)
	cg.GET("/:id/live", api.liveSessions)
	cg.PUT("/:id/progress", api.updateProgress)
}

// Handlers

func (api *courseApi) query(ctx echo.Context) error {
	courses, err := api.svc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errBadRequestBody
	}

	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	crs, err := api.svc.Create(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) comment(ctx echo.Context) error {
	var data course.NewComment
	if err := ctx.Bind(&data); err != nil {
		return errBadRequestBody
	}

	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	cm, err := api.svc.AddComment(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "adding comment")
	}
	return ctx.JSON(http.StatusOK, cm)
}

func (api *courseApi) enroll(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err = api.svc.Enroll(ctx.Request().Context(), usr, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "enrolling")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: msgEnrolled})
}

func (api *courseApi) queryByInstructor(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	courses, err := api.svc.QueryByInstructor(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "querying instructor courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) addLiveSession(ctx echo.Context) error {
	var data course.NewLiveSession
	if err := ctx.Bind(&data); err != nil {
		return errBadRequestBody
	}

	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	ls, err := api.svc.AddLiveSession(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "adding live session")
	}
	return ctx.JSON(http.StatusOK, LiveSessionResponse{Message: msgLiveSessionAdd, Session: ls})
}

func (api *courseApi) liveSessions(ctx echo.Context) error {
	sessions, err := api.svc.LiveSessions(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing live sessions")
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (api *courseApi) updateProgress(ctx echo.Context) error {
	upd, err := bindProgressUpdate(ctx)
	if err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err = api.svc.UpdateProgress(ctx.Request().Context(), usr, ctx.Param("id"), upd); err != nil {
		return errors.Wrap(err, "updating progress")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: msgProgressUpdated})
}

func (api *courseApi) summary(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	summaries, err := api.svc.Summarize(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "summarizing courses")
	}
	return ctx.JSON(http.StatusOK, summaries)
}

// bindProgressUpdate keeps only a boolean `completed` and a numeric `percentage`; other values are ignored.
func bindProgressUpdate(ctx echo.Context) (course.ProgressUpdate, error) {
	var upd course.ProgressUpdate

	body := make(map[string]interface{})
	if err := json.NewDecoder(ctx.Request().Body).Decode(&body); err != nil && err != io.EOF {
		return upd, errBadRequestBody
	}

	if completed, ok := body["completed"].(bool); ok {
		upd.Completed = &completed
	}
	if pct, ok := body["percentage"].(float64); ok {
		upd.Percentage = &pct
	}
	return upd, nil
}

type LiveSessionResponse struct {
	Message string             `json:"message"`
	Session course.LiveSession `json:"session"`
}
