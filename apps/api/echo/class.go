package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/workbook/core"
	"github.com/trezcool/workbook/core/points"
	"github.com/trezcool/workbook/core/schooltime"
)

type classApi struct {
	booklets BookletService
	points   PointsService
	boards   LeaderboardService
	cal      *schooltime.Calendar
}

func registerClassAPI(g *echo.Group, deps ServerDeps) {
	api := classApi{
		booklets: deps.Booklets,
		points:   deps.Points,
		boards:   deps.Leaderboards,
		cal:      deps.Calendar,
	}

	cg := g.Group("/classes/:id", ctxClassMiddleware(deps.Roster))
	cg.GET("/leaderboards", api.leaderboards)
	cg.GET("/events", api.events)
	cg.GET("/feed", api.feed)
	cg.GET("/today", api.today)
	cg.POST("/booklets/provision", api.provision, adminMiddleware())

	g.GET("/students/:id/totals", api.totals, ctxStudentMiddleware(deps.Roster))
}

type TotalsResponse struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	points.Totals
}

// Handlers

func (api *classApi) leaderboards(ctx echo.Context) error {
	class, err := getContextClass(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context class")
	}

	boards, err := api.boards.Leaderboards(ctx.Request().Context(), class.ID)
	if err != nil {
		return errors.Wrap(err, "computing leaderboards")
	}
	return ctx.JSON(http.StatusOK, boards)
}

func (api *classApi) events(ctx echo.Context) error {
	class, err := getContextClass(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context class")
	}

	var limit int
	if l := ctx.QueryParam("limit"); l != "" {
		if limit, err = strconv.Atoi(l); err != nil || limit < 1 {
			return core.NewValidationError(nil, core.FieldError{Field: "limit", Error: "limit must be a positive integer"})
		}
	}

	events, err := api.boards.RecentEvents(ctx.Request().Context(), class.ID, limit)
	if err != nil {
		return errors.Wrap(err, "querying recent events")
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *classApi) feed(ctx echo.Context) error {
	class, err := getContextClass(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context class")
	}

	feed, err := api.boards.Feed(ctx.Request().Context(), class.ID)
	if err != nil {
		return errors.Wrap(err, "computing feed")
	}
	return ctx.JSON(http.StatusOK, feed)
}

func (api *classApi) today(ctx echo.Context) error {
	class, err := getContextClass(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context class")
	}

	date := api.cal.Today()
	if d := ctx.QueryParam("date"); d != "" {
		if date, err = schooltime.ParseDate(d); err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "date", Error: errInvalidDate})
		}
	}

	status, err := api.boards.DayStatus(ctx.Request().Context(), class.ID, date)
	if err != nil {
		return errors.Wrap(err, "computing day status")
	}
	return ctx.JSON(http.StatusOK, status)
}

func (api *classApi) provision(ctx echo.Context) error {
	class, err := getContextClass(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context class")
	}

	report, err := api.booklets.Provision(ctx.Request().Context(), class.ID)
	if err != nil {
		return errors.Wrap(err, "provisioning booklets")
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *classApi) totals(ctx echo.Context) error {
	student, err := getContextStudent(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context student")
	}

	totals, err := api.points.Totals(ctx.Request().Context(), student.ID)
	if err != nil {
		return errors.Wrap(err, "computing totals")
	}
	return ctx.JSON(http.StatusOK, TotalsResponse{StudentID: student.ID, StudentName: student.DisplayName, Totals: totals})
}
