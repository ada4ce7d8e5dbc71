package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/workbook/core"
	"github.com/trezcool/workbook/core/booklet"
	"github.com/trezcool/workbook/core/qr"
	"github.com/trezcool/workbook/core/scan"
	"github.com/trezcool/workbook/core/schooltime"
	"github.com/trezcool/workbook/core/submission"
)

type scanApi struct {
	scans    ScanService
	booklets BookletService
	ledger   LedgerService
	cal      *schooltime.Calendar
	validate *validator.Validate
}

func registerScanAPI(g *echo.Group, deps ServerDeps) {
	api := scanApi{
		scans:    deps.Scans,
		booklets: deps.Booklets,
		ledger:   deps.Ledger,
		cal:      deps.Calendar,
		validate: deps.Validate,
	}

	g.POST("/scans", api.scan)
	g.POST("/booklets", api.createBooklet, adminMiddleware())
	g.POST("/submissions/:id/void", api.void, ctxSubmissionMiddleware(api.ledger))
}

type (
	ScanRequest struct {
		RawPayload string `json:"raw_payload" validate:"required"`
		ClassID    string `json:"class_id" validate:"required,uuid"`
		Date       string `json:"date" validate:"omitempty,ymd"` // school-local; defaults to today
		PagesDone  *int   `json:"pages_done" validate:"omitempty,min=1,max=500"`
	}

	ScanResponse struct {
		Status string       `json:"status"`
		Result scan.Outcome `json:"result"`
	}
)

func (sr *ScanRequest) Validate(validate *validator.Validate) error {
	sr.RawPayload = qr.Sanitize(sr.RawPayload)
	sr.ClassID = core.CleanString(sr.ClassID, true)
	sr.Date = core.CleanString(sr.Date)
	return validate.Struct(sr)
}

// Handlers

func (api *scanApi) scan(ctx echo.Context) error {
	var data ScanRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ScanRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.CanAccessClass(data.ClassID) {
		return errHttpForbidden
	}

	date := api.cal.Today()
	if data.Date != "" {
		if date, err = schooltime.ParseDate(data.Date); err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "date", Error: errInvalidDate})
		}
	}

	out, err := api.scans.Scan(ctx.Request().Context(), scan.Request{
		RawPayload: data.RawPayload,
		ClassID:    data.ClassID,
		Date:       date,
		PagesDone:  data.PagesDone,
	})
	if err != nil {
		return errors.Wrap(err, "scanning booklet")
	}

	// only admins bind booklets manually
	if nf, ok := out.(scan.NotFound); ok && !claims.IsAdmin {
		nf.CanCreateBooklet = false
		out = nf
	}
	return ctx.JSON(http.StatusOK, ScanResponse{Status: out.Status(), Result: out})
}

func (api *scanApi) createBooklet(ctx echo.Context) error {
	var data booklet.NewBooklet
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBooklet")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	b, err := api.booklets.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating booklet")
	}
	return ctx.JSON(http.StatusCreated, b)
}

func (api *scanApi) void(ctx echo.Context) error {
	sub, err := getContextSubmission(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context submission")
	}

	var data submission.VoidRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to VoidRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	if data.Reason == "" {
		data.Reason = submission.ReasonManualUndo
	}

	sub, err = api.ledger.Void(ctx.Request().Context(), sub.ID, data.Reason)
	if err != nil {
		return errors.Wrap(err, "voiding submission")
	}
	return ctx.JSON(http.StatusOK, sub)
}
