// Package scan records scanned booklets: it decodes the payload, resolves (or binds) the booklet,
// submits it to the ledger and reports the student's fresh totals.
package scan

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/workbook/core/booklet"
	"github.com/trezcool/workbook/core/points"
	"github.com/trezcool/workbook/core/qr"
	"github.com/trezcool/workbook/core/schooltime"
	"github.com/trezcool/workbook/core/submission"
)

type (
	Resolver interface {
		Resolve(ctx context.Context, dec qr.Decoded, classID string) (booklet.Resolution, error)
		CheckClass(ctx context.Context, b booklet.Booklet, classID string) error
	}

	Ledger interface {
		Submit(ctx context.Context, ns submission.NewSubmission) (submission.Outcome, error)
	}

	Aggregator interface {
		Totals(ctx context.Context, studentID string) (points.Totals, error)
	}

	Service struct {
		resolver Resolver
		ledger   Ledger
		points   Aggregator
		cal      *schooltime.Calendar
	}
)

func NewService(resolver Resolver, ledger Ledger, agg Aggregator, cal *schooltime.Calendar) *Service {
	return &Service{resolver: resolver, ledger: ledger, points: agg, cal: cal}
}

// Scan processes a scanned booklet. Checksum problems never fail a scan; they are reported in the outcome.
func (svc *Service) Scan(ctx context.Context, req Request) (Outcome, error) {
	if !svc.cal.IsSchoolDay(req.Date) {
		return nil, submission.ErrNonSchoolDay
	}

	dec, err := qr.Decode(req.RawPayload)
	if err != nil {
		return nil, err
	}

	res, err := svc.resolver.Resolve(ctx, dec, req.ClassID)
	if err != nil {
		return nil, errors.Wrap(err, "resolving booklet")
	}

	var b booklet.Booklet
	switch r := res.(type) {
	case booklet.Bound:
		b = r.Booklet
	case booklet.Unresolved:
		return NotFound{
			Message:          MsgBookletNotRegistered,
			Parsed:           r.Identity,
			Payload:          r.Payload,
			CanCreateBooklet: r.CanCreateBooklet,
			Warning:          dec.Warning,
		}, nil
	default:
		return nil, errors.Errorf("unexpected resolution %T", res)
	}

	if err = svc.resolver.CheckClass(ctx, b, req.ClassID); err != nil {
		return nil, errors.Wrap(err, "checking booklet class")
	}

	out, err := svc.ledger.Submit(ctx, submission.NewSubmission{BookletID: b.ID, Date: req.Date, PagesDone: req.PagesDone})
	if err != nil {
		return nil, errors.Wrap(err, "submitting booklet")
	}

	switch o := out.(type) {
	case submission.Recorded:
		totals, err := svc.points.Totals(ctx, o.Submission.StudentID)
		if err != nil {
			return nil, errors.Wrap(err, "computing totals")
		}
		return Success{
			SubmissionID:  o.Submission.ID,
			PointsAwarded: o.Submission.PointsAwarded,
			PagesDone:     o.Submission.PagesDone,
			StudentName:   o.Booklet.Student.DisplayName,
			MaterialName:  o.Booklet.Material.Name,
			Totals:        totals,
			Warning:       dec.Warning,
		}, nil
	case submission.DuplicateForDay:
		return Duplicate{
			Message:      duplicateMessage(req.Date),
			SubmissionID: o.ExistingID,
			StudentName:  o.Booklet.Student.DisplayName,
			MaterialName: o.Booklet.Material.Name,
			Warning:      dec.Warning,
		}, nil
	default:
		return nil, errors.Errorf("unexpected submission outcome %T", out)
	}
}
