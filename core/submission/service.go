// Package submission is the submission ledger: it records at most one active submission per booklet
// per school day and voids submissions without ever deleting them.
package submission

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/workbook/core"
	"github.com/trezcool/workbook/core/booklet"
	"github.com/trezcool/workbook/core/schooltime"
)

var (
	// errors
	ErrNotFound                 = core.NewDomainError(core.KindNotFound, "not_found", "submission not found")
	ErrNonSchoolDay             = core.NewDomainError(core.KindInvalid, "non_school_day", "submissions are only accepted on school days (Monday to Friday)")
	ErrMissingPagesForSelfStudy = core.NewDomainError(core.KindInvalid, "missing_pages_for_self_study", "pages done must be a positive number for self-study materials")

	// ErrAlreadySubmitted is returned by Repository.CreateSubmission when the booklet already has an active
	// submission on that school day.
	ErrAlreadySubmitted = errors.New("booklet already submitted on that day")
)

type (
	Repository interface {
		CreateSubmission(ctx context.Context, s Submission) (Submission, error)
		GetSubmission(ctx context.Context, id string) (Submission, error)
		// FindActiveSubmission returns the non-void submission of the booklet timestamped within r.
		FindActiveSubmission(ctx context.Context, bookletID string, r schooltime.Range) (Submission, error)
		// VoidSubmission voids a submission; an already void submission is returned unchanged.
		VoidSubmission(ctx context.Context, id, reason string, at time.Time) (Submission, error)
	}

	Booklets interface {
		Detail(ctx context.Context, id string) (booklet.Detail, error)
	}

	Service struct {
		repo     Repository
		booklets Booklets
		cal      *schooltime.Calendar
	}
)

func NewService(repo Repository, booklets Booklets, cal *schooltime.Calendar) *Service {
	return &Service{repo: repo, booklets: booklets, cal: cal}
}

// Submit records a submission for the booklet on the school-local date ns.Date.
// It returns DuplicateForDay instead when the booklet already has an active submission on that date.
func (svc *Service) Submit(ctx context.Context, ns NewSubmission) (Outcome, error) {
	if !svc.cal.IsSchoolDay(ns.Date) {
		return nil, ErrNonSchoolDay
	}

	detail, err := svc.booklets.Detail(ctx, ns.BookletID)
	if err != nil {
		return nil, errors.Wrap(err, "finding booklet")
	}

	var pages *int
	if detail.Material.IsSelfStudy() {
		if ns.PagesDone == nil || *ns.PagesDone <= 0 {
			return nil, ErrMissingPagesForSelfStudy
		}
		p := *ns.PagesDone
		pages = &p
	}

	day := svc.cal.DayRange(ns.Date)
	if existing, err := svc.repo.FindActiveSubmission(ctx, detail.ID, day); err == nil {
		return DuplicateForDay{ExistingID: existing.ID, Booklet: detail}, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "finding submission of the day")
	}

	sub, err := svc.repo.CreateSubmission(ctx, Submission{
		BookletID:     detail.ID,
		StudentID:     detail.StudentID,
		MaterialID:    detail.MaterialID,
		ClassID:       detail.Student.ClassID,
		SchoolDate:    ns.Date,
		Timestamp:     svc.cal.Timestamp(ns.Date).UTC(),
		PointsAwarded: detail.Material.PointsPerSubmit,
		PagesDone:     pages,
	})
	if errors.Is(err, ErrAlreadySubmitted) {
		// lost a race with a concurrent scan of the same booklet
		existing, ferr := svc.repo.FindActiveSubmission(ctx, detail.ID, day)
		if ferr != nil {
			return nil, errors.Wrap(ferr, "finding submission of the day")
		}
		return DuplicateForDay{ExistingID: existing.ID, Booklet: detail}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "inserting submission")
	}
	return Recorded{Submission: sub, Booklet: detail}, nil
}

// Void voids a submission with reason (ReasonScanUndo when empty).
// Voiding an already void submission returns it unchanged, original reason included.
func (svc *Service) Void(ctx context.Context, id, reason string) (Submission, error) {
	if reason == "" {
		reason = ReasonScanUndo
	}
	return svc.repo.VoidSubmission(ctx, id, reason, svc.cal.Now().UTC())
}

func (svc *Service) Get(ctx context.Context, id string) (Submission, error) {
	return svc.repo.GetSubmission(ctx, id)
}
