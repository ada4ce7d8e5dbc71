package submission

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/workbook/core"
	"github.com/trezcool/workbook/core/booklet"
	"github.com/trezcool/workbook/core/schooltime"
)

// Void reasons
const (
	ReasonScanUndo   = "scan_undo"
	ReasonManualUndo = "manual_undo"
)

// Submission is a point award for a booklet on a school day. Submissions are never deleted, only voided.
type Submission struct {
	ID            string          `json:"id"`
	BookletID     string          `json:"booklet_id"`
	StudentID     string          `json:"student_id"`
	MaterialID    string          `json:"material_id"`
	ClassID       string          `json:"class_id"`
	SchoolDate    schooltime.Date `json:"school_date"`
	Timestamp     time.Time       `json:"timestamp"`
	PointsAwarded int             `json:"points_awarded"`
	PagesDone     *int            `json:"pages_done"`
	IsVoid        bool            `json:"is_void"`
	VoidReason    string          `json:"void_reason,omitempty"`
	VoidedAt      *time.Time      `json:"voided_at,omitempty"`
}

// NewSubmission contains information needed to record a submission.
type NewSubmission struct {
	BookletID string
	Date      schooltime.Date
	PagesDone *int
}

// VoidRequest is the body of a void request.
type VoidRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=200"`
}

func (vr *VoidRequest) Validate(validate *validator.Validate) error {
	vr.Reason = core.CleanString(vr.Reason)
	return validate.Struct(vr)
}

// Outcome is the result of Service.Submit: either Recorded or DuplicateForDay.
type Outcome interface {
	outcome()
}

type Recorded struct {
	Submission Submission
	Booklet    booklet.Detail
}

// DuplicateForDay reports that the booklet was already submitted on that school day.
type DuplicateForDay struct {
	ExistingID string
	Booklet    booklet.Detail
}

func (Recorded) outcome()        {}
func (DuplicateForDay) outcome() {}
