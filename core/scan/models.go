package scan

import (
	"github.com/trezcool/workbook/core/points"
	"github.com/trezcool/workbook/core/qr"
	"github.com/trezcool/workbook/core/schooltime"
)

// Outcome statuses
const (
	StatusSuccess   = "success"
	StatusDuplicate = "duplicate"
	StatusNotFound  = "not_found"
)

// MsgBookletNotRegistered is the NotFound message.
const MsgBookletNotRegistered = "no booklet is registered for this QR code"

func duplicateMessage(d schooltime.Date) string {
	return d.String() + " was already submitted"
}

// Request is a scanned booklet to record for a class on a school-local date.
type Request struct {
	RawPayload string
	ClassID    string
	Date       schooltime.Date
	PagesDone  *int
}

// Outcome is the result of Service.Scan: one of Success, Duplicate or NotFound.
type Outcome interface {
	Status() string
}

type Success struct {
	SubmissionID  string        `json:"submission_id"`
	PointsAwarded int           `json:"points_awarded"`
	PagesDone     *int          `json:"pages_done"`
	StudentName   string        `json:"student_name"`
	MaterialName  string        `json:"material_name"`
	Totals        points.Totals `json:"totals"`
	Warning       string        `json:"crc_warning,omitempty"`
}

type Duplicate struct {
	Message      string `json:"message"`
	SubmissionID string `json:"submission_id"`
	StudentName  string `json:"student_name"`
	MaterialName string `json:"material_name"`
	Warning      string `json:"crc_warning,omitempty"`
}

// NotFound carries the parsed payload so that the booklet can be bound manually.
type NotFound struct {
	Message          string      `json:"message"`
	Parsed           qr.Identity `json:"parsed"`
	Payload          string      `json:"payload"`
	CanCreateBooklet bool        `json:"can_create_booklet"`
	Warning          string      `json:"crc_warning,omitempty"`
}

func (Success) Status() string   { return StatusSuccess }
func (Duplicate) Status() string { return StatusDuplicate }
func (NotFound) Status() string  { return StatusNotFound }
