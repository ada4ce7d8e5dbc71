package booklet

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/workbook/core/qr"
	"github.com/trezcool/workbook/core/roster"
)

// Booklet binds one student to one material. Payload is the canonical QR payload identifying it.
type Booklet struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"student_id"`
	MaterialID string    `json:"material_id"`
	Payload    string    `json:"payload"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

// Detail is a booklet with its student and material.
type Detail struct {
	Booklet
	Student  roster.Student  `json:"student"`
	Material roster.Material `json:"material"`
}

// NewBooklet contains information needed to bind a booklet manually.
type NewBooklet struct {
	StudentID  string `json:"student_id" validate:"required,uuid"`
	MaterialID string `json:"material_id" validate:"required,uuid"`
	Payload    string `json:"payload" validate:"required"`
}

func (nb *NewBooklet) Validate(validate *validator.Validate) error {
	nb.Payload = qr.Sanitize(nb.Payload)
	return validate.Struct(nb)
}

// Resolution is the outcome of Service.Resolve: either Bound or Unresolved.
type Resolution interface {
	resolution()
}

// Bound holds the booklet a payload resolved to. Created is set when the booklet was bound by this call.
type Bound struct {
	Booklet Booklet
	Created bool
}

// Unresolved describes a payload that no booklet matches and that could not be bound automatically.
// It carries the parsed fields so that an operator can bind the booklet manually.
type Unresolved struct {
	Identity         qr.Identity
	Payload          string
	CanCreateBooklet bool
}

func (Bound) resolution()      {}
func (Unresolved) resolution() {}

type ProvisionReport struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
	// Codes are the printable payloads (with checksum) of every provisioned booklet.
	Codes []string `json:"codes"`
}
