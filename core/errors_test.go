package core

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	errClass := NewDomainError(KindNotFound, "not_found", "class not found")
	errStudent := NewDomainError(KindNotFound, "not_found", "student not found")
	errInvalid := NewDomainError(KindInvalid, "malformed_payload", "malformed QR payload")

	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{name: "same sentinel", err: errClass, target: errClass, want: true},
		{name: "wrapped sentinel", err: errors.Wrap(errClass, "finding class"), target: errClass, want: true},
		{name: "sentinel with reason", err: errInvalid.WithReason("bad prefix"), target: errInvalid, want: true},
		{name: "wrapped sentinel with reason", err: errors.Wrap(errClass.WithReason("2026/3A"), "resolving"), target: errClass, want: true},
		{name: "other sentinel sharing the code", err: errStudent, target: errClass, want: false},
		{name: "other sentinel with reason", err: errStudent.WithReason("no 7"), target: errClass, want: false},
		{name: "other code", err: errInvalid, target: errClass, want: false},
		{name: "literal target matches by code", err: errStudent, target: &DomainError{Code: "not_found"}, want: true},
		{name: "plain error", err: errors.New("not_found"), target: errClass, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestDomainError_WithReason(t *testing.T) {
	base := NewDomainError(KindConflict, "conflict", "booklet already exists")

	err := base.WithReason("different QR code")
	var dErr *DomainError
	if assert.True(t, errors.As(err, &dErr)) {
		assert.Equal(t, KindConflict, dErr.Kind)
		assert.Equal(t, "conflict", dErr.Code)
		assert.Equal(t, "booklet already exists: different QR code", dErr.Error())
	}
	assert.Equal(t, "booklet already exists", base.Error())
}
