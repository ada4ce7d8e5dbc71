// Package points sums the points awarded to students. Totals are always computed from the ledger.
package points

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/workbook/core/schooltime"
)

type (
	Totals struct {
		Cumulative    int `json:"cumulative"`
		CurrentPeriod int `json:"current_period"`
	}

	Repository interface {
		// SumPoints sums the points of the student's non-void submissions, within r when not nil.
		SumPoints(ctx context.Context, studentID string, r *schooltime.Range) (int, error)
	}

	Service struct {
		repo Repository
		cal  *schooltime.Calendar
	}
)

func NewService(repo Repository, cal *schooltime.Calendar) *Service {
	return &Service{repo: repo, cal: cal}
}

// Totals returns the student's all-time points and the points of the current school-local month.
func (svc *Service) Totals(ctx context.Context, studentID string) (Totals, error) {
	cumulative, err := svc.repo.SumPoints(ctx, studentID, nil)
	if err != nil {
		return Totals{}, errors.Wrap(err, "summing cumulative points")
	}
	month := svc.cal.CurrentMonthRange()
	current, err := svc.repo.SumPoints(ctx, studentID, &month)
	if err != nil {
		return Totals{}, errors.Wrap(err, "summing monthly points")
	}
	return Totals{Cumulative: cumulative, CurrentPeriod: current}, nil
}
