package queries

import (
	"errors"
	"fmt"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/services"
	"lastmile/internal/pkg/errs"
	"lastmile/internal/pkg/guard"
)

var (
	ErrGetFinancialReportQueryIsNotConstructed = errors.New(
		"GetFinancialReportQuery must be created via NewGetFinancialReportQuery constructor",
	)
)

// GetFinancialReportQuery aggregates the period [from, to], both days inclusive.
type GetFinancialReportQuery struct {
	from kernel.Date
	to   kernel.Date

	guard guard.ConstructorGuard
}

func NewGetFinancialReportQuery(from, to kernel.Date) (GetFinancialReportQuery, error) {
	if err := errors.Join(from.Validate(), to.Validate()); err != nil {
		return GetFinancialReportQuery{}, err
	}
	if to.Before(from) {
		return GetFinancialReportQuery{}, errs.NewValueIsInvalidErrorWithCause("to",
			fmt.Errorf("%s is before %s", to, from))
	}
	return GetFinancialReportQuery{from: from, to: to, guard: guard.NewConstructorGuard()}, nil
}

func (q GetFinancialReportQuery) Validate() error {
	return q.guard.Validate(ErrGetFinancialReportQueryIsNotConstructed)
}

func (q GetFinancialReportQuery) From() kernel.Date { return q.from }
func (q GetFinancialReportQuery) To() kernel.Date   { return q.to }

// GetFinancialReportQueryResponse is the Ledger report for the period.
type GetFinancialReportQueryResponse struct {
	From   kernel.Date
	To     kernel.Date
	Report services.Report
}
