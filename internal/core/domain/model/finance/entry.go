package finance

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// Entry is the part shared by Expense and Income.
type Entry struct {
	ID          kernel.UUID
	RouteID     *kernel.UUID
	Description string
	Amount      decimal.Decimal
	OccurredOn  kernel.Date
	CreatedBy   string
	CreatedAt   time.Time
}

// IsCompanyWide is true when the entry is not linked to any route.
func (e Entry) IsCompanyWide() bool {
	return e.RouteID == nil
}

func (e Entry) validate() error {
	var errList []error
	errList = append(errList, e.ID.Validate(), e.OccurredOn.Validate())
	if e.RouteID != nil {
		if err := e.RouteID.Validate(); err != nil {
			errList = append(errList, errs.NewValueIsInvalidErrorWithCause("route id", err))
		}
	}
	if e.Amount.IsNegative() {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("amount", fmt.Errorf("%s is negative", e.Amount)))
	}
	if strings.TrimSpace(e.CreatedBy) == "" {
		errList = append(errList, errs.NewValueIsRequiredError("created by"))
	}
	return errors.Join(errList...)
}

type Expense struct {
	Entry
	Category ExpenseCategory
}

func NewExpense(entry Entry, category ExpenseCategory) (Expense, error) {
	if _, err := ParseExpenseCategory(string(category)); err != nil {
		return Expense{}, errors.Join(err, entry.validate())
	}
	if err := entry.validate(); err != nil {
		return Expense{}, err
	}
	return Expense{Entry: entry, Category: category}, nil
}

type Income struct {
	Entry
	Category IncomeCategory
}

func NewIncome(entry Entry, category IncomeCategory) (Income, error) {
	if _, err := ParseIncomeCategory(string(category)); err != nil {
		return Income{}, errors.Join(err, entry.validate())
	}
	if err := entry.validate(); err != nil {
		return Income{}, err
	}
	return Income{Entry: entry, Category: category}, nil
}
