package finance

import (
	"fmt"

	"lastmile/internal/pkg/errs"
)

type ExpenseCategory string

const (
	ExpenseFuel        ExpenseCategory = "fuel"
	ExpenseSalary      ExpenseCategory = "salary"
	ExpenseMaintenance ExpenseCategory = "maintenance"
	ExpenseOther       ExpenseCategory = "other"
)

func ParseExpenseCategory(s string) (ExpenseCategory, error) {
	switch c := ExpenseCategory(s); c {
	case ExpenseFuel, ExpenseSalary, ExpenseMaintenance, ExpenseOther:
		return c, nil
	default:
		return "", errs.NewValueIsInvalidErrorWithCause("expense category", fmt.Errorf("%q is not a category", s))
	}
}

type IncomeCategory string

const (
	IncomeDelivery IncomeCategory = "delivery"
	IncomeBonus    IncomeCategory = "bonus"
	IncomeOther    IncomeCategory = "other"
)

func ParseIncomeCategory(s string) (IncomeCategory, error) {
	switch c := IncomeCategory(s); c {
	case IncomeDelivery, IncomeBonus, IncomeOther:
		return c, nil
	default:
		return "", errs.NewValueIsInvalidErrorWithCause("income category", fmt.Errorf("%q is not a category", s))
	}
}
