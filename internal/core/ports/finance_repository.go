package ports

import (
	"context"

	"lastmile/internal/core/domain/model/finance"
	"lastmile/internal/core/domain/model/kernel"
)

// FinanceRepository stores expense, income and mileage rows.
type FinanceRepository interface {
	AddExpense(ctx context.Context, e finance.Expense) error
	AddIncome(ctx context.Context, i finance.Income) error
	AddMileage(ctx context.Context, m finance.Mileage) error

	// ListExpensesByRoute returns the expenses linked to routeID.
	ListExpensesByRoute(ctx context.Context, routeID kernel.UUID) ([]finance.Expense, error)

	// ListIncomesByRoute returns the incomes linked to routeID.
	ListIncomesByRoute(ctx context.Context, routeID kernel.UUID) ([]finance.Income, error)

	// ListMileagesByRoute returns the mileage rows of routeID.
	ListMileagesByRoute(ctx context.Context, routeID kernel.UUID) ([]finance.Mileage, error)
}
