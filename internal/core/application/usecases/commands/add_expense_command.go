package commands

import (
	"errors"
	"strings"

	"lastmile/internal/core/domain/model/finance"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrAddExpenseCommandIsNotConstructed = errors.New(
	"AddExpenseCommand must be created via NewAddExpenseCommand constructor",
)

// AddExpenseCommand records an expense, linked to a route or company-wide (routeID nil).
type AddExpenseCommand struct { //nolint:recvcheck //using for validation
	expense finance.Expense
	actor   kernel.Actor

	guard guard.ConstructorGuard
}

func NewAddExpenseCommand(expenseID kernel.UUID, routeID *kernel.UUID, category finance.ExpenseCategory,
	amount decimal.Decimal, description string, occurredOn kernel.Date, actor kernel.Actor) (AddExpenseCommand, error) {
	if err := actor.Validate(); err != nil {
		return AddExpenseCommand{}, err
	}
	expense, err := finance.NewExpense(finance.Entry{
		ID:          expenseID,
		RouteID:     routeID,
		Description: strings.TrimSpace(description),
		Amount:      amount,
		OccurredOn:  occurredOn,
		CreatedBy:   actor.ID(),
	}, category)
	if err != nil {
		return AddExpenseCommand{}, err
	}
	return AddExpenseCommand{expense: expense, actor: actor, guard: guard.NewConstructorGuard()}, nil
}

func (c AddExpenseCommand) Validate() error {
	return c.guard.Validate(ErrAddExpenseCommandIsNotConstructed)
}

func (c AddExpenseCommand) Expense() finance.Expense { return c.expense }
func (c AddExpenseCommand) Actor() kernel.Actor      { return c.actor }
