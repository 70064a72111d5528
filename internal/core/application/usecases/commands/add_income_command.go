package commands

import (
	"errors"
	"strings"

	"lastmile/internal/core/domain/model/finance"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrAddIncomeCommandIsNotConstructed = errors.New(
	"AddIncomeCommand must be created via NewAddIncomeCommand constructor",
)

// AddIncomeCommand records an income, linked to a route or company-wide (routeID nil).
type AddIncomeCommand struct { //nolint:recvcheck //using for validation
	income finance.Income
	actor  kernel.Actor

	guard guard.ConstructorGuard
}

func NewAddIncomeCommand(incomeID kernel.UUID, routeID *kernel.UUID, category finance.IncomeCategory,
	amount decimal.Decimal, description string, occurredOn kernel.Date, actor kernel.Actor) (AddIncomeCommand, error) {
	if err := actor.Validate(); err != nil {
		return AddIncomeCommand{}, err
	}
	income, err := finance.NewIncome(finance.Entry{
		ID:          incomeID,
		RouteID:     routeID,
		Description: strings.TrimSpace(description),
		Amount:      amount,
		OccurredOn:  occurredOn,
		CreatedBy:   actor.ID(),
	}, category)
	if err != nil {
		return AddIncomeCommand{}, err
	}
	return AddIncomeCommand{income: income, actor: actor, guard: guard.NewConstructorGuard()}, nil
}

func (c AddIncomeCommand) Validate() error {
	return c.guard.Validate(ErrAddIncomeCommandIsNotConstructed)
}

func (c AddIncomeCommand) Income() finance.Income { return c.income }
func (c AddIncomeCommand) Actor() kernel.Actor    { return c.actor }
