package financerepo

import (
	"context"

	"lastmile/internal/adapters/out/postgres/pgerr"
	"lastmile/internal/core/domain/model/finance"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormFinanceRepository implements FinanceRepository using GORM.
type GormFinanceRepository struct {
	db *gorm.DB
}

func NewGormFinanceRepository(db *gorm.DB) *GormFinanceRepository {
	return &GormFinanceRepository{db: db}
}

func (r *GormFinanceRepository) AddExpense(ctx context.Context, e finance.Expense) error {
	dto := ExpenseDTO{EntryDTO: entryFromDomain(e.Entry, string(e.Category))}
	return r.create(ctx, "add expense", &dto, e.RouteID)
}

func (r *GormFinanceRepository) AddIncome(ctx context.Context, i finance.Income) error {
	dto := IncomeDTO{EntryDTO: entryFromDomain(i.Entry, string(i.Category))}
	return r.create(ctx, "add income", &dto, i.RouteID)
}

func (r *GormFinanceRepository) AddMileage(ctx context.Context, m finance.Mileage) error {
	dto := mileageFromDomain(m)
	return r.create(ctx, "add mileage", &dto, &m.RouteID)
}

func (r *GormFinanceRepository) create(ctx context.Context, op string, dto any, routeID *kernel.UUID) error {
	if err := r.db.WithContext(ctx).Create(dto).Error; err != nil {
		if routeID != nil && pgerr.IsForeignKeyViolation(err, "") {
			return errs.NewObjectNotFoundErrorWithCause("route", *routeID, err)
		}
		return pgerr.Translate(op, err)
	}
	return nil
}

// ListExpensesByRoute returns the expenses linked to routeID in creation order.
func (r *GormFinanceRepository) ListExpensesByRoute(ctx context.Context, routeID kernel.UUID) ([]finance.Expense, error) {
	var dtos []ExpenseDTO
	if err := r.byRoute(ctx, routeID).Find(&dtos).Error; err != nil {
		return nil, pgerr.Translate("list expenses", err)
	}

	expenses := make([]finance.Expense, 0, len(dtos))
	for _, dto := range dtos {
		e, err := expenseToDomain(dto)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, nil
}

// ListIncomesByRoute returns the incomes linked to routeID in creation order.
func (r *GormFinanceRepository) ListIncomesByRoute(ctx context.Context, routeID kernel.UUID) ([]finance.Income, error) {
	var dtos []IncomeDTO
	if err := r.byRoute(ctx, routeID).Find(&dtos).Error; err != nil {
		return nil, pgerr.Translate("list incomes", err)
	}

	incomes := make([]finance.Income, 0, len(dtos))
	for _, dto := range dtos {
		i, err := incomeToDomain(dto)
		if err != nil {
			return nil, err
		}
		incomes = append(incomes, i)
	}
	return incomes, nil
}

// ListMileagesByRoute returns the mileage rows of routeID in creation order.
func (r *GormFinanceRepository) ListMileagesByRoute(ctx context.Context, routeID kernel.UUID) ([]finance.Mileage, error) {
	var dtos []MileageDTO
	if err := r.byRoute(ctx, routeID).Find(&dtos).Error; err != nil {
		return nil, pgerr.Translate("list mileages", err)
	}

	mileages := make([]finance.Mileage, 0, len(dtos))
	for _, dto := range dtos {
		m, err := mileageToDomain(dto)
		if err != nil {
			return nil, err
		}
		mileages = append(mileages, m)
	}
	return mileages, nil
}

func (r *GormFinanceRepository) byRoute(ctx context.Context, routeID kernel.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Where("route_id = ?", routeID.Bytes()).Order("created_at, id")
}
