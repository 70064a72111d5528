package routerepo

import (
	"context"
	"errors"

	"lastmile/internal/adapters/out/postgres/pgerr"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/route"
	"lastmile/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const routeDriverConstraint = "routes_driver_id_fkey"

// GormRouteRepository implements RouteRepository using GORM.
type GormRouteRepository struct {
	db *gorm.DB
}

func NewGormRouteRepository(db *gorm.DB) *GormRouteRepository {
	return &GormRouteRepository{db: db}
}

// Add saves a new route. An unknown driver is reported as not found.
func (r *GormRouteRepository) Add(ctx context.Context, aggregate *route.Route) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := routeFromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if pgerr.IsForeignKeyViolation(err, routeDriverConstraint) {
			return errs.NewObjectNotFoundErrorWithCause("driver", *aggregate.DriverID(), err)
		}
		return pgerr.Translate("add route", err)
	}
	return nil
}

// Get retrieves a route by ID.
func (r *GormRouteRepository) Get(ctx context.Context, id kernel.UUID) (*route.Route, error) {
	return r.get(r.db.WithContext(ctx), id)
}

// GetForUpdate retrieves a route and locks its row until the transaction ends.
func (r *GormRouteRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*route.Route, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormRouteRepository) get(db *gorm.DB, id kernel.UUID) (*route.Route, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto RouteDTO
	if err := db.First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("route", id.String())
		}
		return nil, pgerr.Translate("get route", err)
	}

	return routeToDomain(dto)
}

// Update writes the route only while its stored status is still expected.
func (r *GormRouteRepository) Update(ctx context.Context, aggregate *route.Route, expected route.Status) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := routeFromDomain(aggregate)
	result := r.db.WithContext(ctx).
		Model(&RouteDTO{}).
		Where("id = ? AND status = ?", dto.ID, int(expected)).
		Updates(map[string]any{
			"name":           dto.Name,
			"driver_id":      dto.DriverID,
			"status":         dto.Status,
			"revenue":        dto.Revenue,
			"total_expenses": dto.TotalExpenses,
			"net_profit":     dto.NetProfit,
			"calculated_km":  dto.CalculatedKm,
			"extra_expenses": dto.ExtraExpenses,
			"extra_income":   dto.ExtraIncome,
			"driver_salary":  dto.DriverSalary,
			"completed_at":   dto.CompletedAt,
			"finalized_at":   dto.FinalizedAt,
			"finalized_by":   dto.FinalizedBy,
		})
	if result.Error != nil {
		return pgerr.Translate("update route", result.Error)
	}

	if result.RowsAffected == 0 {
		return r.missOrRace(ctx, aggregate.ID())
	}
	return nil
}

// Delete removes the route. Foreign keys cascade the delete to its packages, proofs,
// mileage, linked expenses and incomes and salary payments within the same statement.
func (r *GormRouteRepository) Delete(ctx context.Context, id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Delete(&RouteDTO{}, "id = ?", id.Bytes())
	if result.Error != nil {
		return pgerr.Translate("delete route", result.Error)
	}

	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("route", id.String())
	}
	return nil
}

func (r *GormRouteRepository) missOrRace(ctx context.Context, id kernel.UUID) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&RouteDTO{}).Where("id = ?", id.Bytes()).Count(&count).Error; err != nil {
		return pgerr.Translate("check route", err)
	}
	if count == 0 {
		return errs.NewObjectNotFoundError("route", id.String())
	}
	return errs.NewConcurrentUpdateError("route", id.String())
}
