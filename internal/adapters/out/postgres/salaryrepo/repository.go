package salaryrepo

import (
	"context"
	"errors"
	"time"

	"lastmile/internal/adapters/out/postgres/pgerr"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/salary"
	"lastmile/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	routeDriverIndex = "salary_payments_route_driver_uidx"
	driverConstraint = "salary_payments_driver_id_fkey"
	routeConstraint  = "salary_payments_route_id_fkey"
)

// GormPaymentRepository implements SalaryPaymentRepository using GORM.
type GormPaymentRepository struct {
	db *gorm.DB
}

func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Add saves a new payment. The partial unique index on (route_id, driver_id) makes
// a second payment for one route an already-finalized error.
func (r *GormPaymentRepository) Add(ctx context.Context, p *salary.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}

	dto := fromDomain(p)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		switch {
		case pgerr.IsUniqueViolation(err, routeDriverIndex):
			return errs.NewAlreadyFinalizedError(p.RouteID().String())
		case pgerr.IsForeignKeyViolation(err, driverConstraint):
			return errs.NewObjectNotFoundErrorWithCause("driver", p.DriverID(), err)
		case pgerr.IsForeignKeyViolation(err, routeConstraint):
			return errs.NewObjectNotFoundErrorWithCause("route", *p.RouteID(), err)
		}
		return pgerr.Translate("add salary payment", err)
	}
	return nil
}

func (r *GormPaymentRepository) Get(ctx context.Context, id kernel.UUID) (*salary.Payment, error) {
	return r.get(r.db.WithContext(ctx), id)
}

// GetForUpdate retrieves a payment and locks its row until the transaction ends.
func (r *GormPaymentRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*salary.Payment, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormPaymentRepository) get(db *gorm.DB, id kernel.UUID) (*salary.Payment, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto PaymentDTO
	if err := db.First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("salary payment", id.String())
		}
		return nil, pgerr.Translate("get salary payment", err)
	}

	return toDomain(dto)
}

func (r *GormPaymentRepository) ExistsForRoute(ctx context.Context, routeID, driverID kernel.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&PaymentDTO{}).
		Where("route_id = ? AND driver_id = ?", routeID.Bytes(), driverID.Bytes()).
		Count(&count).Error; err != nil {
		return false, pgerr.Translate("check salary payment", err)
	}
	return count > 0, nil
}

func (r *GormPaymentRepository) CountByDriver(ctx context.Context, driverID kernel.UUID) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&PaymentDTO{}).
		Where("driver_id = ?", driverID.Bytes()).
		Count(&count).Error; err != nil {
		return 0, pgerr.Translate("count salary payments", err)
	}
	return int(count), nil
}

// ListDueOn returns pending payments due on day.
func (r *GormPaymentRepository) ListDueOn(ctx context.Context, day kernel.Date) ([]*salary.Payment, error) {
	return r.list(ctx, "list due salary payments",
		"status = ? AND due_date = ?", int(salary.Pending), day.String())
}

// ListUnpaidDueBefore returns pending and overdue payments due before day.
func (r *GormPaymentRepository) ListUnpaidDueBefore(ctx context.Context, day kernel.Date) ([]*salary.Payment, error) {
	return r.list(ctx, "list unpaid salary payments",
		"status IN ? AND due_date < ?", []int{int(salary.Pending), int(salary.Overdue)}, day.String())
}

func (r *GormPaymentRepository) list(ctx context.Context, op, query string, args ...any) ([]*salary.Payment, error) {
	var dtos []PaymentDTO
	if err := r.db.WithContext(ctx).
		Where(query, args...).
		Order("driver_id, due_date, id").
		Find(&dtos).Error; err != nil {
		return nil, pgerr.Translate(op, err)
	}

	payments := make([]*salary.Payment, 0, len(dtos))
	for _, dto := range dtos {
		p, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, nil
}

// MarkOverdueDueBefore flips every pending payment due before day in one statement.
func (r *GormPaymentRepository) MarkOverdueDueBefore(ctx context.Context, day kernel.Date, at time.Time) (int, error) {
	result := r.db.WithContext(ctx).
		Model(&PaymentDTO{}).
		Where("status = ? AND due_date < ?", int(salary.Pending), day.String()).
		Updates(map[string]any{
			"status":     int(salary.Overdue),
			"updated_at": at,
		})
	if result.Error != nil {
		return 0, pgerr.Translate("mark salary payments overdue", result.Error)
	}
	return int(result.RowsAffected), nil
}

// Update writes the payment only while its stored status is still expected.
func (r *GormPaymentRepository) Update(ctx context.Context, p *salary.Payment, expected salary.Status) error {
	if err := p.Validate(); err != nil {
		return err
	}

	dto := fromDomain(p)
	result := r.db.WithContext(ctx).
		Model(&PaymentDTO{}).
		Where("id = ? AND status = ?", dto.ID, int(expected)).
		Updates(map[string]any{
			"status":     dto.Status,
			"paid_at":    dto.PaidAt,
			"paid_by":    dto.PaidBy,
			"updated_at": dto.UpdatedAt,
		})
	if result.Error != nil {
		return pgerr.Translate("update salary payment", result.Error)
	}

	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&PaymentDTO{}).Where("id = ?", dto.ID).Count(&count).Error; err != nil {
		return pgerr.Translate("check salary payment", err)
	}
	if count == 0 {
		return errs.NewObjectNotFoundError("salary payment", p.ID().String())
	}
	return errs.NewConcurrentUpdateError("salary payment", p.ID().String())
}
