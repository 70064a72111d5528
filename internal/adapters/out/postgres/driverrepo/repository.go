package driverrepo

import (
	"context"
	"errors"
	"fmt"

	"lastmile/internal/adapters/out/postgres/pgerr"
	"lastmile/internal/core/domain/model/driver"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/pkg/errs"

	"gorm.io/gorm"
)

const (
	externalIDConstraint    = "drivers_external_id_key"
	paymentDriverConstraint = "salary_payments_driver_id_fkey"
)

// GormDriverRepository implements DriverRepository using GORM.
type GormDriverRepository struct {
	db *gorm.DB
}

func NewGormDriverRepository(db *gorm.DB) *GormDriverRepository {
	return &GormDriverRepository{db: db}
}

// Add saves a new driver. A taken external ID is a validation error.
func (r *GormDriverRepository) Add(ctx context.Context, aggregate *driver.Driver) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if pgerr.IsUniqueViolation(err, externalIDConstraint) {
			return errs.NewValueIsInvalidErrorWithCause("external id",
				fmt.Errorf("%q is already registered", aggregate.ExternalID()))
		}
		return pgerr.Translate("add driver", err)
	}
	return nil
}

// Get retrieves a driver by ID.
func (r *GormDriverRepository) Get(ctx context.Context, id kernel.UUID) (*driver.Driver, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto DriverDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("driver", id.String())
		}
		return nil, pgerr.Translate("get driver", err)
	}

	return toDomain(dto)
}

// GetByExternalID retrieves a driver by the identity issued by the chat platform.
func (r *GormDriverRepository) GetByExternalID(ctx context.Context, externalID string) (*driver.Driver, error) {
	if externalID == "" {
		return nil, errs.NewValueIsRequiredError("external id")
	}

	var dto DriverDTO
	if err := r.db.WithContext(ctx).First(&dto, "external_id = ?", externalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("driver", externalID)
		}
		return nil, pgerr.Translate("get driver by external id", err)
	}

	return toDomain(dto)
}

// ListByRole returns drivers with role ordered by display name.
func (r *GormDriverRepository) ListByRole(ctx context.Context, role kernel.Role) ([]*driver.Driver, error) {
	var dtos []DriverDTO
	if err := r.db.WithContext(ctx).
		Where("role = ?", role.String()).
		Order("display_name, id").
		Find(&dtos).Error; err != nil {
		return nil, pgerr.Translate("list drivers", err)
	}

	drivers := make([]*driver.Driver, 0, len(dtos))
	for _, dto := range dtos {
		d, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, d)
	}

	return drivers, nil
}

// Delete removes the driver. The foreign keys unassign routes and clear proof
// authorship; salary payments restrict the delete.
func (r *GormDriverRepository) Delete(ctx context.Context, id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Delete(&DriverDTO{}, "id = ?", id.Bytes())
	if result.Error != nil {
		if pgerr.IsForeignKeyViolation(result.Error, paymentDriverConstraint) {
			return errs.NewValueIsInvalidErrorWithCause("driver",
				fmt.Errorf("salary payments reference driver %s", id))
		}
		return pgerr.Translate("delete driver", result.Error)
	}

	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("driver", id.String())
	}
	return nil
}
