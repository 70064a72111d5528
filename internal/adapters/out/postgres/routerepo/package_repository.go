package routerepo

import (
	"context"
	"errors"
	"fmt"

	"lastmile/internal/adapters/out/postgres/pgerr"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/shipment"
	"lastmile/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	trackingCodeConstraint = "packages_route_tracking_code_key"
	packageRouteConstraint = "packages_route_id_fkey"
)

// GormPackageRepository implements PackageRepository using GORM.
type GormPackageRepository struct {
	db *gorm.DB
}

func NewGormPackageRepository(db *gorm.DB) *GormPackageRepository {
	return &GormPackageRepository{db: db}
}

// AddAll inserts the packages of one manifest in a single statement.
func (r *GormPackageRepository) AddAll(ctx context.Context, packages []*shipment.Package) error {
	if len(packages) == 0 {
		return nil
	}

	dtos := make([]PackageDTO, 0, len(packages))
	for _, p := range packages {
		if err := p.Validate(); err != nil {
			return err
		}
		dtos = append(dtos, packageFromDomain(p))
	}

	if err := r.db.WithContext(ctx).Create(&dtos).Error; err != nil {
		switch {
		case pgerr.IsUniqueViolation(err, trackingCodeConstraint):
			return errs.NewValueIsInvalidErrorWithCause("tracking code",
				fmt.Errorf("tracking codes must be unique within route %s", packages[0].RouteID()))
		case pgerr.IsForeignKeyViolation(err, packageRouteConstraint):
			return errs.NewObjectNotFoundErrorWithCause("route", packages[0].RouteID(), err)
		}
		return pgerr.Translate("add packages", err)
	}
	return nil
}

// Get retrieves a package by ID.
func (r *GormPackageRepository) Get(ctx context.Context, id kernel.UUID) (*shipment.Package, error) {
	return r.get(r.db.WithContext(ctx), id)
}

// GetForUpdate retrieves a package and locks its row until the transaction ends.
func (r *GormPackageRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*shipment.Package, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormPackageRepository) get(db *gorm.DB, id kernel.UUID) (*shipment.Package, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto PackageDTO
	if err := db.First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("package", id.String())
		}
		return nil, pgerr.Translate("get package", err)
	}

	return packageToDomain(dto)
}

// ListByRoute returns the route's packages in manifest order.
func (r *GormPackageRepository) ListByRoute(ctx context.Context, routeID kernel.UUID) ([]*shipment.Package, error) {
	var dtos []PackageDTO
	if err := r.db.WithContext(ctx).
		Where("route_id = ?", routeID.Bytes()).
		Order("position, id").
		Find(&dtos).Error; err != nil {
		return nil, pgerr.Translate("list packages", err)
	}

	packages := make([]*shipment.Package, 0, len(dtos))
	for _, dto := range dtos {
		p, err := packageToDomain(dto)
		if err != nil {
			return nil, err
		}
		packages = append(packages, p)
	}

	return packages, nil
}

// CountByStatus counts the route's packages currently in status.
func (r *GormPackageRepository) CountByStatus(ctx context.Context, routeID kernel.UUID,
	status shipment.Status) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&PackageDTO{}).
		Where("route_id = ? AND status = ?", routeID.Bytes(), int(status)).
		Count(&count).Error; err != nil {
		return 0, pgerr.Translate("count packages", err)
	}
	return int(count), nil
}

// Update writes the package only while its stored status is still expected.
func (r *GormPackageRepository) Update(ctx context.Context, p *shipment.Package, expected shipment.Status) error {
	if err := p.Validate(); err != nil {
		return err
	}

	dto := packageFromDomain(p)
	result := r.db.WithContext(ctx).
		Model(&PackageDTO{}).
		Where("id = ? AND status = ?", dto.ID, int(expected)).
		Updates(map[string]any{
			"status":     dto.Status,
			"updated_at": dto.UpdatedAt,
		})
	if result.Error != nil {
		return pgerr.Translate("update package", result.Error)
	}

	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&PackageDTO{}).Where("id = ?", dto.ID).Count(&count).Error; err != nil {
		return pgerr.Translate("check package", err)
	}
	if count == 0 {
		return errs.NewObjectNotFoundError("package", p.ID().String())
	}
	return errs.NewConcurrentUpdateError("package", p.ID().String())
}
