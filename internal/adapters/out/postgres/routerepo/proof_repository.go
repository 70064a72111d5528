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
)

const (
	proofPackageUniqueConstraint = "delivery_proofs_package_id_key"
	proofPackageConstraint       = "delivery_proofs_package_id_fkey"
)

// GormProofRepository implements ProofRepository using GORM.
type GormProofRepository struct {
	db *gorm.DB
}

func NewGormProofRepository(db *gorm.DB) *GormProofRepository {
	return &GormProofRepository{db: db}
}

// Add inserts a proof. Proofs are never updated.
func (r *GormProofRepository) Add(ctx context.Context, p *shipment.DeliveryProof) error {
	if err := p.Validate(); err != nil {
		return err
	}

	dto := proofFromDomain(p)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		switch {
		case pgerr.IsUniqueViolation(err, proofPackageUniqueConstraint):
			return errs.NewValueIsInvalidErrorWithCause("proof",
				fmt.Errorf("package %s already has a delivery proof", p.PackageID()))
		case pgerr.IsForeignKeyViolation(err, proofPackageConstraint):
			return errs.NewObjectNotFoundErrorWithCause("package", p.PackageID(), err)
		}
		return pgerr.Translate("add proof", err)
	}
	return nil
}

// GetByPackage retrieves the proof recorded for packageID.
func (r *GormProofRepository) GetByPackage(ctx context.Context, packageID kernel.UUID) (*shipment.DeliveryProof, error) {
	if err := packageID.Validate(); err != nil {
		return nil, err
	}

	var dto ProofDTO
	if err := r.db.WithContext(ctx).First(&dto, "package_id = ?", packageID.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("proof", packageID.String())
		}
		return nil, pgerr.Translate("get proof", err)
	}

	return proofToDomain(dto)
}

// ListByRoute returns the proofs of the route's packages ordered by capture time.
func (r *GormProofRepository) ListByRoute(ctx context.Context, routeID kernel.UUID) ([]*shipment.DeliveryProof, error) {
	var dtos []ProofDTO
	if err := r.db.WithContext(ctx).
		Table("delivery_proofs").
		Select("delivery_proofs.*").
		Joins("JOIN packages ON packages.id = delivery_proofs.package_id").
		Where("packages.route_id = ?", routeID.Bytes()).
		Order("delivery_proofs.captured_at, delivery_proofs.id").
		Find(&dtos).Error; err != nil {
		return nil, pgerr.Translate("list proofs", err)
	}

	proofs := make([]*shipment.DeliveryProof, 0, len(dtos))
	for _, dto := range dtos {
		p, err := proofToDomain(dto)
		if err != nil {
			return nil, err
		}
		proofs = append(proofs, p)
	}

	return proofs, nil
}
