// Package routerepo persists routes together with the packages and delivery proofs
// they own.
package routerepo

import (
	"time"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/route"
	"lastmile/internal/core/domain/model/shipment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RouteDTO represents the database structure for persisting route aggregates.
// Financial columns stay NULL until the route is finalized.
type RouteDTO struct {
	ID            uuid.UUID           `gorm:"type:uuid;primaryKey"`
	Name          string              `gorm:"type:varchar(255);not null"`
	DriverID      *uuid.UUID          `gorm:"type:uuid;index"`
	Status        int                 `gorm:"type:smallint;not null"`
	Revenue       decimal.NullDecimal `gorm:"type:numeric(14,2)"`
	TotalExpenses decimal.NullDecimal `gorm:"type:numeric(14,2)"`
	NetProfit     decimal.NullDecimal `gorm:"type:numeric(14,2)"`
	CalculatedKm  decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	ExtraExpenses decimal.NullDecimal `gorm:"type:numeric(14,2)"`
	ExtraIncome   decimal.NullDecimal `gorm:"type:numeric(14,2)"`
	DriverSalary  decimal.NullDecimal `gorm:"type:numeric(14,2)"`
	CreatedAt     time.Time           `gorm:"not null;autoCreateTime:false"`
	CompletedAt   *time.Time
	FinalizedAt   *time.Time
	FinalizedBy   string `gorm:"type:varchar(64);not null"`
}

func (RouteDTO) TableName() string {
	return "routes"
}

// PackageDTO represents one manifest line of a route.
type PackageDTO struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	RouteID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Position     int       `gorm:"not null"`
	TrackingCode string    `gorm:"type:varchar(50);not null"`
	Address      string    `gorm:"type:varchar(500);not null"`
	Neighborhood string    `gorm:"type:varchar(255);not null"`
	Phone        string    `gorm:"type:varchar(32);not null"`
	Latitude     *float64
	Longitude    *float64
	Status       int       `gorm:"type:smallint;not null"`
	UpdatedAt    time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (PackageDTO) TableName() string {
	return "packages"
}

// ProofDTO is the write-once evidence of a package outcome.
type ProofDTO struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	PackageID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	Outcome          int        `gorm:"type:smallint;not null"`
	DriverID         *uuid.UUID `gorm:"type:uuid"`
	CapturedBy       string     `gorm:"type:varchar(64);not null"`
	ReceiverName     string
	ReceiverDocument string
	Notes            string
	PhotoPath        string
	SecondPhotoPath  string
	Latitude         *float64
	Longitude        *float64
	CapturedAt       time.Time `gorm:"not null"`
}

func (ProofDTO) TableName() string {
	return "delivery_proofs"
}

func routeFromDomain(r *route.Route) RouteDTO {
	f := r.Financials()
	return RouteDTO{
		ID:            r.ID().Bytes(),
		Name:          r.Name(),
		DriverID:      uuidPtr(r.DriverID()),
		Status:        int(r.Status()),
		Revenue:       f.Revenue,
		TotalExpenses: f.TotalExpenses,
		NetProfit:     f.NetProfit,
		CalculatedKm:  f.CalculatedKm,
		ExtraExpenses: f.ExtraExpenses,
		ExtraIncome:   f.ExtraIncome,
		DriverSalary:  f.DriverSalary,
		CreatedAt:     r.CreatedAt(),
		CompletedAt:   r.CompletedAt(),
		FinalizedAt:   r.FinalizedAt(),
		FinalizedBy:   r.FinalizedBy(),
	}
}

func routeToDomain(dto RouteDTO) (*route.Route, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	driverID, err := kernelPtr(dto.DriverID)
	if err != nil {
		return nil, err
	}

	return route.Restore(route.Snapshot{
		ID:       id,
		Name:     dto.Name,
		DriverID: driverID,
		Status:   route.Status(dto.Status),
		Financials: route.Financials{
			Revenue:       dto.Revenue,
			TotalExpenses: dto.TotalExpenses,
			NetProfit:     dto.NetProfit,
			CalculatedKm:  dto.CalculatedKm,
			ExtraExpenses: dto.ExtraExpenses,
			ExtraIncome:   dto.ExtraIncome,
			DriverSalary:  dto.DriverSalary,
		},
		CreatedAt:   dto.CreatedAt,
		CompletedAt: dto.CompletedAt,
		FinalizedAt: dto.FinalizedAt,
		FinalizedBy: dto.FinalizedBy,
	})
}

func packageFromDomain(p *shipment.Package) PackageDTO {
	d := p.Destination()
	lat, lon := coordinates(d.Point)
	return PackageDTO{
		ID:           p.ID().Bytes(),
		RouteID:      p.RouteID().Bytes(),
		Position:     p.Position(),
		TrackingCode: p.TrackingCode(),
		Address:      d.Address,
		Neighborhood: d.Neighborhood,
		Phone:        d.Phone,
		Latitude:     lat,
		Longitude:    lon,
		Status:       int(p.Status()),
		UpdatedAt:    p.UpdatedAt(),
	}
}

func packageToDomain(dto PackageDTO) (*shipment.Package, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	routeID, err := kernel.UUIDFromBytes(dto.RouteID[:])
	if err != nil {
		return nil, err
	}
	point, err := kernel.ParseGeoPoint(dto.Latitude, dto.Longitude, false)
	if err != nil {
		return nil, err
	}

	return shipment.RestorePackage(shipment.PackageSnapshot{
		ID:           id,
		RouteID:      routeID,
		Position:     dto.Position,
		TrackingCode: dto.TrackingCode,
		Destination: shipment.Destination{
			Address:      dto.Address,
			Neighborhood: dto.Neighborhood,
			Phone:        dto.Phone,
			Point:        point,
		},
		Status:    shipment.Status(dto.Status),
		UpdatedAt: dto.UpdatedAt,
	})
}

func proofFromDomain(p *shipment.DeliveryProof) ProofDTO {
	lat, lon := coordinates(p.Location())
	return ProofDTO{
		ID:               p.ID().Bytes(),
		PackageID:        p.PackageID().Bytes(),
		Outcome:          int(p.Outcome()),
		DriverID:         uuidPtr(p.DriverID()),
		CapturedBy:       p.CapturedBy(),
		ReceiverName:     p.ReceiverName(),
		ReceiverDocument: p.ReceiverDocument(),
		Notes:            p.Notes(),
		PhotoPath:        p.PhotoPath(),
		SecondPhotoPath:  p.SecondPhotoPath(),
		Latitude:         lat,
		Longitude:        lon,
		CapturedAt:       p.CapturedAt(),
	}
}

func proofToDomain(dto ProofDTO) (*shipment.DeliveryProof, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	packageID, err := kernel.UUIDFromBytes(dto.PackageID[:])
	if err != nil {
		return nil, err
	}
	driverID, err := kernelPtr(dto.DriverID)
	if err != nil {
		return nil, err
	}
	location, err := kernel.ParseGeoPoint(dto.Latitude, dto.Longitude, false)
	if err != nil {
		return nil, err
	}

	return shipment.RestoreDeliveryProof(shipment.ProofSnapshot{
		ID:               id,
		PackageID:        packageID,
		Outcome:          shipment.Status(dto.Outcome),
		DriverID:         driverID,
		CapturedBy:       dto.CapturedBy,
		ReceiverName:     dto.ReceiverName,
		ReceiverDocument: dto.ReceiverDocument,
		Notes:            dto.Notes,
		PhotoPath:        dto.PhotoPath,
		SecondPhotoPath:  dto.SecondPhotoPath,
		Location:         location,
		CapturedAt:       dto.CapturedAt,
	})
}

func coordinates(p *kernel.GeoPoint) (*float64, *float64) {
	if p == nil {
		return nil, nil
	}
	lat, lon := p.Lat(), p.Lon()
	return &lat, &lon
}

func uuidPtr(id *kernel.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	raw := id.Bytes()
	return &raw
}

func kernelPtr(raw *uuid.UUID) (*kernel.UUID, error) {
	if raw == nil {
		return nil, nil //nolint:nilnil // NULL column
	}
	id, err := kernel.UUIDFromBytes(raw[:])
	if err != nil {
		return nil, err
	}
	return &id, nil
}
