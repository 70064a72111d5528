// Package driverrepo persists driver aggregates.
package driverrepo

import (
	"time"

	"lastmile/internal/core/domain/model/driver"
	"lastmile/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DriverDTO represents the database structure for persisting drivers.
type DriverDTO struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ExternalID    string          `gorm:"type:varchar(64);not null;uniqueIndex:drivers_external_id_key"`
	DisplayName   string          `gorm:"type:varchar(255);not null"`
	Role          string          `gorm:"type:varchar(16);not null"`
	PayRateKind   string          `gorm:"type:varchar(16);not null"`
	PayRateAmount decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	CreatedAt     time.Time       `gorm:"not null"`
}

func (DriverDTO) TableName() string {
	return "drivers"
}

func fromDomain(d *driver.Driver) DriverDTO {
	return DriverDTO{
		ID:            d.ID().Bytes(),
		ExternalID:    d.ExternalID(),
		DisplayName:   d.DisplayName(),
		Role:          d.Role().String(),
		PayRateKind:   string(d.PayRate().Kind()),
		PayRateAmount: d.PayRate().Amount(),
		CreatedAt:     d.CreatedAt(),
	}
}

func toDomain(dto DriverDTO) (*driver.Driver, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	role, err := kernel.ParseRole(dto.Role)
	if err != nil {
		return nil, err
	}

	kind, err := driver.ParseRateKind(dto.PayRateKind)
	if err != nil {
		return nil, err
	}
	rate, err := driver.NewPayRate(kind, dto.PayRateAmount)
	if err != nil {
		return nil, err
	}

	return driver.Restore(driver.Snapshot{
		ID:          id,
		ExternalID:  dto.ExternalID,
		DisplayName: dto.DisplayName,
		Role:        role,
		PayRate:     rate,
		CreatedAt:   dto.CreatedAt,
	})
}
