// Package salaryrepo persists salary payment obligations.
package salaryrepo

import (
	"time"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/salary"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentDTO represents the database structure for persisting salary payments.
type PaymentDTO struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	DriverID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	RouteID   *uuid.UUID      `gorm:"type:uuid"`
	Amount    decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	DueDate   time.Time       `gorm:"type:date;not null"`
	Status    int             `gorm:"type:smallint;not null"`
	PaidAt    *time.Time
	PaidBy    string    `gorm:"type:varchar(64);not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (PaymentDTO) TableName() string {
	return "salary_payments"
}

func fromDomain(p *salary.Payment) PaymentDTO {
	var routeID *uuid.UUID
	if id := p.RouteID(); id != nil {
		raw := id.Bytes()
		routeID = &raw
	}

	return PaymentDTO{
		ID:        p.ID().Bytes(),
		DriverID:  p.DriverID().Bytes(),
		RouteID:   routeID,
		Amount:    p.Amount(),
		DueDate:   p.DueDate().Time(),
		Status:    int(p.Status()),
		PaidAt:    p.PaidAt(),
		PaidBy:    p.PaidBy(),
		CreatedAt: p.CreatedAt(),
		UpdatedAt: p.UpdatedAt(),
	}
}

func toDomain(dto PaymentDTO) (*salary.Payment, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	driverID, err := kernel.UUIDFromBytes(dto.DriverID[:])
	if err != nil {
		return nil, err
	}

	var routeID *kernel.UUID
	if dto.RouteID != nil {
		rID, routeErr := kernel.UUIDFromBytes((*dto.RouteID)[:])
		if routeErr != nil {
			return nil, routeErr
		}
		routeID = &rID
	}

	return salary.Restore(salary.Snapshot{
		ID:        id,
		DriverID:  driverID,
		RouteID:   routeID,
		Amount:    dto.Amount,
		DueDate:   kernel.DateFromTime(dto.DueDate),
		Status:    salary.Status(dto.Status),
		PaidAt:    dto.PaidAt,
		PaidBy:    dto.PaidBy,
		CreatedAt: dto.CreatedAt,
		UpdatedAt: dto.UpdatedAt,
	})
}
