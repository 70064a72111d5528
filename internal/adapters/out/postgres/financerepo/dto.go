// Package financerepo persists the expense, income and mileage rows of the ledger.
package financerepo

import (
	"time"

	"lastmile/internal/core/domain/model/finance"
	"lastmile/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryDTO holds the columns shared by expenses and incomes.
type EntryDTO struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	RouteID     *uuid.UUID      `gorm:"type:uuid;index"`
	Category    string          `gorm:"type:varchar(32);not null"`
	Description string          `gorm:"type:varchar(500);not null"`
	Amount      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	OccurredOn  time.Time       `gorm:"type:date;not null"`
	CreatedBy   string          `gorm:"type:varchar(64);not null"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime:false"`
}

type ExpenseDTO struct {
	EntryDTO `gorm:"embedded"`
}

func (ExpenseDTO) TableName() string {
	return "expenses"
}

type IncomeDTO struct {
	EntryDTO `gorm:"embedded"`
}

func (IncomeDTO) TableName() string {
	return "incomes"
}

// MileageDTO stores either an odometer pair or a bare distance.
type MileageDTO struct {
	ID         uuid.UUID           `gorm:"type:uuid;primaryKey"`
	RouteID    uuid.UUID           `gorm:"type:uuid;not null;index"`
	KmStart    decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	KmEnd      decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	Distance   decimal.Decimal     `gorm:"type:numeric(12,2);not null"`
	RecordedOn time.Time           `gorm:"type:date;not null"`
	Notes      string              `gorm:"not null"`
	CreatedBy  string              `gorm:"type:varchar(64);not null"`
	CreatedAt  time.Time           `gorm:"not null;autoCreateTime:false"`
}

func (MileageDTO) TableName() string {
	return "mileages"
}

func entryFromDomain(e finance.Entry, category string) EntryDTO {
	var routeID *uuid.UUID
	if e.RouteID != nil {
		raw := e.RouteID.Bytes()
		routeID = &raw
	}
	return EntryDTO{
		ID:          e.ID.Bytes(),
		RouteID:     routeID,
		Category:    category,
		Description: e.Description,
		Amount:      e.Amount,
		OccurredOn:  e.OccurredOn.Time(),
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt,
	}
}

func entryToDomain(dto EntryDTO) (finance.Entry, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return finance.Entry{}, err
	}
	var routeID *kernel.UUID
	if dto.RouteID != nil {
		rid, ridErr := kernel.UUIDFromBytes((*dto.RouteID)[:])
		if ridErr != nil {
			return finance.Entry{}, ridErr
		}
		routeID = &rid
	}
	return finance.Entry{
		ID:          id,
		RouteID:     routeID,
		Description: dto.Description,
		Amount:      dto.Amount,
		OccurredOn:  kernel.DateFromTime(dto.OccurredOn),
		CreatedBy:   dto.CreatedBy,
		CreatedAt:   dto.CreatedAt,
	}, nil
}

func expenseToDomain(dto ExpenseDTO) (finance.Expense, error) {
	entry, err := entryToDomain(dto.EntryDTO)
	if err != nil {
		return finance.Expense{}, err
	}
	category, err := finance.ParseExpenseCategory(dto.Category)
	if err != nil {
		return finance.Expense{}, err
	}
	return finance.NewExpense(entry, category)
}

func incomeToDomain(dto IncomeDTO) (finance.Income, error) {
	entry, err := entryToDomain(dto.EntryDTO)
	if err != nil {
		return finance.Income{}, err
	}
	category, err := finance.ParseIncomeCategory(dto.Category)
	if err != nil {
		return finance.Income{}, err
	}
	return finance.NewIncome(entry, category)
}

func mileageFromDomain(m finance.Mileage) MileageDTO {
	return MileageDTO{
		ID:         m.ID.Bytes(),
		RouteID:    m.RouteID.Bytes(),
		KmStart:    m.KmStart,
		KmEnd:      m.KmEnd,
		Distance:   m.Distance,
		RecordedOn: m.RecordedOn.Time(),
		Notes:      m.Notes,
		CreatedBy:  m.CreatedBy,
		CreatedAt:  m.CreatedAt,
	}
}

func mileageToDomain(dto MileageDTO) (finance.Mileage, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return finance.Mileage{}, err
	}
	routeID, err := kernel.UUIDFromBytes(dto.RouteID[:])
	if err != nil {
		return finance.Mileage{}, err
	}
	on := kernel.DateFromTime(dto.RecordedOn)
	if dto.KmStart.Valid && dto.KmEnd.Valid {
		return finance.NewMileageFromOdometer(id, routeID, dto.KmStart.Decimal, dto.KmEnd.Decimal, on, dto.Notes,
			dto.CreatedBy, dto.CreatedAt)
	}
	return finance.NewMileage(id, routeID, dto.Distance, on, dto.Notes, dto.CreatedBy, dto.CreatedAt)
}
