package queries

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/salary"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListSalaryPaymentsQueryHandler lists payments ordered by due date, then driver name.
type ListSalaryPaymentsQueryHandler struct {
	db *gorm.DB
}

func NewListSalaryPaymentsQueryHandler(db *gorm.DB) ListSalaryPaymentsQueryHandler {
	return ListSalaryPaymentsQueryHandler{db: db}
}

func (h ListSalaryPaymentsQueryHandler) Handle(
	ctx context.Context,
	query ListSalaryPaymentsQuery,
) ([]SalaryPaymentView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	stmt := h.db.WithContext(ctx).
		Table("salary_payments sp").
		Select(`sp.id, sp.driver_id, d.display_name, sp.route_id, r.name, sp.amount, sp.due_date,
			sp.status, sp.paid_at, sp.paid_by`).
		Joins("JOIN drivers d ON d.id = sp.driver_id").
		Joins("LEFT JOIN routes r ON r.id = sp.route_id")
	if query.DriverID() != nil {
		stmt = stmt.Where("sp.driver_id = ?", query.DriverID().String())
	}
	if statuses := query.Statuses(); len(statuses) > 0 {
		codes := make([]int, 0, len(statuses))
		for _, s := range statuses {
			codes = append(codes, int(s))
		}
		stmt = stmt.Where("sp.status IN ?", codes)
	}

	rows, err := stmt.Order("sp.due_date, d.display_name, sp.id").Rows()
	if err != nil {
		return nil, fmt.Errorf("list salary payments: %w", err)
	}
	defer rows.Close()

	payments := make([]SalaryPaymentView, 0)
	for rows.Next() {
		var (
			p         SalaryPaymentView
			id        uuid.UUID
			driverID  uuid.UUID
			routeID   *uuid.UUID
			routeName sql.NullString
			dueDate   time.Time
			status    int
		)
		if err = rows.Scan(&id, &driverID, &p.DriverName, &routeID, &routeName, &p.Amount, &dueDate,
			&status, &p.PaidAt, &p.PaidBy); err != nil {
			return nil, err
		}

		if p.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
			return nil, err
		}
		if p.DriverID, err = kernel.UUIDFromBytes(driverID[:]); err != nil {
			return nil, err
		}
		if routeID != nil {
			r, idErr := kernel.UUIDFromBytes(routeID[:])
			if idErr != nil {
				return nil, idErr
			}
			p.RouteID = &r
		}
		p.RouteName = routeName.String
		p.DueDate = kernel.DateFromTime(dueDate)
		p.Status = salary.Status(status).String()
		payments = append(payments, p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}
