package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lastmile/internal/core/domain/model/driver"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/route"
	"lastmile/internal/core/domain/model/shipment"
	"lastmile/internal/core/domain/services"
	"lastmile/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GetRouteSettlementQueryHandler projects a route's settlement through the Ledger.
// Finalized routes are never recomputed from raw rows.
type GetRouteSettlementQueryHandler struct {
	db     *gorm.DB
	ledger services.Ledger
}

func NewGetRouteSettlementQueryHandler(db *gorm.DB, ledger services.Ledger) GetRouteSettlementQueryHandler {
	return GetRouteSettlementQueryHandler{db: db, ledger: ledger}
}

type settlementRow struct {
	status        int
	financials    route.Financials
	assigned      bool
	payRateKind   sql.NullString
	payRateAmount decimal.NullDecimal
	incomeTotal   decimal.Decimal
	expenseTotal  decimal.Decimal
	mileageTotal  decimal.NullDecimal
	delivered     int
}

func (h GetRouteSettlementQueryHandler) Handle(
	ctx context.Context,
	query GetRouteSettlementQuery,
) (GetRouteSettlementQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetRouteSettlementQueryResponse{}, err
	}

	db := h.db.WithContext(ctx)
	row, err := h.load(db, query.RouteID())
	if err != nil {
		return GetRouteSettlementQueryResponse{}, err
	}

	status := route.Status(row.status)
	response := GetRouteSettlementQueryResponse{
		RouteID: query.RouteID(),
		Status:  status.String(),
		Final:   status == route.Finalized,
	}
	if response.Final {
		response.Settlement, err = h.ledger.FromFinalized(row.financials)
		if err != nil {
			return GetRouteSettlementQueryResponse{}, errs.NewValueIsInvalidErrorWithCause(
				"route "+query.RouteID().String(), err)
		}
		return response, nil
	}

	in := services.SettlementInput{
		IncomeAmounts:  []decimal.Decimal{row.incomeTotal},
		ExpenseAmounts: []decimal.Decimal{row.expenseTotal},
		ExtraIncome:    decimal.NewNullDecimal(decimal.Zero),
		ExtraExpenses:  decimal.NewNullDecimal(decimal.Zero),
	}
	if row.mileageTotal.Valid {
		in.MileageKm = []decimal.Decimal{row.mileageTotal.Decimal}
	} else {
		trail, trailErr := h.trailKm(db, query.RouteID())
		if trailErr != nil {
			return GetRouteSettlementQueryResponse{}, trailErr
		}
		in.CalculatedKm = decimal.NewNullDecimal(trail)
	}

	var rate *driver.PayRate
	if row.assigned {
		kind, kindErr := driver.ParseRateKind(row.payRateKind.String)
		if kindErr != nil {
			return GetRouteSettlementQueryResponse{}, kindErr
		}
		r, rateErr := driver.NewPayRate(kind, row.payRateAmount.Decimal)
		if rateErr != nil {
			return GetRouteSettlementQueryResponse{}, rateErr
		}
		rate = &r
	}
	salary, err := h.ledger.ResolveDriverSalary(decimal.NullDecimal{}, rate, row.delivered)
	if err != nil {
		return GetRouteSettlementQueryResponse{}, err
	}
	in.DriverSalary = decimal.NewNullDecimal(salary)

	if response.Settlement, err = h.ledger.Settle(in); err != nil {
		return GetRouteSettlementQueryResponse{}, err
	}
	return response, nil
}

func (h GetRouteSettlementQueryHandler) load(db *gorm.DB, routeID kernel.UUID) (settlementRow, error) {
	var (
		row      settlementRow
		driverID sql.NullString
		f        = &row.financials
	)
	err := db.Raw(`
		SELECT
			r.status,
			r.revenue,
			r.total_expenses,
			r.net_profit,
			r.calculated_km,
			r.extra_expenses,
			r.extra_income,
			r.driver_salary,
			r.driver_id,
			d.pay_rate_kind,
			d.pay_rate_amount,
			(SELECT COALESCE(SUM(amount), 0) FROM incomes WHERE route_id = r.id),
			(SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE route_id = r.id),
			(SELECT SUM(distance) FROM mileages WHERE route_id = r.id),
			(SELECT COUNT(*) FROM packages WHERE route_id = r.id AND status = ?)
		FROM routes r
		LEFT JOIN drivers d ON d.id = r.driver_id
		WHERE r.id = ?
	`, int(shipment.Delivered), routeID.String()).Row().Scan(
		&row.status,
		&f.Revenue, &f.TotalExpenses, &f.NetProfit, &f.CalculatedKm, &f.ExtraExpenses, &f.ExtraIncome, &f.DriverSalary,
		&driverID, &row.payRateKind, &row.payRateAmount,
		&row.incomeTotal, &row.expenseTotal, &row.mileageTotal, &row.delivered,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return settlementRow{}, errs.NewObjectNotFoundError("route", routeID)
	}
	if err != nil {
		return settlementRow{}, fmt.Errorf("load route settlement: %w", err)
	}
	row.assigned = driverID.Valid
	return row, nil
}

// trailKm measures the route by the proofs' capture positions in capture order.
func (h GetRouteSettlementQueryHandler) trailKm(db *gorm.DB, routeID kernel.UUID) (decimal.Decimal, error) {
	rows, err := db.Raw(`
		SELECT dp.latitude, dp.longitude
		FROM delivery_proofs dp
		JOIN packages p ON p.id = dp.package_id
		WHERE p.route_id = ? AND dp.latitude IS NOT NULL AND dp.longitude IS NOT NULL
		ORDER BY dp.captured_at, dp.id
	`, routeID.String()).Rows()
	if err != nil {
		return decimal.Zero, fmt.Errorf("list proof positions: %w", err)
	}
	defer rows.Close()

	points := make([]kernel.GeoPoint, 0)
	for rows.Next() {
		var lat, lon float64
		if err = rows.Scan(&lat, &lon); err != nil {
			return decimal.Zero, err
		}
		point, pointErr := kernel.NewGeoPoint(lat, lon)
		if pointErr != nil {
			return decimal.Zero, pointErr
		}
		points = append(points, point)
	}
	if err = rows.Err(); err != nil {
		return decimal.Zero, err
	}
	return h.ledger.TrailKm(points)
}
