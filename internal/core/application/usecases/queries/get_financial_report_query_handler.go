package queries

import (
	"context"
	"fmt"
	"time"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/route"
	"lastmile/internal/core/domain/services"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GetFinancialReportQueryHandler sums the frozen values of routes finalized in the
// period plus the company-wide income and expense rows dated in it.
//
// Period days are operator-timezone days: a route finalized at 22:00 local time on the
// last day of the period belongs to it even when that instant is already the next day
// in UTC.
type GetFinancialReportQueryHandler struct {
	db       *gorm.DB
	ledger   services.Ledger
	location *time.Location
}

func NewGetFinancialReportQueryHandler(db *gorm.DB, ledger services.Ledger,
	location *time.Location) GetFinancialReportQueryHandler {
	if location == nil {
		location = time.UTC
	}
	return GetFinancialReportQueryHandler{db: db, ledger: ledger, location: location}
}

func (h GetFinancialReportQueryHandler) Handle(
	ctx context.Context,
	query GetFinancialReportQuery,
) (GetFinancialReportQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetFinancialReportQueryResponse{}, err
	}

	db := h.db.WithContext(ctx)
	routes, err := h.finalizedRoutes(db, query.From(), query.To())
	if err != nil {
		return GetFinancialReportQueryResponse{}, err
	}
	companyIncome, err := companyAmounts(db, "incomes", query.From(), query.To())
	if err != nil {
		return GetFinancialReportQueryResponse{}, err
	}
	companyExpenses, err := companyAmounts(db, "expenses", query.From(), query.To())
	if err != nil {
		return GetFinancialReportQueryResponse{}, err
	}

	report, err := h.ledger.Aggregate(routes, companyIncome, companyExpenses)
	if err != nil {
		return GetFinancialReportQueryResponse{}, err
	}
	return GetFinancialReportQueryResponse{From: query.From(), To: query.To(), Report: report}, nil
}

func (h GetFinancialReportQueryHandler) startOf(day kernel.Date) time.Time {
	t := day.Time()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, h.location)
}

func (h GetFinancialReportQueryHandler) finalizedRoutes(db *gorm.DB, from, to kernel.Date) ([]services.FinalizedRoute, error) {
	rows, err := db.Raw(`
		SELECT
			id,
			name,
			revenue,
			total_expenses,
			net_profit,
			calculated_km,
			extra_expenses,
			extra_income,
			driver_salary
		FROM routes
		WHERE status = ? AND finalized_at >= ? AND finalized_at < ?
		ORDER BY finalized_at, id
	`, int(route.Finalized), h.startOf(from), h.startOf(to.AddDays(1))).Rows()
	if err != nil {
		return nil, fmt.Errorf("list finalized routes: %w", err)
	}
	defer rows.Close()

	routes := make([]services.FinalizedRoute, 0)
	for rows.Next() {
		var (
			r  services.FinalizedRoute
			id uuid.UUID
			f  = &r.Financials
		)
		if err = rows.Scan(&id, &r.RouteName, &f.Revenue, &f.TotalExpenses, &f.NetProfit, &f.CalculatedKm,
			&f.ExtraExpenses, &f.ExtraIncome, &f.DriverSalary); err != nil {
			return nil, err
		}
		if r.RouteID, err = kernel.UUIDFromBytes(id[:]); err != nil {
			return nil, err
		}
		routes = append(routes, r)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return routes, nil
}

// companyAmounts returns the route-less rows of table dated within [from, to].
// table is one of the two ledger tables, never caller input.
func companyAmounts(db *gorm.DB, table string, from, to kernel.Date) ([]decimal.Decimal, error) {
	rows, err := db.Raw(fmt.Sprintf(`
		SELECT amount
		FROM %s
		WHERE route_id IS NULL AND occurred_on BETWEEN ? AND ?
		ORDER BY occurred_on, id
	`, table), from.String(), to.String()).Rows()
	if err != nil {
		return nil, fmt.Errorf("list company-wide %s: %w", table, err)
	}
	defer rows.Close()

	amounts := make([]decimal.Decimal, 0)
	for rows.Next() {
		var amount decimal.Decimal
		if err = rows.Scan(&amount); err != nil {
			return nil, err
		}
		amounts = append(amounts, amount)
	}
	return amounts, rows.Err()
}
