package http

import (
	"time"

	"lastmile/internal/core/application/usecases/commands"
	"lastmile/internal/core/application/usecases/queries"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/route"
	"lastmile/internal/core/domain/model/shipment"
	"lastmile/internal/core/domain/services"
	"lastmile/internal/core/ports"
	"lastmile/internal/pkg/errs"

	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"
)

type createdResponse struct {
	ID string `json:"id"`
}

type payRateRequest struct {
	Kind   string          `json:"kind"`
	Amount decimal.Decimal `json:"amount"`
}

type newDriverRequest struct {
	ExternalID  string          `json:"external_id"`
	DisplayName string          `json:"display_name"`
	Role        string          `json:"role"`
	PayRate     *payRateRequest `json:"pay_rate"`
}

type locationFixRequest struct {
	Lat       float64  `json:"lat"`
	Lon       float64  `json:"lon"`
	AccuracyM *float64 `json:"accuracy_m"`
}

type newPackageRequest struct {
	TrackingCode string   `json:"tracking_code"`
	Address      string   `json:"address"`
	Neighborhood string   `json:"neighborhood"`
	Phone        string   `json:"phone"`
	Lat          *float64 `json:"lat"`
	Lon          *float64 `json:"lon"`
}

type newRouteRequest struct {
	Name     string              `json:"name"`
	DriverID *openapi_types.UUID `json:"driver_id"`
	Packages []newPackageRequest `json:"packages"`
}

type financialInputsRequest struct {
	KmStart       *decimal.Decimal `json:"km_start"`
	KmEnd         *decimal.Decimal `json:"km_end"`
	GpsKm         *decimal.Decimal `json:"gps_km"`
	UseProofTrail bool             `json:"use_proof_trail"`
	ExtraExpenses decimal.Decimal  `json:"extra_expenses"`
	ExtraIncome   decimal.Decimal  `json:"extra_income"`
	DriverSalary  *decimal.Decimal `json:"driver_salary"`
}

func (r financialInputsRequest) inputs() commands.FinancialInputs {
	return commands.FinancialInputs{
		KmStart:       nullDecimal(r.KmStart),
		KmEnd:         nullDecimal(r.KmEnd),
		GpsKm:         nullDecimal(r.GpsKm),
		UseProofTrail: r.UseProofTrail,
		ExtraExpenses: r.ExtraExpenses,
		ExtraIncome:   r.ExtraIncome,
		DriverSalary:  nullDecimal(r.DriverSalary),
	}
}

type newMileageRequest struct {
	KmStart    *decimal.Decimal   `json:"km_start"`
	KmEnd      *decimal.Decimal   `json:"km_end"`
	Distance   *decimal.Decimal   `json:"distance"`
	RecordedOn openapi_types.Date `json:"recorded_on"`
	Notes      string             `json:"notes"`
}

type proofRequest struct {
	ReceiverName     string   `json:"receiver_name"`
	ReceiverDocument string   `json:"receiver_document"`
	Notes            string   `json:"notes"`
	PhotoPath        string   `json:"photo_path"`
	SecondPhotoPath  string   `json:"second_photo_path"`
	Lat              *float64 `json:"lat"`
	Lon              *float64 `json:"lon"`
}

func (r *proofRequest) input(strict bool) (shipment.ProofInput, error) {
	if r == nil {
		return shipment.ProofInput{}, nil
	}
	point, err := kernel.ParseGeoPoint(r.Lat, r.Lon, strict)
	if err != nil {
		return shipment.ProofInput{}, err
	}
	return shipment.ProofInput{
		ReceiverName:     r.ReceiverName,
		ReceiverDocument: r.ReceiverDocument,
		Notes:            r.Notes,
		PhotoPath:        r.PhotoPath,
		SecondPhotoPath:  r.SecondPhotoPath,
		Location:         point,
	}, nil
}

type packageTransitionRequest struct {
	Status string        `json:"status"`
	Proof  *proofRequest `json:"proof"`
}

type newLedgerEntryRequest struct {
	RouteID     *openapi_types.UUID `json:"route_id"`
	Category    string              `json:"category"`
	Amount      decimal.Decimal     `json:"amount"`
	Description string              `json:"description"`
	OccurredOn  openapi_types.Date  `json:"occurred_on"`
}

type newSalaryPaymentRequest struct {
	DriverID openapi_types.UUID  `json:"driver_id"`
	RouteID  *openapi_types.UUID `json:"route_id"`
	Amount   decimal.Decimal     `json:"amount"`
	DueDate  openapi_types.Date  `json:"due_date"`
}

type confirmSalaryPaymentsRequest struct {
	PaymentIDs []openapi_types.UUID `json:"payment_ids"`
}

type newTokenRequest struct {
	Kind       string               `json:"kind"`
	TargetIDs  []openapi_types.UUID `json:"target_ids"`
	TTLSeconds *int64               `json:"ttl_seconds"`
}

type resolveTokenRequest struct {
	Proof *proofRequest `json:"proof"`
}

type routeSummary struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	DriverID    *string    `json:"driver_id"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
	FinalizedAt *time.Time `json:"finalized_at"`
	FinalizedBy string     `json:"finalized_by,omitempty"`
}

func summaryOf(s route.Snapshot) routeSummary {
	return routeSummary{
		ID:          s.ID.String(),
		Name:        s.Name,
		DriverID:    idString(s.DriverID),
		Status:      s.Status.String(),
		CreatedAt:   s.CreatedAt,
		CompletedAt: s.CompletedAt,
		FinalizedAt: s.FinalizedAt,
		FinalizedBy: s.FinalizedBy,
	}
}

type packageView struct {
	ID           string    `json:"id"`
	Position     int       `json:"position"`
	TrackingCode string    `json:"tracking_code"`
	Address      string    `json:"address"`
	Neighborhood string    `json:"neighborhood"`
	Phone        string    `json:"phone"`
	Lat          *float64  `json:"lat"`
	Lon          *float64  `json:"lon"`
	Status       string    `json:"status"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type routeView struct {
	routeSummary
	DriverName string        `json:"driver_name,omitempty"`
	Packages   []packageView `json:"packages"`
}

func routeViewOf(r queries.GetRouteQueryResponse) routeView {
	view := routeView{
		routeSummary: routeSummary{
			ID:          r.ID.String(),
			Name:        r.Name,
			DriverID:    idString(r.DriverID),
			Status:      r.Status,
			CreatedAt:   r.CreatedAt,
			CompletedAt: r.CompletedAt,
			FinalizedAt: r.FinalizedAt,
			FinalizedBy: r.FinalizedBy,
		},
		DriverName: r.DriverName,
		Packages:   make([]packageView, 0, len(r.Packages)),
	}
	for _, p := range r.Packages {
		pv := packageView{
			ID:           p.ID.String(),
			Position:     p.Position,
			TrackingCode: p.TrackingCode,
			Address:      p.Address,
			Neighborhood: p.Neighborhood,
			Phone:        p.Phone,
			Status:       p.Status,
			UpdatedAt:    p.UpdatedAt,
		}
		if p.Point != nil {
			lat, lon := p.Point.Lat(), p.Point.Lon()
			pv.Lat, pv.Lon = &lat, &lon
		}
		view.Packages = append(view.Packages, pv)
	}
	return view
}

type settlementView struct {
	Revenue       decimal.Decimal     `json:"revenue"`
	TotalExpenses decimal.Decimal     `json:"total_expenses"`
	DriverSalary  decimal.Decimal     `json:"driver_salary"`
	NetProfit     decimal.Decimal     `json:"net_profit"`
	KmTotal       decimal.Decimal     `json:"km_total"`
	ExtraIncome   decimal.Decimal     `json:"extra_income"`
	ExtraExpenses decimal.Decimal     `json:"extra_expenses"`
	CostPerKm     decimal.NullDecimal `json:"cost_per_km"`
}

func settlementOf(s services.Settlement) settlementView {
	return settlementView{
		Revenue:       s.Revenue,
		TotalExpenses: s.TotalExpenses,
		DriverSalary:  s.DriverSalary,
		NetProfit:     s.NetProfit,
		KmTotal:       s.KmTotal,
		ExtraIncome:   s.ExtraIncome,
		ExtraExpenses: s.ExtraExpenses,
		CostPerKm:     s.CostPerKm,
	}
}

type finalizeResponse struct {
	Route           routeSummary   `json:"route"`
	Settlement      settlementView `json:"settlement"`
	SalaryPaymentID *string        `json:"salary_payment_id"`
}

type routeSettlementResponse struct {
	RouteID    string         `json:"route_id"`
	Status     string         `json:"status"`
	Final      bool           `json:"final"`
	Settlement settlementView `json:"settlement"`
}

type packageTransitionResponse struct {
	PackageID      string `json:"package_id"`
	RouteID        string `json:"route_id"`
	Status         string `json:"status"`
	ProofID        string `json:"proof_id"`
	RouteCompleted bool   `json:"route_completed"`
}

func transitionOf(r commands.PackageTransitionResult) packageTransitionResponse {
	return packageTransitionResponse{
		PackageID:      r.PackageID.String(),
		RouteID:        r.RouteID.String(),
		Status:         r.Status.String(),
		ProofID:        r.Proof.ID.String(),
		RouteCompleted: r.RouteCompleted,
	}
}

type driverLocationResponse struct {
	DriverID   string    `json:"driver_id"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	AccuracyM  *float64  `json:"accuracy_m"`
	RecordedAt time.Time `json:"recorded_at"`
}

func locationOf(loc ports.DriverLocation) driverLocationResponse {
	return driverLocationResponse{
		DriverID:   loc.DriverID.String(),
		Lat:        loc.Point.Lat(),
		Lon:        loc.Point.Lon(),
		AccuracyM:  loc.AccuracyM,
		RecordedAt: loc.RecordedAt,
	}
}

type salaryPaymentView struct {
	ID         string          `json:"id"`
	DriverID   string          `json:"driver_id"`
	DriverName string          `json:"driver_name"`
	RouteID    *string         `json:"route_id"`
	RouteName  string          `json:"route_name,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	DueDate    string          `json:"due_date"`
	Status     string          `json:"status"`
	PaidAt     *time.Time      `json:"paid_at"`
	PaidBy     string          `json:"paid_by,omitempty"`
}

func salaryPaymentsOf(views []queries.SalaryPaymentView) []salaryPaymentView {
	out := make([]salaryPaymentView, 0, len(views))
	for _, v := range views {
		out = append(out, salaryPaymentView{
			ID:         v.ID.String(),
			DriverID:   v.DriverID.String(),
			DriverName: v.DriverName,
			RouteID:    idString(v.RouteID),
			RouteName:  v.RouteName,
			Amount:     v.Amount,
			DueDate:    v.DueDate.String(),
			Status:     v.Status,
			PaidAt:     v.PaidAt,
			PaidBy:     v.PaidBy,
		})
	}
	return out
}

type tokenResponse struct {
	Token     string     `json:"token"`
	Kind      string     `json:"kind"`
	TargetIDs []string   `json:"target_ids"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type targetResult struct {
	TargetID       string     `json:"target_id"`
	OK             bool       `json:"ok"`
	Status         string     `json:"status,omitempty"`
	Changed        *bool      `json:"changed,omitempty"`
	RouteCompleted bool       `json:"route_completed,omitempty"`
	Error          *errorBody `json:"error,omitempty"`
}

type batchResponse struct {
	Consumed  bool           `json:"consumed"`
	Succeeded int            `json:"succeeded"`
	Results   []targetResult `json:"results"`
}

func paymentBatchOf(results []commands.PaymentResult) batchResponse {
	resp := batchResponse{Results: make([]targetResult, 0, len(results))}
	for _, r := range results {
		changed := r.Changed
		tr := targetResult{TargetID: r.PaymentID.String(), OK: r.Err == nil, Changed: &changed}
		if r.Err != nil {
			body := bodyFor(r.Err)
			tr.Error = &body
			tr.Changed = nil
		} else {
			tr.Status = r.Status.String()
			resp.Succeeded++
		}
		resp.Results = append(resp.Results, tr)
	}
	return resp
}

func resolveBatchOf(r commands.ResolveResult) batchResponse {
	resp := batchResponse{Consumed: r.Consumed, Succeeded: r.Succeeded(), Results: make([]targetResult, 0, len(r.Results))}
	for _, t := range r.Results {
		tr := targetResult{TargetID: t.TargetID.String(), OK: t.OK, Status: t.Status, RouteCompleted: t.RouteCompleted}
		if t.Err != nil {
			body := bodyFor(t.Err)
			tr.Error = &body
		}
		resp.Results = append(resp.Results, tr)
	}
	return resp
}

type reportLineView struct {
	RouteID    string         `json:"route_id"`
	RouteName  string         `json:"route_name"`
	Settlement settlementView `json:"settlement"`
}

type financialReportResponse struct {
	From            string           `json:"from"`
	To              string           `json:"to"`
	Lines           []reportLineView `json:"lines"`
	Revenue         decimal.Decimal  `json:"revenue"`
	TotalExpenses   decimal.Decimal  `json:"total_expenses"`
	DriverSalaries  decimal.Decimal  `json:"driver_salaries"`
	RouteNetProfit  decimal.Decimal  `json:"route_net_profit"`
	KmTotal         decimal.Decimal  `json:"km_total"`
	CompanyIncome   decimal.Decimal  `json:"company_income"`
	CompanyExpenses decimal.Decimal  `json:"company_expenses"`
	NetProfit       decimal.Decimal  `json:"net_profit"`
}

func reportOf(r queries.GetFinancialReportQueryResponse) financialReportResponse {
	resp := financialReportResponse{
		From:            r.From.String(),
		To:              r.To.String(),
		Lines:           make([]reportLineView, 0, len(r.Report.Lines)),
		Revenue:         r.Report.Revenue,
		TotalExpenses:   r.Report.TotalExpenses,
		DriverSalaries:  r.Report.DriverSalaries,
		RouteNetProfit:  r.Report.RouteNetProfit,
		KmTotal:         r.Report.KmTotal,
		CompanyIncome:   r.Report.CompanyIncome,
		CompanyExpenses: r.Report.CompanyExpenses,
		NetProfit:       r.Report.NetProfit,
	}
	for _, l := range r.Report.Lines {
		resp.Lines = append(resp.Lines, reportLineView{
			RouteID:    l.RouteID.String(),
			RouteName:  l.RouteName,
			Settlement: settlementOf(l.Settlement),
		})
	}
	return resp
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func idString(id *kernel.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func kernelID(name string, id openapi_types.UUID) (kernel.UUID, error) {
	out, err := kernel.UUIDFromBytes(id[:])
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause(name, err)
	}
	return out, nil
}

func optionalKernelID(name string, id *openapi_types.UUID) (*kernel.UUID, error) {
	if id == nil {
		return nil, nil
	}
	out, err := kernelID(name, *id)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func kernelIDs(name string, ids []openapi_types.UUID) ([]kernel.UUID, error) {
	out := make([]kernel.UUID, 0, len(ids))
	for _, id := range ids {
		k, err := kernelID(name, id)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

func kernelDate(d openapi_types.Date) kernel.Date {
	if d.Time.IsZero() {
		return kernel.Date{}
	}
	return kernel.NewDate(d.Year(), d.Month(), d.Day())
}
