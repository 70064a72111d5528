package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"lastmile/internal/core/application/usecases/commands"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/shipment"
	"lastmile/internal/pkg/auth"
	"lastmile/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// Command names accepted in the envelope.
const (
	CommandTransitionPackage     = "transition_package"
	CommandResolveToken          = "resolve_token"
	CommandConfirmSalaryPayments = "confirm_salary_payments"
	CommandUpdateLocation        = "update_location"
	CommandCompleteRoute         = "complete_route"
	CommandFinalizeRoute         = "finalize_route"
	CommandIssueToken            = "issue_token"
)

const codeUnauthenticated = "unauthenticated"

type envelope struct {
	Command    string          `json:"command"`
	ActorToken string          `json:"actor_token"`
	Payload    json.RawMessage `json:"payload"`
}

type reply struct {
	OK     bool        `json:"ok"`
	Result any         `json:"result,omitempty"`
	Error  *replyError `json:"error,omitempty"`
}

type replyError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Entity  string `json:"entity,omitempty"`
	ID      string `json:"id,omitempty"`
	Rule    string `json:"rule,omitempty"`
}

func errorOf(err error) *replyError {
	if errors.Is(err, auth.ErrUnauthenticated) {
		return &replyError{Code: codeUnauthenticated, Message: "a valid actor token is required", Rule: "actor_token"}
	}
	d := errs.Describe(err)
	return &replyError{Code: string(d.Code), Message: d.Message, Entity: d.Entity, ID: d.ID, Rule: d.Rule}
}

type proofPayload struct {
	ReceiverName     string   `json:"receiver_name"`
	ReceiverDocument string   `json:"receiver_document"`
	Notes            string   `json:"notes"`
	PhotoPath        string   `json:"photo_path"`
	SecondPhotoPath  string   `json:"second_photo_path"`
	Lat              *float64 `json:"lat"`
	Lon              *float64 `json:"lon"`
}

func (p *proofPayload) input(strict bool) (shipment.ProofInput, error) {
	if p == nil {
		return shipment.ProofInput{}, nil
	}
	point, err := kernel.ParseGeoPoint(p.Lat, p.Lon, strict)
	if err != nil {
		return shipment.ProofInput{}, err
	}
	return shipment.ProofInput{
		ReceiverName:     p.ReceiverName,
		ReceiverDocument: p.ReceiverDocument,
		Notes:            p.Notes,
		PhotoPath:        p.PhotoPath,
		SecondPhotoPath:  p.SecondPhotoPath,
		Location:         point,
	}, nil
}

type transitionPackagePayload struct {
	PackageID string        `json:"package_id"`
	Status    string        `json:"status"`
	Proof     *proofPayload `json:"proof"`
}

type resolveTokenPayload struct {
	Token string        `json:"token"`
	Proof *proofPayload `json:"proof"`
}

type confirmSalaryPaymentsPayload struct {
	PaymentIDs []string `json:"payment_ids"`
}

type updateLocationPayload struct {
	DriverID  string   `json:"driver_id"`
	Lat       float64  `json:"lat"`
	Lon       float64  `json:"lon"`
	AccuracyM *float64 `json:"accuracy_m"`
}

type routePayload struct {
	RouteID string `json:"route_id"`
}

type finalizeRoutePayload struct {
	RouteID       string           `json:"route_id"`
	KmStart       *decimal.Decimal `json:"km_start"`
	KmEnd         *decimal.Decimal `json:"km_end"`
	GpsKm         *decimal.Decimal `json:"gps_km"`
	UseProofTrail bool             `json:"use_proof_trail"`
	ExtraExpenses decimal.Decimal  `json:"extra_expenses"`
	ExtraIncome   decimal.Decimal  `json:"extra_income"`
	DriverSalary  *decimal.Decimal `json:"driver_salary"`
}

func (p finalizeRoutePayload) inputs() commands.FinancialInputs {
	return commands.FinancialInputs{
		KmStart:       nullDecimal(p.KmStart),
		KmEnd:         nullDecimal(p.KmEnd),
		GpsKm:         nullDecimal(p.GpsKm),
		UseProofTrail: p.UseProofTrail,
		ExtraExpenses: p.ExtraExpenses,
		ExtraIncome:   p.ExtraIncome,
		DriverSalary:  nullDecimal(p.DriverSalary),
	}
}

type issueTokenPayload struct {
	Kind       string   `json:"kind"`
	TargetIDs  []string `json:"target_ids"`
	TTLSeconds *int64   `json:"ttl_seconds"`
}

type transitionResult struct {
	PackageID      string `json:"package_id"`
	RouteID        string `json:"route_id"`
	Status         string `json:"status"`
	RouteCompleted bool   `json:"route_completed"`
}

type targetResult struct {
	TargetID       string      `json:"target_id"`
	OK             bool        `json:"ok"`
	Status         string      `json:"status,omitempty"`
	RouteCompleted bool        `json:"route_completed,omitempty"`
	Error          *replyError `json:"error,omitempty"`
}

type batchResult struct {
	Consumed  bool           `json:"consumed"`
	Succeeded int            `json:"succeeded"`
	Results   []targetResult `json:"results"`
}

type routeResult struct {
	RouteID string `json:"route_id"`
	Status  string `json:"status"`
}

type finalizeResult struct {
	RouteID         string          `json:"route_id"`
	Revenue         decimal.Decimal `json:"revenue"`
	DriverSalary    decimal.Decimal `json:"driver_salary"`
	NetProfit       decimal.Decimal `json:"net_profit"`
	SalaryPaymentID string          `json:"salary_payment_id,omitempty"`
}

type tokenResult struct {
	Token     string     `json:"token"`
	Kind      string     `json:"kind"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func parseID(name, raw string) (kernel.UUID, error) {
	id, err := kernel.UUIDFromString(raw)
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause(name, err)
	}
	if err = id.Validate(); err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause(name, err)
	}
	return id, nil
}
