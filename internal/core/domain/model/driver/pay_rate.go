package driver

import (
	"fmt"

	"lastmile/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// RateKind selects how a driver's salary for a route is derived.
type RateKind string

const (
	RateNone       RateKind = "none"
	RatePerRoute   RateKind = "per_route"
	RatePerPackage RateKind = "per_package"
)

func ParseRateKind(s string) (RateKind, error) {
	switch k := RateKind(s); k {
	case RateNone, RatePerRoute, RatePerPackage:
		return k, nil
	case "":
		return RateNone, nil
	default:
		return "", errs.NewValueIsInvalidErrorWithCause("pay rate kind", fmt.Errorf("%q is not a rate kind", s))
	}
}

// PayRate is the driver's configured pay; it is read once at finalization and the
// resulting salary is frozen into the route.
type PayRate struct {
	kind   RateKind
	amount decimal.Decimal
}

func NewPayRate(kind RateKind, amount decimal.Decimal) (PayRate, error) {
	if _, err := ParseRateKind(string(kind)); err != nil {
		return PayRate{}, err
	}
	if amount.IsNegative() {
		return PayRate{}, errs.NewValueIsInvalidErrorWithCause("pay rate amount", fmt.Errorf("%s is negative", amount))
	}
	if kind == RateNone && !amount.IsZero() {
		return PayRate{}, errs.NewValueIsInvalidErrorWithCause("pay rate amount", fmt.Errorf("rate kind none carries no amount"))
	}
	if kind == "" {
		kind = RateNone
	}
	return PayRate{kind: kind, amount: amount}, nil
}

func (r PayRate) Kind() RateKind {
	if r.kind == "" {
		return RateNone
	}
	return r.kind
}

func (r PayRate) Amount() decimal.Decimal {
	return r.amount
}

// SalaryFor returns the pay owed for a route with deliveredPackages delivered packages.
func (r PayRate) SalaryFor(deliveredPackages int) decimal.Decimal {
	switch r.kind {
	case RatePerRoute:
		return r.amount
	case RatePerPackage:
		return r.amount.Mul(decimal.NewFromInt(int64(deliveredPackages)))
	default:
		return decimal.Zero
	}
}
