package postgres_test

import (
	"time"

	"lastmile/internal/core/domain/model/driver"
	"lastmile/internal/core/domain/model/finance"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/route"
	"lastmile/internal/core/domain/model/salary"
	"lastmile/internal/core/domain/model/shipment"

	"github.com/shopspring/decimal"
)

var (
	baseTime = time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC)
	manager  = mustActor("tg-manager", kernel.RoleManager)
)

func mustActor(id string, role kernel.Role) kernel.Actor {
	a, err := kernel.NewActor(id, role)
	if err != nil {
		panic(err)
	}
	return a
}

func ptr[T any](v T) *T {
	return &v
}

func (suite *UnitOfWorkIntegrationTestSuite) newDriver(externalID string) *driver.Driver {
	rate, err := driver.NewPayRate(driver.RatePerRoute, decimal.RequireFromString("50"))
	suite.Require().NoError(err)
	d, err := driver.NewDriver(kernel.NewUUID(), externalID, "Driver "+externalID, kernel.RoleDriver, rate, baseTime)
	suite.Require().NoError(err)
	return d
}

func (suite *UnitOfWorkIntegrationTestSuite) newRoute(driverID *kernel.UUID) *route.Route {
	r, err := route.NewRoute(kernel.NewUUID(), "Centro", driverID, baseTime)
	suite.Require().NoError(err)
	return r
}

func (suite *UnitOfWorkIntegrationTestSuite) newPackages(routeID kernel.UUID, codes ...string) []*shipment.Package {
	packages := make([]*shipment.Package, 0, len(codes))
	for i, code := range codes {
		p, err := shipment.NewPackage(kernel.NewUUID(), routeID, i+1, code,
			shipment.Destination{Address: "Rua " + code}, baseTime)
		suite.Require().NoError(err)
		packages = append(packages, p)
	}
	return packages
}

func (suite *UnitOfWorkIntegrationTestSuite) deliver(p *shipment.Package, driverID *kernel.UUID) *shipment.DeliveryProof {
	proof, err := p.Transition(shipment.TransitionRequest{
		Target:   shipment.Delivered,
		Proof:    shipment.ProofInput{ReceiverName: "Maria", ReceiverDocument: "123"},
		Actor:    manager,
		DriverID: driverID,
		At:       baseTime.Add(time.Hour),
	})
	suite.Require().NoError(err)
	return proof
}

func (suite *UnitOfWorkIntegrationTestSuite) newPayment(driverID kernel.UUID, routeID *kernel.UUID,
	amount string, due kernel.Date) *salary.Payment {
	p, err := salary.NewPayment(kernel.NewUUID(), driverID, routeID, decimal.RequireFromString(amount), due, baseTime)
	suite.Require().NoError(err)
	return p
}

func (suite *UnitOfWorkIntegrationTestSuite) newExpense(routeID *kernel.UUID, amount string) finance.Expense {
	e, err := finance.NewExpense(finance.Entry{
		ID:          kernel.NewUUID(),
		RouteID:     routeID,
		Description: "fuel",
		Amount:      decimal.RequireFromString(amount),
		OccurredOn:  kernel.DateFromTime(baseTime),
		CreatedBy:   manager.ID(),
		CreatedAt:   baseTime,
	}, finance.ExpenseFuel)
	suite.Require().NoError(err)
	return e
}

func (suite *UnitOfWorkIntegrationTestSuite) newIncome(routeID *kernel.UUID, amount string) finance.Income {
	i, err := finance.NewIncome(finance.Entry{
		ID:         kernel.NewUUID(),
		RouteID:    routeID,
		Amount:     decimal.RequireFromString(amount),
		OccurredOn: kernel.DateFromTime(baseTime),
		CreatedBy:  manager.ID(),
		CreatedAt:  baseTime,
	}, finance.IncomeDelivery)
	suite.Require().NoError(err)
	return i
}

func (suite *UnitOfWorkIntegrationTestSuite) count(table string) int64 {
	var n int64
	suite.Require().NoError(suite.db.DB.Table(table).Count(&n).Error)
	return n
}
