package salaryrepo_test

import (
	"context"
	"testing"
	"time"

	"lastmile/internal/adapters/out/postgres/driverrepo"
	"lastmile/internal/adapters/out/postgres/pgtest"
	"lastmile/internal/adapters/out/postgres/routerepo"
	"lastmile/internal/adapters/out/postgres/salaryrepo"
	"lastmile/internal/core/domain/model/driver"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/route"
	"lastmile/internal/core/domain/model/salary"
	"lastmile/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

var (
	now   = time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC)
	today = kernel.NewDate(2026, time.March, 4)
)

// PaymentRepositoryIntegrationTestSuite verifies salary payment persistence and the
// scheduler selections against PostgreSQL.
type PaymentRepositoryIntegrationTestSuite struct {
	suite.Suite
	db       *pgtest.Database
	payments *salaryrepo.GormPaymentRepository
	drivers  *driverrepo.GormDriverRepository
}

func (suite *PaymentRepositoryIntegrationTestSuite) SetupSuite() {
	db, err := pgtest.Start(context.Background())
	suite.Require().NoError(err)
	suite.db = db
}

func (suite *PaymentRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Truncate())
	suite.payments = salaryrepo.NewGormPaymentRepository(suite.db.DB)
	suite.drivers = driverrepo.NewGormDriverRepository(suite.db.DB)
}

func (suite *PaymentRepositoryIntegrationTestSuite) TearDownSuite() {
	suite.Require().NoError(suite.db.Terminate(context.Background()))
}

func (suite *PaymentRepositoryIntegrationTestSuite) addDriver(externalID string) kernel.UUID {
	d, err := driver.NewDriver(kernel.NewUUID(), externalID, externalID, kernel.RoleDriver, driver.PayRate{}, now)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.drivers.Add(context.Background(), d))
	return d.ID()
}

func (suite *PaymentRepositoryIntegrationTestSuite) addPayment(driverID kernel.UUID, routeID *kernel.UUID,
	amount string, due kernel.Date) *salary.Payment {
	p, err := salary.NewPayment(kernel.NewUUID(), driverID, routeID, decimal.RequireFromString(amount), due, now)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.payments.Add(context.Background(), p))
	return p
}

func (suite *PaymentRepositoryIntegrationTestSuite) TestListDueOn_OnlyPendingOnTheDay() {
	ctx := context.Background()
	ana := suite.addDriver("tg-ana")
	due := suite.addPayment(ana, nil, "125.50", today)
	suite.addPayment(ana, nil, "10", today.AddDays(1))
	suite.addPayment(ana, nil, "20", today.AddDays(-1))
	paid := suite.addPayment(ana, nil, "30", today)
	_, err := paid.MarkPaid(kernel.SchedulerActor, now)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.payments.Update(ctx, paid, salary.Pending))

	payments, err := suite.payments.ListDueOn(ctx, today)

	suite.Require().NoError(err)
	suite.Require().Len(payments, 1)
	suite.Equal(due.ID(), payments[0].ID())
	suite.Equal("125.5", payments[0].Amount().String())
	suite.True(today.Equal(payments[0].DueDate()))
}

func (suite *PaymentRepositoryIntegrationTestSuite) TestMarkOverdueDueBefore_SingleBatch() {
	ctx := context.Background()
	ana := suite.addDriver("tg-ana")
	bruno := suite.addDriver("tg-bruno")
	suite.addPayment(ana, nil, "100", today.AddDays(-5))
	suite.addPayment(bruno, nil, "40", today.AddDays(-1))
	suite.addPayment(ana, nil, "70", today)

	changed, err := suite.payments.MarkOverdueDueBefore(ctx, today, now)
	suite.Require().NoError(err)
	suite.Equal(2, changed)

	again, err := suite.payments.MarkOverdueDueBefore(ctx, today, now.Add(time.Minute))
	suite.Require().NoError(err)
	suite.Equal(0, again, "already overdue rows are not counted twice")

	unpaid, err := suite.payments.ListUnpaidDueBefore(ctx, today)
	suite.Require().NoError(err)
	suite.Require().Len(unpaid, 2)
	for _, p := range unpaid {
		suite.Equal(salary.Overdue, p.Status())
		suite.True(now.Equal(p.UpdatedAt()))
	}
	suite.True(unpaid[0].DriverID().Compare(unpaid[1].DriverID()) < 0, "ordered by driver")
}

func (suite *PaymentRepositoryIntegrationTestSuite) TestAdd_SecondPaymentForRoute() {
	ctx := context.Background()
	ana := suite.addDriver("tg-ana")
	r, err := route.NewRoute(kernel.NewUUID(), "Centro", &ana, now)
	suite.Require().NoError(err)
	suite.Require().NoError(routerepo.NewGormRouteRepository(suite.db.DB).Add(ctx, r))
	routeID := r.ID()
	suite.addPayment(ana, &routeID, "50", today)

	p, err := salary.NewPayment(kernel.NewUUID(), ana, &routeID, decimal.RequireFromString("50"), today, now)
	suite.Require().NoError(err)
	err = suite.payments.Add(ctx, p)

	suite.Require().ErrorIs(err, errs.ErrAlreadyFinalized)
	exists, err := suite.payments.ExistsForRoute(ctx, routeID, ana)
	suite.Require().NoError(err)
	suite.True(exists)
	count, err := suite.payments.CountByDriver(ctx, ana)
	suite.Require().NoError(err)
	suite.Equal(1, count)
}

func (suite *PaymentRepositoryIntegrationTestSuite) TestAdd_UnknownDriver() {
	p, err := salary.NewPayment(kernel.NewUUID(), kernel.NewUUID(), nil, decimal.NewFromInt(5), today, now)
	suite.Require().NoError(err)

	err = suite.payments.Add(context.Background(), p)

	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *PaymentRepositoryIntegrationTestSuite) TestUpdate_PaidRoundTripAndStaleWrite() {
	ctx := context.Background()
	ana := suite.addDriver("tg-ana")
	p := suite.addPayment(ana, nil, "80", today)
	manager, err := kernel.NewActor("tg-manager", kernel.RoleManager)
	suite.Require().NoError(err)

	_, err = p.MarkPaid(manager, now.Add(time.Hour))
	suite.Require().NoError(err)
	suite.Require().NoError(suite.payments.Update(ctx, p, salary.Pending))

	stored, err := suite.payments.GetForUpdate(ctx, p.ID())
	suite.Require().NoError(err)
	suite.Equal(salary.Paid, stored.Status())
	suite.Equal("tg-manager", stored.PaidBy())
	suite.Require().NotNil(stored.PaidAt())
	suite.True(now.Add(time.Hour).Equal(*stored.PaidAt()))

	suite.Require().ErrorIs(suite.payments.Update(ctx, p, salary.Pending), errs.ErrTransientStore)
}

func TestPaymentRepositoryIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("integration suite needs docker")
	}
	suite.Run(t, new(PaymentRepositoryIntegrationTestSuite))
}
