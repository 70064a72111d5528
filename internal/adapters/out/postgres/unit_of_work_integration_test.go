package postgres_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	postgres_adapter "lastmile/internal/adapters/out/postgres"
	"lastmile/internal/adapters/out/postgres/pgtest"
	"lastmile/internal/core/domain/model/actiontoken"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/shipment"
	"lastmile/internal/core/ports"
	"lastmile/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// UnitOfWorkIntegrationTestSuite exercises the GORM unit of work and the schema
// constraints it relies on against a real PostgreSQL database.
type UnitOfWorkIntegrationTestSuite struct {
	suite.Suite
	db      *pgtest.Database
	factory ports.UnitOfWorkFactory
}

func (suite *UnitOfWorkIntegrationTestSuite) SetupSuite() {
	db, err := pgtest.Start(context.Background())
	suite.Require().NoError(err)
	suite.db = db
	suite.factory = postgres_adapter.NewGormUnitOfWorkFactory(db.DB)
}

func (suite *UnitOfWorkIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Truncate())
}

func (suite *UnitOfWorkIntegrationTestSuite) TearDownSuite() {
	suite.Require().NoError(suite.db.Terminate(context.Background()))
}

func (suite *UnitOfWorkIntegrationTestSuite) TestMigrate_IsIdempotent() {
	applied, err := postgres_adapter.Migrate(context.Background(), suite.db.DB)

	suite.Require().NoError(err)
	suite.Empty(applied, "every embedded migration was applied at startup")

	var versions []string
	suite.Require().NoError(suite.db.DB.Raw("SELECT version FROM schema_migrations ORDER BY version").
		Scan(&versions).Error)
	suite.Equal([]string{"0001_init", "0002_settlement_indexes"}, versions)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWorkFactory_Create() {
	uow1 := suite.factory.Create()
	uow2 := suite.factory.Create()

	suite.NotSame(uow1, uow2, "Factory should create separate instances")
	suite.NotNil(uow1.RouteRepository())
	suite.NotNil(uow2.ActionTokenRepository())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_TransactionLifecycle() {
	ctx := context.Background()
	uow := suite.factory.Create()

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.Begin(ctx), "Multiple begin calls should be safe")
	suite.Require().NoError(uow.Commit(ctx))

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.Rollback(ctx))
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_TransactionErrors() {
	ctx := context.Background()
	uow := suite.factory.Create()

	suite.Require().ErrorIs(uow.Commit(ctx), gorm.ErrInvalidTransaction)
	suite.Require().ErrorIs(uow.Rollback(ctx), gorm.ErrInvalidTransaction)
	suite.Require().ErrorIs(uow.SavePoint(ctx, "item_0"), gorm.ErrInvalidTransaction)

	suite.Require().NoError(uow.Begin(ctx))
	defer func() { _ = uow.Rollback(ctx) }()
	suite.Require().ErrorIs(uow.SavePoint(ctx, "item; DROP TABLE routes"), errs.ErrValueIsInvalid)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_CommitSpansRepositories() {
	ctx := context.Background()
	d := suite.newDriver("tg-100")
	r := suite.newRoute(ptr(d.ID()))
	packages := suite.newPackages(r.ID(), "BR001", "BR002")

	uow := suite.factory.Create()
	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.DriverRepository().Add(ctx, d))
	suite.Require().NoError(uow.RouteRepository().Add(ctx, r))
	suite.Require().NoError(uow.PackageRepository().AddAll(ctx, packages))

	// Nothing is visible outside the transaction before commit
	suite.Equal(int64(0), suite.count("routes"))

	suite.Require().NoError(uow.Commit(ctx))
	suite.Equal(int64(1), suite.count("routes"))
	suite.Equal(int64(2), suite.count("packages"))

	stored, err := suite.factory.Create().RouteRepository().Get(ctx, r.ID())
	suite.Require().NoError(err)
	suite.Equal(d.ID(), *stored.DriverID())
	suite.True(baseTime.Equal(stored.CreatedAt()))
	suite.True(stored.Financials().IsUnset())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_RollbackDiscards() {
	ctx := context.Background()
	uow := suite.factory.Create()

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.DriverRepository().Add(ctx, suite.newDriver("tg-101")))
	suite.Require().NoError(uow.Rollback(ctx))

	suite.Equal(int64(0), suite.count("drivers"))
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_SavepointRecoversAbortedItem() {
	ctx := context.Background()
	r := suite.newRoute(nil)
	packages := suite.newPackages(r.ID(), "BR001", "BR002")
	suite.Require().NoError(suite.factory.Create().RouteRepository().Add(ctx, r))
	suite.Require().NoError(suite.factory.Create().PackageRepository().AddAll(ctx, packages))

	first := suite.deliver(packages[0], nil)
	suite.Require().NoError(suite.factory.Create().ProofRepository().Add(ctx, first))

	uow := suite.factory.Create()
	suite.Require().NoError(uow.Begin(ctx))
	defer func() { _ = uow.Rollback(ctx) }()

	// Given a batch item that violates the one-proof-per-package constraint
	suite.Require().NoError(uow.SavePoint(ctx, "item_0"))
	reloaded, err := uow.PackageRepository().Get(ctx, packages[0].ID())
	suite.Require().NoError(err)
	dupErr := uow.ProofRepository().Add(ctx, suite.deliver(reloaded, nil))
	suite.Require().ErrorIs(dupErr, errs.ErrValueIsInvalid)

	// When the item is rolled back to its savepoint, the next item still succeeds
	suite.Require().NoError(uow.RollbackTo(ctx, "item_0"))
	suite.Require().NoError(uow.SavePoint(ctx, "item_1"))
	suite.Require().NoError(uow.ProofRepository().Add(ctx, suite.deliver(packages[1], nil)))
	suite.Require().NoError(uow.Commit(ctx))

	// Then
	suite.Equal(int64(2), suite.count("delivery_proofs"))
}

func (suite *UnitOfWorkIntegrationTestSuite) TestRouteDelete_CascadesOwnedRows() {
	ctx := context.Background()
	d := suite.newDriver("tg-102")
	r := suite.newRoute(ptr(d.ID()))
	packages := suite.newPackages(r.ID(), "BR001", "BR002")
	repos := suite.factory.Create()
	suite.Require().NoError(repos.DriverRepository().Add(ctx, d))
	suite.Require().NoError(repos.RouteRepository().Add(ctx, r))
	suite.Require().NoError(repos.PackageRepository().AddAll(ctx, packages))
	suite.Require().NoError(repos.ProofRepository().Add(ctx, suite.deliver(packages[0], ptr(d.ID()))))
	suite.Require().NoError(repos.FinanceRepository().AddExpense(ctx, suite.newExpense(ptr(r.ID()), "40")))
	suite.Require().NoError(repos.FinanceRepository().AddExpense(ctx, suite.newExpense(nil, "15")))
	suite.Require().NoError(repos.FinanceRepository().AddIncome(ctx, suite.newIncome(ptr(r.ID()), "150")))
	suite.Require().NoError(repos.SalaryPaymentRepository().Add(ctx,
		suite.newPayment(d.ID(), ptr(r.ID()), "50", kernel.NewDate(2026, time.March, 6))))

	uow := suite.factory.Create()
	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.RouteRepository().Delete(ctx, r.ID()))
	suite.Require().NoError(uow.Commit(ctx))

	for _, table := range []string{"routes", "packages", "delivery_proofs", "incomes", "salary_payments"} {
		suite.Equal(int64(0), suite.count(table), table)
	}
	suite.Equal(int64(1), suite.count("expenses"), "company-wide expense survives")
	suite.Equal(int64(1), suite.count("drivers"))

	err := suite.factory.Create().RouteRepository().Delete(ctx, r.ID())
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestDriverDelete_KeepsHistory() {
	ctx := context.Background()
	d := suite.newDriver("tg-103")
	r := suite.newRoute(ptr(d.ID()))
	packages := suite.newPackages(r.ID(), "BR001")
	repos := suite.factory.Create()
	suite.Require().NoError(repos.DriverRepository().Add(ctx, d))
	suite.Require().NoError(repos.RouteRepository().Add(ctx, r))
	suite.Require().NoError(repos.PackageRepository().AddAll(ctx, packages))
	suite.Require().NoError(repos.ProofRepository().Add(ctx, suite.deliver(packages[0], ptr(d.ID()))))

	suite.Require().NoError(repos.DriverRepository().Delete(ctx, d.ID()))

	stored, err := repos.RouteRepository().Get(ctx, r.ID())
	suite.Require().NoError(err)
	suite.Nil(stored.DriverID(), "route becomes unassigned")
	proof, err := repos.ProofRepository().GetByPackage(ctx, packages[0].ID())
	suite.Require().NoError(err)
	suite.Nil(proof.DriverID())
	suite.Equal("Maria", proof.ReceiverName())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestDriverDelete_RestrictedByPayments() {
	ctx := context.Background()
	d := suite.newDriver("tg-104")
	repos := suite.factory.Create()
	suite.Require().NoError(repos.DriverRepository().Add(ctx, d))
	suite.Require().NoError(repos.SalaryPaymentRepository().Add(ctx,
		suite.newPayment(d.ID(), nil, "80", kernel.NewDate(2026, time.March, 6))))

	err := repos.DriverRepository().Delete(ctx, d.ID())

	suite.Require().ErrorIs(err, errs.ErrValueIsInvalid)
	suite.Equal(int64(1), suite.count("drivers"))
}

func (suite *UnitOfWorkIntegrationTestSuite) TestConditionalUpdate_LostRaceIsTransient() {
	ctx := context.Background()
	r := suite.newRoute(nil)
	packages := suite.newPackages(r.ID(), "BR001")
	suite.Require().NoError(suite.factory.Create().RouteRepository().Add(ctx, r))
	suite.Require().NoError(suite.factory.Create().PackageRepository().AddAll(ctx, packages))

	// Given two writers that read the same pending package
	first, err := suite.factory.Create().PackageRepository().Get(ctx, packages[0].ID())
	suite.Require().NoError(err)
	second, err := suite.factory.Create().PackageRepository().Get(ctx, packages[0].ID())
	suite.Require().NoError(err)
	suite.deliver(first, nil)
	suite.deliver(second, nil)

	// When both write conditioned on the pending status
	suite.Require().NoError(suite.factory.Create().PackageRepository().Update(ctx, first, shipment.Pending))
	err = suite.factory.Create().PackageRepository().Update(ctx, second, shipment.Pending)

	// Then only the first write lands
	var conflict *errs.ConcurrentUpdateError
	suite.Require().ErrorAs(err, &conflict)
	suite.Require().ErrorIs(err, errs.ErrTransientStore)
	suite.Equal("package", conflict.Entity)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestTokenConsume_ExactlyOneWinner() {
	ctx := context.Background()
	key, err := actiontoken.GenerateKey()
	suite.Require().NoError(err)
	token, err := actiontoken.New(key, actiontoken.ConfirmSalaryBatch, []kernel.UUID{kernel.NewUUID()},
		manager.ID(), baseTime, 24*time.Hour)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.factory.Create().ActionTokenRepository().Add(ctx, token))

	const redeemers = 8
	var (
		wg       sync.WaitGroup
		winners  atomic.Int32
		consumed atomic.Int32
	)
	for range redeemers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			uow := suite.factory.Create()
			if err := uow.Begin(ctx); err != nil {
				return
			}
			defer func() { _ = uow.Rollback(ctx) }()

			t, err := uow.ActionTokenRepository().Get(ctx, key)
			if err != nil {
				return
			}
			if err = t.Consume(manager, baseTime.Add(time.Minute)); err != nil {
				consumed.Add(1)
				return
			}
			err = uow.ActionTokenRepository().MarkConsumed(ctx, t)
			switch {
			case err == nil:
				if uow.Commit(ctx) == nil {
					winners.Add(1)
				}
			case errors.Is(err, errs.ErrTokenAlreadyConsumed):
				consumed.Add(1)
			}
		}()
	}
	wg.Wait()

	suite.Equal(int32(1), winners.Load())
	suite.Equal(int32(redeemers-1), consumed.Load())

	stored, err := suite.factory.Create().ActionTokenRepository().Get(ctx, key)
	suite.Require().NoError(err)
	suite.True(stored.IsConsumed())
	suite.Equal(manager.ID(), stored.ConsumedBy())
	suite.Len(stored.Targets(), 1)
}

func TestUnitOfWorkIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("integration suite needs docker")
	}
	suite.Run(t, new(UnitOfWorkIntegrationTestSuite))
}
