package driverrepo_test

import (
	"context"
	"testing"
	"time"

	"lastmile/internal/adapters/out/postgres/driverrepo"
	"lastmile/internal/adapters/out/postgres/pgtest"
	"lastmile/internal/core/domain/model/driver"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type DriverRepositoryIntegrationTestSuite struct {
	suite.Suite
	db         *pgtest.Database
	repository *driverrepo.GormDriverRepository
}

func (suite *DriverRepositoryIntegrationTestSuite) SetupSuite() {
	db, err := pgtest.Start(context.Background())
	suite.Require().NoError(err)
	suite.db = db
}

func (suite *DriverRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Truncate())
	suite.repository = driverrepo.NewGormDriverRepository(suite.db.DB)
}

func (suite *DriverRepositoryIntegrationTestSuite) TearDownSuite() {
	suite.Require().NoError(suite.db.Terminate(context.Background()))
}

func (suite *DriverRepositoryIntegrationTestSuite) newDriver(externalID, name string, role kernel.Role) *driver.Driver {
	rate, err := driver.NewPayRate(driver.RatePerPackage, decimal.RequireFromString("3.50"))
	suite.Require().NoError(err)
	d, err := driver.NewDriver(kernel.NewUUID(), externalID, name, role, rate,
		time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC))
	suite.Require().NoError(err)
	return d
}

func (suite *DriverRepositoryIntegrationTestSuite) TestAdd_RoundTrip() {
	ctx := context.Background()
	d := suite.newDriver("tg-1", "Ana", kernel.RoleDriver)
	suite.Require().NoError(suite.repository.Add(ctx, d))

	byID, err := suite.repository.Get(ctx, d.ID())
	suite.Require().NoError(err)
	byExternal, err := suite.repository.GetByExternalID(ctx, "tg-1")
	suite.Require().NoError(err)

	suite.Equal(d.ID(), byExternal.ID())
	suite.Equal("Ana", byID.DisplayName())
	suite.Equal(driver.RatePerPackage, byID.PayRate().Kind())
	suite.Equal("3.5", byID.PayRate().Amount().String())
	suite.True(d.CreatedAt().Equal(byID.CreatedAt()))
}

func (suite *DriverRepositoryIntegrationTestSuite) TestAdd_DuplicateExternalID() {
	ctx := context.Background()
	suite.Require().NoError(suite.repository.Add(ctx, suite.newDriver("tg-1", "Ana", kernel.RoleDriver)))

	err := suite.repository.Add(ctx, suite.newDriver("tg-1", "Imposter", kernel.RoleManager))

	suite.Require().ErrorIs(err, errs.ErrValueIsInvalid)
	suite.Contains(err.Error(), "external id")
}

func (suite *DriverRepositoryIntegrationTestSuite) TestListByRole_OrderedByName() {
	ctx := context.Background()
	for _, d := range []*driver.Driver{
		suite.newDriver("tg-3", "Carla", kernel.RoleManager),
		suite.newDriver("tg-1", "Bruno", kernel.RoleManager),
		suite.newDriver("tg-2", "Ana", kernel.RoleDriver),
	} {
		suite.Require().NoError(suite.repository.Add(ctx, d))
	}

	managers, err := suite.repository.ListByRole(ctx, kernel.RoleManager)

	suite.Require().NoError(err)
	suite.Require().Len(managers, 2)
	suite.Equal("Bruno", managers[0].DisplayName())
	suite.Equal("Carla", managers[1].DisplayName())
}

func (suite *DriverRepositoryIntegrationTestSuite) TestMissingDriver() {
	ctx := context.Background()

	_, err := suite.repository.Get(ctx, kernel.NewUUID())
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
	_, err = suite.repository.GetByExternalID(ctx, "tg-404")
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
	suite.Require().ErrorIs(suite.repository.Delete(ctx, kernel.NewUUID()), errs.ErrObjectNotFound)
}

func TestDriverRepositoryIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("integration suite needs docker")
	}
	suite.Run(t, new(DriverRepositoryIntegrationTestSuite))
}
