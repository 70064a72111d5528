// Package postgres provides the GORM-based implementation of the Unit of Work pattern
// over the single authoritative PostgreSQL store.
//
// A unit of work spans every read and write of one business operation. Repositories
// obtained from it run inside its transaction once Begin has been called, otherwise
// each statement autocommits.
//
// Usage Patterns:
//
// Basic Transaction Management:
//
//	factory := NewGormUnitOfWorkFactory(db)
//	uow := factory.Create()
//
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer uow.Rollback(ctx)
//
//	pkg, err := uow.PackageRepository().GetForUpdate(ctx, packageID)
//	if err != nil {
//	    return err
//	}
//	r, err := uow.RouteRepository().GetForUpdate(ctx, pkg.RouteID())
//	...
//	return uow.Commit(ctx)
//
// Batch Items:
//
//	for i, id := range ids {
//	    name := fmt.Sprintf("item_%d", i)
//	    if err := uow.SavePoint(ctx, name); err != nil {
//	        return err
//	    }
//	    if err := apply(id); err != nil {
//	        _ = uow.RollbackTo(ctx, name) // undo this item only
//	    }
//	}
//	return uow.Commit(ctx)
//
// Concurrency Considerations:
//   - Each UnitOfWork instance owns one transaction; goroutines use separate instances
//   - GetForUpdate locks rows until Commit or Rollback
//   - Conditional updates report lost races as errs.ConcurrentUpdateError
package postgres

import (
	"context"
	"errors"
	"regexp"

	"lastmile/internal/adapters/out/postgres/driverrepo"
	"lastmile/internal/adapters/out/postgres/financerepo"
	"lastmile/internal/adapters/out/postgres/pgerr"
	"lastmile/internal/adapters/out/postgres/routerepo"
	"lastmile/internal/adapters/out/postgres/salaryrepo"
	"lastmile/internal/adapters/out/postgres/tokenrepo"
	"lastmile/internal/core/ports"
	"lastmile/internal/pkg/errs"

	"gorm.io/gorm"
)

var savepointName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// GormUnitOfWorkFactory creates UnitOfWork instances using GORM database connections.
// Each business operation gets a fresh unit of work isolated from concurrent ones.
type GormUnitOfWorkFactory struct {
	db *gorm.DB
}

// NewGormUnitOfWorkFactory creates a factory for GORM-based unit of work instances.
//
// Example:
//
//	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
//	if err != nil {
//	    log.Fatal("failed to connect database")
//	}
//	factory := NewGormUnitOfWorkFactory(db)
func NewGormUnitOfWorkFactory(db *gorm.DB) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{db: db}
}

// Create produces a new UnitOfWork instance ready for business transaction management.
func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{db: f.db}
}

// GormUnitOfWork coordinates one database transaction across the repositories of
// a business operation.
type GormUnitOfWork struct {
	db *gorm.DB
	tx *gorm.DB
}

// Begin initiates a new database transaction for the unit of work.
// Multiple calls to Begin on the same instance are safe and will not create nested transactions.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	tx := uow.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return pgerr.Translate("begin", tx.Error)
	}

	uow.tx = tx
	return nil
}

// Commit finalizes all changes made within the current transaction.
// After commit, the transaction is closed and cannot be reused.
//
// Returns error if no active transaction exists or if the commit operation fails.
// A serialization failure at commit is reported as a transient store error.
func (uow *GormUnitOfWork) Commit(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Commit().Error
	uow.tx = nil
	return pgerr.Translate("commit", err)
}

// Rollback discards all changes made within the current transaction.
// After rollback, the transaction is closed and cannot be reused.
//
// Returns error if no active transaction exists or if the rollback operation fails.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Rollback().Error
	uow.tx = nil
	return err
}

// SavePoint marks a point inside the active transaction. Names must be plain SQL
// identifiers.
func (uow *GormUnitOfWork) SavePoint(_ context.Context, name string) error {
	if err := uow.checkSavepoint(name); err != nil {
		return err
	}
	return pgerr.Translate("savepoint", uow.tx.SavePoint(name).Error)
}

// RollbackTo undoes the work done after the named savepoint and clears an aborted
// transaction state, so the transaction can continue.
func (uow *GormUnitOfWork) RollbackTo(_ context.Context, name string) error {
	if err := uow.checkSavepoint(name); err != nil {
		return err
	}
	return pgerr.Translate("rollback to savepoint", uow.tx.RollbackTo(name).Error)
}

func (uow *GormUnitOfWork) checkSavepoint(name string) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if !savepointName.MatchString(name) {
		return errs.NewValueIsInvalidErrorWithCause("savepoint name", errors.New(name+" is not an identifier"))
	}
	return nil
}

// conn returns the transaction when one is active, otherwise the main connection.
func (uow *GormUnitOfWork) conn() *gorm.DB {
	if uow.tx != nil {
		return uow.tx
	}
	return uow.db
}

func (uow *GormUnitOfWork) DriverRepository() ports.DriverRepository {
	return driverrepo.NewGormDriverRepository(uow.conn())
}

func (uow *GormUnitOfWork) RouteRepository() ports.RouteRepository {
	return routerepo.NewGormRouteRepository(uow.conn())
}

func (uow *GormUnitOfWork) PackageRepository() ports.PackageRepository {
	return routerepo.NewGormPackageRepository(uow.conn())
}

func (uow *GormUnitOfWork) ProofRepository() ports.ProofRepository {
	return routerepo.NewGormProofRepository(uow.conn())
}

func (uow *GormUnitOfWork) FinanceRepository() ports.FinanceRepository {
	return financerepo.NewGormFinanceRepository(uow.conn())
}

func (uow *GormUnitOfWork) SalaryPaymentRepository() ports.SalaryPaymentRepository {
	return salaryrepo.NewGormPaymentRepository(uow.conn())
}

func (uow *GormUnitOfWork) ActionTokenRepository() ports.ActionTokenRepository {
	return tokenrepo.NewGormTokenRepository(uow.conn())
}
