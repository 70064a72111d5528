// Package commands contains business operations that modify system state.
// Implements the Command pattern for write operations in the CQRS architecture.
// Every handler validates its command, runs inside one unit of work spanning all of its
// reads and writes, and retries once with a fresh read when it loses a store race.
package commands

import (
	"context"

	"lastmile/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
// These abstractions ensure data consistency across aggregate boundaries.
type (
	// TxManager handles database transaction lifecycle.
	// Ensures atomic operations across multiple repository calls.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// SavepointManager isolates one item of a batch inside the enclosing transaction,
	// so a failing item is undone without aborting the others.
	SavepointManager interface {
		SavePoint(ctx context.Context, name string) error
		RollbackTo(ctx context.Context, name string) error
	}

	DriverRepoFactory interface {
		DriverRepository() ports.DriverRepository
	}

	RouteRepoFactory interface {
		RouteRepository() ports.RouteRepository
	}

	PackageRepoFactory interface {
		PackageRepository() ports.PackageRepository
	}

	ProofRepoFactory interface {
		ProofRepository() ports.ProofRepository
	}

	FinanceRepoFactory interface {
		FinanceRepository() ports.FinanceRepository
	}

	SalaryPaymentRepoFactory interface {
		SalaryPaymentRepository() ports.SalaryPaymentRepository
	}

	ActionTokenRepoFactory interface {
		ActionTokenRepository() ports.ActionTokenRepository
	}

	// DriverUoW manages transactions for driver administration.
	DriverUoW interface {
		TxManager
		DriverRepoFactory
		SalaryPaymentRepoFactory
	}

	DriverUoWFactory interface {
		Create() DriverUoW
	}

	// LedgerUoW manages transactions that add expense, income and mileage rows.
	// The route row is locked so that entries never slip in beside a finalization.
	LedgerUoW interface {
		TxManager
		RouteRepoFactory
		FinanceRepoFactory
	}

	LedgerUoWFactory interface {
		Create() LedgerUoW
	}

	// SalaryUoW manages transactions over salary payments and the managers who are
	// notified about them.
	SalaryUoW interface {
		TxManager
		SavepointManager
		DriverRepoFactory
		RouteRepoFactory
		SalaryPaymentRepoFactory
		ActionTokenRepoFactory
	}

	SalaryUoWFactory interface {
		Create() SalaryUoW
	}

	// UoW manages transactions across every aggregate. Used by route lifecycle
	// and token resolution, which touch packages, proofs, routes and payments together.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   pkg, err := uow.PackageRepository().GetForUpdate(ctx, id)
	//   r, err := uow.RouteRepository().GetForUpdate(ctx, pkg.RouteID())
	//   // ... perform operations
	//
	//   err = uow.Commit(ctx)
	UoW interface {
		TxManager
		SavepointManager
		DriverRepoFactory
		RouteRepoFactory
		PackageRepoFactory
		ProofRepoFactory
		FinanceRepoFactory
		SalaryPaymentRepoFactory
		ActionTokenRepoFactory
	}

	// UoWFactory creates new unit of work instances for cross-aggregate operations.
	UoWFactory interface {
		Create() UoW
	}
)
