package commands

import (
	"context"
	"errors"

	"lastmile/internal/pkg/errs"
)

// inTx runs fn inside a fresh unit of work and commits when fn succeeds.
// A transient store failure (lost conditional update, deadlock, dropped connection)
// is retried once with a new unit of work, so fn re-reads everything it acts on.
func inTx[U TxManager](ctx context.Context, create func() U, fn func(uow U) error) error {
	err := runTx(ctx, create, fn)
	if errors.Is(err, errs.ErrTransientStore) {
		err = runTx(ctx, create, fn)
	}
	return err
}

func runTx[U TxManager](ctx context.Context, create func() U, fn func(uow U) error) error {
	uow := create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := fn(uow); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

// inSavepoint runs one batch item between a savepoint and, on failure, a rollback to
// it. The item is retried once after a transient failure.
func inSavepoint(ctx context.Context, sp SavepointManager, name string, fn func() error) error {
	err := runSavepoint(ctx, sp, name, fn)
	if errors.Is(err, errs.ErrTransientStore) {
		err = runSavepoint(ctx, sp, name, fn)
	}
	return err
}

func runSavepoint(ctx context.Context, sp SavepointManager, name string, fn func() error) error {
	if err := sp.SavePoint(ctx, name); err != nil {
		return err
	}
	if err := fn(); err != nil {
		if rbErr := sp.RollbackTo(ctx, name); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return nil
}
