// Package testsupport provides an in-memory implementation of the persistence ports
// for handler and scheduler tests.
//
// A transaction holds the store lock from Begin to Commit or Rollback, so transactions
// are serialized. Foreign key cascades and restrictions of the SQL schema are emulated
// by the repositories.
package testsupport

import (
	"context"
	"errors"
	"maps"
	"sync"

	"lastmile/internal/core/domain/model/actiontoken"
	"lastmile/internal/core/domain/model/driver"
	"lastmile/internal/core/domain/model/finance"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/route"
	"lastmile/internal/core/domain/model/salary"
	"lastmile/internal/core/domain/model/shipment"
	"lastmile/internal/core/ports"
)

// ErrNoTransaction mirrors gorm.ErrInvalidTransaction for Commit/Rollback without Begin.
var ErrNoTransaction = errors.New("invalid transaction")

type state struct {
	drivers  map[kernel.UUID]driver.Snapshot
	routes   map[kernel.UUID]route.Snapshot
	packages map[kernel.UUID]shipment.PackageSnapshot
	proofs   map[kernel.UUID]shipment.ProofSnapshot
	expenses map[kernel.UUID]finance.Expense
	incomes  map[kernel.UUID]finance.Income
	mileages map[kernel.UUID]finance.Mileage
	payments map[kernel.UUID]salary.Snapshot
	tokens   map[string]actiontoken.Snapshot
}

func newState() *state {
	return &state{
		drivers:  make(map[kernel.UUID]driver.Snapshot),
		routes:   make(map[kernel.UUID]route.Snapshot),
		packages: make(map[kernel.UUID]shipment.PackageSnapshot),
		proofs:   make(map[kernel.UUID]shipment.ProofSnapshot),
		expenses: make(map[kernel.UUID]finance.Expense),
		incomes:  make(map[kernel.UUID]finance.Income),
		mileages: make(map[kernel.UUID]finance.Mileage),
		payments: make(map[kernel.UUID]salary.Snapshot),
		tokens:   make(map[string]actiontoken.Snapshot),
	}
}

func (s *state) clone() *state {
	tokens := make(map[string]actiontoken.Snapshot, len(s.tokens))
	for k, t := range s.tokens {
		t.Targets = append([]kernel.UUID(nil), t.Targets...)
		tokens[k] = t
	}
	return &state{
		drivers:  maps.Clone(s.drivers),
		routes:   maps.Clone(s.routes),
		packages: maps.Clone(s.packages),
		proofs:   maps.Clone(s.proofs),
		expenses: maps.Clone(s.expenses),
		incomes:  maps.Clone(s.incomes),
		mileages: maps.Clone(s.mileages),
		payments: maps.Clone(s.payments),
		tokens:   tokens,
	}
}

// Counts is the number of stored rows per table.
type Counts struct {
	Drivers  int
	Routes   int
	Packages int
	Proofs   int
	Expenses int
	Incomes  int
	Mileages int
	Payments int
	Tokens   int
}

// Store is the committed state shared by every UnitOfWork it creates.
type Store struct {
	mu        sync.Mutex
	committed *state

	faultMu sync.Mutex
	faults  map[string][]error
}

func NewStore() *Store {
	return &Store{committed: newState(), faults: make(map[string][]error)}
}

// Create returns a new unit of work over the store.
func (s *Store) Create() ports.UnitOfWork {
	return &UnitOfWork{store: s}
}

// FailNext makes the next call of op (e.g. "PackageRepository.Update") return err.
// Queued errors are consumed in order.
func (s *Store) FailNext(op string, err error) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.faults[op] = append(s.faults[op], err)
}

func (s *Store) fault(op string) error {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	queued := s.faults[op]
	if len(queued) == 0 {
		return nil
	}
	s.faults[op] = queued[1:]
	return queued[0]
}

// Counts reads committed row counts. It blocks while a transaction is open.
func (s *Store) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.committed
	return Counts{
		Drivers:  len(c.drivers),
		Routes:   len(c.routes),
		Packages: len(c.packages),
		Proofs:   len(c.proofs),
		Expenses: len(c.expenses),
		Incomes:  len(c.incomes),
		Mileages: len(c.mileages),
		Payments: len(c.payments),
		Tokens:   len(c.tokens),
	}
}

// UnitOfWork implements ports.UnitOfWork over a Store.
type UnitOfWork struct {
	store      *Store
	work       *state
	savepoints map[string]*state
}

func (u *UnitOfWork) Begin(_ context.Context) error {
	if u.work != nil {
		return nil
	}
	u.store.mu.Lock()
	u.work = u.store.committed.clone()
	u.savepoints = make(map[string]*state)
	return nil
}

func (u *UnitOfWork) Commit(_ context.Context) error {
	if u.work == nil {
		return ErrNoTransaction
	}
	if err := u.store.fault("UnitOfWork.Commit"); err != nil {
		u.end()
		return err
	}
	u.store.committed = u.work
	u.end()
	return nil
}

func (u *UnitOfWork) Rollback(_ context.Context) error {
	if u.work == nil {
		return ErrNoTransaction
	}
	u.end()
	return nil
}

func (u *UnitOfWork) SavePoint(_ context.Context, name string) error {
	if u.work == nil {
		return ErrNoTransaction
	}
	u.savepoints[name] = u.work.clone()
	return nil
}

func (u *UnitOfWork) RollbackTo(_ context.Context, name string) error {
	if u.work == nil {
		return ErrNoTransaction
	}
	sp, ok := u.savepoints[name]
	if !ok {
		return errors.New("savepoint " + name + " does not exist")
	}
	u.work = sp.clone()
	return nil
}

func (u *UnitOfWork) end() {
	u.work = nil
	u.savepoints = nil
	u.store.mu.Unlock()
}

// with runs fn on the transaction state, or on a copy of the committed state that
// is kept only when fn succeeds.
func (u *UnitOfWork) with(op string, fn func(s *state) error) error {
	if err := u.store.fault(op); err != nil {
		return err
	}
	if u.work != nil {
		return fn(u.work)
	}
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	cp := u.store.committed.clone()
	if err := fn(cp); err != nil {
		return err
	}
	u.store.committed = cp
	return nil
}

func (u *UnitOfWork) DriverRepository() ports.DriverRepository               { return driverRepo{u} }
func (u *UnitOfWork) RouteRepository() ports.RouteRepository                 { return routeRepo{u} }
func (u *UnitOfWork) PackageRepository() ports.PackageRepository             { return packageRepo{u} }
func (u *UnitOfWork) ProofRepository() ports.ProofRepository                 { return proofRepo{u} }
func (u *UnitOfWork) FinanceRepository() ports.FinanceRepository             { return financeRepo{u} }
func (u *UnitOfWork) SalaryPaymentRepository() ports.SalaryPaymentRepository { return paymentRepo{u} }
func (u *UnitOfWork) ActionTokenRepository() ports.ActionTokenRepository     { return tokenRepo{u} }
