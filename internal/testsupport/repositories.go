package testsupport

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"lastmile/internal/core/domain/model/actiontoken"
	"lastmile/internal/core/domain/model/driver"
	"lastmile/internal/core/domain/model/finance"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/route"
	"lastmile/internal/core/domain/model/salary"
	"lastmile/internal/core/domain/model/shipment"
	"lastmile/internal/pkg/errs"
)

type driverRepo struct{ u *UnitOfWork }

func (r driverRepo) Add(_ context.Context, d *driver.Driver) error {
	return r.u.with("DriverRepository.Add", func(s *state) error {
		if err := d.Validate(); err != nil {
			return err
		}
		if _, ok := s.drivers[d.ID()]; ok {
			return errs.NewValueIsInvalidErrorWithCause("driver id", fmt.Errorf("%s already exists", d.ID()))
		}
		for _, other := range s.drivers {
			if other.ExternalID == d.ExternalID() {
				return errs.NewValueIsInvalidErrorWithCause("external id",
					fmt.Errorf("%s is already registered", d.ExternalID()))
			}
		}
		s.drivers[d.ID()] = d.Snapshot()
		return nil
	})
}

func (r driverRepo) Get(_ context.Context, id kernel.UUID) (*driver.Driver, error) {
	var out *driver.Driver
	err := r.u.with("DriverRepository.Get", func(s *state) error {
		snap, ok := s.drivers[id]
		if !ok {
			return errs.NewObjectNotFoundError("driver", id)
		}
		var err error
		out, err = driver.Restore(snap)
		return err
	})
	return out, err
}

func (r driverRepo) GetByExternalID(_ context.Context, externalID string) (*driver.Driver, error) {
	var out *driver.Driver
	err := r.u.with("DriverRepository.GetByExternalID", func(s *state) error {
		for _, snap := range s.drivers {
			if snap.ExternalID == externalID {
				var err error
				out, err = driver.Restore(snap)
				return err
			}
		}
		return errs.NewObjectNotFoundError("driver", externalID)
	})
	return out, err
}

func (r driverRepo) ListByRole(_ context.Context, role kernel.Role) ([]*driver.Driver, error) {
	var out []*driver.Driver
	err := r.u.with("DriverRepository.ListByRole", func(s *state) error {
		for _, snap := range s.drivers {
			if snap.Role != role {
				continue
			}
			d, err := driver.Restore(snap)
			if err != nil {
				return err
			}
			out = append(out, d)
		}
		slices.SortFunc(out, func(a, b *driver.Driver) int {
			return cmp.Or(cmp.Compare(a.DisplayName(), b.DisplayName()), a.ID().Compare(b.ID()))
		})
		return nil
	})
	return out, err
}

func (r driverRepo) Delete(_ context.Context, id kernel.UUID) error {
	return r.u.with("DriverRepository.Delete", func(s *state) error {
		if _, ok := s.drivers[id]; !ok {
			return errs.NewObjectNotFoundError("driver", id)
		}
		for _, p := range s.payments {
			if p.DriverID == id {
				return errs.NewValueIsInvalidErrorWithCause("driver", fmt.Errorf("salary payments reference driver %s", id))
			}
		}
		delete(s.drivers, id)
		for rid, rt := range s.routes {
			if rt.DriverID != nil && *rt.DriverID == id {
				rt.DriverID = nil
				s.routes[rid] = rt
			}
		}
		for pid, pr := range s.proofs {
			if pr.DriverID != nil && *pr.DriverID == id {
				pr.DriverID = nil
				s.proofs[pid] = pr
			}
		}
		return nil
	})
}

type routeRepo struct{ u *UnitOfWork }

func (r routeRepo) Add(_ context.Context, rt *route.Route) error {
	return r.u.with("RouteRepository.Add", func(s *state) error {
		if err := rt.Validate(); err != nil {
			return err
		}
		if _, ok := s.routes[rt.ID()]; ok {
			return errs.NewValueIsInvalidErrorWithCause("route id", fmt.Errorf("%s already exists", rt.ID()))
		}
		if id := rt.DriverID(); id != nil {
			if _, ok := s.drivers[*id]; !ok {
				return errs.NewObjectNotFoundError("driver", *id)
			}
		}
		s.routes[rt.ID()] = rt.Snapshot()
		return nil
	})
}

func (r routeRepo) Get(_ context.Context, id kernel.UUID) (*route.Route, error) {
	return r.get("RouteRepository.Get", id)
}

func (r routeRepo) GetForUpdate(_ context.Context, id kernel.UUID) (*route.Route, error) {
	return r.get("RouteRepository.GetForUpdate", id)
}

func (r routeRepo) get(op string, id kernel.UUID) (*route.Route, error) {
	var out *route.Route
	err := r.u.with(op, func(s *state) error {
		snap, ok := s.routes[id]
		if !ok {
			return errs.NewObjectNotFoundError("route", id)
		}
		var err error
		out, err = route.Restore(snap)
		return err
	})
	return out, err
}

func (r routeRepo) Update(_ context.Context, rt *route.Route, expected route.Status) error {
	return r.u.with("RouteRepository.Update", func(s *state) error {
		stored, ok := s.routes[rt.ID()]
		if !ok {
			return errs.NewObjectNotFoundError("route", rt.ID())
		}
		if stored.Status != expected {
			return errs.NewConcurrentUpdateError("route", rt.ID().String())
		}
		s.routes[rt.ID()] = rt.Snapshot()
		return nil
	})
}

func (r routeRepo) Delete(_ context.Context, id kernel.UUID) error {
	return r.u.with("RouteRepository.Delete", func(s *state) error {
		if _, ok := s.routes[id]; !ok {
			return errs.NewObjectNotFoundError("route", id)
		}
		delete(s.routes, id)
		for pid, p := range s.packages {
			if p.RouteID == id {
				delete(s.packages, pid)
				delete(s.proofs, pid)
			}
		}
		for mid, m := range s.mileages {
			if m.RouteID == id {
				delete(s.mileages, mid)
			}
		}
		for eid, e := range s.expenses {
			if e.RouteID != nil && *e.RouteID == id {
				delete(s.expenses, eid)
			}
		}
		for iid, i := range s.incomes {
			if i.RouteID != nil && *i.RouteID == id {
				delete(s.incomes, iid)
			}
		}
		for pid, p := range s.payments {
			if p.RouteID != nil && *p.RouteID == id {
				delete(s.payments, pid)
			}
		}
		return nil
	})
}

type packageRepo struct{ u *UnitOfWork }

func (r packageRepo) AddAll(_ context.Context, packages []*shipment.Package) error {
	return r.u.with("PackageRepository.AddAll", func(s *state) error {
		for _, p := range packages {
			if err := p.Validate(); err != nil {
				return err
			}
			if _, ok := s.routes[p.RouteID()]; !ok {
				return errs.NewObjectNotFoundError("route", p.RouteID())
			}
			for _, other := range s.packages {
				if other.RouteID == p.RouteID() && other.TrackingCode == p.TrackingCode() {
					return errs.NewValueIsInvalidErrorWithCause("tracking code",
						fmt.Errorf("%s is already on route %s", p.TrackingCode(), p.RouteID()))
				}
			}
			s.packages[p.ID()] = p.Snapshot()
		}
		return nil
	})
}

func (r packageRepo) Get(_ context.Context, id kernel.UUID) (*shipment.Package, error) {
	return r.get("PackageRepository.Get", id)
}

func (r packageRepo) GetForUpdate(_ context.Context, id kernel.UUID) (*shipment.Package, error) {
	return r.get("PackageRepository.GetForUpdate", id)
}

func (r packageRepo) get(op string, id kernel.UUID) (*shipment.Package, error) {
	var out *shipment.Package
	err := r.u.with(op, func(s *state) error {
		snap, ok := s.packages[id]
		if !ok {
			return errs.NewObjectNotFoundError("package", id)
		}
		var err error
		out, err = shipment.RestorePackage(snap)
		return err
	})
	return out, err
}

func (r packageRepo) ListByRoute(_ context.Context, routeID kernel.UUID) ([]*shipment.Package, error) {
	var out []*shipment.Package
	err := r.u.with("PackageRepository.ListByRoute", func(s *state) error {
		for _, snap := range s.packages {
			if snap.RouteID != routeID {
				continue
			}
			p, err := shipment.RestorePackage(snap)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		slices.SortFunc(out, func(a, b *shipment.Package) int { return cmp.Compare(a.Position(), b.Position()) })
		return nil
	})
	return out, err
}

func (r packageRepo) CountByStatus(_ context.Context, routeID kernel.UUID, status shipment.Status) (int, error) {
	n := 0
	err := r.u.with("PackageRepository.CountByStatus", func(s *state) error {
		for _, snap := range s.packages {
			if snap.RouteID == routeID && snap.Status == status {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r packageRepo) Update(_ context.Context, p *shipment.Package, expected shipment.Status) error {
	return r.u.with("PackageRepository.Update", func(s *state) error {
		stored, ok := s.packages[p.ID()]
		if !ok {
			return errs.NewObjectNotFoundError("package", p.ID())
		}
		if stored.Status != expected {
			return errs.NewConcurrentUpdateError("package", p.ID().String())
		}
		s.packages[p.ID()] = p.Snapshot()
		return nil
	})
}

type proofRepo struct{ u *UnitOfWork }

func (r proofRepo) Add(_ context.Context, p *shipment.DeliveryProof) error {
	return r.u.with("ProofRepository.Add", func(s *state) error {
		if err := p.Validate(); err != nil {
			return err
		}
		if _, ok := s.packages[p.PackageID()]; !ok {
			return errs.NewObjectNotFoundError("package", p.PackageID())
		}
		if _, ok := s.proofs[p.PackageID()]; ok {
			return errs.NewValueIsInvalidErrorWithCause("proof",
				fmt.Errorf("package %s already has a proof", p.PackageID()))
		}
		s.proofs[p.PackageID()] = p.Snapshot()
		return nil
	})
}

func (r proofRepo) GetByPackage(_ context.Context, packageID kernel.UUID) (*shipment.DeliveryProof, error) {
	var out *shipment.DeliveryProof
	err := r.u.with("ProofRepository.GetByPackage", func(s *state) error {
		snap, ok := s.proofs[packageID]
		if !ok {
			return errs.NewObjectNotFoundError("proof", packageID)
		}
		var err error
		out, err = shipment.RestoreDeliveryProof(snap)
		return err
	})
	return out, err
}

func (r proofRepo) ListByRoute(_ context.Context, routeID kernel.UUID) ([]*shipment.DeliveryProof, error) {
	var out []*shipment.DeliveryProof
	err := r.u.with("ProofRepository.ListByRoute", func(s *state) error {
		for pid, snap := range s.proofs {
			if pkg, ok := s.packages[pid]; !ok || pkg.RouteID != routeID {
				continue
			}
			p, err := shipment.RestoreDeliveryProof(snap)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		slices.SortFunc(out, func(a, b *shipment.DeliveryProof) int {
			return a.CapturedAt().Compare(b.CapturedAt())
		})
		return nil
	})
	return out, err
}

type financeRepo struct{ u *UnitOfWork }

func (r financeRepo) AddExpense(_ context.Context, e finance.Expense) error {
	return r.u.with("FinanceRepository.AddExpense", func(s *state) error {
		if err := routeExists(s, e.RouteID); err != nil {
			return err
		}
		s.expenses[e.ID] = e
		return nil
	})
}

func (r financeRepo) AddIncome(_ context.Context, i finance.Income) error {
	return r.u.with("FinanceRepository.AddIncome", func(s *state) error {
		if err := routeExists(s, i.RouteID); err != nil {
			return err
		}
		s.incomes[i.ID] = i
		return nil
	})
}

func (r financeRepo) AddMileage(_ context.Context, m finance.Mileage) error {
	return r.u.with("FinanceRepository.AddMileage", func(s *state) error {
		if err := routeExists(s, &m.RouteID); err != nil {
			return err
		}
		s.mileages[m.ID] = m
		return nil
	})
}

func (r financeRepo) ListExpensesByRoute(_ context.Context, routeID kernel.UUID) ([]finance.Expense, error) {
	var out []finance.Expense
	err := r.u.with("FinanceRepository.ListExpensesByRoute", func(s *state) error {
		for _, e := range s.expenses {
			if e.RouteID != nil && *e.RouteID == routeID {
				out = append(out, e)
			}
		}
		slices.SortFunc(out, func(a, b finance.Expense) int { return a.CreatedAt.Compare(b.CreatedAt) })
		return nil
	})
	return out, err
}

func (r financeRepo) ListIncomesByRoute(_ context.Context, routeID kernel.UUID) ([]finance.Income, error) {
	var out []finance.Income
	err := r.u.with("FinanceRepository.ListIncomesByRoute", func(s *state) error {
		for _, i := range s.incomes {
			if i.RouteID != nil && *i.RouteID == routeID {
				out = append(out, i)
			}
		}
		slices.SortFunc(out, func(a, b finance.Income) int { return a.CreatedAt.Compare(b.CreatedAt) })
		return nil
	})
	return out, err
}

func (r financeRepo) ListMileagesByRoute(_ context.Context, routeID kernel.UUID) ([]finance.Mileage, error) {
	var out []finance.Mileage
	err := r.u.with("FinanceRepository.ListMileagesByRoute", func(s *state) error {
		for _, m := range s.mileages {
			if m.RouteID == routeID {
				out = append(out, m)
			}
		}
		slices.SortFunc(out, func(a, b finance.Mileage) int { return a.CreatedAt.Compare(b.CreatedAt) })
		return nil
	})
	return out, err
}

func routeExists(s *state, id *kernel.UUID) error {
	if id == nil {
		return nil
	}
	if _, ok := s.routes[*id]; !ok {
		return errs.NewObjectNotFoundError("route", *id)
	}
	return nil
}

type paymentRepo struct{ u *UnitOfWork }

func (r paymentRepo) Add(_ context.Context, p *salary.Payment) error {
	return r.u.with("SalaryPaymentRepository.Add", func(s *state) error {
		if err := p.Validate(); err != nil {
			return err
		}
		if _, ok := s.drivers[p.DriverID()]; !ok {
			return errs.NewObjectNotFoundError("driver", p.DriverID())
		}
		if rid := p.RouteID(); rid != nil {
			if _, ok := s.routes[*rid]; !ok {
				return errs.NewObjectNotFoundError("route", *rid)
			}
			for _, other := range s.payments {
				if other.RouteID != nil && *other.RouteID == *rid && other.DriverID == p.DriverID() {
					return errs.NewAlreadyFinalizedError(rid.String())
				}
			}
		}
		s.payments[p.ID()] = p.Snapshot()
		return nil
	})
}

func (r paymentRepo) Get(_ context.Context, id kernel.UUID) (*salary.Payment, error) {
	return r.get("SalaryPaymentRepository.Get", id)
}

func (r paymentRepo) GetForUpdate(_ context.Context, id kernel.UUID) (*salary.Payment, error) {
	return r.get("SalaryPaymentRepository.GetForUpdate", id)
}

func (r paymentRepo) get(op string, id kernel.UUID) (*salary.Payment, error) {
	var out *salary.Payment
	err := r.u.with(op, func(s *state) error {
		snap, ok := s.payments[id]
		if !ok {
			return errs.NewObjectNotFoundError("salary payment", id)
		}
		var err error
		out, err = salary.Restore(snap)
		return err
	})
	return out, err
}

func (r paymentRepo) ExistsForRoute(_ context.Context, routeID, driverID kernel.UUID) (bool, error) {
	found := false
	err := r.u.with("SalaryPaymentRepository.ExistsForRoute", func(s *state) error {
		for _, p := range s.payments {
			if p.RouteID != nil && *p.RouteID == routeID && p.DriverID == driverID {
				found = true
			}
		}
		return nil
	})
	return found, err
}

func (r paymentRepo) CountByDriver(_ context.Context, driverID kernel.UUID) (int, error) {
	n := 0
	err := r.u.with("SalaryPaymentRepository.CountByDriver", func(s *state) error {
		for _, p := range s.payments {
			if p.DriverID == driverID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r paymentRepo) ListDueOn(_ context.Context, day kernel.Date) ([]*salary.Payment, error) {
	return r.list("SalaryPaymentRepository.ListDueOn", func(p salary.Snapshot) bool {
		return p.Status == salary.Pending && p.DueDate.Equal(day)
	})
}

func (r paymentRepo) ListUnpaidDueBefore(_ context.Context, day kernel.Date) ([]*salary.Payment, error) {
	return r.list("SalaryPaymentRepository.ListUnpaidDueBefore", func(p salary.Snapshot) bool {
		return p.Status.IsUnpaid() && p.DueDate.Before(day)
	})
}

func (r paymentRepo) list(op string, keep func(salary.Snapshot) bool) ([]*salary.Payment, error) {
	var out []*salary.Payment
	err := r.u.with(op, func(s *state) error {
		for _, snap := range s.payments {
			if !keep(snap) {
				continue
			}
			p, err := salary.Restore(snap)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		slices.SortFunc(out, func(a, b *salary.Payment) int {
			return cmp.Or(
				a.DriverID().Compare(b.DriverID()),
				a.DueDate().Time().Compare(b.DueDate().Time()),
				a.ID().Compare(b.ID()),
			)
		})
		return nil
	})
	return out, err
}

func (r paymentRepo) MarkOverdueDueBefore(_ context.Context, day kernel.Date, at time.Time) (int, error) {
	n := 0
	err := r.u.with("SalaryPaymentRepository.MarkOverdueDueBefore", func(s *state) error {
		for id, p := range s.payments {
			if p.Status == salary.Pending && p.DueDate.Before(day) {
				p.Status = salary.Overdue
				p.UpdatedAt = at
				s.payments[id] = p
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r paymentRepo) Update(_ context.Context, p *salary.Payment, expected salary.Status) error {
	return r.u.with("SalaryPaymentRepository.Update", func(s *state) error {
		stored, ok := s.payments[p.ID()]
		if !ok {
			return errs.NewObjectNotFoundError("salary payment", p.ID())
		}
		if stored.Status != expected {
			return errs.NewConcurrentUpdateError("salary payment", p.ID().String())
		}
		s.payments[p.ID()] = p.Snapshot()
		return nil
	})
}

type tokenRepo struct{ u *UnitOfWork }

func (r tokenRepo) Add(_ context.Context, t *actiontoken.Token) error {
	return r.u.with("ActionTokenRepository.Add", func(s *state) error {
		if err := t.Validate(); err != nil {
			return err
		}
		if _, ok := s.tokens[t.Key()]; ok {
			return errs.NewValueIsInvalidErrorWithCause("token key", fmt.Errorf("%s already exists", t.Key()))
		}
		s.tokens[t.Key()] = t.Snapshot()
		return nil
	})
}

func (r tokenRepo) Get(_ context.Context, key string) (*actiontoken.Token, error) {
	var out *actiontoken.Token
	err := r.u.with("ActionTokenRepository.Get", func(s *state) error {
		snap, ok := s.tokens[key]
		if !ok {
			return errs.NewTokenNotFoundError(key)
		}
		var err error
		out, err = actiontoken.Restore(snap)
		return err
	})
	return out, err
}

func (r tokenRepo) MarkConsumed(_ context.Context, t *actiontoken.Token) error {
	return r.u.with("ActionTokenRepository.MarkConsumed", func(s *state) error {
		stored, ok := s.tokens[t.Key()]
		if !ok {
			return errs.NewTokenNotFoundError(t.Key())
		}
		if stored.ConsumedAt != nil {
			return errs.NewTokenAlreadyConsumedError(t.Key())
		}
		stored.ConsumedAt = t.ConsumedAt()
		stored.ConsumedBy = t.ConsumedBy()
		s.tokens[t.Key()] = stored
		return nil
	})
}
