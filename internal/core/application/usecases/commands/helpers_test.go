package commands_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"lastmile/internal/core/application/usecases/commands"
	"lastmile/internal/core/domain/model/actiontoken"
	"lastmile/internal/core/domain/model/driver"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/shipment"
	"lastmile/internal/core/domain/services"
	"lastmile/internal/core/ports"
	"lastmile/internal/pkg/clock"
	"lastmile/internal/pkg/errs"
	"lastmile/internal/testsupport"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Wednesday 2026-03-04 09:00 in São Paulo.
var testNow = time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC)

var brt = time.FixedZone("BRT", -3*60*60)

type uowFactory struct{ store *testsupport.Store }

func (f uowFactory) Create() commands.UoW { return f.store.Create() }

type driverUoWFactory struct{ store *testsupport.Store }

func (f driverUoWFactory) Create() commands.DriverUoW { return f.store.Create() }

type ledgerUoWFactory struct{ store *testsupport.Store }

func (f ledgerUoWFactory) Create() commands.LedgerUoW { return f.store.Create() }

type salaryUoWFactory struct{ store *testsupport.Store }

func (f salaryUoWFactory) Create() commands.SalaryUoW { return f.store.Create() }

// fixture wires every handler over one in-memory store and a pinned clock.
type fixture struct {
	t        *testing.T
	store    *testsupport.Store
	clock    *clock.Manual
	calendar services.PaymentCalendar
	manager  kernel.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	manager, err := kernel.NewActor("tg-manager", kernel.RoleManager)
	require.NoError(t, err)
	return &fixture{
		t:        t,
		store:    testsupport.NewStore(),
		clock:    clock.NewManual(testNow),
		calendar: services.NewPaymentCalendar(time.Friday, brt),
		manager:  manager,
	}
}

func (f *fixture) driverActor(externalID string) kernel.Actor {
	f.t.Helper()
	a, err := kernel.NewActor(externalID, kernel.RoleDriver)
	require.NoError(f.t, err)
	return a
}

func (f *fixture) addDriver(externalID, name string, role kernel.Role, kind driver.RateKind, amount string) *driver.Driver {
	f.t.Helper()
	rate, err := driver.NewPayRate(kind, decimal.RequireFromString(amount))
	require.NoError(f.t, err)
	d, err := driver.NewDriver(kernel.NewUUID(), externalID, name, role, rate, f.clock.Now())
	require.NoError(f.t, err)
	require.NoError(f.t, f.store.Create().DriverRepository().Add(context.Background(), d))
	return d
}

// addRoute creates an active route through the handler and returns it with its
// package IDs in manifest order.
func (f *fixture) addRoute(driverID *kernel.UUID, codes ...string) (kernel.UUID, []kernel.UUID) {
	f.t.Helper()
	inputs := make([]commands.PackageInput, 0, len(codes))
	for _, code := range codes {
		inputs = append(inputs, commands.PackageInput{TrackingCode: code, Address: "Rua Augusta, 100"})
	}
	routeID := kernel.NewUUID()
	cmd, err := commands.NewCreateRouteCommand(routeID, "Zona Sul", driverID, inputs, f.manager)
	require.NoError(f.t, err)
	h := commands.NewCreateRouteCommandHandler(uowFactory{f.store}, f.clock, false)
	require.NoError(f.t, h.Handle(context.Background(), cmd))

	packages, err := f.store.Create().PackageRepository().ListByRoute(context.Background(), routeID)
	require.NoError(f.t, err)
	ids := make([]kernel.UUID, 0, len(packages))
	for _, p := range packages {
		ids = append(ids, p.ID())
	}
	return routeID, ids
}

func (f *fixture) transitionHandler() commands.TransitionPackageCommandHandler {
	return commands.NewTransitionPackageCommandHandler(uowFactory{f.store}, f.clock)
}

func (f *fixture) deliver(packageID kernel.UUID, actor kernel.Actor) (commands.PackageTransitionResult, error) {
	f.t.Helper()
	cmd, err := commands.NewTransitionPackageCommand(packageID, shipment.Delivered, deliveredProof(), actor)
	require.NoError(f.t, err)
	h := f.transitionHandler()
	return h.Handle(context.Background(), cmd)
}

func (f *fixture) finalizeHandler() commands.FinalizeRouteCommandHandler {
	return commands.NewFinalizeRouteCommandHandler(uowFactory{f.store}, services.NewLedger(), f.calendar, f.clock)
}

func (f *fixture) finalize(routeID kernel.UUID, in commands.FinancialInputs) (commands.FinalizeRouteResult, error) {
	f.t.Helper()
	cmd, err := commands.NewFinalizeRouteCommand(routeID, in, f.manager)
	require.NoError(f.t, err)
	h := f.finalizeHandler()
	return h.Handle(context.Background(), cmd)
}

func (f *fixture) resolveHandler() commands.ResolveActionTokenCommandHandler {
	return commands.NewResolveActionTokenCommandHandler(uowFactory{f.store}, f.clock)
}

func (f *fixture) issueToken(kind actiontoken.Kind, targets ...kernel.UUID) string {
	f.t.Helper()
	cmd, err := commands.NewIssueActionTokenCommand(kind, targets, nil, f.manager)
	require.NoError(f.t, err)
	h := commands.NewIssueActionTokenCommandHandler(salaryUoWFactory{f.store}, f.clock, 24*time.Hour)
	token, err := h.Handle(context.Background(), cmd)
	require.NoError(f.t, err)
	return token.Key
}

func (f *fixture) addPayment(driverID kernel.UUID, amount string, due kernel.Date) kernel.UUID {
	f.t.Helper()
	id := kernel.NewUUID()
	cmd, err := commands.NewCreateSalaryPaymentCommand(id, driverID, nil, decimal.RequireFromString(amount), due, f.manager)
	require.NoError(f.t, err)
	h := commands.NewCreateSalaryPaymentCommandHandler(salaryUoWFactory{f.store}, f.clock)
	require.NoError(f.t, h.Handle(context.Background(), cmd))
	return id
}

func deliveredProof() shipment.ProofInput {
	return shipment.ProofInput{ReceiverName: "Maria Souza", ReceiverDocument: "123.456.789-00"}
}

func failedProof() shipment.ProofInput {
	return shipment.ProofInput{Notes: "nobody home", PhotoPath: "proofs/door.jpg"}
}

func odometer(start, end int64) commands.FinancialInputs {
	return commands.FinancialInputs{
		KmStart: decimal.NewNullDecimal(decimal.NewFromInt(start)),
		KmEnd:   decimal.NewNullDecimal(decimal.NewFromInt(end)),
	}
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func transient() error {
	return errs.NewConcurrentUpdateError("package", "injected")
}

// recordingNotifier records every send and fails for the external IDs in fail.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []ports.Notification
	fail map[string]error
}

func (n *recordingNotifier) Send(_ context.Context, msg ports.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return n.fail[msg.Recipient.ExternalID]
}

func (n *recordingNotifier) Sent() []ports.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]ports.Notification, len(n.sent))
	copy(out, n.sent)
	return out
}

type mapLocationCache struct {
	mu   sync.Mutex
	locs map[kernel.UUID]ports.DriverLocation
}

func (c *mapLocationCache) Put(_ context.Context, loc ports.DriverLocation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locs == nil {
		c.locs = make(map[kernel.UUID]ports.DriverLocation)
	}
	c.locs[loc.DriverID] = loc
	return nil
}

func (c *mapLocationCache) Get(_ context.Context, id kernel.UUID) (ports.DriverLocation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	loc, ok := c.locs[id]
	if !ok {
		return ports.DriverLocation{}, errs.NewObjectNotFoundError("driver location", id)
	}
	return loc, nil
}
