package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"lastmile/internal/core/domain/model/actiontoken"
	"lastmile/internal/core/domain/model/driver"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/salary"
	"lastmile/internal/core/ports"

	"github.com/shopspring/decimal"
)

// NotificationFailure records a recipient whose send failed or timed out.
type NotificationFailure struct {
	Recipient ports.Recipient
	Err       error
}

// SalaryNotificationReport is what one scheduler run did.
type SalaryNotificationReport struct {
	Day kernel.Date
	// Payments is the number of payments the run notified about.
	Payments int
	// Escalated is the number of payments moved from pending to overdue by the run.
	Escalated     int
	ActionToken   string
	Notifications []ports.Notification
	Failures      []NotificationFailure
}

// Delivered counts notifications that were sent without error.
func (r SalaryNotificationReport) Delivered() int {
	return len(r.Notifications) - len(r.Failures)
}

// NotifierSettings configure the scheduler handlers.
type NotifierSettings struct {
	// SendTimeout bounds every single notification send.
	SendTimeout time.Duration
	// TokenTTL is the lifetime of the confirm-all token attached to each run.
	TokenTTL time.Duration
	Currency string
}

// salaryBatch is the data a digest is composed from, read in one unit of work.
type salaryBatch struct {
	payments []*salary.Payment
	drivers  map[kernel.UUID]*driver.Driver
	managers []*driver.Driver
	token    string
}

func loadSalaryBatch(ctx context.Context, uow SalaryUoW, payments []*salary.Payment, now time.Time,
	ttl time.Duration) (salaryBatch, error) {
	batch := salaryBatch{payments: payments, drivers: make(map[kernel.UUID]*driver.Driver)}
	if len(payments) == 0 {
		return batch, nil
	}

	drivers := uow.DriverRepository()
	ids := make([]kernel.UUID, 0, len(payments))
	for _, p := range payments {
		ids = append(ids, p.ID())
		if _, ok := batch.drivers[p.DriverID()]; ok {
			continue
		}
		d, err := drivers.Get(ctx, p.DriverID())
		if err != nil {
			return salaryBatch{}, err
		}
		batch.drivers[p.DriverID()] = d
	}

	managers, err := drivers.ListByRole(ctx, kernel.RoleManager)
	if err != nil {
		return salaryBatch{}, err
	}
	batch.managers = managers

	token, err := issueToken(ctx, uow, actiontoken.ConfirmSalaryBatch, ids, kernel.SchedulerActor, now, ttl)
	if err != nil {
		return salaryBatch{}, err
	}
	batch.token = token.Key()
	return batch, nil
}

// fanOut sends one notification per manager. A failing recipient never stops the others.
func fanOut(ctx context.Context, notifier ports.Notifier, timeout time.Duration, batch salaryBatch,
	kind ports.NotificationKind, text string, day kernel.Date, now time.Time) ([]ports.Notification, []NotificationFailure) {
	ids := make([]kernel.UUID, 0, len(batch.payments))
	for _, p := range batch.payments {
		ids = append(ids, p.ID())
	}
	key := dedupKey(kind, day, ids)

	sent := make([]ports.Notification, 0, len(batch.managers))
	var failures []NotificationFailure
	for _, m := range batch.managers {
		n := ports.Notification{
			Recipient: ports.Recipient{
				DriverID:    m.ID(),
				ExternalID:  m.ExternalID(),
				DisplayName: m.DisplayName(),
			},
			Kind:        kind,
			Text:        text,
			ActionToken: batch.token,
			PaymentIDs:  ids,
			DedupKey:    key,
			CreatedAt:   now,
		}
		sent = append(sent, n)
		if err := sendWithTimeout(ctx, notifier, timeout, n); err != nil {
			failures = append(failures, NotificationFailure{Recipient: n.Recipient, Err: err})
		}
	}
	return sent, failures
}

func sendWithTimeout(ctx context.Context, notifier ports.Notifier, timeout time.Duration, n ports.Notification) (err error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panicked: %v", r)
		}
	}()
	return notifier.Send(ctx, n)
}

// dedupKey is kind:day:sha256 of the sorted payment IDs.
func dedupKey(kind ports.NotificationKind, day kernel.Date, ids []kernel.UUID) string {
	sorted := make([]string, 0, len(ids))
	for _, id := range ids {
		sorted = append(sorted, id.String())
	}
	sort.Strings(sorted)
	sum := sha256.Sum256([]byte(strings.Join(sorted, ",")))
	return fmt.Sprintf("%s:%s:%s", kind, day, hex.EncodeToString(sum[:8]))
}

type driverGroup struct {
	name     string
	payments []*salary.Payment
	total    decimal.Decimal
}

// groupByDriver orders groups by driver name and payments by due date.
func groupByDriver(batch salaryBatch) []driverGroup {
	byDriver := make(map[kernel.UUID]*driverGroup)
	for _, p := range batch.payments {
		g, ok := byDriver[p.DriverID()]
		if !ok {
			name := p.DriverID().String()
			if d, found := batch.drivers[p.DriverID()]; found {
				name = d.DisplayName()
			}
			g = &driverGroup{name: name}
			byDriver[p.DriverID()] = g
		}
		g.payments = append(g.payments, p)
		g.total = g.total.Add(p.Amount())
	}

	groups := make([]driverGroup, 0, len(byDriver))
	for _, g := range byDriver {
		sort.SliceStable(g.payments, func(i, j int) bool {
			return g.payments[i].DueDate().Before(g.payments[j].DueDate())
		})
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].name < groups[j].name })
	return groups
}

func money(currency string, v decimal.Decimal) string {
	if currency == "" {
		return v.StringFixed(2)
	}
	return currency + " " + v.StringFixed(2)
}

func dueDigest(batch salaryBatch, day kernel.Date, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Salary payments due today (%s):\n", day)
	total := decimal.Zero
	for _, g := range groupByDriver(batch) {
		fmt.Fprintf(&b, "- %s: %s (%d payment", g.name, money(currency, g.total), len(g.payments))
		if len(g.payments) != 1 {
			b.WriteString("s")
		}
		b.WriteString(")\n")
		total = total.Add(g.total)
	}
	fmt.Fprintf(&b, "Total: %s", money(currency, total))
	return b.String()
}

func overdueDigest(batch salaryBatch, day kernel.Date, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Overdue salary payments (%s):\n", day)
	total := decimal.Zero
	for _, g := range groupByDriver(batch) {
		fmt.Fprintf(&b, "- %s: %s\n", g.name, money(currency, g.total))
		for _, p := range g.payments {
			days := p.DaysOverdue(day)
			unit := "days"
			if days == 1 {
				unit = "day"
			}
			fmt.Fprintf(&b, "    %s due %s, %d %s overdue\n", money(currency, p.Amount()), p.DueDate(), days, unit)
		}
		total = total.Add(g.total)
	}
	fmt.Fprintf(&b, "Total: %s", money(currency, total))
	return b.String()
}
