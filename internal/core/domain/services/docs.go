// Package services provides domain services that span several aggregates of the
// lastmile engine.
//
// The package includes:
//   - Ledger: pure settlement arithmetic for a single route and aggregate reporting
//     over frozen per-route values
//   - PaymentCalendar: the weekly payday used to date salary payments
//
// Nothing in this package performs I/O.
package services
