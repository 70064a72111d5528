// Package finance holds the ledger rows that feed route settlement: Expense and
// Income (route-linked or company-wide) and Mileage (route-linked distance).
//
// Rows are append-only. A route-linked row may only be recorded while its route is
// not finalized; deleting a route removes its rows through the store's cascade rules.
package finance
