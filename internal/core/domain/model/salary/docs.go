// Package salary models SalaryPayment, the money owed to a driver either for a
// finalized route or as ad-hoc pay.
//
// Payment lifecycle:
//
//	Pending ──┬──> Overdue ──> Paid
//	          └──────────────> Paid
//
// Pending to Overdue is driven only by the overdue scheduler job. Marking a payment
// paid is idempotent: a second confirmation is reported as a no-op.
package salary
