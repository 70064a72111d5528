// Package route models a Route: one driver's batch of packages for a working period,
// and the financial outcome frozen into it when it is finalized.
//
// Route lifecycle (forward only):
//
//	Active ──> Completed ──> Finalized
//
// Active to Completed happens when the last package reaches a terminal state or on a
// manager request once no package is pending; repeating it is a no-op. Completed to
// Finalized happens exactly once and freezes every financial field. completed_at and
// finalized_at are set once and never rewritten.
package route
