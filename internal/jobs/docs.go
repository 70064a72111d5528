// Package jobs runs the settlement scheduler.
//
// Both jobs fire on the operator's wall clock through cron.WithLocation, so payday noon
// stays payday noon across DST changes:
//
//   - DueTodaySalaryJob, weekly on payday: managers learn which salaries fall due today
//   - OverdueSalaryJob, daily: past-due pending salaries become overdue, then managers are told
//
// A run never persists state of its own. A failed run is logged and the next tick fires
// as usual; a recipient whose send fails is logged at warn level and the run goes on.
//
//	manager := jobs.NewJobManager(dueHandler, overdueHandler, schedule, logger)
//	if err := manager.StartAll(); err != nil {
//		return err
//	}
//	defer manager.StopAll()
package jobs
