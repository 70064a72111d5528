package jobs

import (
	"fmt"
	"log/slog"
)

// JobManager starts and stops the settlement scheduler as one unit.
type JobManager struct {
	dueTodayJob *DueTodaySalaryJob
	overdueJob  *OverdueSalaryJob
}

func NewJobManager(
	dueHandler DueSalariesHandler,
	overdueHandler OverdueSalariesHandler,
	schedule Schedule,
	logger *slog.Logger,
) *JobManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobManager{
		dueTodayJob: NewDueTodaySalaryJob(dueHandler, schedule, logger),
		overdueJob:  NewOverdueSalaryJob(overdueHandler, schedule, logger),
	}
}

// DueToday exposes the due-today job for one-off runs.
func (jm *JobManager) DueToday() *DueTodaySalaryJob {
	return jm.dueTodayJob
}

// Overdue exposes the overdue job for one-off runs.
func (jm *JobManager) Overdue() *OverdueSalaryJob {
	return jm.overdueJob
}

func (jm *JobManager) jobs() []*salaryJob {
	return []*salaryJob{&jm.dueTodayJob.salaryJob, &jm.overdueJob.salaryJob}
}

// StartAll schedules every job. When one fails to start, the ones already started are
// stopped again.
func (jm *JobManager) StartAll() error {
	jobs := jm.jobs()
	for i, job := range jobs {
		if err := job.Start(); err != nil {
			for j := i - 1; j >= 0; j-- {
				jobs[j].Stop()
			}
			return fmt.Errorf("start %s: %w", job.name, err)
		}
	}
	return nil
}

// StopAll stops every job and waits for running executions to return.
func (jm *JobManager) StopAll() {
	jobs := jm.jobs()
	for i := len(jobs) - 1; i >= 0; i-- {
		jobs[i].Stop()
	}
}
