package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lastmile/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

type DueSalariesHandler interface {
	Handle(ctx context.Context, cmd commands.NotifyDueSalariesCommand) (commands.SalaryNotificationReport, error)
}

type OverdueSalariesHandler interface {
	Handle(ctx context.Context, cmd commands.EscalateOverdueSalariesCommand) (commands.SalaryNotificationReport, error)
}

// Schedule is the operator's settlement calendar.
type Schedule struct {
	Location    *time.Location
	Payday      time.Weekday
	PaydayHour  int
	OverdueHour int
	// RunTimeout bounds one run; zero disables the bound.
	RunTimeout time.Duration
}

func (s Schedule) Validate() error {
	var errList []error
	if s.Location == nil {
		errList = append(errList, errors.New("schedule location is required"))
	}
	if s.Payday < time.Sunday || s.Payday > time.Saturday {
		errList = append(errList, fmt.Errorf("payday %d is not a weekday", s.Payday))
	}
	if s.PaydayHour < 0 || s.PaydayHour > 23 {
		errList = append(errList, fmt.Errorf("payday hour %d is out of range", s.PaydayHour))
	}
	if s.OverdueHour < 0 || s.OverdueHour > 23 {
		errList = append(errList, fmt.Errorf("overdue hour %d is out of range", s.OverdueHour))
	}
	return errors.Join(errList...)
}

// DueTodaySpec fires once a week on payday at PaydayHour.
func (s Schedule) DueTodaySpec() string {
	return fmt.Sprintf("0 %d * * %d", s.PaydayHour, int(s.Payday))
}

// OverdueSpec fires every day at OverdueHour.
func (s Schedule) OverdueSpec() string {
	return fmt.Sprintf("0 %d * * *", s.OverdueHour)
}

// salaryJob runs one notification handler on a cron spec.
type salaryJob struct {
	name    string
	spec    string
	run     func(ctx context.Context) (commands.SalaryNotificationReport, error)
	timeout time.Duration
	cron    *cron.Cron
	logger  *slog.Logger
}

func newSalaryJob(name, spec string, schedule Schedule, logger *slog.Logger,
	run func(ctx context.Context) (commands.SalaryNotificationReport, error)) salaryJob {
	logger = logger.With("component", name)
	loc := schedule.Location
	if loc == nil {
		loc = time.Local
	}
	cl := cronLogger{logger: logger}
	return salaryJob{
		name:    name,
		spec:    spec,
		run:     run,
		timeout: schedule.RunTimeout,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
	}
}

// RunOnce executes the job immediately and logs what it did.
func (j *salaryJob) RunOnce(ctx context.Context) (commands.SalaryNotificationReport, error) {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	report, err := j.run(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "run failed", "error", err)
		return report, err
	}
	for _, f := range report.Failures {
		j.logger.WarnContext(ctx, "notification not delivered",
			"recipient_id", f.Recipient.DriverID.String(), "error", f.Err)
	}
	j.logger.InfoContext(ctx, "run finished",
		"day", report.Day.String(),
		"payments", report.Payments,
		"escalated", report.Escalated,
		"notifications", len(report.Notifications),
		"delivered", report.Delivered(),
	)
	return report, nil
}

func (j *salaryJob) Start() error {
	_, err := j.cron.AddFunc(j.spec, func() {
		_, _ = j.RunOnce(context.Background())
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", j.spec, err)
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "job started", "spec", j.spec, "location", j.cron.Location().String())
	return nil
}

// Stop stops the schedule and waits for a running execution to return.
func (j *salaryJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "job stopped")
}

// DueTodaySalaryJob notifies managers about salaries due today.
type DueTodaySalaryJob struct {
	salaryJob
}

func NewDueTodaySalaryJob(handler DueSalariesHandler, schedule Schedule, logger *slog.Logger) *DueTodaySalaryJob {
	return &DueTodaySalaryJob{
		salaryJob: newSalaryJob("due_today_salary_job", schedule.DueTodaySpec(), schedule, logger,
			func(ctx context.Context) (commands.SalaryNotificationReport, error) {
				return handler.Handle(ctx, commands.NewNotifyDueSalariesCommand())
			}),
	}
}

// OverdueSalaryJob escalates past-due salaries and notifies managers.
type OverdueSalaryJob struct {
	salaryJob
}

func NewOverdueSalaryJob(handler OverdueSalariesHandler, schedule Schedule, logger *slog.Logger) *OverdueSalaryJob {
	return &OverdueSalaryJob{
		salaryJob: newSalaryJob("overdue_salary_job", schedule.OverdueSpec(), schedule, logger,
			func(ctx context.Context) (commands.SalaryNotificationReport, error) {
				return handler.Handle(ctx, commands.NewEscalateOverdueSalariesCommand())
			}),
	}
}

// cronLogger routes cron's own messages into slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
