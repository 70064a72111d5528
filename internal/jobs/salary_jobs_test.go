package jobs

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"lastmile/internal/core/application/usecases/commands"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/ports"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type dueHandlerMock struct{ mock.Mock }

func (m *dueHandlerMock) Handle(ctx context.Context,
	cmd commands.NotifyDueSalariesCommand) (commands.SalaryNotificationReport, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.SalaryNotificationReport), args.Error(1)
}

type overdueHandlerMock struct{ mock.Mock }

func (m *overdueHandlerMock) Handle(ctx context.Context,
	cmd commands.EscalateOverdueSalariesCommand) (commands.SalaryNotificationReport, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.SalaryNotificationReport), args.Error(1)
}

func saoPaulo(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	return loc
}

func testSchedule(t *testing.T) Schedule {
	return Schedule{
		Location:    saoPaulo(t),
		Payday:      time.Thursday,
		PaydayHour:  12,
		OverdueHour: 9,
		RunTimeout:  time.Second,
	}
}

func TestSchedule_Specs(t *testing.T) {
	s := testSchedule(t)
	loc := s.Location
	// Monday 2026-03-02 15:00 local.
	from := time.Date(2026, time.March, 2, 15, 0, 0, 0, loc)

	t.Run("due_today_fires_on_payday_noon_local", func(t *testing.T) {
		sched, err := cron.ParseStandard(s.DueTodaySpec())
		require.NoError(t, err)

		next := sched.Next(from)

		assert.Equal(t, time.Date(2026, time.March, 5, 12, 0, 0, 0, loc), next)
	})

	t.Run("overdue_fires_next_morning", func(t *testing.T) {
		sched, err := cron.ParseStandard(s.OverdueSpec())
		require.NoError(t, err)

		next := sched.Next(from)

		assert.Equal(t, time.Date(2026, time.March, 3, 9, 0, 0, 0, loc), next)
	})
}

func TestSchedule_Validate(t *testing.T) {
	require.NoError(t, testSchedule(t).Validate())

	bad := testSchedule(t)
	bad.Location = nil
	bad.PaydayHour = 24
	bad.Payday = time.Weekday(9)

	err := bad.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "location")
	assert.Contains(t, err.Error(), "payday hour")
	assert.Contains(t, err.Error(), "weekday")
}

func TestDueTodaySalaryJob_RunOnce(t *testing.T) {
	// Given
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	handler := &dueHandlerMock{}
	report := commands.SalaryNotificationReport{
		Day:      kernel.NewDate(2026, time.March, 5),
		Payments: 3,
		Notifications: []ports.Notification{
			{Kind: ports.NotificationSalaryDue},
			{Kind: ports.NotificationSalaryDue},
		},
		Failures: []commands.NotificationFailure{
			{Recipient: ports.Recipient{DriverID: kernel.NewUUID()}, Err: context.DeadlineExceeded},
		},
	}
	handler.On("Handle", mock.Anything, mock.Anything).Return(report, nil).Once()
	job := NewDueTodaySalaryJob(handler, testSchedule(t), logger)

	// When
	got, err := job.RunOnce(context.Background())

	// Then
	require.NoError(t, err)
	assert.Equal(t, 1, got.Delivered())
	assert.Contains(t, logs.String(), `"msg":"notification not delivered"`)
	assert.Contains(t, logs.String(), `"component":"due_today_salary_job"`)
	assert.Contains(t, logs.String(), `"delivered":1`)
	handler.AssertExpectations(t)
}

func TestOverdueSalaryJob_RunOnce(t *testing.T) {
	t.Run("bounded_by_run_timeout", func(t *testing.T) {
		handler := &overdueHandlerMock{}
		var deadline bool
		handler.On("Handle", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			_, deadline = args.Get(0).(context.Context).Deadline()
		}).Return(commands.SalaryNotificationReport{Escalated: 2}, nil).Once()
		job := NewOverdueSalaryJob(handler, testSchedule(t), slog.Default())

		got, err := job.RunOnce(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 2, got.Escalated)
		assert.True(t, deadline)
	})

	t.Run("failure_is_returned", func(t *testing.T) {
		handler := &overdueHandlerMock{}
		boom := errors.New("store down")
		handler.On("Handle", mock.Anything, mock.Anything).
			Return(commands.SalaryNotificationReport{}, boom).Once()
		job := NewOverdueSalaryJob(handler, testSchedule(t), slog.Default())

		_, err := job.RunOnce(context.Background())

		require.ErrorIs(t, err, boom)
	})
}

func TestJobManager_StartStop(t *testing.T) {
	manager := NewJobManager(&dueHandlerMock{}, &overdueHandlerMock{}, testSchedule(t), slog.Default())

	require.NoError(t, manager.StartAll())
	assert.Len(t, manager.DueToday().cron.Entries(), 1)
	assert.Len(t, manager.Overdue().cron.Entries(), 1)
	manager.StopAll()
}

func TestJobManager_InvalidSpec(t *testing.T) {
	s := testSchedule(t)
	s.PaydayHour = 99
	manager := NewJobManager(&dueHandlerMock{}, &overdueHandlerMock{}, s, slog.Default())

	err := manager.StartAll()

	require.Error(t, err)
}
