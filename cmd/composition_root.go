package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	amqpin "lastmile/internal/adapters/in/amqp"
	httpin "lastmile/internal/adapters/in/http"
	"lastmile/internal/adapters/out/locationcache"
	"lastmile/internal/adapters/out/notifier"
	"lastmile/internal/adapters/out/postgres"
	"lastmile/internal/core/application/usecases/commands"
	"lastmile/internal/core/application/usecases/queries"
	"lastmile/internal/core/domain/services"
	"lastmile/internal/core/ports"
	"lastmile/internal/jobs"
	"lastmile/internal/pkg/auth"
	"lastmile/internal/pkg/clock"
	"lastmile/internal/pkg/rabbitmq"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type CompositionRoot struct {
	cfg        Config
	gormDB     *gorm.DB
	uowFactory postgres.GormUnitOfWorkFactory
	logger     *slog.Logger

	clock    clock.Clock
	ledger   services.Ledger
	calendar services.PaymentCalendar
	notifier ports.Notifier
	cache    ports.LocationCache
	jwt      *auth.JWT

	closers []func() error
}

// NewCompositionRoot wires the adapters selected by cfg. broker may be nil unless the
// amqp notifier is configured.
func NewCompositionRoot(cfg Config, gormDB *gorm.DB, broker *rabbitmq.Connection,
	logger *slog.Logger) (*CompositionRoot, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &CompositionRoot{
		cfg:        cfg,
		gormDB:     gormDB,
		uowFactory: *postgres.NewGormUnitOfWorkFactory(gormDB),
		logger:     logger,
		clock:      clock.System(),
		ledger:     services.NewLedger(),
		calendar:   services.NewPaymentCalendar(cfg.Payday, cfg.Location),
	}

	var err error
	if c.notifier, err = c.buildNotifier(broker); err != nil {
		return nil, err
	}
	if c.cache, err = c.buildLocationCache(); err != nil {
		return nil, errors.Join(err, c.Close())
	}
	if cfg.JWTSecret != "" {
		if c.jwt, err = auth.NewJWT(cfg.JWTSecret, cfg.JWTIssuer); err != nil {
			return nil, errors.Join(err, c.Close())
		}
	}
	return c, nil
}

func (c *CompositionRoot) buildNotifier(broker *rabbitmq.Connection) (ports.Notifier, error) {
	switch c.cfg.Notifier {
	case NotifierTelegram:
		return notifier.NewTelegram(c.cfg.TelegramAPIURL, c.cfg.TelegramBotToken, c.cfg.NotificationTimeout)
	case NotifierAMQP:
		if broker == nil {
			return nil, errors.New("amqp notifier needs a broker connection")
		}
		if err := broker.DeclareQueue(c.cfg.AMQPNotificationQueue); err != nil {
			return nil, err
		}
		return notifier.NewAMQP(broker.Channel(), "", c.cfg.AMQPNotificationQueue)
	default:
		return notifier.NewLog(c.logger), nil
	}
}

func (c *CompositionRoot) buildLocationCache() (ports.LocationCache, error) {
	if c.cfg.LocationCache != LocationCacheRedis {
		return locationcache.NewMemory(c.cfg.LocationCacheCapacity, c.cfg.LocationCacheTTL)
	}
	client := redis.NewClient(&redis.Options{Addr: c.cfg.RedisAddr, Password: c.cfg.RedisPassword})
	c.closers = append(c.closers, client.Close)
	cache, err := locationcache.NewRedis(client, c.cfg.LocationCacheCapacity, c.cfg.LocationCacheTTL, "")
	if err != nil {
		return nil, fmt.Errorf("redis location cache: %w", err)
	}
	return cache, nil
}

// JWT is nil when no secret is configured.
func (c *CompositionRoot) JWT() *auth.JWT {
	return c.jwt
}

func (c *CompositionRoot) Clock() clock.Clock {
	return c.clock
}

func (c *CompositionRoot) Close() error {
	var errList []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errList = append(errList, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(errList...)
}

func (c *CompositionRoot) driverUoWFactory() commands.DriverUoWFactory {
	return FuncDriverUoWFactory(func() commands.DriverUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) ledgerUoWFactory() commands.LedgerUoWFactory {
	return FuncLedgerUoWFactory(func() commands.LedgerUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) salaryUoWFactory() commands.SalaryUoWFactory {
	return FuncSalaryUoWFactory(func() commands.SalaryUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) allUoWFactory() commands.UoWFactory {
	return FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) notifierSettings() commands.NotifierSettings {
	return commands.NotifierSettings{
		SendTimeout: c.cfg.NotificationTimeout,
		TokenTTL:    c.cfg.TokenTTL,
		Currency:    c.cfg.Currency,
	}
}

func (c *CompositionRoot) CreateCreateDriverCommandHandler() *commands.CreateDriverCommandHandler {
	h := commands.NewCreateDriverCommandHandler(c.driverUoWFactory(), c.clock)
	return &h
}

func (c *CompositionRoot) CreateDeleteDriverCommandHandler() *commands.DeleteDriverCommandHandler {
	h := commands.NewDeleteDriverCommandHandler(c.driverUoWFactory())
	return &h
}

func (c *CompositionRoot) CreateUpdateDriverLocationCommandHandler() *commands.UpdateDriverLocationCommandHandler {
	h := commands.NewUpdateDriverLocationCommandHandler(c.driverUoWFactory(), c.cache, c.clock, c.cfg.StrictCoordinates)
	return &h
}

func (c *CompositionRoot) CreateCreateRouteCommandHandler() *commands.CreateRouteCommandHandler {
	h := commands.NewCreateRouteCommandHandler(c.allUoWFactory(), c.clock, c.cfg.StrictCoordinates)
	return &h
}

func (c *CompositionRoot) CreateDeleteRouteCommandHandler() *commands.DeleteRouteCommandHandler {
	h := commands.NewDeleteRouteCommandHandler(c.allUoWFactory())
	return &h
}

func (c *CompositionRoot) CreateCompleteRouteCommandHandler() *commands.CompleteRouteCommandHandler {
	h := commands.NewCompleteRouteCommandHandler(c.allUoWFactory(), c.clock)
	return &h
}

func (c *CompositionRoot) CreateFinalizeRouteCommandHandler() *commands.FinalizeRouteCommandHandler {
	h := commands.NewFinalizeRouteCommandHandler(c.allUoWFactory(), c.ledger, c.calendar, c.clock)
	return &h
}

func (c *CompositionRoot) CreateTransitionPackageCommandHandler() *commands.TransitionPackageCommandHandler {
	h := commands.NewTransitionPackageCommandHandler(c.allUoWFactory(), c.clock)
	return &h
}

func (c *CompositionRoot) CreateLedgerEntryCommandHandler() *commands.LedgerEntryCommandHandler {
	h := commands.NewLedgerEntryCommandHandler(c.ledgerUoWFactory(), c.clock)
	return &h
}

func (c *CompositionRoot) CreateCreateSalaryPaymentCommandHandler() *commands.CreateSalaryPaymentCommandHandler {
	h := commands.NewCreateSalaryPaymentCommandHandler(c.salaryUoWFactory(), c.clock)
	return &h
}

func (c *CompositionRoot) CreateConfirmSalaryPaymentsCommandHandler() *commands.ConfirmSalaryPaymentsCommandHandler {
	h := commands.NewConfirmSalaryPaymentsCommandHandler(c.salaryUoWFactory(), c.clock)
	return &h
}

func (c *CompositionRoot) CreateIssueActionTokenCommandHandler() *commands.IssueActionTokenCommandHandler {
	h := commands.NewIssueActionTokenCommandHandler(c.salaryUoWFactory(), c.clock, c.cfg.TokenTTL)
	return &h
}

func (c *CompositionRoot) CreateResolveActionTokenCommandHandler() *commands.ResolveActionTokenCommandHandler {
	h := commands.NewResolveActionTokenCommandHandler(c.allUoWFactory(), c.clock)
	return &h
}

func (c *CompositionRoot) CreateNotifyDueSalariesCommandHandler() *commands.NotifyDueSalariesCommandHandler {
	h := commands.NewNotifyDueSalariesCommandHandler(c.salaryUoWFactory(), c.notifier, c.calendar, c.clock,
		c.notifierSettings())
	return &h
}

func (c *CompositionRoot) CreateEscalateOverdueSalariesCommandHandler() *commands.EscalateOverdueSalariesCommandHandler {
	h := commands.NewEscalateOverdueSalariesCommandHandler(c.salaryUoWFactory(), c.notifier, c.calendar, c.clock,
		c.notifierSettings())
	return &h
}

func (c *CompositionRoot) CreateGetRouteQueryHandler() queries.GetRouteQueryHandler {
	return queries.NewGetRouteQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetRouteSettlementQueryHandler() queries.GetRouteSettlementQueryHandler {
	return queries.NewGetRouteSettlementQueryHandler(c.gormDB, c.ledger)
}

func (c *CompositionRoot) CreateGetFinancialReportQueryHandler() queries.GetFinancialReportQueryHandler {
	return queries.NewGetFinancialReportQueryHandler(c.gormDB, c.ledger, c.cfg.Location)
}

func (c *CompositionRoot) CreateListSalaryPaymentsQueryHandler() queries.ListSalaryPaymentsQueryHandler {
	return queries.NewListSalaryPaymentsQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetDriverLocationQueryHandler() queries.GetDriverLocationQueryHandler {
	return queries.NewGetDriverLocationQueryHandler(c.cache)
}

// HTTPHandlers collects the use cases served by the REST API.
func (c *CompositionRoot) HTTPHandlers() httpin.Handlers {
	return httpin.Handlers{
		CreateDriver:          c.CreateCreateDriverCommandHandler(),
		DeleteDriver:          c.CreateDeleteDriverCommandHandler(),
		UpdateDriverLocation:  c.CreateUpdateDriverLocationCommandHandler(),
		CreateRoute:           c.CreateCreateRouteCommandHandler(),
		DeleteRoute:           c.CreateDeleteRouteCommandHandler(),
		CompleteRoute:         c.CreateCompleteRouteCommandHandler(),
		FinalizeRoute:         c.CreateFinalizeRouteCommandHandler(),
		TransitionPackage:     c.CreateTransitionPackageCommandHandler(),
		LedgerEntries:         c.CreateLedgerEntryCommandHandler(),
		CreateSalaryPayment:   c.CreateCreateSalaryPaymentCommandHandler(),
		ConfirmSalaryPayments: c.CreateConfirmSalaryPaymentsCommandHandler(),
		IssueActionToken:      c.CreateIssueActionTokenCommandHandler(),
		ResolveActionToken:    c.CreateResolveActionTokenCommandHandler(),

		GetRoute:           c.CreateGetRouteQueryHandler(),
		GetRouteSettlement: c.CreateGetRouteSettlementQueryHandler(),
		GetDriverLocation:  c.CreateGetDriverLocationQueryHandler(),
		ListSalaryPayments: c.CreateListSalaryPaymentsQueryHandler(),
		GetFinancialReport: c.CreateGetFinancialReportQueryHandler(),
	}
}

// AMQPHandlers collects the commands reachable from the bot queue.
func (c *CompositionRoot) AMQPHandlers() amqpin.Handlers {
	return amqpin.Handlers{
		TransitionPackage:     c.CreateTransitionPackageCommandHandler(),
		ResolveActionToken:    c.CreateResolveActionTokenCommandHandler(),
		ConfirmSalaryPayments: c.CreateConfirmSalaryPaymentsCommandHandler(),
		UpdateDriverLocation:  c.CreateUpdateDriverLocationCommandHandler(),
		CompleteRoute:         c.CreateCompleteRouteCommandHandler(),
		FinalizeRoute:         c.CreateFinalizeRouteCommandHandler(),
		IssueActionToken:      c.CreateIssueActionTokenCommandHandler(),
	}
}

func (c *CompositionRoot) Schedule() jobs.Schedule {
	return jobs.Schedule{
		Location:    c.cfg.Location,
		Payday:      c.cfg.Payday,
		PaydayHour:  c.cfg.PaydayHour,
		OverdueHour: c.cfg.OverdueHour,
		RunTimeout:  c.cfg.JobTimeout,
	}
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(
		c.CreateNotifyDueSalariesCommandHandler(),
		c.CreateEscalateOverdueSalariesCommandHandler(),
		c.Schedule(),
		c.logger,
	)
}

type FuncDriverUoWFactory func() commands.DriverUoW

func (f FuncDriverUoWFactory) Create() commands.DriverUoW {
	return f()
}

type FuncLedgerUoWFactory func() commands.LedgerUoW

func (f FuncLedgerUoWFactory) Create() commands.LedgerUoW {
	return f()
}

type FuncSalaryUoWFactory func() commands.SalaryUoW

func (f FuncSalaryUoWFactory) Create() commands.SalaryUoW {
	return f()
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}
