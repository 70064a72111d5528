package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lastmile/cmd"
	amqpin "lastmile/internal/adapters/in/amqp"
	httpin "lastmile/internal/adapters/in/http"
	"lastmile/internal/adapters/out/postgres"
	"lastmile/internal/pkg/rabbitmq"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func newServeCommand(cc *commandContext) *cobra.Command {
	var migrate bool

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API, the salary jobs and the bot command consumer",
		RunE: func(c *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return cc.serve(ctx, migrate)
		},
	}
	serveCmd.Flags().BoolVar(&migrate, "migrate", false, "Apply pending migrations before serving")

	return serveCmd
}

func (cc *commandContext) serve(ctx context.Context, migrate bool) error {
	logger := cc.logger

	db, err := cc.openDatabase()
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	if migrate {
		applied, err := postgres.Migrate(ctx, db)
		if err != nil {
			return err
		}
		logger.Info("migrations applied", "versions", applied)
	}

	var broker *rabbitmq.Connection
	if cc.cfg.AMQPURL != "" {
		broker, err = rabbitmq.Dial(ctx, rabbitmq.Config{
			URL:         cc.cfg.AMQPURL,
			MaxAttempts: 10,
			Prefetch:    cc.cfg.AMQPPrefetch,
		}, logger)
		if err != nil {
			return err
		}
		defer func() { _ = broker.Close() }()
	}

	root, err := cmd.NewCompositionRoot(cc.cfg, db, broker, logger)
	if err != nil {
		return err
	}
	defer func() { _ = root.Close() }()
	if root.JWT() == nil {
		return errors.New("JWT_SECRET is required to serve")
	}

	e, err := httpin.NewRouter(httpin.NewServer(root.HTTPHandlers(), cc.cfg.StrictCoordinates), httpin.Options{
		Logger:         logger,
		JWT:            root.JWT(),
		RequestTimeout: cc.cfg.RequestTimeout,
	})
	if err != nil {
		return err
	}

	jobManager := root.CreateJobManager()
	if err = jobManager.StartAll(); err != nil {
		return err
	}
	defer jobManager.StopAll()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := fmt.Sprintf("0.0.0.0:%s", cc.cfg.HTTPPort)
		logger.Info("http listening", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if broker != nil {
		consumer, err := amqpin.NewConsumer(root.AMQPHandlers(), root.JWT(), broker.Channel(), amqpin.Options{
			Logger:            logger,
			HandleTimeout:     cc.cfg.RequestTimeout,
			StrictCoordinates: cc.cfg.StrictCoordinates,
		})
		if err != nil {
			return err
		}
		if err = broker.DeclareQueue(cc.cfg.AMQPCommandQueue); err != nil {
			return err
		}
		deliveries, err := broker.Consume(cc.cfg.AMQPCommandQueue, "lastmile")
		if err != nil {
			return err
		}
		g.Go(func() error {
			err := consumer.Run(gctx, deliveries)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	err = g.Wait()
	logger.Info("shut down")
	return err
}
