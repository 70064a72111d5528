package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"lastmile/cmd"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(1)
		}
		log.Fatalf("%v", err)
	}
}

// commandContext loads configuration once for whichever subcommand runs.
type commandContext struct {
	cfg    cmd.Config
	logger *slog.Logger
	debug  bool
}

func newRootCommand() *cobra.Command {
	cc := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "lastmile",
		Short:         "Last-mile delivery lifecycle service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			cfg, err := cmd.LoadConfig()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			cc.cfg = cfg
			level := slog.LevelInfo
			if cc.debug {
				level = slog.LevelDebug
			}
			cc.logger = slog.New(slog.NewJSONHandler(c.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			slog.SetDefault(cc.logger)
			return nil
		},
		RunE: func(c *cobra.Command, _ []string) error {
			return c.Help()
		},
	}
	rootCmd.PersistentFlags().BoolVar(&cc.debug, "debug", false, "Log at debug level")

	rootCmd.AddCommand(newServeCommand(cc))
	rootCmd.AddCommand(newMigrateCommand(cc))
	rootCmd.AddCommand(newRunJobCommand(cc))
	rootCmd.AddCommand(newIssueJWTCommand(cc))

	return rootCmd
}

func (cc *commandContext) openDatabase() (*gorm.DB, error) {
	db, err := gorm.Open(gormpostgres.Open(cc.cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

func closeDatabase(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
