package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"lastmile/cmd"
	"lastmile/internal/adapters/out/postgres"
	"lastmile/internal/core/application/usecases/commands"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/pkg/auth"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const (
	jobDueToday = "due-today"
	jobOverdue  = "overdue"
)

func newMigrateCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			db, err := cc.openDatabase()
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			applied, err := postgres.Migrate(c.Context(), db)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(c.OutOrStdout(), "schema is up to date")
				return nil
			}
			for _, v := range applied {
				fmt.Fprintln(c.OutOrStdout(), "applied", v)
			}
			return nil
		},
	}
}

func newRunJobCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:       "run-job <due-today|overdue>",
		Short:     "Run one salary job now and print the notifications it emitted",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{jobDueToday, jobOverdue},
		RunE: func(c *cobra.Command, args []string) error {
			db, err := cc.openDatabase()
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			root, err := cmd.NewCompositionRoot(cc.cfg, db, nil, cc.logger)
			if err != nil {
				return err
			}
			defer func() { _ = root.Close() }()

			manager := root.CreateJobManager()
			var report commands.SalaryNotificationReport
			switch args[0] {
			case jobDueToday:
				report, err = manager.DueToday().RunOnce(c.Context())
			case jobOverdue:
				report, err = manager.Overdue().RunOnce(c.Context())
			}
			if err != nil {
				return err
			}
			printReport(c.OutOrStdout(), report)
			return nil
		},
	}
}

func printReport(w io.Writer, report commands.SalaryNotificationReport) {
	fmt.Fprintf(w, "day %s: %d payments, %d escalated, %d/%d notifications delivered\n",
		report.Day.String(), report.Payments, report.Escalated, report.Delivered(), len(report.Notifications))
	if len(report.Notifications) == 0 {
		return
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Kind", "Recipient", "Payments", "Action token", "Dedup key"})
	for _, n := range report.Notifications {
		ids := make([]string, 0, len(n.PaymentIDs))
		for _, id := range n.PaymentIDs {
			ids = append(ids, id.String())
		}
		tw.AppendRow(table.Row{string(n.Kind), n.Recipient.ExternalID, strings.Join(ids, "\n"), n.ActionToken, n.DedupKey})
	}
	fmt.Fprintln(w, tw.Render())
}

func newIssueJWTCommand(cc *commandContext) *cobra.Command {
	var role string
	var ttl time.Duration

	issueCmd := &cobra.Command{
		Use:   "issue-jwt <external-id>",
		Short: "Sign a bearer token for a driver or manager",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			verifier, err := auth.NewJWT(cc.cfg.JWTSecret, cc.cfg.JWTIssuer)
			if err != nil {
				return err
			}
			parsed, err := kernel.ParseRole(role)
			if err != nil {
				return err
			}
			actor, err := kernel.NewActor(args[0], parsed)
			if err != nil {
				return err
			}
			token, err := verifier.Issue(actor, ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), token)
			return nil
		},
	}
	issueCmd.Flags().StringVar(&role, "role", kernel.RoleDriver.String(), "Actor role (driver or manager)")
	issueCmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")

	return issueCmd
}
