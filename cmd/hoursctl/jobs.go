package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/medflow/hours-service/internal/hours/app"
	"github.com/medflow/hours-service/pkg/config"
	"github.com/medflow/hours-service/pkg/database"
	"github.com/medflow/hours-service/pkg/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadWithValidation(app.ServiceName)
		if err != nil {
			return err
		}
		log := logger.New("hoursctl", cfg.Server.Environment)

		db, err := database.New(&cfg.Database, log)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()

		if err := db.Migrate(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

var weeklyDate string

var weeklyCmd = &cobra.Command{
	Use:   "weekly-summary",
	Short: "Summarize the week before --date (default: today) and notify managers",
	Args:  cobra.NoArgs,
	RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, _ []string) error {
		if weeklyDate == "" {
			report, err := e.hours.Gate.RunWeekly(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		}

		ref, err := time.Parse(time.DateOnly, weeklyDate)
		if err != nil {
			return fmt.Errorf("invalid --date %q, want YYYY-MM-DD", weeklyDate)
		}
		report, err := e.hours.Gate.RunWeeklyAt(ctx, ref)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), report)
	}),
}

var checkEmployees []string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the mid-week discrepancy check for employees",
	Args:  cobra.NoArgs,
	RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, _ []string) error {
		report, err := e.hours.Gate.CheckMidWeek(ctx, checkEmployees)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), report)
	}),
}

var currentWeekCmd = &cobra.Command{
	Use:   "current-week [employee-id]",
	Short: "Show logged and expected hours of the running week",
	Args:  cobra.ExactArgs(1),
	RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
		status, err := e.hours.Gate.CurrentWeek(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), status)
	}),
}

var summariesLimit int

var summariesCmd = &cobra.Command{
	Use:   "summaries [employee-id]",
	Short: "List stored weekly summaries, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
		summaries, err := e.hours.Gate.Summaries(ctx, args[0], summariesLimit)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), summaries)
	}),
}

var annotateNotes string

var annotateCmd = &cobra.Command{
	Use:   "annotate [summary-id]",
	Short: "Set the notes of a weekly summary (empty --notes clears them)",
	Args:  cobra.ExactArgs(1),
	RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
		summary, err := e.hours.Gate.AnnotateSummary(ctx, args[0], annotateNotes)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), summary)
	}),
}

func init() {
	annotateCmd.Flags().StringVar(&annotateNotes, "notes", "", "free-text notes")

	weeklyCmd.Flags().StringVar(&weeklyDate, "date", "", "reference date (YYYY-MM-DD); the week before it is summarized")

	checkCmd.Flags().StringSliceVar(&checkEmployees, "employee", nil, "employee id (repeatable)")
	_ = checkCmd.MarkFlagRequired("employee")

	summariesCmd.Flags().IntVar(&summariesLimit, "limit", 0, "maximum number of weeks (default 52)")
}
