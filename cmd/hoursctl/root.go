package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/medflow/hours-service/internal/hours/app"
	"github.com/medflow/hours-service/pkg/config"
	"github.com/medflow/hours-service/pkg/database"
	"github.com/medflow/hours-service/pkg/logger"
	"github.com/medflow/hours-service/pkg/messaging"
)

var noBroker bool

var rootCmd = &cobra.Command{
	Use:   "hoursctl",
	Short: "Operate the weekly hours workflow",
	Long: `hoursctl runs the weekly hours jobs by hand against the service database.
It uses the same configuration as hours-service (HOURS_* environment variables,
.env and config/hours-service.yaml).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noBroker, "no-broker", false, "do not connect to RabbitMQ; no events are published")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(weeklyCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(currentWeekCmd)
	rootCmd.AddCommand(summariesCmd)
	rootCmd.AddCommand(annotateCmd)
}

// env holds the connections a command runs against
type env struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *database.DB
	rmq   *messaging.RabbitMQ
	hours *app.App
}

func (e *env) close() {
	if e.rmq != nil {
		e.rmq.Close()
	}
	e.db.Close()
}

// withEnv loads configuration and connects before running fn
func withEnv(fn func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		cfg, err := config.LoadWithValidation(app.ServiceName)
		if err != nil {
			return err
		}
		if noBroker {
			cfg.Hours.Notifier = config.NotifierSMTP
		}

		log := logger.New("hoursctl", cfg.Server.Environment)

		db, err := database.New(&cfg.Database, log)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		e := &env{cfg: cfg, log: log, db: db}
		defer e.close()

		if !noBroker {
			e.rmq, err = messaging.New(ctx, &cfg.RabbitMQ, log)
			if err != nil {
				return fmt.Errorf("connect RabbitMQ: %w", err)
			}
		}

		e.hours, err = app.New(cfg, db, e.rmq, log)
		if err != nil {
			return err
		}

		return fn(ctx, cmd, e, args)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
