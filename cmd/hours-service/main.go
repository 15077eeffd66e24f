package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/medflow/hours-service/internal/hours/app"
	"github.com/medflow/hours-service/internal/hours/consumers"
	"github.com/medflow/hours-service/internal/hours/handler"
	"github.com/medflow/hours-service/internal/hours/scheduler"
	"github.com/medflow/hours-service/pkg/config"
	"github.com/medflow/hours-service/pkg/database"
	"github.com/medflow/hours-service/pkg/httputil"
	"github.com/medflow/hours-service/pkg/i18n"
	"github.com/medflow/hours-service/pkg/logger"
	"github.com/medflow/hours-service/pkg/messaging"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation(app.ServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(app.ServiceName, cfg.Server.Environment)
	log.Info().Msg("starting Hours Service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	rmq, err := messaging.New(ctx, &cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	hours, err := app.New(cfg, db, rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to wire hours components")
	}

	// Clock-outs from the staff service and timesheet edits from other instances
	timesheetConsumer, err := consumers.NewTimesheetEventConsumer(rmq, hours.Gate, app.ServiceName, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create timesheet event consumer")
	}
	if err := timesheetConsumer.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start timesheet event consumer")
	}

	var weekly *scheduler.WeeklyScheduler
	if cfg.Hours.SchedulerEnabled {
		loc, _ := cfg.Hours.Location()
		weekday, _ := cfg.Hours.RunWeekday()
		weekly = scheduler.NewWeeklyScheduler(hours.Gate, loc, weekday, cfg.Hours.WeeklyRunHour, cfg.Hours.SchedulerInterval, log)
		weekly.Start(ctx)
	}

	hoursHandler := handler.NewHoursHandler(hours.Timesheets, hours.Gate, log)
	tokens := httputil.NewTokenValidator(&cfg.JWT)

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(i18n.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			if origin == "http://localhost:3000" || origin == "http://localhost:5173" {
				return true
			}
			return strings.HasSuffix(origin, ".medflow.de")
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  app.ServiceName,
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httputil.Authenticator(tokens, log))
		r.Mount("/hours", hoursHandler.Routes())
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Stops the consumer and lets a running weekly pass wind down
	cancel()
	if weekly != nil {
		weekly.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
