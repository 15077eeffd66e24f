// Package app wires the hours workflow from configuration. It is shared by the
// HTTP service and the operator CLI.
package app

import (
	"fmt"

	"github.com/medflow/hours-service/internal/hours/events"
	"github.com/medflow/hours-service/internal/hours/notifier"
	"github.com/medflow/hours-service/internal/hours/repository"
	"github.com/medflow/hours-service/internal/hours/service"
	"github.com/medflow/hours-service/pkg/config"
	"github.com/medflow/hours-service/pkg/database"
	"github.com/medflow/hours-service/pkg/i18n"
	"github.com/medflow/hours-service/pkg/logger"
	"github.com/medflow/hours-service/pkg/messaging"
)

// ServiceName is the event source and config name of the service
const ServiceName = "hours-service"

// App holds the wired hours components
type App struct {
	Employees  *repository.EmployeeRepository
	Summaries  *repository.SummaryRepository
	Gate       *service.NotificationGate
	Timesheets *service.TimesheetService
	Events     *events.HoursEventPublisher
}

// New builds the hours components. rmq may be nil, in which case no events are
// published and only the SMTP notifier is available.
func New(cfg *config.Config, db *database.DB, rmq *messaging.RabbitMQ, log *logger.Logger) (*App, error) {
	loc, err := cfg.Hours.Location()
	if err != nil {
		return nil, err
	}
	midWeekDays, err := cfg.Hours.Weekdays()
	if err != nil {
		return nil, err
	}

	var hoursEvents *events.HoursEventPublisher
	if rmq != nil {
		pub, err := messaging.NewPublisher(rmq, messaging.ExchangeHoursEvents, ServiceName, log)
		if err != nil {
			return nil, err
		}
		hoursEvents = events.NewHoursEventPublisher(pub, log)
	}

	n, err := newNotifier(cfg, rmq, log)
	if err != nil {
		return nil, err
	}

	employeeRepo := repository.NewEmployeeRepository(db)
	timesheetRepo := repository.NewTimesheetRepository(db)
	summaryRepo := repository.NewSummaryRepository(db, log)

	// The in-process lock serializes goroutines of this instance before they
	// queue on a database connection for the cross-instance advisory lock.
	locker := service.ChainLocker{
		service.NewKeyedLocker(),
		service.LockerFunc(db.AdvisoryLock),
	}

	gate := service.NewNotificationGate(
		employeeRepo,
		service.NewHoursAggregator(timesheetRepo),
		summaryRepo,
		n,
		locker,
		hoursEvents,
		service.GateConfig{
			Location:      loc,
			MidWeekDays:   midWeekDays,
			StoreTimeout:  cfg.Hours.StoreTimeout,
			NotifyTimeout: cfg.Hours.NotifyTimeout,
		},
		log,
	)

	return &App{
		Employees:  employeeRepo,
		Summaries:  summaryRepo,
		Gate:       gate,
		Timesheets: service.NewTimesheetService(timesheetRepo, employeeRepo, gate, hoursEvents, log),
		Events:     hoursEvents,
	}, nil
}

func newNotifier(cfg *config.Config, rmq *messaging.RabbitMQ, log *logger.Logger) (notifier.Notifier, error) {
	renderer := notifier.NewRenderer(i18n.Default(), cfg.Hours.Locale)

	switch cfg.Hours.Notifier {
	case config.NotifierRabbitMQ:
		if rmq == nil {
			return nil, fmt.Errorf("notifier %q needs a RabbitMQ connection", config.NotifierRabbitMQ)
		}
		pub, err := messaging.NewPublisher(rmq, messaging.ExchangeNotificationEvents, ServiceName, log)
		if err != nil {
			return nil, err
		}
		return notifier.NewQueueNotifier(pub, renderer, log), nil
	default:
		return notifier.NewSMTPNotifier(cfg.Mail, renderer, nil, log), nil
	}
}
