package notifier

import (
	"context"
	"fmt"

	"github.com/medflow/hours-service/internal/hours/domain"
	"github.com/medflow/hours-service/pkg/logger"
	"github.com/medflow/hours-service/pkg/messaging"
)

const templateName = "hours_discrepancy"

// QueueNotifier hands the rendered message to the notification worker over RabbitMQ
type QueueNotifier struct {
	publisher messaging.EventPublisher
	renderer  *Renderer
	logger    *logger.Logger
}

// NewQueueNotifier creates a queue-backed notifier
func NewQueueNotifier(publisher messaging.EventPublisher, renderer *Renderer, log *logger.Logger) *QueueNotifier {
	return &QueueNotifier{
		publisher: publisher,
		renderer:  renderer,
		logger:    log.WithComponent("queue_notifier"),
	}
}

// NotifyManager renders and publishes a notification.email.requested event.
// Success means the broker accepted it.
func (n *QueueNotifier) NotifyManager(ctx context.Context, p domain.NotificationPayload) error {
	msg, err := n.renderer.Render(p)
	if err != nil {
		return err
	}

	data := messaging.EmailRequestedEvent{
		To:       msg.To,
		ToName:   msg.ToName,
		Subject:  msg.Subject,
		Body:     msg.Body,
		Template: templateName,
		Metadata: map[string]string{
			"summary_id":  p.SummaryID,
			"employee_id": p.EmployeeID,
			"week_start":  p.WeekStart,
			"status":      string(p.Status),
		},
	}

	if err := n.publisher.Publish(ctx, messaging.EventEmailRequested, data); err != nil {
		return fmt.Errorf("queue notification for %s: %w", msg.To, err)
	}

	n.logger.Info().
		Str("employee_id", p.EmployeeID).
		Str("week_start", p.WeekStart).
		Msg("manager notification queued")
	return nil
}
