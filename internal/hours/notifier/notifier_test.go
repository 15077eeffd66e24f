package notifier_test

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medflow/hours-service/internal/hours/domain"
	"github.com/medflow/hours-service/internal/hours/notifier"
	"github.com/medflow/hours-service/pkg/config"
	"github.com/medflow/hours-service/pkg/i18n"
	"github.com/medflow/hours-service/pkg/logger"
	"github.com/medflow/hours-service/pkg/messaging"
)

func payload() domain.NotificationPayload {
	return domain.NotificationPayload{
		SummaryID:     "sum-1",
		EmployeeID:    "emp-1",
		EmployeeName:  "Anna Schmidt",
		ManagerName:   "Max Mueller",
		ManagerEmail:  "max@example.com",
		LoggedHours:   52.5,
		ExpectedHours: 40,
		Discrepancy:   12.5,
		Status:        domain.StatusCritical,
		WeekStart:     "2024-01-01",
		WeekEnd:       "2024-01-07",
	}
}

func TestRenderer_English(t *testing.T) {
	msg, err := notifier.NewRenderer(i18n.Default(), "en").Render(payload())
	require.NoError(t, err)

	assert.Equal(t, "max@example.com", msg.To)
	assert.Equal(t, "Hours critical overtime: Anna Schmidt, week 2024-01-01", msg.Subject)
	assert.Contains(t, msg.Body, "Hello Max Mueller")
	assert.Contains(t, msg.Body, "logged 52.5 hours in the week 2024-01-01 to 2024-01-07")
	assert.Contains(t, msg.Body, "a discrepancy of +12.5 hours")
}

func TestRenderer_German(t *testing.T) {
	p := payload()
	p.LoggedHours, p.Discrepancy, p.Status = 30, -10, domain.StatusUndertime

	msg, err := notifier.NewRenderer(i18n.Default(), "de").Render(p)
	require.NoError(t, err)

	assert.Contains(t, msg.Subject, "Minderstunden")
	assert.Contains(t, msg.Body, "Abweichung von -10 Stunden")
}

func TestRenderer_NamesWithPlaceholdersRenderVerbatim(t *testing.T) {
	p := payload()
	p.EmployeeName = "Kim {status}"
	p.ManagerName = "{employee_name}"
	p.LoggedHours, p.Discrepancy, p.Status = 46, 6, domain.StatusOvertime
	r := notifier.NewRenderer(i18n.Default(), "en")

	for i := 0; i < 200; i++ {
		msg, err := r.Render(p)
		require.NoError(t, err)
		require.Equal(t, "Hours overtime: Kim {status}, week 2024-01-01", msg.Subject)
		require.Contains(t, msg.Body, "Hello {employee_name}")
	}
}

func TestRenderer_MissingTemplate(t *testing.T) {
	catalog, err := i18n.NewCatalog(fstest.MapFS{
		"messages/en.json": {Data: []byte(`{"notifications": {"hours_discrepancy": {"subject": "s"}}}`)},
	})
	require.NoError(t, err)

	_, err = notifier.NewRenderer(catalog, "en").Render(payload())

	assert.True(t, errors.Is(err, notifier.ErrTemplateMissing))
}

func TestSMTPNotifier_Sends(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	send := func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	cfg := config.MailConfig{Host: "mail.local", Port: 1025, From: "hours@medflow.local"}
	n := notifier.NewSMTPNotifier(cfg, notifier.NewRenderer(i18n.Default(), "en"), send, logger.Nop())

	require.NoError(t, n.NotifyManager(context.Background(), payload()))

	assert.Equal(t, "mail.local:1025", gotAddr)
	assert.Equal(t, "hours@medflow.local", gotFrom)
	assert.Equal(t, []string{"max@example.com"}, gotTo)
	assert.True(t, strings.Contains(string(gotMsg), "To: Max Mueller <max@example.com>\r\n"))
	assert.True(t, strings.Contains(string(gotMsg), "Content-Type: text/plain; charset=utf-8\r\n"))
}

func TestSMTPNotifier_DeliveryFailure(t *testing.T) {
	send := func(string, smtp.Auth, string, []string, []byte) error { return errors.New("connection refused") }
	n := notifier.NewSMTPNotifier(config.MailConfig{Host: "mail.local", Port: 25}, notifier.NewRenderer(i18n.Default(), "en"), send, logger.Nop())

	err := n.NotifyManager(context.Background(), payload())

	require.Error(t, err)
	assert.False(t, errors.Is(err, notifier.ErrTemplateMissing))
}

func TestSMTPNotifier_RespectsContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	send := func(string, smtp.Auth, string, []string, []byte) error {
		<-release
		return nil
	}
	n := notifier.NewSMTPNotifier(config.MailConfig{Host: "mail.local", Port: 25}, notifier.NewRenderer(i18n.Default(), "en"), send, logger.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := n.NotifyManager(ctx, payload())
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

type capturePublisher struct {
	eventType string
	data      interface{}
	err       error
}

func (c *capturePublisher) Publish(_ context.Context, eventType string, data interface{}) error {
	c.eventType, c.data = eventType, data
	return c.err
}

func TestQueueNotifier_PublishesEmailRequest(t *testing.T) {
	pub := &capturePublisher{}
	n := notifier.NewQueueNotifier(pub, notifier.NewRenderer(i18n.Default(), "en"), logger.Nop())

	require.NoError(t, n.NotifyManager(context.Background(), payload()))

	assert.Equal(t, messaging.EventEmailRequested, pub.eventType)
	data := pub.data.(messaging.EmailRequestedEvent)
	assert.Equal(t, "max@example.com", data.To)
	assert.Equal(t, "hours_discrepancy", data.Template)
	assert.Equal(t, "sum-1", data.Metadata["summary_id"])
}

func TestQueueNotifier_PublishFailure(t *testing.T) {
	pub := &capturePublisher{err: errors.New("channel closed")}
	n := notifier.NewQueueNotifier(pub, notifier.NewRenderer(i18n.Default(), "en"), logger.Nop())

	assert.Error(t, n.NotifyManager(context.Background(), payload()))
}
