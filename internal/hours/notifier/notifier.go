// Package notifier delivers hours-discrepancy messages to managers.
package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/medflow/hours-service/internal/hours/domain"
	"github.com/medflow/hours-service/pkg/i18n"
)

// ErrTemplateMissing means the message catalog has no template for the
// notification. It is a configuration gap, not a delivery failure.
var ErrTemplateMissing = errors.New("notification template missing")

const (
	subjectKey = "notifications.hours_discrepancy.subject"
	bodyKey    = "notifications.hours_discrepancy.body"
	statusKey  = "notifications.status."
)

// Notifier sends one manager notification
type Notifier interface {
	NotifyManager(ctx context.Context, p domain.NotificationPayload) error
}

// Message is a rendered notification
type Message struct {
	To      string
	ToName  string
	Subject string
	Body    string
}

// Renderer turns payloads into messages using the catalog templates
type Renderer struct {
	catalog *i18n.Catalog
	locale  string
}

// NewRenderer creates a renderer for one locale
func NewRenderer(catalog *i18n.Catalog, locale string) *Renderer {
	return &Renderer{catalog: catalog, locale: i18n.NormalizeLocale(locale)}
}

// Render fills the subject and body templates from p
func (r *Renderer) Render(p domain.NotificationPayload) (*Message, error) {
	subject, ok := r.catalog.Lookup(r.locale, subjectKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateMissing, subjectKey)
	}
	body, ok := r.catalog.Lookup(r.locale, bodyKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateMissing, bodyKey)
	}

	status, ok := r.catalog.Lookup(r.locale, statusKey+string(p.Status))
	if !ok {
		status = string(p.Status)
	}

	params := map[string]string{
		"employee_name":  p.EmployeeName,
		"manager_name":   p.ManagerName,
		"logged_hours":   hours(p.LoggedHours),
		"expected_hours": hours(p.ExpectedHours),
		"discrepancy":    signedHours(p.Discrepancy),
		"status":         status,
		"week_start":     p.WeekStart,
		"week_end":       p.WeekEnd,
	}

	return &Message{
		To:      p.ManagerEmail,
		ToName:  p.ManagerName,
		Subject: i18n.Format(subject, params),
		Body:    i18n.Format(body, params),
	}, nil
}

func hours(v float64) string {
	return decimal.NewFromFloat(v).Round(2).String()
}

func signedHours(v float64) string {
	if v > 0 {
		return "+" + hours(v)
	}
	return hours(v)
}
