package notifier

import (
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medflow/hours-service/internal/hours/domain"
	"github.com/medflow/hours-service/pkg/config"
	"github.com/medflow/hours-service/pkg/logger"
)

// SendFunc matches smtp.SendMail
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier mails the rendered notification straight to the manager
type SMTPNotifier struct {
	cfg      config.MailConfig
	renderer *Renderer
	send     SendFunc
	logger   *logger.Logger
}

// NewSMTPNotifier creates an SMTP notifier. A nil send uses smtp.SendMail.
func NewSMTPNotifier(cfg config.MailConfig, renderer *Renderer, send SendFunc, log *logger.Logger) *SMTPNotifier {
	if send == nil {
		send = smtp.SendMail
	}
	return &SMTPNotifier{
		cfg:      cfg,
		renderer: renderer,
		send:     send,
		logger:   log.WithComponent("smtp_notifier"),
	}
}

// NotifyManager renders and sends the message. smtp.SendMail takes no context,
// so the call is abandoned, not aborted, when ctx ends first.
func (n *SMTPNotifier) NotifyManager(ctx context.Context, p domain.NotificationPayload) error {
	msg, err := n.renderer.Render(p)
	if err != nil {
		return err
	}

	raw := n.compose(msg)
	addr := n.cfg.Host + ":" + strconv.Itoa(n.cfg.Port)

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	done := make(chan error, 1)
	go func() {
		done <- n.send(addr, auth, n.cfg.From, []string{msg.To}, raw)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("smtp delivery to %s: %w", msg.To, ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp delivery to %s: %w", msg.To, err)
		}
	}

	n.logger.Info().
		Str("employee_id", p.EmployeeID).
		Str("week_start", p.WeekStart).
		Str("status", string(p.Status)).
		Msg("manager notified by mail")
	return nil
}

func (n *SMTPNotifier) compose(msg *Message) []byte {
	to := msg.To
	if msg.ToName != "" {
		to = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", msg.ToName), msg.To)
	}

	var b strings.Builder
	b.WriteString("From: " + n.cfg.From + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	b.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("Message-ID: <" + uuid.New().String() + "@" + n.cfg.Host + ">\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}
