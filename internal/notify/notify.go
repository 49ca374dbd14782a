// Package notify delivers run reports to the operator by email.
package notify

import (
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/wneessen/go-mail"

	"versync/internal/domain"
)

// Mailer sends one plain-text message per run via SMTP.
type Mailer struct {
	host     string
	port     int
	user     string
	password string
	from     string
	to       string
}

var _ domain.Notifier = (*Mailer)(nil)

// NewMailer builds a mailer from the SMTP server settings. to may be
// overridden per invocation of the CLI (the jobs are called with the
// on-duty operator's address).
func NewMailer(host string, port int, user, password, from, to string) *Mailer {
	return &Mailer{host: host, port: port, user: user, password: password, from: from, to: to}
}

// Notify sends subject and body, mapping the run priority onto the message
// importance header so failure mail stands out in the operator's client.
func (m *Mailer) Notify(subject, body string, priority domain.Priority) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(m.to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	switch priority {
	case domain.PriorityHigh:
		msg.SetImportance(mail.ImportanceHigh)
	default:
		msg.SetImportance(mail.ImportanceLow)
	}

	client, err := mail.NewClient(m.host,
		mail.WithPort(m.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.user),
		mail.WithPassword(m.password),
	)
	if err != nil {
		return err
	}
	return client.DialAndSend(msg)
}

// LogNotifier writes the report to the log instead of mailing it. Used by
// --dry-run so operators can rehearse a job without spamming the inbox.
type LogNotifier struct {
	Log logrus.FieldLogger
}

var _ domain.Notifier = (*LogNotifier)(nil)

func (n *LogNotifier) Notify(subject, body string, priority domain.Priority) error {
	n.Log.WithFields(logrus.Fields{"subject": subject, "priority": int(priority)}).Info("run report")
	for _, line := range strings.Split(body, "\n") {
		n.Log.Info("  " + line)
	}
	return nil
}
