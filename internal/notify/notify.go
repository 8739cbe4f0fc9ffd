// Package notify delivers failure summaries by e-mail.
package notify

import (
	"context"
	"strings"

	"github.com/nace/udevbackup/internal/config"
	"github.com/nace/udevbackup/internal/ui"
)

// Mailer sends one plain-text message
type Mailer interface {
	Send(ctx context.Context, cfg config.SMTPConfig, subject, body string) error
}

// Notifier sends failure notifications. It never returns an error: every
// problem is logged and swallowed.
type Notifier struct {
	cfg        config.SMTPConfig
	logger     *ui.Logger
	mailer     Mailer
	transcript *ui.MemorySink
}

// Option configures a Notifier
type Option func(*Notifier)

// WithMailer replaces the SMTP mailer
func WithMailer(m Mailer) Option {
	return func(n *Notifier) { n.mailer = m }
}

// WithTranscript appends the messages recorded by sink to every e-mail
func WithTranscript(sink *ui.MemorySink) Option {
	return func(n *Notifier) { n.transcript = sink }
}

// New creates a notifier
func New(cfg config.SMTPConfig, logger *ui.Logger, opts ...Option) *Notifier {
	n := &Notifier{
		cfg:    cfg,
		logger: logger,
		mailer: SMTPMailer{},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NotifyFailure e-mails subject and detail to the configured recipient
func (n *Notifier) NotifyFailure(ctx context.Context, subject, detail string) {
	n.send(ctx, subject, detail)
}

// NotifySuccess e-mails the report of a successful run, only when
// smtp_notify_success is set
func (n *Notifier) NotifySuccess(ctx context.Context, subject, detail string) {
	if !n.cfg.NotifySuccess {
		return
	}
	n.send(ctx, subject, detail)
}

func (n *Notifier) send(ctx context.Context, subject, detail string) {
	if !n.cfg.Enabled {
		return
	}
	if n.cfg.FromEmail == "" || n.cfg.ToEmail == "" {
		n.logger.Warning("Unable to send e-mail: SMTP from/to e-mail address is not configured.")
		return
	}

	body := detail
	if n.transcript != nil {
		if log := n.transcript.String(); log != "" {
			body = strings.TrimRight(detail, "\n") + "\n\n" + log
		}
	}

	if err := n.mailer.Send(ctx, n.cfg, subject, body); err != nil {
		n.logger.Error("Unable to send mail to %s: %v", n.cfg.ToEmail, err)
		return
	}
	n.logger.Debug("Notification sent to %s", n.cfg.ToEmail)
}
