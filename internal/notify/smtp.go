package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/nace/udevbackup/internal/config"
	"github.com/wneessen/go-mail"
)

// SMTPMailer delivers through the configured relay. Implicit TLS takes
// precedence over STARTTLS; authentication is used when a user is set.
type SMTPMailer struct{}

// security is the connection protection chosen for a relay
type security int

const (
	plainText security = iota
	startTLS
	implicitTLS
)

// transport describes how to reach the relay
type transport struct {
	security security
	auth     bool
}

func transportFor(cfg config.SMTPConfig) transport {
	t := transport{auth: cfg.AuthUser != ""}
	switch {
	case cfg.UseTLS:
		t.security = implicitTLS
	case cfg.UseStartTLS:
		t.security = startTLS
	}
	return t
}

func (t transport) options(cfg config.SMTPConfig) []mail.Option {
	opts := []mail.Option{mail.WithPort(cfg.Port)}
	switch t.security {
	case implicitTLS:
		opts = append(opts, mail.WithSSL())
	case startTLS:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	if t.auth {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.AuthUser),
			mail.WithPassword(cfg.AuthPassword),
		)
	}
	return opts
}

// Send builds the message and delivers it in a single SMTP session
func (SMTPMailer) Send(ctx context.Context, cfg config.SMTPConfig, subject, body string) error {
	opts := transportFor(cfg).options(cfg)

	client, err := mail.NewClient(cfg.Server, opts...)
	if err != nil {
		return fmt.Errorf("invalid SMTP settings: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(cfg.FromEmail); err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}
	if err := msg.To(recipients(cfg.ToEmail)...); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	return client.DialAndSendWithContext(ctx, msg)
}

func recipients(list string) []string {
	var out []string
	for _, addr := range strings.Split(list, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
