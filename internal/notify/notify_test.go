package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/nace/udevbackup/internal/config"
	"github.com/nace/udevbackup/internal/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	subject string
	body    string
}

type fakeMailer struct {
	err  error
	sent []sent
}

func (m *fakeMailer) Send(ctx context.Context, cfg config.SMTPConfig, subject, body string) error {
	m.sent = append(m.sent, sent{subject: subject, body: body})
	return m.err
}

func enabledConfig() config.SMTPConfig {
	return config.SMTPConfig{
		Enabled:   true,
		Server:    "smtp.example.com",
		Port:      25,
		FromEmail: "from@example.com",
		ToEmail:   "to@example.com",
	}
}

func TestNotifyFailureDisabled(t *testing.T) {
	mem := ui.NewMemorySink()
	mailer := &fakeMailer{}
	cfg := enabledConfig()
	cfg.Enabled = false

	New(cfg, ui.NewLogger(false, mem), WithMailer(mailer)).NotifyFailure(context.Background(), "s", "d")
	assert.Empty(t, mailer.sent)
	assert.Empty(t, mem.Entries())
}

func TestNotifyFailureMissingAddresses(t *testing.T) {
	for _, tt := range []struct {
		name string
		from string
		to   string
	}{
		{"no sender", "", "to@example.com"},
		{"no recipient", "from@example.com", ""},
	} {
		t.Run(tt.name, func(t *testing.T) {
			mem := ui.NewMemorySink()
			mailer := &fakeMailer{}
			cfg := enabledConfig()
			cfg.FromEmail, cfg.ToEmail = tt.from, tt.to

			New(cfg, ui.NewLogger(false, mem), WithMailer(mailer)).NotifyFailure(context.Background(), "s", "d")
			assert.Empty(t, mailer.sent)
			assert.True(t, mem.Contains(ui.LevelWarning, "Unable to send e-mail: SMTP from/to e-mail address is not configured."))
		})
	}
}

func TestNotifyFailureDeliveryErrorIsSwallowed(t *testing.T) {
	mem := ui.NewMemorySink()
	mailer := &fakeMailer{err: errors.New("Authentication failed.")}

	New(enabledConfig(), ui.NewLogger(false, mem), WithMailer(mailer)).NotifyFailure(context.Background(), "s", "d")
	require.Len(t, mailer.sent, 1)
	assert.True(t, mem.Contains(ui.LevelError, "Unable to send mail to to@example.com: Authentication failed."))
}

func TestNotifyFailureAppendsTranscript(t *testing.T) {
	mem := ui.NewMemorySink()
	logger := ui.NewLogger(false, mem)
	logger.Info("Device abcd is connected.")
	mailer := &fakeMailer{}

	New(enabledConfig(), logger, WithMailer(mailer), WithTranscript(mem)).
		NotifyFailure(context.Background(), "udevbackup: primary failed", "Rule primary failed at script.\n")
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "udevbackup: primary failed", mailer.sent[0].subject)
	assert.Equal(t, "Rule primary failed at script.\n\nDevice abcd is connected.\n", mailer.sent[0].body)
}

func TestSMTPMailerRejectsBadAddresses(t *testing.T) {
	cfg := enabledConfig()
	cfg.FromEmail = "not an address"

	err := SMTPMailer{}.Send(context.Background(), cfg, "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid sender")
}

func TestRecipients(t *testing.T) {
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, recipients(" a@example.com, ,b@example.com"))
}

func TestNotifySuccess(t *testing.T) {
	t.Run("off by default", func(t *testing.T) {
		mailer := &fakeMailer{}
		New(enabledConfig(), ui.NewLogger(false, ui.NewMemorySink()), WithMailer(mailer)).
			NotifySuccess(context.Background(), "udevbackup: primary succeeded", "Rule primary succeeded.")
		assert.Empty(t, mailer.sent)
	})

	t.Run("requires smtp", func(t *testing.T) {
		mailer := &fakeMailer{}
		cfg := enabledConfig()
		cfg.Enabled = false
		cfg.NotifySuccess = true
		New(cfg, ui.NewLogger(false, ui.NewMemorySink()), WithMailer(mailer)).
			NotifySuccess(context.Background(), "udevbackup: primary succeeded", "Rule primary succeeded.")
		assert.Empty(t, mailer.sent)
	})

	t.Run("sends when enabled", func(t *testing.T) {
		mem := ui.NewMemorySink()
		logger := ui.NewLogger(false, mem)
		logger.Info("Successful.")
		mailer := &fakeMailer{}
		cfg := enabledConfig()
		cfg.NotifySuccess = true

		New(cfg, logger, WithMailer(mailer), WithTranscript(mem)).
			NotifySuccess(context.Background(), "udevbackup: primary succeeded", "Rule primary succeeded.")
		require.Len(t, mailer.sent, 1)
		assert.Equal(t, "udevbackup: primary succeeded", mailer.sent[0].subject)
		assert.Equal(t, "Rule primary succeeded.\n\nSuccessful.\n", mailer.sent[0].body)
	})
}
