// Package config holds the global settings, the device rules and the
// on-disk loader that produces them.
package config

import (
	"fmt"
	"time"
)

// SMTPConfig configures failure notifications
type SMTPConfig struct {
	Enabled      bool   `mapstructure:"use_smtp"`
	Server       string `mapstructure:"smtp_server"`
	Port         int    `mapstructure:"smtp_port"`
	UseTLS       bool   `mapstructure:"smtp_use_tls"`
	UseStartTLS  bool   `mapstructure:"smtp_use_starttls"`
	AuthUser     string `mapstructure:"smtp_auth_user"`
	AuthPassword string `mapstructure:"smtp_auth_password"`
	FromEmail    string `mapstructure:"smtp_from_email"`
	ToEmail      string `mapstructure:"smtp_to_email"`
	// NotifySuccess also mails the transcript of successful runs
	NotifySuccess bool `mapstructure:"smtp_notify_success"`
}

// Config holds the global settings shared by every rule
type Config struct {
	DevicesRoot        string        `mapstructure:"devices_root"`
	Crypttab           string        `mapstructure:"crypttab"`
	LockFile           string        `mapstructure:"lock_file"`
	TempDirectory      string        `mapstructure:"temp_directory"`
	UdevRulePath       string        `mapstructure:"udev_rule_path"`
	UseStdout          bool          `mapstructure:"use_stdout"`
	UseLogFile         bool          `mapstructure:"use_log_file"`
	LogFile            string        `mapstructure:"log_file"`
	UnlockTimeout      time.Duration `mapstructure:"unlock_timeout"`
	UnlockPollInterval time.Duration `mapstructure:"unlock_poll_interval"`

	SMTPConfig `mapstructure:",squash"`
}

// Default returns a Config populated with the built-in defaults
func Default() *Config {
	return &Config{
		DevicesRoot:        "/dev",
		Crypttab:           "/etc/crypttab",
		LockFile:           "/run/lock/udevbackup.lock",
		TempDirectory:      "/tmp/udevbackup",
		UdevRulePath:       "/etc/udev/rules.d/udevbackup.rules",
		UseStdout:          true,
		UseLogFile:         false,
		LogFile:            "/var/log/udevbackup.log",
		UnlockTimeout:      30 * time.Second,
		UnlockPollInterval: time.Second,
		SMTPConfig: SMTPConfig{
			Server: "localhost",
			Port:   25,
		},
	}
}

// Validate rejects settings the lifecycle cannot work with
func (c *Config) Validate() error {
	if c.UnlockPollInterval <= 0 {
		return fmt.Errorf("unlock_poll_interval must be positive, got %s", c.UnlockPollInterval)
	}
	if c.UnlockTimeout < 0 {
		return fmt.Errorf("unlock_timeout must not be negative, got %s", c.UnlockTimeout)
	}
	return nil
}
