package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nace/udevbackup/internal/config"
	"github.com/nace/udevbackup/internal/container"
	"github.com/nace/udevbackup/internal/system"
	"github.com/nace/udevbackup/internal/ui"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// requiredCommands are the external tools a run may invoke
var requiredCommands = []string{
	AtTool,
	"mount",
	"umount",
	container.UnlockTool,
	container.LockTool,
}

// ShowCommand prints the loaded configuration
type ShowCommand struct {
	ctx  *GlobalContext
	json bool
}

// NewShowCommand creates the show command
func NewShowCommand(ctx *GlobalContext) *cobra.Command {
	cmd := &ShowCommand{ctx: ctx}

	cobraCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the loaded configuration",
		Long:  `Show the global settings, the configured rules and the state of their devices.`,
		Args:  cobra.NoArgs,
		RunE:  cmd.Run,
	}

	cobraCmd.Flags().BoolVarP(&cmd.json, "json", "j", false, "JSON output")

	return cobraCmd
}

// UdevRule returns the udev rule that triggers program on every new partition
func UdevRule(program string) string {
	return fmt.Sprintf(`ACTION=="add", ENV{DEVTYPE}=="partition", RUN+="%s at"`, program)
}

type ruleView struct {
	Name       string   `json:"name"`
	FSUUID     string   `json:"fs_uuid"`
	LUKSUUID   string   `json:"luks_uuid,omitempty"`
	LUKSName   string   `json:"luks_name,omitempty"`
	User       string   `json:"user,omitempty"`
	Command    []string `json:"command"`
	MountPoint string   `json:"mount_point"`
	Stdout     string   `json:"stdout_path"`
	Stderr     string   `json:"stderr_path"`
}

type showReport struct {
	Settings [][2]string              `json:"settings"`
	Rules    []ruleView               `json:"rules"`
	Devices  []container.DeviceStatus `json:"devices,omitempty"`
	Missing  []string                 `json:"missing_commands,omitempty"`
}

// Run executes the show command
func (c *ShowCommand) Run(cmd *cobra.Command, args []string) error {
	cfg, rules, err := c.ctx.LoadConfig()
	if err != nil {
		return err
	}

	report := showReport{
		Settings: settings(cfg),
		Missing:  c.ctx.Executor.MissingCommands(requiredCommands),
	}
	for _, r := range rules.All() {
		report.Rules = append(report.Rules, ruleView{
			Name:       r.Name,
			FSUUID:     r.FSUUID,
			LUKSUUID:   r.LUKSUUID,
			LUKSName:   r.LUKSName,
			User:       r.User,
			Command:    r.Command,
			MountPoint: r.MountPoint,
			Stdout:     r.StdoutPath,
			Stderr:     r.StderrPath,
		})
	}
	if rules.Len() > 0 {
		discovery := container.NewDiscovery(cfg.DevicesRoot, c.ctx.MountsPath)
		report.Devices, err = discovery.Status(rules.All())
		if err != nil {
			c.ctx.Logger.Warning("Unable to read device state: %v", err)
		}
	}

	if c.json {
		return ui.PrintJSON(c.ctx.Stdout, report)
	}

	c.checkUdevRule(cfg)
	c.printReport(report)

	if !system.IsRoot() {
		c.ctx.Logger.Warning("Not running as root: devices cannot be unlocked or mounted.")
	}
	if rules.Len() == 0 {
		c.ctx.Logger.Warning("Please create a 'rule.toml' file in the config dir.")
	}
	if len(report.Missing) > 0 {
		c.ctx.Logger.Warning("Missing commands: %s", strings.Join(report.Missing, ", "))
	}
	return nil
}

func (c *ShowCommand) checkUdevRule(cfg *config.Config) {
	exists, err := afero.Exists(c.ctx.Fs, cfg.UdevRulePath)
	if err == nil && exists {
		return
	}
	c.ctx.Logger.Warning("A udev rule must be added first.")
	fmt.Fprintf(c.ctx.Stdout, "Write the following rule to %s:\n\n%s\n\n", cfg.UdevRulePath, UdevRule(c.ctx.Program))
	fmt.Fprintln(c.ctx.Stdout, "Then reload udev rules with: udevadm control --reload-rules")
}

func (c *ShowCommand) printReport(report showReport) {
	global := ui.NewTable("SETTING", "VALUE")
	for _, kv := range report.Settings {
		global.AddRow(kv[0], kv[1])
	}
	global.Render(c.ctx.Stdout)

	ruleTable := ui.NewTable("RULE", "FS UUID", "LUKS UUID", "LUKS NAME", "USER", "COMMAND", "MOUNT POINT")
	for _, r := range report.Rules {
		ruleTable.AddRow(r.Name, r.FSUUID, orDash(r.LUKSUUID), orDash(r.LUKSName),
			orDash(r.User), strings.Join(r.Command, " "), r.MountPoint)
	}
	ruleTable.Render(c.ctx.Stdout)

	devices := ui.NewTable("RULE", "PRESENT", "UNLOCKED", "MOUNTED")
	for _, d := range report.Devices {
		devices.AddRow(d.Rule, yesNo(d.Present), yesNo(d.Unlocked), yesNo(d.Mounted))
	}
	devices.Render(c.ctx.Stdout)
}

func settings(cfg *config.Config) [][2]string {
	out := [][2]string{
		{"devices_root", cfg.DevicesRoot},
		{"crypttab", cfg.Crypttab},
		{"lock_file", cfg.LockFile},
		{"temp_directory", cfg.TempDirectory},
		{"udev_rule_path", cfg.UdevRulePath},
		{"use_stdout", strconv.FormatBool(cfg.UseStdout)},
		{"use_log_file", strconv.FormatBool(cfg.UseLogFile)},
		{"log_file", cfg.LogFile},
		{"unlock_timeout", cfg.UnlockTimeout.String()},
		{"unlock_poll_interval", cfg.UnlockPollInterval.String()},
		{"use_smtp", strconv.FormatBool(cfg.Enabled)},
	}
	if cfg.Enabled {
		password := ""
		if cfg.AuthPassword != "" {
			password = "********"
		}
		out = append(out,
			[2]string{"smtp_server", cfg.Server},
			[2]string{"smtp_port", strconv.Itoa(cfg.Port)},
			[2]string{"smtp_use_tls", strconv.FormatBool(cfg.UseTLS)},
			[2]string{"smtp_use_starttls", strconv.FormatBool(cfg.UseStartTLS)},
			[2]string{"smtp_auth_user", cfg.AuthUser},
			[2]string{"smtp_auth_password", password},
			[2]string{"smtp_from_email", cfg.FromEmail},
			[2]string{"smtp_to_email", cfg.ToEmail},
			[2]string{"smtp_notify_success", strconv.FormatBool(cfg.NotifySuccess)},
		)
	}
	return out
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
