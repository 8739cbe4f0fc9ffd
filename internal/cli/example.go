package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ExampleConfig is a complete configuration file with one rule
const ExampleConfig = `# Global settings. Every key is optional.
[udevbackup]
devices_root = "/dev"
crypttab = "/etc/crypttab"
lock_file = "/run/lock/udevbackup.lock"
temp_directory = "/tmp/udevbackup"
use_stdout = true
use_log_file = false
log_file = "/var/log/udevbackup.log"
unlock_timeout = "30s"
unlock_poll_interval = "1s"
use_smtp = false
smtp_server = "localhost"
smtp_port = 25
smtp_use_tls = false
smtp_use_starttls = false
smtp_auth_user = ""
smtp_auth_password = ""
smtp_from_email = "udevbackup@example.com"
smtp_to_email = "admin@example.com"
# also mail the log of successful runs
smtp_notify_success = false

# One table per device; the table name is the rule name.
[example]
# filesystem UUID of the partition to mount (required)
fs_uuid = "0e601e2a-3504-4890-bc21-3f4b46aef7cf"
# UUID of the LUKS container holding it, when encrypted
luks_uuid = "07858aaf-d564-4123-b90c-19059ba47da8"
# run in the mount point by command, fed on stdin (required)
script = "rsync -a /home/ ./home/"
pre_script = "echo 'backup starting'"
post_script = "sync"
command = "bash -e"
mount_options = ["noatime"]
# account running script; pre_script and post_script run as root
user = "backup"
`

// ExampleCommand prints a sample configuration
type ExampleCommand struct {
	ctx *GlobalContext
}

// NewExampleCommand creates the example command
func NewExampleCommand(ctx *GlobalContext) *cobra.Command {
	cmd := &ExampleCommand{ctx: ctx}

	return &cobra.Command{
		Use:   "example",
		Short: "Show an example of configuration file",
		Args:  cobra.NoArgs,
		RunE:  cmd.Run,
	}
}

// Run executes the example command
func (c *ExampleCommand) Run(cmd *cobra.Command, args []string) error {
	fmt.Fprintf(c.ctx.Stdout, "Create one or more .toml files in %s.\n", c.ctx.ConfigDir)
	fmt.Fprintf(c.ctx.Stdout, "fs_uuid and script are mandatory in every rule.\n\n")
	fmt.Fprint(c.ctx.Stdout, ExampleConfig)
	fmt.Fprintf(c.ctx.Stdout, "\nThe following udev rule triggers the configured rules:\n\n%s\n", UdevRule(c.ctx.Program))
	return nil
}
