package cli

import (
	"github.com/nace/udevbackup/internal/lifecycle"
	"github.com/nace/udevbackup/internal/notify"
	"github.com/spf13/cobra"
)

// RunCommand handles a device connection
type RunCommand struct {
	ctx *GlobalContext
}

// NewRunCommand creates the run command
func NewRunCommand(ctx *GlobalContext) *cobra.Command {
	cmd := &RunCommand{ctx: ctx}

	return &cobra.Command{
		Use:   "run",
		Short: "Run the rule of the connected device",
		Long: `Run the scripts of the rule matching the given filesystem UUID
(/dev/disk/by-uuid/XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX). Encrypted
containers are unlocked first and locked again afterwards.`,
		Args: cobra.NoArgs,
		RunE: cmd.Run,
	}
}

// Run executes the run command
func (c *RunCommand) Run(cmd *cobra.Command, args []string) error {
	cfg, rules, err := c.ctx.LoadConfig()
	if err != nil {
		return err
	}

	fsUUID, err := c.ctx.RequireFSUUID()
	if err != nil {
		return err
	}
	c.ctx.Logger.Info("%s detected", fsUUID)

	notifyOpts := []notify.Option{notify.WithTranscript(c.ctx.Transcript)}
	if c.ctx.Mailer != nil {
		notifyOpts = append(notifyOpts, notify.WithMailer(c.ctx.Mailer))
	}

	opts := []lifecycle.Option{
		lifecycle.WithRunner(c.ctx.Runner),
		lifecycle.WithFs(c.ctx.Fs),
		lifecycle.WithNotifier(notify.New(cfg.SMTPConfig, c.ctx.Logger, notifyOpts...)),
	}
	opts = append(opts, c.ctx.OrchestratorOptions...)

	result := lifecycle.New(cfg, rules, c.ctx.Logger, opts...).Run(cmd.Context(), fsUUID)
	if !result.OK {
		return &ExitError{Code: ExitRunFailed, Err: result.Err}
	}
	return nil
}
