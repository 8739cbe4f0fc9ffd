package cli

import (
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/nace/udevbackup/internal/system"
	"github.com/spf13/cobra"
)

// AtTool schedules the run outside of the udev worker
const AtTool = "at"

// AtCommand hands the run over to at(1)
type AtCommand struct {
	ctx *GlobalContext
}

// NewAtCommand creates the at command
func NewAtCommand(ctx *GlobalContext) *cobra.Command {
	cmd := &AtCommand{ctx: ctx}

	return &cobra.Command{
		Use:   "at",
		Short: "Schedule the run command through at and exit immediately",
		Long: `udev kills long-running processes started by its rules, so the udev
rule calls this command, which queues "run" with "at now".`,
		Args: cobra.NoArgs,
		RunE: cmd.Run,
	}
}

// Run executes the at command
func (c *AtCommand) Run(cmd *cobra.Command, args []string) error {
	if _, _, err := c.ctx.LoadConfig(); err != nil {
		return err
	}

	fsUUID, err := c.ctx.RequireFSUUID()
	if err != nil {
		return err
	}

	job := shellquote.Join([]string{c.ctx.Program, "run", "--fs-uuid", fsUUID, "-C", c.ctx.ConfigDir}...)
	c.ctx.Logger.Info("%s", job)

	outcome := c.ctx.Runner.Run(cmd.Context(), system.Command{
		Argv:  []string{AtTool, "now"},
		Stdin: strings.NewReader(job),
	})
	switch outcome.Kind {
	case system.Success:
		return nil
	case system.ToolMissing:
		c.ctx.Logger.Error("Command not found: '%s'", AtTool)
		return &ExitError{Code: ExitAtMissing, Err: outcome.Err}
	default:
		c.ctx.Logger.Error("Failed to run `%s now` command: %s", AtTool, outcome)
		return &ExitError{Code: ExitAtFailed, Err: fmt.Errorf("%s now: %s", AtTool, outcome)}
	}
}
