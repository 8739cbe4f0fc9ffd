package cli

import (
	"github.com/nace/udevbackup/internal/system"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// outputFlags are the persistent flags tuning console output
type outputFlags struct {
	verbose bool
	quiet   bool
	noColor bool
	debug   bool
}

func (f *outputFlags) register(flags *pflag.FlagSet) {
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "Verbose output")
	flags.BoolVarP(&f.quiet, "quiet", "q", false, "Quiet mode (suppress non-error output)")
	flags.BoolVar(&f.noColor, "no-color", false, "Disable color output")
	flags.BoolVar(&f.debug, "debug", false, "Debug mode (show commands)")
}

// NewRootCommand creates the udevbackup command tree around ctx
func NewRootCommand(ctx *GlobalContext) *cobra.Command {
	var out outputFlags

	rootCmd := &cobra.Command{
		Use:   "udevbackup",
		Short: "udevbackup - run scripts when known external devices are connected",
		Long: `udevbackup is launched by a udev rule when a partition is connected.

When the partition (or the LUKS container holding it) matches a configured
rule, it is unlocked and mounted, the rule's scripts are run in the mount
point, then it is unmounted and locked again. Failures can be reported by
e-mail.`,
		Version:       "0.1.0",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ctx.Logger.Verbose = out.verbose
			ctx.Console.Quiet = out.quiet
			if out.noColor {
				ctx.Console.NoColor = true
			}
			if out.debug && ctx.Runner == system.Runner(ctx.Executor) {
				ctx.Executor = system.NewExecutor(true)
				ctx.Runner = ctx.Executor
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&ctx.ConfigDir, "config-dir", "C", ctx.ConfigDir, "Configuration directory")
	flags.StringVarP(&ctx.FSUUID, "fs-uuid", "U", ctx.FSUUID, "Filesystem UUID of the device (default: $ID_FS_UUID)")
	out.register(flags)

	rootCmd.AddCommand(NewRunCommand(ctx))
	rootCmd.AddCommand(NewAtCommand(ctx))
	rootCmd.AddCommand(NewShowCommand(ctx))
	rootCmd.AddCommand(NewExampleCommand(ctx))

	rootCmd.SetHelpCommand(&cobra.Command{
		Use:    "no-help",
		Hidden: true,
	})
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	return rootCmd
}
