package root

import (
	"context"

	"github.com/flarebyte/ekvstore/cmd/ekv/diagnose"
	"github.com/flarebyte/ekvstore/cmd/ekv/greet"
	"github.com/flarebyte/ekvstore/cmd/ekv/run"
	"github.com/flarebyte/ekvstore/cmd/ekv/version"
	"github.com/flarebyte/ekvstore/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewRootCmd creates the root command for ekv.
func NewRootCmd() *cobra.Command {
	var (
		logLevel string
		verbose  bool
	)
	cmd := &cobra.Command{
		Use:   "ekv",
		Short: "CLI: Get-HelloWorld greetings, one name or a whole batch",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				logLevel = "debug"
			}
			logger, err := logging.New(logLevel, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			zap.ReplaceGlobals(logger)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = zap.L().Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Show help when no subcommand is provided.
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", logging.DefaultLevel, "Log level: debug|info|warn|error (logs go to stderr)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Shorthand for --log-level=debug")

	// Subcommands
	cmd.AddCommand(greet.NewCmd())
	cmd.AddCommand(run.NewCmd())
	cmd.AddCommand(diagnose.NewCmd())
	cmd.AddCommand(version.NewCmd())

	return cmd
}

// Execute runs the root command with provided args.
func Execute(ctx context.Context, args []string) error {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}
