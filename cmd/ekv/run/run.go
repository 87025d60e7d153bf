package run

import (
	"fmt"

	"github.com/flarebyte/ekvstore/internal/stage"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewCmd returns the `ekv run` command.
func NewCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:           "run",
		Short:         "Greet every name of a batch described by a CUE config",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfgPath == "" {
				return fmt.Errorf("missing required flag: --config")
			}
			logger := zap.L().With(zap.String("run", uuid.NewString()))
			env, err := stage.RunConfig(cmd.Context(), cfgPath, stage.Deps{Log: logger, Stdout: cmd.OutOrStdout()})
			if err != nil {
				return err
			}
			successes, failures := countRecordResults(env.Records)
			logger.Info("run finished",
				zap.String("config", cfgPath),
				zap.Int("succeeded", successes),
				zap.Int("failed", failures),
				zap.Int("errors", len(env.Errors)))
			return evaluateRunExit(env)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to config file (.cue)")
	return cmd
}
