// Package greet implements `ekv get-helloworld`, the command form of the
// Get-HelloWorld cmdlet.
package greet

import (
	"fmt"

	"github.com/flarebyte/ekvstore/internal/greeting"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewCmd returns the get-helloworld command.
func NewCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:           "get-helloworld",
		Aliases:       []string{"hello"},
		Short:         `Print "<name>: Hello World!"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved := greeting.Resolve(name, cmd.Flags().Changed("name"))
			zap.L().Debug("greeting", zap.String("name", resolved))
			_, err := fmt.Fprintln(cmd.OutOrStdout(), greeting.Format(resolved))
			return err
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", greeting.DefaultName, "Name to greet")
	return cmd
}
