package version

import (
	"encoding/json"
	"fmt"

	"github.com/flarebyte/ekvstore/internal/buildinfo"
	"github.com/spf13/cobra"
)

// NewCmd returns the version command.
func NewCmd() *cobra.Command {
	var flagShort, flagJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagShort || !flagJSON {
				// Exactly one line.
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "ekv %s\n", buildinfo.Summary())
				return err
			}
			// JSON goes to stdout, a human friendly line to stderr.
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "ekv version: %s\n", buildinfo.Summary())
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(buildinfo.Current())
		},
	}
	cmd.Flags().BoolVar(&flagShort, "short", false, "Print only the version string")
	cmd.Flags().BoolVar(&flagJSON, "json", false, "Print detailed JSON version info")
	return cmd
}
