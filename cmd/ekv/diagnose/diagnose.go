// Package diagnose implements `ekv diagnose`, which runs one pipeline stage
// and prints the resulting envelope.
package diagnose

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/flarebyte/ekvstore/internal/stage"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	stage   string
	in      string
	config  string
	dumpOut string
	list    bool
}

// NewCmd returns the diagnose command.
func NewCmd() *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:           "diagnose",
		Short:         "Run a single pipeline stage and print the envelope",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.list {
				for _, n := range stage.Names() {
					if _, err := fmt.Fprintln(cmd.OutOrStdout(), n); err != nil {
						return err
					}
				}
				return nil
			}
			if o.stage == "" {
				return errors.New("missing required flag: --stage")
			}
			deps := stage.Deps{
				Log:    zap.L().With(zap.String("run", uuid.NewString())),
				Stdout: cmd.ErrOrStderr(),
			}
			return runDiagnose(cmd.Context(), o, deps, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&o.stage, "stage", "", "Stage name (required unless --list)")
	cmd.Flags().StringVar(&o.in, "in", "", "Path to input envelope JSON")
	cmd.Flags().StringVar(&o.config, "config", "", "Config path used when --in is omitted")
	cmd.Flags().StringVar(&o.dumpOut, "dump-out", "", "Path to write the output envelope JSON")
	cmd.Flags().BoolVar(&o.list, "list", false, "List registered stage names")
	return cmd
}

// prepareInput returns the envelope handed to the diagnosed stage. Without
// --in, a --config is validated first so later stages see a populated meta.
func prepareInput(ctx context.Context, o options, deps stage.Deps) (stage.Envelope, error) {
	if o.in != "" {
		b, err := os.ReadFile(o.in)
		if err != nil {
			return stage.Envelope{}, fmt.Errorf("failed to read input: %w", err)
		}
		var env stage.Envelope
		if err := json.Unmarshal(b, &env); err != nil {
			return stage.Envelope{}, fmt.Errorf("invalid input envelope: %v", err)
		}
		if env.Records == nil {
			env.Records = []stage.Record{}
		}
		return env, nil
	}
	env := stage.Envelope{Records: []stage.Record{}}
	if o.config == "" {
		return env, nil
	}
	env.Meta = &stage.Meta{ConfigPath: o.config}
	if o.stage == "validate-config" {
		return env, nil
	}
	return stage.Run(ctx, "validate-config", env, deps)
}

func runDiagnose(ctx context.Context, o options, deps stage.Deps, w io.Writer) error {
	in, err := prepareInput(ctx, o, deps)
	if err != nil {
		return err
	}
	out, err := stage.Run(ctx, o.stage, in, deps)
	if err != nil {
		return err
	}
	b, err := encodeJSON(out)
	if err != nil {
		return err
	}
	if o.dumpOut != "" {
		if err := os.MkdirAll(filepath.Dir(o.dumpOut), 0o755); err != nil {
			return fmt.Errorf("failed to create dump dir: %w", err)
		}
		if err := os.WriteFile(o.dumpOut, b, 0o644); err != nil {
			return fmt.Errorf("failed to write dump: %w", err)
		}
	}
	_, err = w.Write(b)
	return err
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
