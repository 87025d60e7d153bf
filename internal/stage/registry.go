package stage

import (
	"context"
	"io"
	"os"
	"sort"

	"go.uber.org/zap"
)

// Deps carries what stages need beyond the envelope.
type Deps struct {
	Log    *zap.Logger
	Stdout io.Writer
}

func (d Deps) stdout() io.Writer {
	if d.Stdout == nil {
		return os.Stdout
	}
	return d.Stdout
}

func (d Deps) logger() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}

// Runner executes a stage.
type Runner func(ctx context.Context, in Envelope, deps Deps) (Envelope, error)

var registry = map[string]Runner{}

// Register adds a stage runner.
func Register(name string, r Runner) {
	registry[name] = r
}

// Run executes a registered stage by name.
func Run(ctx context.Context, name string, in Envelope, deps Deps) (Envelope, error) {
	r, ok := registry[name]
	if !ok {
		return Envelope{}, ErrUnknown{name: name}
	}
	if err := ctx.Err(); err != nil {
		return Envelope{}, err
	}
	deps.logger().Debug("stage start", zap.String("stage", name), zap.Int("records", len(in.Records)))
	out, err := r(ctx, in, deps)
	if err != nil {
		deps.logger().Debug("stage failed", zap.String("stage", name), zap.Error(err))
		return Envelope{}, err
	}
	deps.logger().Debug("stage done", zap.String("stage", name), zap.Int("records", len(out.Records)), zap.Int("errors", len(out.Errors)))
	return out, nil
}

// Names returns the registered stage names in sorted order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// ErrUnknown is returned when a stage is not found.
type ErrUnknown struct{ name string }

func (e ErrUnknown) Error() string { return "unknown stage: " + e.name }
