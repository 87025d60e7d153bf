package stage

import (
	"context"
	"errors"

	"github.com/flarebyte/ekvstore/internal/config"
	"go.uber.org/zap"
)

const validateConfigStage = "validate-config"

func validateConfigRunner(_ context.Context, in Envelope, deps Deps) (Envelope, error) {
	if in.Meta == nil || in.Meta.ConfigPath == "" {
		return Envelope{}, errors.New("validate-config: missing config path")
	}
	c, err := config.Load(in.Meta.ConfigPath)
	if err != nil {
		return Envelope{}, err
	}
	out := in
	meta := *in.Meta
	applyConfig(&meta, c)
	out.Meta = &meta
	if out.Records == nil {
		out.Records = []Record{}
	}
	deps.logger().Debug("config loaded",
		zap.String("path", meta.ConfigPath),
		zap.String("action", c.Action),
		zap.Int("inlineNames", len(c.Names)))
	return out, nil
}

// applyConfig copies the validated config into meta.
func applyConfig(meta *Meta, c config.Config) {
	meta.Config = &ConfigMeta{ConfigVersion: c.ConfigVersion, Action: c.Action}
	meta.Names = nil
	for _, n := range c.Names {
		meta.Names = append(meta.Names, InlineName{Name: n.Name, Supplied: n.Supplied})
	}
	meta.Discovery = nil
	if c.Discovery.HasSection {
		meta.Discovery = &DiscoveryMeta{Root: c.Discovery.Root, NoGitignore: c.Discovery.NoGitignore}
	}
	meta.Workers = 0
	if c.HasWorkers {
		meta.Workers = c.Workers
	}
	meta.Errors = &ErrorsMeta{Mode: c.Errors.Mode, EmbedErrors: c.Errors.EmbedErrors}
	meta.Output = &OutputMeta{Format: c.Output.Format, Out: c.Output.Out, Pretty: c.Output.Pretty}
	meta.Lua = &LuaMeta{
		Map:              c.Lua.Map,
		TimeoutMs:        c.Lua.TimeoutMs,
		InstructionLimit: c.Lua.InstructionLimit,
		MemoryLimitBytes: c.Lua.MemoryLimitBytes,
		Libs: LuaLibsMeta{
			Base:   c.Lua.Libs.Base,
			Table:  c.Lua.Libs.Table,
			String: c.Lua.Libs.String,
			Math:   c.Lua.Libs.Math,
		},
	}
}

func init() { Register(validateConfigStage, validateConfigRunner) }
