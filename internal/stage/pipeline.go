package stage

import (
	"context"
	"fmt"
)

// ActionStages returns the deterministic stage order run after
// validate-config for the configured action.
func ActionStages(meta *Meta) ([]string, error) {
	collect := []string{collectInlineNamesStage}
	if meta != nil && meta.Discovery != nil {
		collect = append(collect, discoverNamesFilesStage, parseNamesFilesStage)
	}
	switch a := action(meta); a {
	case "greet":
		stages := append(collect, greetStage)
		if meta.Lua != nil && meta.Lua.Map != "" {
			stages = append(stages, luaMapStage)
		}
		return append(stages, writeOutputStage), nil
	case "validate":
		return append(collect, writeOutputStage), nil
	default:
		return nil, fmt.Errorf("invalid action: %q", a)
	}
}

// RunStages executes stages in order, stopping at the first error.
func RunStages(ctx context.Context, in Envelope, stages []string, deps Deps) (Envelope, error) {
	out := in
	var err error
	for _, name := range stages {
		out, err = Run(ctx, name, out, deps)
		if err != nil {
			return Envelope{}, err
		}
	}
	return out, nil
}

// RunConfig validates the config at cfgPath and runs its action pipeline.
func RunConfig(ctx context.Context, cfgPath string, deps Deps) (Envelope, error) {
	in := Envelope{Records: []Record{}, Meta: &Meta{ConfigPath: cfgPath}}
	out, err := Run(ctx, validateConfigStage, in, deps)
	if err != nil {
		return Envelope{}, err
	}
	stages, err := ActionStages(out.Meta)
	if err != nil {
		return Envelope{}, err
	}
	return RunStages(ctx, out, stages, deps)
}
