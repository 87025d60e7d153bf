package config

import (
	"fmt"

	"cuelang.org/go/cue"
)

// parseNames reads the optional inline names list. Null items stand for an
// omitted name.
func parseNames(v cue.Value) ([]NameEntry, error) {
	lv := lookup(v, "names")
	if !lv.Exists() {
		return nil, nil
	}
	if lv.Kind() != cue.ListKind {
		return nil, fmt.Errorf("invalid type for field: names (expected list)")
	}
	it, err := lv.List()
	if err != nil {
		return nil, fmt.Errorf("invalid value for names: %v", err)
	}
	var out []NameEntry
	for i := 0; it.Next(); i++ {
		ev := it.Value()
		switch ev.Kind() {
		case cue.NullKind:
			out = append(out, NameEntry{})
		case cue.StringKind:
			var s string
			if err := ev.Decode(&s); err != nil {
				return nil, fmt.Errorf("invalid value for names[%d]: %v", i, err)
			}
			out = append(out, NameEntry{Name: s, Supplied: true})
		default:
			return nil, fmt.Errorf("invalid type for field: names[%d] (expected string or null)", i)
		}
	}
	return out, nil
}

func parseDiscovery(v cue.Value) (Discovery, error) {
	d := Discovery{Root: "."}
	if !lookup(v, "discovery").Exists() {
		return d, nil
	}
	d.HasSection = true
	root, ok, err := optionalString(v, "discovery.root")
	if err != nil {
		return Discovery{}, err
	}
	if ok && root != "" {
		d.Root = root
	}
	if d.NoGitignore, _, err = optionalBool(v, "discovery.noGitignore"); err != nil {
		return Discovery{}, err
	}
	return d, nil
}

func parseErrors(v cue.Value) (Errors, error) {
	e := Errors{Mode: ModeFailFast}
	mode, ok, err := optionalString(v, "errors.mode")
	if err != nil {
		return Errors{}, err
	}
	if ok {
		if mode != ModeFailFast && mode != ModeKeepGoing {
			return Errors{}, fmt.Errorf("invalid errors.mode: %q", mode)
		}
		e.Mode = mode
	}
	if e.EmbedErrors, _, err = optionalBool(v, "errors.embedErrors"); err != nil {
		return Errors{}, err
	}
	return e, nil
}

func parseOutput(v cue.Value) (Output, error) {
	o := Output{Format: FormatText, Out: "-"}
	format, ok, err := optionalString(v, "output.format")
	if err != nil {
		return Output{}, err
	}
	if ok {
		switch format {
		case FormatText, FormatJSON, FormatLines, FormatYAML:
			o.Format = format
		default:
			return Output{}, fmt.Errorf("invalid output.format: %q", format)
		}
	}
	out, ok, err := optionalString(v, "output.out")
	if err != nil {
		return Output{}, err
	}
	if ok && out != "" {
		o.Out = out
	}
	if o.Pretty, _, err = optionalBool(v, "output.pretty"); err != nil {
		return Output{}, err
	}
	return o, nil
}

// parseLua extracts the optional map script and sandbox settings.
func parseLua(v cue.Value) (Lua, error) {
	l := Lua{
		TimeoutMs:        -1,
		InstructionLimit: -1,
		MemoryLimitBytes: -1,
		Libs:             LuaLibs{Base: true, Table: true, String: true, Math: true},
	}
	var err error
	if l.Map, _, err = optionalString(v, "lua.map"); err != nil {
		return Lua{}, err
	}
	ints := []struct {
		path string
		dst  *int
	}{
		{"lua.timeoutMs", &l.TimeoutMs},
		{"lua.instructionLimit", &l.InstructionLimit},
		{"lua.memoryLimitBytes", &l.MemoryLimitBytes},
	}
	for _, f := range ints {
		n, ok, err := optionalInt(v, f.path)
		if err != nil {
			return Lua{}, err
		}
		if !ok {
			continue
		}
		if n < 0 {
			return Lua{}, fmt.Errorf("invalid %s: must be >= 0", f.path)
		}
		*f.dst = n
	}
	libs := []struct {
		path string
		dst  *bool
	}{
		{"lua.libs.base", &l.Libs.Base},
		{"lua.libs.table", &l.Libs.Table},
		{"lua.libs.string", &l.Libs.String},
		{"lua.libs.math", &l.Libs.Math},
	}
	for _, f := range libs {
		b, ok, err := optionalBool(v, f.path)
		if err != nil {
			return Lua{}, err
		}
		if ok {
			*f.dst = b
		}
	}
	return l, nil
}
