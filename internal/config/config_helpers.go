package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// compileCUE loads and compiles a CUE file at the given path.
func compileCUE(path string) (cue.Value, error) {
	if filepath.Ext(path) != ".cue" {
		return cue.Value{}, errors.New("unsupported config format: expected .cue")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cue.Value{}, fmt.Errorf("failed to read config: %w", err)
	}
	return compileBytes(data)
}

func compileBytes(data []byte) (cue.Value, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data)
	if err := v.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("invalid config: %v", err)
	}
	return v, nil
}

// lookup resolves a dotted field path. Each part is a plain string label so
// fields such as libs.string are not read as predeclared identifiers.
func lookup(v cue.Value, path string) cue.Value {
	parts := strings.Split(path, ".")
	sels := make([]cue.Selector, 0, len(parts))
	for _, p := range parts {
		sels = append(sels, cue.Str(p))
	}
	return v.LookupPath(cue.MakePath(sels...))
}

func requireStringField(v cue.Value, name string) (string, error) {
	f := lookup(v, name)
	if !f.Exists() {
		return "", fmt.Errorf("missing required field: %s", name)
	}
	if f.Kind() != cue.StringKind {
		return "", fmt.Errorf("invalid type for field: %s (expected string)", name)
	}
	var s string
	if err := f.Decode(&s); err != nil {
		return "", fmt.Errorf("invalid value for %s: %v", name, err)
	}
	return s, nil
}

// optionalString decodes an optional string field; ok reports presence.
func optionalString(v cue.Value, name string) (s string, ok bool, err error) {
	f := lookup(v, name)
	if !f.Exists() {
		return "", false, nil
	}
	if f.Kind() != cue.StringKind {
		return "", false, fmt.Errorf("invalid type for field: %s (expected string)", name)
	}
	if err := f.Decode(&s); err != nil {
		return "", false, fmt.Errorf("invalid value for %s: %v", name, err)
	}
	return s, true, nil
}

func optionalBool(v cue.Value, name string) (b bool, ok bool, err error) {
	f := lookup(v, name)
	if !f.Exists() {
		return false, false, nil
	}
	if f.Kind() != cue.BoolKind {
		return false, false, fmt.Errorf("invalid type for field: %s (expected bool)", name)
	}
	if err := f.Decode(&b); err != nil {
		return false, false, fmt.Errorf("invalid value for %s: %v", name, err)
	}
	return b, true, nil
}

func optionalInt(v cue.Value, name string) (n int, ok bool, err error) {
	f := lookup(v, name)
	if !f.Exists() {
		return 0, false, nil
	}
	if f.Kind() != cue.IntKind {
		return 0, false, fmt.Errorf("invalid type for field: %s (expected int)", name)
	}
	if err := f.Decode(&n); err != nil {
		return 0, false, fmt.Errorf("invalid value for %s: %v", name, err)
	}
	return n, true, nil
}
