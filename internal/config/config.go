// Package config loads the CUE run configuration used by `ekv run`.
package config

import (
	"fmt"

	"cuelang.org/go/cue"
)

// Actions.
const (
	ActionGreet    = "greet"
	ActionValidate = "validate"
)

// Error modes.
const (
	ModeFailFast  = "fail-fast"
	ModeKeepGoing = "keep-going"
)

// Output formats.
const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatLines = "lines"
	FormatYAML  = "yaml"
)

// Config is the validated run configuration.
type Config struct {
	ConfigVersion string
	Action        string
	Names         []NameEntry
	Discovery     Discovery
	Workers       int
	HasWorkers    bool
	Errors        Errors
	Output        Output
	Lua           Lua
}

// NameEntry is an inline name. Supplied is false for a null entry.
type NameEntry struct {
	Name     string
	Supplied bool
}

// Discovery holds optional names-file discovery settings.
type Discovery struct {
	Root        string
	NoGitignore bool
	HasSection  bool
}

// Errors holds error handling settings.
type Errors struct {
	Mode        string
	EmbedErrors bool
}

// Output holds rendering settings.
type Output struct {
	Format string
	Out    string
	Pretty bool
}

// Lua holds the optional map script and its sandbox limits. Negative limits
// mean "not set".
type Lua struct {
	Map              string
	TimeoutMs        int
	InstructionLimit int
	MemoryLimitBytes int
	Libs             LuaLibs
}

// LuaLibs selects the Lua standard libraries opened in the sandbox.
type LuaLibs struct {
	Base   bool
	Table  bool
	String bool
	Math   bool
}

// Load reads, compiles and validates the CUE file at path.
func Load(path string) (Config, error) {
	v, err := compileCUE(path)
	if err != nil {
		return Config{}, err
	}
	return fromValue(v)
}

// Parse validates CUE source held in memory.
func Parse(src []byte) (Config, error) {
	v, err := compileBytes(src)
	if err != nil {
		return Config{}, err
	}
	return fromValue(v)
}

func fromValue(v cue.Value) (Config, error) {
	var c Config
	var err error
	if c.ConfigVersion, err = requireStringField(v, "configVersion"); err != nil {
		return Config{}, err
	}
	if c.Action, err = requireStringField(v, "action"); err != nil {
		return Config{}, err
	}
	if err := checkConfigVersion(c.ConfigVersion); err != nil {
		return Config{}, err
	}
	if c.Action != ActionGreet && c.Action != ActionValidate {
		return Config{}, fmt.Errorf("invalid action: %q", c.Action)
	}
	if c.Names, err = parseNames(v); err != nil {
		return Config{}, err
	}
	if c.Discovery, err = parseDiscovery(v); err != nil {
		return Config{}, err
	}
	if c.Workers, c.HasWorkers, err = optionalInt(v, "workers"); err != nil {
		return Config{}, err
	}
	if c.HasWorkers && c.Workers < 1 {
		return Config{}, fmt.Errorf("invalid workers: must be >= 1")
	}
	if c.Errors, err = parseErrors(v); err != nil {
		return Config{}, err
	}
	if c.Output, err = parseOutput(v); err != nil {
		return Config{}, err
	}
	if c.Lua, err = parseLua(v); err != nil {
		return Config{}, err
	}
	return c, nil
}
