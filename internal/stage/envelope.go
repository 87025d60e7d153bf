package stage

import (
	"errors"
	"fmt"
)

// ContractVersion is stamped on every rendered envelope.
const ContractVersion = "1"

// Error is an envelope-level stage error.
type Error struct {
	Stage   string `json:"stage"`
	Locator string `json:"locator,omitempty"`
	Message string `json:"message"`
}

// RecError is a per-record error payload.
type RecError struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// Record is one name flowing through the pipeline. Using a struct keeps the
// JSON field order deterministic.
type Record struct {
	Locator  string    `json:"locator"`
	Name     string    `json:"name"`
	Greeting string    `json:"greeting,omitempty"`
	Mapped   any       `json:"mapped,omitempty"`
	Error    *RecError `json:"error,omitempty"`
}

// ConfigMeta holds validated config essentials.
type ConfigMeta struct {
	ConfigVersion string `json:"configVersion"`
	Action        string `json:"action"`
}

// InlineName is a names entry taken from the config file.
type InlineName struct {
	Name     string `json:"name"`
	Supplied bool   `json:"supplied"`
}

// DiscoveryMeta holds names-file discovery options.
type DiscoveryMeta struct {
	Root        string `json:"root,omitempty"`
	NoGitignore bool   `json:"noGitignore,omitempty"`
}

// ErrorsMeta holds error handling options.
type ErrorsMeta struct {
	Mode        string `json:"mode"`
	EmbedErrors bool   `json:"embedErrors,omitempty"`
}

// OutputMeta holds rendering options.
type OutputMeta struct {
	Format string `json:"format,omitempty"`
	Out    string `json:"out,omitempty"`
	Pretty bool   `json:"pretty,omitempty"`
}

// LuaLibsMeta selects the Lua libraries opened in the sandbox.
type LuaLibsMeta struct {
	Base   bool `json:"base"`
	Table  bool `json:"table"`
	String bool `json:"string"`
	Math   bool `json:"math"`
}

// LuaMeta holds the map script and sandbox limits. Negative limits fall back
// to defaults.
type LuaMeta struct {
	Map              string      `json:"map,omitempty"`
	TimeoutMs        int         `json:"timeoutMs"`
	InstructionLimit int         `json:"instructionLimit"`
	MemoryLimitBytes int         `json:"memoryLimitBytes"`
	Libs             LuaLibsMeta `json:"libs"`
}

// Meta holds run metadata with deterministic JSON field order.
type Meta struct {
	ContractVersion string         `json:"contractVersion,omitempty"`
	Stage           string         `json:"stage,omitempty"`
	ConfigPath      string         `json:"configPath,omitempty"`
	Config          *ConfigMeta    `json:"config,omitempty"`
	Names           []InlineName   `json:"names,omitempty"`
	Discovery       *DiscoveryMeta `json:"discovery,omitempty"`
	NamesFiles      []string       `json:"namesFiles,omitempty"`
	Workers         int            `json:"workers,omitempty"`
	Errors          *ErrorsMeta    `json:"errors,omitempty"`
	Output          *OutputMeta    `json:"output,omitempty"`
	Lua             *LuaMeta       `json:"lua,omitempty"`
}

// Envelope is the JSON-serializable contract between stages.
type Envelope struct {
	Records []Record `json:"records"`
	Meta    *Meta    `json:"meta,omitempty"`
	Errors  []Error  `json:"errors,omitempty"`
}

// ValidateEnvelope checks that every record has a unique, non-empty locator.
func ValidateEnvelope(env Envelope) error {
	seen := make(map[string]struct{}, len(env.Records))
	for i, r := range env.Records {
		if r.Locator == "" {
			return fmt.Errorf("records[%d]: missing locator", i)
		}
		if _, ok := seen[r.Locator]; ok {
			return fmt.Errorf("records[%d]: duplicate locator %q", i, r.Locator)
		}
		seen[r.Locator] = struct{}{}
	}
	for i, e := range env.Errors {
		if e.Stage == "" {
			return fmt.Errorf("errors[%d]: %w", i, errMissingStage)
		}
	}
	return nil
}

var errMissingStage = errors.New("missing stage")

func action(meta *Meta) string {
	if meta != nil && meta.Config != nil {
		return meta.Config.Action
	}
	return ""
}
