// Package buildinfo exposes version metadata for ekv. Values can be
// overridden at build time via -ldflags; cli.Version and cli.Date are honored
// as fallbacks for external build scripts.
package buildinfo

import (
	"runtime"
	"strings"

	"github.com/flarebyte/ekvstore/cli"
)

var (
	// Version is the semantic version or custom string.
	Version = "dev"
	// Commit is the VCS commit hash (optional).
	Commit = ""
	// Date is the build time (optional).
	Date = ""
	// BuiltBy is an optional builder identifier.
	BuiltBy = ""
)

// Info is the detailed version payload printed by `ekv version --json`.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Date    string `json:"date,omitempty"`
	BuiltBy string `json:"builtBy,omitempty"`
	Go      string `json:"go"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
}

func version() string {
	switch {
	case Version != "":
		return Version
	case cli.Version != "":
		return cli.Version
	default:
		return "dev"
	}
}

func date() string {
	if Date != "" {
		return Date
	}
	return cli.Date
}

// Current returns the detailed build information.
func Current() Info {
	return Info{
		Version: version(),
		Commit:  Commit,
		Date:    date(),
		BuiltBy: BuiltBy,
		Go:      runtime.Version(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
}

// Summary returns a concise single-line version string.
func Summary() string {
	v := version()
	parts := make([]string, 0, 2)
	if Commit != "" {
		c := Commit
		if len(c) > 7 {
			c = c[:7]
		}
		parts = append(parts, "commit="+c)
	}
	if d := date(); d != "" {
		parts = append(parts, "date="+d)
	}
	if len(parts) > 0 {
		v += " (" + strings.Join(parts, ", ") + ")"
	}
	return v
}
