package cli

// Version and Date should be set at build time using ldflags, e.g.:
//
//	-ldflags "-X 'github.com/flarebyte/ekvstore/cli.Version=1.2.3' -X 'github.com/flarebyte/ekvstore/cli.Date=2026-10-19'"
var (
	Version string
	Date    string
)
