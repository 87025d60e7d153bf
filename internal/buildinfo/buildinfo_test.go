package buildinfo

import (
	"testing"

	"github.com/flarebyte/ekvstore/cli"
)

func TestSummary(t *testing.T) {
	oldV, oldC, oldD := Version, Commit, Date
	oldCliV, oldCliD := cli.Version, cli.Date
	defer func() {
		Version, Commit, Date = oldV, oldC, oldD
		cli.Version, cli.Date = oldCliV, oldCliD
	}()

	cases := []struct {
		name                  string
		version, commit, date string
		cliVersion, cliDate   string
		want                  string
	}{
		{name: "empty falls back to dev", want: "dev"},
		{name: "cli fallback", cliVersion: "1.0.0", cliDate: "2026-10-19", want: "1.0.0 (date=2026-10-19)"},
		{name: "commit shortened", version: "1.2.3", commit: "abcdef0123456", want: "1.2.3 (commit=abcdef0)"},
		{name: "own date wins", version: "2.0.0", date: "2026-01-01", cliDate: "2025-01-01", want: "2.0.0 (date=2026-01-01)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			Version, Commit, Date = tc.version, tc.commit, tc.date
			cli.Version, cli.Date = tc.cliVersion, tc.cliDate
			if got := Summary(); got != tc.want {
				t.Fatalf("Summary() = %q, want %q", got, tc.want)
			}
		})
	}
}
