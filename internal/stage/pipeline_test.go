package stage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestActionStages(t *testing.T) {
	cases := []struct {
		name string
		meta *Meta
		want []string
	}{
		{
			name: "greet inline only",
			meta: greetMeta(),
			want: []string{"collect-inline-names", "greet", "write-output"},
		},
		{
			name: "greet with discovery and lua",
			meta: func() *Meta {
				m := luaMeta("greeting")
				m.Discovery = &DiscoveryMeta{Root: "."}
				return m
			}(),
			want: []string{"collect-inline-names", "discover-names-files", "parse-names-files", "greet", "lua-map", "write-output"},
		},
		{
			name: "validate",
			meta: &Meta{Config: &ConfigMeta{Action: "validate"}},
			want: []string{"collect-inline-names", "write-output"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ActionStages(tc.meta)
			if err != nil {
				t.Fatalf("stages: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("stages mismatch (-want +got):\n%s", diff)
			}
		})
	}
	if _, err := ActionStages(&Meta{Config: &ConfigMeta{Action: "shout"}}); err == nil || err.Error() != `invalid action: "shout"` {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunConfig_GreetEndToEnd(t *testing.T) {
	root := setupNamesTree(t)
	cfg := filepath.Join(t.TempDir(), "run.cue")
	writeFile(t, cfg, fmt.Sprintf(`
configVersion: "1"
action: "greet"
names: ["World", null, "", "A&B"]
discovery: root: %q
workers: 2
`, root))
	var buf bytes.Buffer
	out, err := RunConfig(context.Background(), cfg, Deps{Stdout: &buf})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := "World: Hello World!\n" +
		"DEFAULT: Hello World!\n" +
		": Hello World!\n" +
		"A&B: Hello World!\n" +
		"A&B: Hello World!\n" +
		"Ada: Hello World!\n" +
		"DEFAULT: Hello World!\n"
	if buf.String() != want {
		t.Fatalf("unexpected output\nwant: %q\n got: %q", want, buf.String())
	}
	if err := ValidateEnvelope(out); err != nil {
		t.Fatalf("invalid envelope: %v", err)
	}
}

func TestRunConfig_ValidateAction(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "validate.cue")
	writeFile(t, cfg, "configVersion: \"1\"\naction: \"validate\"\nnames: [\"Ada\"]\noutput: format: \"lines\"\n")
	var buf bytes.Buffer
	if _, err := RunConfig(context.Background(), cfg, Deps{Stdout: &buf}); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := `{"locator":"config#0","name":"Ada"}` + "\n"
	if buf.String() != want {
		t.Fatalf("unexpected output\nwant: %q\n got: %q", want, buf.String())
	}
}

func TestRunConfig_LuaMap(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "lua.cue")
	writeFile(t, cfg, "configVersion: \"1\"\naction: \"greet\"\nnames: [\"ada\"]\nlua: map: \"string.upper(name) .. ' says hi'\"\n")
	var buf bytes.Buffer
	if _, err := RunConfig(context.Background(), cfg, Deps{Stdout: &buf}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if buf.String() != "ADA says hi\n" {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestRunConfig_InvalidConfig(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "bad.cue")
	writeFile(t, cfg, "configVersion: \"1\"\n")
	_, err := RunConfig(context.Background(), cfg, Deps{Stdout: &bytes.Buffer{}})
	if err == nil || err.Error() != "missing required field: action" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunConfig_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RunConfig(ctx, "any.cue", Deps{})
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
