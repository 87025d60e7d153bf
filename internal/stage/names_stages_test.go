package stage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCollectInlineNames_DefaultForNull(t *testing.T) {
	meta := greetMeta()
	meta.Names = []InlineName{
		{Name: "World", Supplied: true},
		{},
		{Name: "", Supplied: true},
	}
	out, err := Run(context.Background(), collectInlineNamesStage, Envelope{Meta: meta}, Deps{})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	want := []Record{
		{Locator: "config#0", Name: "World"},
		{Locator: "config#1", Name: "DEFAULT"},
		{Locator: "config#2", Name: ""},
	}
	if diff := cmp.Diff(want, out.Records); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectInlineNames_NoNames(t *testing.T) {
	out, err := Run(context.Background(), collectInlineNamesStage, Envelope{Meta: greetMeta()}, Deps{})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if out.Records == nil || len(out.Records) != 0 {
		t.Fatalf("expected empty non-nil records, got %#v", out.Records)
	}
}

func setupNamesTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "team.names.yaml"), "names:\n  - Ada\n  - ~\n")
	writeFile(t, filepath.Join(root, "sub", "more.names.yaml"), "names:\n  - \"A&B\"\n")
	writeFile(t, filepath.Join(root, "sub", "notes.yaml"), "names:\n  - Skipped\n")
	writeFile(t, filepath.Join(root, "build", "gen.names.yaml"), "names:\n  - Ignored\n")
	writeFile(t, filepath.Join(root, "sub", "local.names.yaml"), "names:\n  - AlsoIgnored\n")
	writeFile(t, filepath.Join(root, ".gitignore"), "# generated\nbuild/\n")
	writeFile(t, filepath.Join(root, "sub", ".gitignore"), "local.names.yaml\n")
	return root
}

func TestDiscoverNamesFiles_HonorsGitignore(t *testing.T) {
	root := setupNamesTree(t)
	meta := greetMeta()
	meta.Discovery = &DiscoveryMeta{Root: root}
	out, err := Run(context.Background(), discoverNamesFilesStage, Envelope{Meta: meta}, Deps{})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	want := []string{"sub/more.names.yaml", "team.names.yaml"}
	if diff := cmp.Diff(want, out.Meta.NamesFiles); diff != "" {
		t.Fatalf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscoverNamesFiles_NestedGitignoreScopes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "*.draft.names.yaml\n")
	writeFile(t, filepath.Join(root, "a", ".gitignore"), "!keep.draft.names.yaml\n")
	writeFile(t, filepath.Join(root, "a", "b", "keep.draft.names.yaml"), "names: []\n")
	writeFile(t, filepath.Join(root, "a", "b", "x.draft.names.yaml"), "names: []\n")
	writeFile(t, filepath.Join(root, "a", "b", "c", "ok.names.yaml"), "names: []\n")
	writeFile(t, filepath.Join(root, "z", "keep.draft.names.yaml"), "names: []\n")
	meta := greetMeta()
	meta.Discovery = &DiscoveryMeta{Root: root}
	out, err := Run(context.Background(), discoverNamesFilesStage, Envelope{Meta: meta}, Deps{})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	want := []string{"a/b/c/ok.names.yaml", "a/b/keep.draft.names.yaml"}
	if diff := cmp.Diff(want, out.Meta.NamesFiles); diff != "" {
		t.Fatalf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestReadDirGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "sub", ".gitignore"), "# c\n\nbuild/\n*.tmp\n")
	if got := readDirGitignore(root, "sub"); len(got) != 2 {
		t.Fatalf("expected 2 patterns, got %d", len(got))
	}
	if got := readDirGitignore(root, "."); got != nil {
		t.Fatalf("expected no patterns without a file, got %v", got)
	}
}

func TestDiscoverNamesFiles_NoGitignore(t *testing.T) {
	root := setupNamesTree(t)
	meta := greetMeta()
	meta.Discovery = &DiscoveryMeta{Root: root, NoGitignore: true}
	out, err := Run(context.Background(), discoverNamesFilesStage, Envelope{Meta: meta}, Deps{})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	want := []string{"build/gen.names.yaml", "sub/local.names.yaml", "sub/more.names.yaml", "team.names.yaml"}
	if diff := cmp.Diff(want, out.Meta.NamesFiles); diff != "" {
		t.Fatalf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscoverNamesFiles_PassthroughWithoutDiscovery(t *testing.T) {
	in := Envelope{Meta: greetMeta(), Records: []Record{{Locator: "config#0", Name: "x"}}}
	out, err := Run(context.Background(), discoverNamesFilesStage, in, Deps{})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("envelope changed (-want +got):\n%s", diff)
	}
}

func TestDiscoverNamesFiles_MissingRoot(t *testing.T) {
	meta := greetMeta()
	meta.Discovery = &DiscoveryMeta{Root: filepath.Join(t.TempDir(), "absent")}
	_, err := Run(context.Background(), discoverNamesFilesStage, Envelope{Meta: meta}, Deps{})
	if err == nil || !strings.HasPrefix(err.Error(), "discover-names-files: ") {
		t.Fatalf("expected discovery error, got %v", err)
	}
}

func TestParseNamesFiles_RecordsInFileOrder(t *testing.T) {
	root := setupNamesTree(t)
	meta := greetMeta()
	meta.Discovery = &DiscoveryMeta{Root: root}
	meta.NamesFiles = []string{"sub/more.names.yaml", "team.names.yaml"}
	in := Envelope{Meta: meta, Records: []Record{{Locator: "config#0", Name: "World"}}}
	out, err := Run(context.Background(), parseNamesFilesStage, in, Deps{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []Record{
		{Locator: "config#0", Name: "World"},
		{Locator: "sub/more.names.yaml#0", Name: "A&B"},
		{Locator: "team.names.yaml#0", Name: "Ada"},
		{Locator: "team.names.yaml#1", Name: "DEFAULT"},
	}
	if diff := cmp.Diff(want, out.Records); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestParseNamesFiles_FailFast(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "bad.names.yaml"), "names: 3\n")
	meta := greetMeta()
	meta.Discovery = &DiscoveryMeta{Root: root}
	meta.NamesFiles = []string{"bad.names.yaml"}
	_, err := Run(context.Background(), parseNamesFilesStage, Envelope{Meta: meta}, Deps{})
	want := "parse-names-files: bad.names.yaml: invalid type for field: names (expected list)"
	if err == nil || err.Error() != want {
		t.Fatalf("unexpected error\nwant: %s\n got: %v", want, err)
	}
}

func TestParseNamesFiles_KeepGoing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "bad.names.yaml"), "other: 1\n")
	writeFile(t, filepath.Join(root, "good.names.yaml"), "names: [Ada]\n")
	meta := greetMeta()
	meta.Errors = &ErrorsMeta{Mode: modeKeepGoing}
	meta.Discovery = &DiscoveryMeta{Root: root}
	meta.NamesFiles = []string{"bad.names.yaml", "good.names.yaml"}
	out, err := Run(context.Background(), parseNamesFilesStage, Envelope{Meta: meta}, Deps{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if diff := cmp.Diff([]Record{{Locator: "good.names.yaml#0", Name: "Ada"}}, out.Records); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
	wantErrs := []Error{{Stage: parseNamesFilesStage, Locator: "bad.names.yaml", Message: "missing required field: names"}}
	if diff := cmp.Diff(wantErrs, out.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}
