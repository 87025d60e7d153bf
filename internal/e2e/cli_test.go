package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/flarebyte/ekvstore/internal/testutil"
)

type runResult struct {
	code   int
	stdout []byte
	stderr []byte
}

func buildEkv(t *testing.T) string {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "ekv")
	if runtime.GOOS == "windows" {
		bin += ".exe"
	}
	cmd := exec.Command("go", "build", "-o", bin, "./cmd/ekv")
	cmd.Dir = filepath.Join("..", "..")
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("build failed: %v\n%s", err, string(out))
	}
	return bin
}

func runCmd(t *testing.T, dir, bin string, args ...string) runResult {
	t.Helper()
	cmd := exec.Command(bin, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	code := 0
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			code = ee.ExitCode()
		} else {
			code = -1
		}
	}
	return runResult{code: code, stdout: stdout.Bytes(), stderr: stderr.Bytes()}
}

func TestCLI_GetHelloWorld(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the ekv binary")
	}
	bin := buildEkv(t)
	cases := []struct {
		args []string
		want string
	}{
		{[]string{"get-helloworld", "--name", "World"}, "World: Hello World!\n"},
		{[]string{"get-helloworld"}, "DEFAULT: Hello World!\n"},
		{[]string{"get-helloworld", "--name", ""}, ": Hello World!\n"},
		{[]string{"get-helloworld", "--name", "A&B"}, "A&B: Hello World!\n"},
	}
	for _, tc := range cases {
		res := runCmd(t, t.TempDir(), bin, tc.args...)
		if res.code != 0 {
			t.Fatalf("%v: exit %d, stderr %q", tc.args, res.code, res.stderr)
		}
		if string(res.stdout) != tc.want {
			t.Fatalf("%v: stdout %q, want %q", tc.args, res.stdout, tc.want)
		}
		if len(res.stderr) != 0 {
			t.Fatalf("%v: unexpected stderr %q", tc.args, res.stderr)
		}
	}
}

func TestCLI_RunBatchDeterministic(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the ekv binary")
	}
	bin := buildEkv(t)
	work := t.TempDir()
	if err := testutil.CopyTree(filepath.Join("testdata", "batch"), work); err != nil {
		t.Fatalf("copy: %v", err)
	}
	// The fixture ships its ignore file under another name so it does not
	// apply to the repository itself.
	if err := os.Rename(filepath.Join(work, "people", "gitignore.txt"), filepath.Join(work, "people", ".gitignore")); err != nil {
		t.Fatalf("rename: %v", err)
	}
	want := "World: Hello World!\n" +
		"DEFAULT: Hello World!\n" +
		"Ada: Hello World!\n" +
		"DEFAULT: Hello World!\n" +
		"A&B: Hello World!\n"
	for i := 0; i < 3; i++ {
		res := runCmd(t, work, bin, "run", "--config", "ekv.cue")
		if res.code != 0 {
			t.Fatalf("run %d: exit %d, stderr %q", i, res.code, res.stderr)
		}
		if string(res.stdout) != want {
			t.Fatalf("run %d: stdout %q, want %q", i, res.stdout, want)
		}
	}
}

func TestCLI_ErrorIsSingleLine(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the ekv binary")
	}
	bin := buildEkv(t)
	work := t.TempDir()
	if err := os.WriteFile(filepath.Join(work, "bad.cue"), []byte("configVersion: \"1\"\naction: \"shout\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	res := runCmd(t, work, bin, "run", "--config", "bad.cue")
	if res.code != 1 {
		t.Fatalf("expected exit 1, got %d", res.code)
	}
	if got := string(res.stderr); got != "invalid action: \"shout\"\n" {
		t.Fatalf("unexpected stderr %q", got)
	}
	if strings.TrimSpace(string(res.stdout)) != "" {
		t.Fatalf("unexpected stdout %q", res.stdout)
	}
}
