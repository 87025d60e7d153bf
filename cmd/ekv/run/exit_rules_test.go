package run

import (
	"testing"

	"github.com/flarebyte/ekvstore/internal/stage"
)

func keepGoingMeta() *stage.Meta {
	return &stage.Meta{
		Config: &stage.ConfigMeta{Action: "greet"},
		Errors: &stage.ErrorsMeta{Mode: "keep-going"},
	}
}

func assertExitError(t *testing.T, err error, wantMsg string, wantCode int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error")
	}
	if err.Error() != wantMsg {
		t.Fatalf("unexpected error: %v", err)
	}
	ec, ok := err.(interface{ ExitCode() int })
	if !ok || ec.ExitCode() != wantCode {
		t.Fatalf("unexpected exit code")
	}
}

func TestEvaluateRunExit_KeepGoing_SuccessRecord(t *testing.T) {
	env := stage.Envelope{
		Meta:    keepGoingMeta(),
		Records: []stage.Record{{Locator: "a"}},
		Errors:  []stage.Error{{Stage: "lua-map", Locator: "b", Message: "boom"}},
	}
	if err := evaluateRunExit(env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEvaluateRunExit_KeepGoing_AllFailed(t *testing.T) {
	env := stage.Envelope{
		Meta:    keepGoingMeta(),
		Records: []stage.Record{{Locator: "a", Error: &stage.RecError{Stage: "lua-map", Message: "boom"}}},
		Errors:  []stage.Error{{Stage: "lua-map", Locator: "a", Message: "boom"}},
	}
	assertExitError(t, evaluateRunExit(env), "keep-going: no successful records", 1)
}

func TestEvaluateRunExit_KeepGoing_OnlyFileErrors(t *testing.T) {
	env := stage.Envelope{
		Meta:   keepGoingMeta(),
		Errors: []stage.Error{{Stage: "parse-names-files", Locator: "x.names.yaml", Message: "invalid YAML"}},
	}
	assertExitError(t, evaluateRunExit(env), "keep-going: no successful records", 1)
}

func TestEvaluateRunExit_KeepGoing_EmptyBatch(t *testing.T) {
	if err := evaluateRunExit(stage.Envelope{Meta: keepGoingMeta()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEvaluateRunExit_FailFastIgnoresRecords(t *testing.T) {
	env := stage.Envelope{
		Meta:    &stage.Meta{Errors: &stage.ErrorsMeta{Mode: "fail-fast"}},
		Records: []stage.Record{{Locator: "a", Error: &stage.RecError{Stage: "x", Message: "y"}}},
	}
	if err := evaluateRunExit(env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
