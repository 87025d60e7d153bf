package run

import "github.com/flarebyte/ekvstore/internal/stage"

const exitCodeExecErr = 1

type runExitError struct {
	code int
	msg  string
}

func (e runExitError) Error() string { return e.msg }
func (e runExitError) ExitCode() int { return e.code }

func keepGoingMode(meta *stage.Meta) bool {
	return meta != nil && meta.Errors != nil && meta.Errors.Mode == "keep-going"
}

func countRecordResults(records []stage.Record) (successes int, failures int) {
	for _, r := range records {
		if r.Error != nil {
			failures++
		} else {
			successes++
		}
	}
	return
}

// evaluateRunExit fails a keep-going run that had errors but produced no
// successful record. Fail-fast runs already returned their first error.
func evaluateRunExit(env stage.Envelope) error {
	if !keepGoingMode(env.Meta) {
		return nil
	}
	successes, failures := countRecordResults(env.Records)
	if failures == 0 && len(env.Errors) == 0 {
		return nil
	}
	if successes > 0 {
		return nil
	}
	return runExitError{code: exitCodeExecErr, msg: "keep-going: no successful records"}
}
