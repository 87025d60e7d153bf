package stage

import (
	"fmt"
	"sort"
	"strings"
)

const (
	modeFailFast  = "fail-fast"
	modeKeepGoing = "keep-going"
)

func errorMode(meta *Meta) string {
	if meta != nil && meta.Errors != nil && meta.Errors.Mode != "" {
		return meta.Errors.Mode
	}
	return modeFailFast
}

func embedErrors(meta *Meta) bool {
	return meta != nil && meta.Errors != nil && meta.Errors.EmbedErrors
}

func sanitizeErrorMessage(msg string) string {
	s := strings.Join(strings.Fields(msg), " ")
	if s == "" {
		return "error"
	}
	return s
}

// recordFailure marks rec as failed in stageName and returns the matching
// envelope error. Record errors are stripped at output unless embedErrors is set.
func recordFailure(rec Record, stageName, msg string) (Record, Error) {
	msg = sanitizeErrorMessage(msg)
	rec.Error = &RecError{Stage: stageName, Message: msg}
	return rec, Error{Stage: stageName, Locator: rec.Locator, Message: msg}
}

func appendSanitizedErrors(out *Envelope, envErrs []Error) {
	if len(envErrs) == 0 {
		return
	}
	for _, e := range envErrs {
		e.Message = sanitizeErrorMessage(e.Message)
		out.Errors = append(out.Errors, e)
	}
	SortEnvelopeErrors(out)
}

// SortEnvelopeErrors sorts errors by (stage, locator, message) deterministically.
func SortEnvelopeErrors(env *Envelope) {
	if env == nil || len(env.Errors) == 0 {
		return
	}
	sort.Slice(env.Errors, func(i, j int) bool {
		ei, ej := env.Errors[i], env.Errors[j]
		if ei.Stage != ej.Stage {
			return ei.Stage < ej.Stage
		}
		if ei.Locator != ej.Locator {
			return ei.Locator < ej.Locator
		}
		return ei.Message < ej.Message
	})
}

// stageFatal formats a fail-fast error as "<stage>: <locator>: <msg>".
func stageFatal(stageName, locator, msg string) error {
	if locator == "" {
		return fmt.Errorf("%s: %s", stageName, msg)
	}
	return fmt.Errorf("%s: %s: %s", stageName, locator, msg)
}
