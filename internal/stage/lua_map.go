package stage

import (
	"context"
	"strings"

	"github.com/yuin/gopher-lua/parse"
)

const luaMapStage = "lua-map"

// buildLuaMapCode wraps bare expressions as `return (<expr>)`. Source that
// only compiles unwrapped is a full chunk and is kept as is.
func buildLuaMapCode(src string) string {
	wrapped := "return (" + src + "\n)"
	if _, err := parse.Parse(strings.NewReader(wrapped), "<map>"); err == nil {
		return wrapped
	}
	return src
}

// mapRecord runs code for one record. Failed records pass through untouched.
func mapRecord(ctx context.Context, sb luaSandbox, rec Record, code string) (Record, *Error, string) {
	if rec.Error != nil {
		return rec, nil, ""
	}
	ret, violation, err := sb.run(ctx, luaMapStage, rec.Locator, map[string]any{
		"name":     rec.Name,
		"greeting": rec.Greeting,
		"locator":  rec.Locator,
	}, code)
	msg := violation
	if err != nil {
		msg = err.Error()
	}
	if msg != "" {
		failed, envErr := recordFailure(rec, luaMapStage, msg)
		return failed, &envErr, msg
	}
	rec.Mapped = ret
	return rec, nil, ""
}

// luaMapRunner evaluates the configured map script once per record and
// stores its result in Record.Mapped.
func luaMapRunner(ctx context.Context, in Envelope, _ Deps) (Envelope, error) {
	if in.Meta == nil || in.Meta.Lua == nil || strings.TrimSpace(in.Meta.Lua.Map) == "" {
		return in, nil
	}
	code := buildLuaMapCode(in.Meta.Lua.Map)
	sb := newLuaSandbox(in.Meta)
	keepGoing := errorMode(in.Meta) == modeKeepGoing

	type mapped struct {
		rec    Record
		envErr *Error
		msg    string
	}
	results := runIndexedParallel(len(in.Records), getWorkers(in.Meta), func(i int) mapped {
		rec, envErr, msg := mapRecord(ctx, sb, in.Records[i], code)
		return mapped{rec: rec, envErr: envErr, msg: msg}
	})

	out := in
	out.Records = make([]Record, 0, len(results))
	var envErrs []Error
	for _, r := range results {
		if r.envErr != nil {
			if !keepGoing {
				return Envelope{}, stageFatal(luaMapStage, r.rec.Locator, sanitizeErrorMessage(r.msg))
			}
			envErrs = append(envErrs, *r.envErr)
		}
		out.Records = append(out.Records, r.rec)
	}
	appendSanitizedErrors(&out, envErrs)
	return out, nil
}

func init() { Register(luaMapStage, luaMapRunner) }
