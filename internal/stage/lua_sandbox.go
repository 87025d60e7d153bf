package stage

import (
	"context"
	"errors"
	"hash/fnv"
	"math/rand"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
)

const (
	defaultLuaTimeoutMs        = 200
	defaultLuaInstructionLimit = 1000000
	defaultLuaMemoryLimitBytes = 1 << 20

	// loopCost is the static budget charged for each loop construct.
	loopCost = 100000
)

const (
	violationTimeout     = "sandbox timeout"
	violationInstruction = "sandbox instruction limit"
	violationMemory      = "sandbox memory limit"
)

// luaSandbox runs one user script per record in a fresh, restricted state.
// A zero limit disables that limit.
type luaSandbox struct {
	timeout          time.Duration
	instructionLimit int
	memoryLimitBytes int
	libs             LuaLibsMeta
}

func newLuaSandbox(meta *Meta) luaSandbox {
	s := luaSandbox{
		timeout:          defaultLuaTimeoutMs * time.Millisecond,
		instructionLimit: defaultLuaInstructionLimit,
		memoryLimitBytes: defaultLuaMemoryLimitBytes,
		libs:             LuaLibsMeta{Base: true, Table: true, String: true, Math: true},
	}
	if meta == nil || meta.Lua == nil {
		return s
	}
	l := meta.Lua
	if l.TimeoutMs >= 0 {
		s.timeout = time.Duration(l.TimeoutMs) * time.Millisecond
	}
	if l.InstructionLimit >= 0 {
		s.instructionLimit = l.InstructionLimit
	}
	if l.MemoryLimitBytes >= 0 {
		s.memoryLimitBytes = l.MemoryLimitBytes
	}
	s.libs = l.Libs
	return s
}

func (s luaSandbox) newState(seed int64) *lua.LState {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:    true,
		RegistrySize:    256,
		RegistryMaxSize: registryMaxFromMemory(s.memoryLimitBytes),
	})
	open := func(name string, f lua.LGFunction) {
		L.Push(L.NewFunction(f))
		L.Push(lua.LString(name))
		L.Call(1, 0)
	}
	if s.libs.Base {
		open(lua.BaseLibName, lua.OpenBase)
	}
	if s.libs.String {
		open(lua.StringLibName, lua.OpenString)
	}
	if s.libs.Table {
		open(lua.TabLibName, lua.OpenTable)
	}
	if s.libs.Math {
		open(lua.MathLibName, lua.OpenMath)
		installDeterministicRandom(L, seed)
	}
	return L
}

// run evaluates code with the given globals. A non-empty violation reports a
// sandbox limit; err reports a script error.
func (s luaSandbox) run(ctx context.Context, stageName, locator string, globals map[string]any, code string) (result any, violation string, err error) {
	if estimateCost(code) > s.instructionLimit && s.instructionLimit > 0 {
		return nil, violationInstruction, nil
	}

	L := s.newState(deterministicSeed(stageName, locator))
	defer L.Close()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	L.SetContext(ctx)

	for k, v := range globals {
		L.SetGlobal(k, toLValue(L, v))
	}
	fn, err := L.LoadString(code)
	if err != nil {
		return nil, "", err
	}
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || strings.Contains(err.Error(), "deadline exceeded") {
			return nil, violationTimeout, nil
		}
		if strings.Contains(strings.ToLower(err.Error()), "registry overflow") {
			return nil, violationMemory, nil
		}
		return nil, "", err
	}
	ret := L.Get(-1)
	L.Pop(1)
	out, err := fromLValue(ret)
	if err != nil {
		return nil, "", err
	}
	if s.memoryLimitBytes > 0 && estimateValueSize(out, 0) > s.memoryLimitBytes {
		return nil, violationMemory, nil
	}
	return out, "", nil
}

// estimateCost is a static instruction estimate: one unit per source byte
// plus loopCost for every loop keyword.
func estimateCost(code string) int {
	cost := len(code)
	for _, f := range strings.FieldsFunc(code, func(r rune) bool {
		return !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	}) {
		switch f {
		case "while", "repeat", "for", "goto":
			cost += loopCost
		}
	}
	return cost
}

func registryMaxFromMemory(memoryLimitBytes int) int {
	if memoryLimitBytes <= 0 {
		return 4096
	}
	n := memoryLimitBytes / 64
	if n < 256 {
		n = 256
	}
	if n > 4096 {
		n = 4096
	}
	return n
}

func deterministicSeed(stageName, locator string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(stageName))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(locator))
	return int64(h.Sum64() & 0x7fffffffffffffff)
}

// installDeterministicRandom replaces math.random with a generator seeded per
// record and turns math.randomseed into a no-op.
func installDeterministicRandom(L *lua.LState, seed int64) {
	mathTbl, ok := L.GetGlobal(lua.MathLibName).(*lua.LTable)
	if !ok {
		return
	}
	rng := rand.New(rand.NewSource(seed))
	mathTbl.RawSetString("random", L.NewFunction(func(L *lua.LState) int {
		switch L.GetTop() {
		case 0:
			L.Push(lua.LNumber(rng.Float64()))
		case 1:
			hi := L.CheckInt(1)
			if hi < 1 {
				L.ArgError(1, "interval is empty")
				return 0
			}
			L.Push(lua.LNumber(rng.Intn(hi) + 1))
		default:
			lo, hi := L.CheckInt(1), L.CheckInt(2)
			if hi < lo {
				L.ArgError(2, "interval is empty")
				return 0
			}
			L.Push(lua.LNumber(rng.Intn(hi-lo+1) + lo))
		}
		return 1
	}))
	mathTbl.RawSetString("randomseed", L.NewFunction(func(*lua.LState) int { return 0 }))
}

func estimateValueSize(v any, depth int) int {
	if depth > 32 {
		return 0
	}
	switch x := v.(type) {
	case nil:
		return 0
	case string:
		return len(x)
	case bool:
		return 1
	case float64:
		return 8
	case map[string]any:
		n := 0
		for k, v2 := range x {
			n += len(k) + estimateValueSize(v2, depth+1)
		}
		return n
	case []any:
		n := 0
		for _, v2 := range x {
			n += estimateValueSize(v2, depth+1)
		}
		return n
	default:
		return 16
	}
}
