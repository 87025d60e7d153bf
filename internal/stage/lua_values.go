package stage

import (
	"errors"
	"math"

	lua "github.com/yuin/gopher-lua"
)

const maxLuaTableDepth = 32

var (
	errCyclicTable    = errors.New("cyclic table")
	errTableDepth     = errors.New("table nesting too deep")
	errNonFiniteValue = errors.New("non-finite number")
)

// toLValue converts a Go value to a Lua value.
func toLValue(L *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case string:
		return lua.LString(x)
	case bool:
		return lua.LBool(x)
	case int:
		return lua.LNumber(float64(x))
	case float64:
		return lua.LNumber(x)
	case map[string]any:
		tbl := L.NewTable()
		for k, v2 := range x {
			tbl.RawSetString(k, toLValue(L, v2))
		}
		return tbl
	case []any:
		tbl := L.NewTable()
		for i, v2 := range x {
			tbl.RawSetInt(i+1, toLValue(L, v2))
		}
		return tbl
	default:
		return lua.LNil
	}
}

// fromLValue converts a Lua value to plain Go data. Tables with keys 1..n
// become slices; any other table becomes a map keyed by the string form of
// its keys. The result must be JSON-encodable, so cycles and NaN/Inf are
// rejected.
func fromLValue(v lua.LValue) (any, error) {
	return convertLValue(v, map[*lua.LTable]struct{}{}, 0)
}

func convertLValue(v lua.LValue, path map[*lua.LTable]struct{}, depth int) (any, error) {
	switch x := v.(type) {
	case *lua.LNilType:
		return nil, nil
	case lua.LBool:
		return bool(x), nil
	case lua.LNumber:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, errNonFiniteValue
		}
		return f, nil
	case lua.LString:
		return string(x), nil
	case *lua.LTable:
		if _, seen := path[x]; seen {
			return nil, errCyclicTable
		}
		if depth >= maxLuaTableDepth {
			return nil, errTableDepth
		}
		path[x] = struct{}{}
		defer delete(path, x)
		return convertTable(x, path, depth+1)
	default:
		return nil, nil
	}
}

func convertTable(x *lua.LTable, path map[*lua.LTable]struct{}, depth int) (any, error) {
	n := x.Len()
	count := 0
	x.ForEach(func(lua.LValue, lua.LValue) { count++ })
	if count > 0 && count == n {
		arr := make([]any, 0, n)
		for i := 1; i <= n; i++ {
			item, err := convertLValue(x.RawGetInt(i), path, depth)
			if err != nil {
				return nil, err
			}
			arr = append(arr, item)
		}
		return arr, nil
	}
	obj := map[string]any{}
	var firstErr error
	x.ForEach(func(k, val lua.LValue) {
		if firstErr != nil {
			return
		}
		item, err := convertLValue(val, path, depth)
		if err != nil {
			firstErr = err
			return
		}
		obj[k.String()] = item
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return obj, nil
}
