package lua

import (
	"context"
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultExecutionTimeout bounds a single script load or handler call.
const DefaultExecutionTimeout = 5 * time.Second

// newState creates a Lua state with only safe libraries opened.
func newState() *lua.LState {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// io, os, debug and package stay closed. Base still ships loaders
	// that can reach the filesystem or compile arbitrary chunks.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

// withTimeout runs fn with the state bound to a deadline.
func withTimeout(L *lua.LState, timeout time.Duration, fn func() error) error {
	if timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		L.SetContext(ctx)
		defer L.RemoveContext()
	}
	return recoverCall(fn)
}

// recoverCall runs fn converting a panic into an error.
func recoverCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrScript, r)
		}
	}()
	return fn()
}

// getTableString returns a string field or "" when absent.
func getTableString(L *lua.LState, tbl *lua.LTable, key string) string {
	if s, ok := L.GetField(tbl, key).(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getTableBool returns a boolean field using Lua truthiness.
func getTableBool(L *lua.LState, tbl *lua.LTable, key string) bool {
	return lua.LVAsBool(L.GetField(tbl, key))
}

// getTableFunc returns a function field or nil.
func getTableFunc(L *lua.LState, tbl *lua.LTable, key string) *lua.LFunction {
	fn, _ := L.GetField(tbl, key).(*lua.LFunction)
	return fn
}
