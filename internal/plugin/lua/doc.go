// Package lua defines commands in sandboxed Lua scripts.
//
// A Loader owns one gopher-lua state with only the base, table, string and
// math libraries opened. Scripts see a global "keycmd" module:
//
//	keycmd.add{
//	    name = "greet",
//	    description = "Say hello",
//	    bindKey = "Ctrl-G",
//	    readOnly = true,
//	    isAvailable = function(ctx) return not ctx.readOnly end,
//	    exec = function(args, ctx)
//	        keycmd.log("hello " .. (args.who or "world"))
//	    end,
//	}
//
//	keycmd.exec("save", {force = true}) -- returns true when executed
//	keycmd.commands()                   -- names of all registered commands
//
// An exec function that returns false declines the command, which makes the
// dispatcher report it as not executed. A Lua error is a handler fault.
package lua
