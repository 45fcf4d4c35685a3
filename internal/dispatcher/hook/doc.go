// Package hook provides the exec and afterExec notifications of the dispatcher.
//
// Every command execution produces an Event that travels through two hook
// lists owned by a Manager:
//
//   - ExecHook: called before the command runs. Returning false vetoes the
//     execution; the remaining exec hooks (including the one that invokes the
//     command handler) are skipped.
//   - AfterExecHook: always called once the exec phase finishes, vetoed or not.
//
// Hooks implement the base Hook interface with Name() and Priority() methods
// for identification and ordering.
//
// # Priority System
//
//   - Exec hooks: higher priority runs first.
//   - AfterExec hooks: lower priority runs first, higher runs last so it sees
//     the final state of the event.
//
// The dispatcher installs the command invoker as an exec hook at
// PriorityCommand, so user hooks registered above it run before the handler.
// The invoker is pinned: its name cannot be reused or unregistered.
//
// # Function Hooks
//
// Quick hooks can be registered from plain functions:
//
//	m.RegisterExec(hook.NewExecFunc("guard", 200, func(e *hook.Event) bool {
//	    return e.Command.Name != "dangerous"
//	}))
//
// # Thread Safety
//
// The Manager is safe for concurrent registration. Hook lists are copied
// before running, so a hook may register or unregister hooks while an event
// is in flight; the change applies to the next event.
package hook
