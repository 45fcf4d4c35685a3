// Package dispatcher resolves command references and executes commands.
//
// The dispatcher is the hub between whatever produces intent (key presses,
// scripts, the command line) and the commands that act on it.
//
// # Execution
//
// Exec accepts a command.Ref:
//
//   - command.Name: looked up in the Registry.
//   - *command.Command: used directly, registered or not.
//   - command.List: candidates tried from last to first; the first success wins.
//
// A resolved command is then checked against the caller context:
//
//  1. The command must exist.
//  2. A read-only context only admits commands marked ReadOnly.
//  3. With state checking on, IsAvailable (when set) must accept the context.
//
// Any failed check yields false and no notification. Otherwise a hook.Event
// is built and sent through the exec hooks, the last of which calls the
// handler, and then through the afterExec hooks, which always run.
//
// # Results
//
//	ok, err := d.Exec(command.Name("save"), editor, nil)
//
// ok is false when the command was rejected, vetoed by an exec hook, or its
// handler returned command.ErrPass. err carries handler faults only. Use
// Check to learn why a command would be rejected.
//
// # Thread Safety
//
// Exec is synchronous and runs hooks and handlers on the caller's goroutine.
// The registry and hook lists are lock-protected and copied before use, so
// registration from other goroutines is safe, though setup is expected to
// finish before dispatching starts.
package dispatcher
