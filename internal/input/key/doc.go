// Package key models keyboard input: keys, modifiers, key events and the
// chords that shortcut tables are keyed by.
//
// Shortcut specs are parsed by Parse and accept three notations:
//
//	"Ctrl-S", "Ctrl-Shift-Z", "Command-S"   hyphenated
//	"Ctrl+S", "Alt+F4"                      plus-separated
//	"<C-s>", "<D-s>", "<C-S-z>"             Vim style
//
// Modifier names are case-insensitive; "Cmd", "Command", "Meta", "Super" and
// "Win" all map to ModMeta.
package key
