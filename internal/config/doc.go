// Package config loads keycmd configuration.
//
// Configuration comes from three sources, later ones overriding earlier:
//
//  1. Built-in defaults (Default)
//  2. A TOML or YAML file, chosen by extension (.toml, .yaml, .yml)
//  3. KEYCMD_* environment variables
//
// Example TOML:
//
//	readOnly = false
//	scripts  = ["~/.config/keycmd/commands.lua"]
//
//	[dispatcher]
//	checkCommandState = true
//	metrics           = true
//
//	[logging]
//	level  = "debug"
//	format = "json"
//
//	[keybindings]
//	"Ctrl-S" = "save"
//	"Ctrl-Z" = "undo|app.repeatLast"
//
// Environment variables:
//
//	KEYCMD_READ_ONLY, KEYCMD_SCRIPTS (comma separated),
//	KEYCMD_DISPATCHER_CHECK_COMMAND_STATE, KEYCMD_DISPATCHER_METRICS,
//	KEYCMD_DISPATCHER_RECOVER_FROM_PANIC, KEYCMD_DISPATCHER_AUDIT,
//	KEYCMD_LOG_LEVEL, KEYCMD_LOG_FORMAT
//
// Watch reloads the file when it changes on disk.
package config
