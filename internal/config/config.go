package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "KEYCMD_"

// Config is the complete keycmd configuration.
type Config struct {
	// Dispatcher controls command dispatch.
	Dispatcher DispatcherConfig `toml:"dispatcher" yaml:"dispatcher" envPrefix:"DISPATCHER_"`

	// Logging controls the process logger.
	Logging LoggingConfig `toml:"logging" yaml:"logging" envPrefix:"LOG_"`

	// Keybindings maps shortcut specs to command references.
	// A reference may list several commands separated by "|".
	Keybindings map[string]string `toml:"keybindings" yaml:"keybindings"`

	// Scripts lists Lua files defining commands.
	Scripts []string `toml:"scripts" yaml:"scripts" env:"SCRIPTS" envSeparator:","`

	// ReadOnly starts the editor context read-only.
	ReadOnly bool `toml:"readOnly" yaml:"readOnly" env:"READ_ONLY"`
}

// DispatcherConfig mirrors dispatcher.Config.
type DispatcherConfig struct {
	CheckCommandState bool `toml:"checkCommandState" yaml:"checkCommandState" env:"CHECK_COMMAND_STATE"`
	Metrics           bool `toml:"metrics" yaml:"metrics" env:"METRICS"`
	RecoverFromPanic  bool `toml:"recoverFromPanic" yaml:"recoverFromPanic" env:"RECOVER_FROM_PANIC"`
	Audit             bool `toml:"audit" yaml:"audit" env:"AUDIT"`
}

// LoggingConfig selects the log level and handler.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" yaml:"level" env:"LEVEL"`

	// Format is text or json.
	Format string `toml:"format" yaml:"format" env:"FORMAT"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Dispatcher: DispatcherConfig{
			CheckCommandState: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Keybindings: map[string]string{},
	}
}

// Load builds a configuration from defaults, the file at path (skipped when
// path is empty) and the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile decodes the file at path over c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	return c.Decode(path, format, data)
}

// ApplyEnv overlays KEYCMD_* environment variables on c.
// Unset variables leave the current values alone.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: logging.format %q (want text or json)", ErrValidationFailed, c.Logging.Format)
	}
	for spec, ref := range c.Keybindings {
		if strings.TrimSpace(ref) == "" {
			return fmt.Errorf("%w: keybinding %q has no command", ErrValidationFailed, spec)
		}
	}
	return nil
}

// ScriptPaths returns Scripts with "~" expanded and relative paths resolved
// against base.
func (c *Config) ScriptPaths(base string) []string {
	home, _ := os.UserHomeDir()
	paths := make([]string, 0, len(c.Scripts))
	for _, p := range c.Scripts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if home != "" && (p == "~" || strings.HasPrefix(p, "~/")) {
			p = filepath.Join(home, p[1:])
		}
		if !filepath.IsAbs(p) && base != "" {
			p = filepath.Join(base, p)
		}
		paths = append(paths, p)
	}
	return paths
}

// BindingSpecs returns the keybinding specs in sorted order.
func (c *Config) BindingSpecs() []string {
	specs := make([]string, 0, len(c.Keybindings))
	for spec := range c.Keybindings {
		specs = append(specs, spec)
	}
	sort.Strings(specs)
	return specs
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: logging.level %q", ErrValidationFailed, level)
	}
}
