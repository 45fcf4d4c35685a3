package dispatcher

// Config holds dispatcher configuration options.
type Config struct {
	// CheckCommandState enables availability predicates.
	// It is the initial value of the toggle exposed by SetCheckCommandState.
	CheckCommandState bool

	// EnableMetrics enables execution timing and statistics collection.
	EnableMetrics bool

	// RecoverFromPanic converts panics raised by hooks or handlers into
	// errors wrapping ErrPanic instead of letting them unwind the caller.
	RecoverFromPanic bool

	// Audit installs the audit hook, logging every execution at debug level.
	Audit bool
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CheckCommandState: true,
		EnableMetrics:     false,
		RecoverFromPanic:  false,
		Audit:             false,
	}
}

// WithMetrics returns a copy of the config with metrics enabled.
func (c Config) WithMetrics() Config {
	c.EnableMetrics = true
	return c
}

// WithPanicRecovery returns a copy of the config with panic recovery set.
func (c Config) WithPanicRecovery(recover bool) Config {
	c.RecoverFromPanic = recover
	return c
}

// WithCheckCommandState returns a copy of the config with state checking set.
func (c Config) WithCheckCommandState(check bool) Config {
	c.CheckCommandState = check
	return c
}

// WithAudit returns a copy of the config with the audit hook enabled.
func (c Config) WithAudit() Config {
	c.Audit = true
	return c
}
