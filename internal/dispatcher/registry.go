package dispatcher

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/dshills/keycmd/internal/dispatcher/command"
)

// Registry maps command names to commands.
// It is populated during setup and only read during dispatch; the lock keeps
// setup from several goroutines safe.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*command.Command
	logger   *slog.Logger
}

// NewRegistry creates a new command registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]*command.Command),
		logger:   slog.New(slog.DiscardHandler),
	}
}

// Register adds a command. An existing command with the same name is
// replaced and a warning is logged.
func (r *Registry) Register(cmd *command.Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.commands[cmd.Name]; ok {
		r.logger.Warn("command replaced",
			"command", cmd.Name,
			"previous_source", existing.Source,
			"new_source", cmd.Source)
	}
	r.commands[cmd.Name] = cmd
	return nil
}

// Unregister removes a command by name.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.commands[name]; !ok {
		return false
	}
	delete(r.commands, name)
	return true
}

// Get returns the command registered under name, or nil.
func (r *Registry) Get(name string) *command.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.commands[name]
}

// Has returns true if a command is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.commands[name]
	return ok
}

// List returns all registered command names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Commands returns all registered commands sorted by name.
func (r *Registry) Commands() []*command.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmds := make([]*command.Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool {
		return cmds[i].Name < cmds[j].Name
	})
	return cmds
}

// Count returns the number of registered commands.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

func (r *Registry) setLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}
