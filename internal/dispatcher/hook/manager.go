package hook

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrReservedName is reported when a hook would replace a pinned exec hook.
var ErrReservedName = errors.New("hook name is reserved")

// Manager holds exec and afterExec hooks with priority-based ordering.
// Each dispatcher owns its own Manager; there is no global registration.
type Manager struct {
	mu         sync.RWMutex
	execHooks  []ExecHook
	afterHooks []AfterExecHook
	pinned     map[string]struct{}
}

// NewManager creates a new hook manager.
func NewManager() *Manager {
	return &Manager{
		execHooks:  make([]ExecHook, 0),
		afterHooks: make([]AfterExecHook, 0),
		pinned:     make(map[string]struct{}),
	}
}

// Pin registers an exec hook that later registrations cannot replace and
// that cannot be unregistered. The dispatcher pins its command invoker.
func (m *Manager) Pin(h ExecHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addExec(h)
	m.pinned[h.Name()] = struct{}{}
}

// RegisterExec adds an exec hook, replacing any hook with the same name.
// A pinned name is refused; the returned Subscription then carries
// ErrReservedName and removes nothing.
func (m *Manager) RegisterExec(h ExecHook) Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.pinned[h.Name()]; ok {
		return Subscription{name: h.Name(), err: fmt.Errorf("%w: %s", ErrReservedName, h.Name())}
	}
	m.addExec(h)
	return Subscription{manager: m, name: h.Name(), exec: true}
}

// addExec inserts or replaces h. The caller holds m.mu.
func (m *Manager) addExec(h ExecHook) {
	replaced := false
	for i, existing := range m.execHooks {
		if existing.Name() == h.Name() {
			m.execHooks[i] = h
			replaced = true
			break
		}
	}
	if !replaced {
		m.execHooks = append(m.execHooks, h)
	}
	m.sortExecHooks()
}

// RegisterAfterExec adds an afterExec hook, replacing any hook with the same name.
func (m *Manager) RegisterAfterExec(h AfterExecHook) Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()

	replaced := false
	for i, existing := range m.afterHooks {
		if existing.Name() == h.Name() {
			m.afterHooks[i] = h
			replaced = true
			break
		}
	}
	if !replaced {
		m.afterHooks = append(m.afterHooks, h)
	}
	m.sortAfterHooks()

	return Subscription{manager: m, name: h.Name(), after: true}
}

// Register adds a hook under every interface it implements.
func (m *Manager) Register(h Hook) Subscription {
	sub := Subscription{manager: m, name: h.Name()}
	if eh, ok := h.(ExecHook); ok {
		if es := m.RegisterExec(eh); es.err != nil {
			sub.err = es.err
		} else {
			sub.exec = true
		}
	}
	if ah, ok := h.(AfterExecHook); ok {
		m.RegisterAfterExec(ah)
		sub.after = true
	}
	return sub
}

// UnregisterExec removes an exec hook by name. Pinned hooks stay.
func (m *Manager) UnregisterExec(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.pinned[name]; ok {
		return false
	}

	for i, h := range m.execHooks {
		if h.Name() == name {
			m.execHooks = append(m.execHooks[:i], m.execHooks[i+1:]...)
			return true
		}
	}
	return false
}

// UnregisterAfterExec removes an afterExec hook by name.
func (m *Manager) UnregisterAfterExec(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, h := range m.afterHooks {
		if h.Name() == name {
			m.afterHooks = append(m.afterHooks[:i], m.afterHooks[i+1:]...)
			return true
		}
	}
	return false
}

// Unregister removes a hook by name from both lists.
func (m *Manager) Unregister(name string) bool {
	exec := m.UnregisterExec(name)
	after := m.UnregisterAfterExec(name)
	return exec || after
}

// RunExec runs exec hooks in priority order.
// The first hook returning false vetoes the event and stops the run.
func (m *Manager) RunExec(e *Event) bool {
	m.mu.RLock()
	hooks := make([]ExecHook, len(m.execHooks))
	copy(hooks, m.execHooks)
	m.mu.RUnlock()

	for _, h := range hooks {
		if !h.OnExec(e) {
			e.Veto(h.Name())
			return false
		}
	}
	return true
}

// RunAfterExec runs all afterExec hooks from lowest to highest priority.
func (m *Manager) RunAfterExec(e *Event) {
	m.mu.RLock()
	hooks := make([]AfterExecHook, len(m.afterHooks))
	copy(hooks, m.afterHooks)
	m.mu.RUnlock()

	for _, h := range hooks {
		h.AfterExec(e)
	}
}

// ExecHookCount returns the number of registered exec hooks.
func (m *Manager) ExecHookCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.execHooks)
}

// AfterExecHookCount returns the number of registered afterExec hooks.
func (m *Manager) AfterExecHookCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.afterHooks)
}

// ExecHookNames returns exec hook names in run order.
func (m *Manager) ExecHookNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, len(m.execHooks))
	for i, h := range m.execHooks {
		names[i] = h.Name()
	}
	return names
}

// AfterExecHookNames returns afterExec hook names in run order.
func (m *Manager) AfterExecHookNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, len(m.afterHooks))
	for i, h := range m.afterHooks {
		names[i] = h.Name()
	}
	return names
}

// sortExecHooks sorts by priority descending; equal priorities keep registration order.
func (m *Manager) sortExecHooks() {
	sort.SliceStable(m.execHooks, func(i, j int) bool {
		return m.execHooks[i].Priority() > m.execHooks[j].Priority()
	})
}

// sortAfterHooks sorts by priority ascending; equal priorities keep registration order.
func (m *Manager) sortAfterHooks() {
	sort.SliceStable(m.afterHooks, func(i, j int) bool {
		return m.afterHooks[i].Priority() < m.afterHooks[j].Priority()
	})
}

// Subscription is the handle returned by registration.
type Subscription struct {
	manager *Manager
	name    string
	exec    bool
	after   bool
	err     error
}

// Name returns the subscribed hook name.
func (s Subscription) Name() string { return s.name }

// Err reports why the registration was refused, if it was.
func (s Subscription) Err() error { return s.err }

// Unsubscribe removes the hook from the lists it was registered in.
// It reports whether anything was removed.
func (s Subscription) Unsubscribe() bool {
	if s.manager == nil {
		return false
	}
	removed := false
	if s.exec && s.manager.UnregisterExec(s.name) {
		removed = true
	}
	if s.after && s.manager.UnregisterAfterExec(s.name) {
		removed = true
	}
	return removed
}
