package dispatcher

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/dshills/keycmd/internal/dispatcher/hook"
)

// Metrics collects execution statistics.
type Metrics struct {
	mu sync.RWMutex

	// Per-command metrics
	commandMetrics map[string]*CommandMetrics

	// Global counters
	totalExecs      uint64
	totalVetoes     uint64
	totalErrors     uint64
	totalPanics     uint64
	totalRejections uint64
	rejections      map[string]uint64 // reason -> count

	// Timing
	totalDuration time.Duration
}

// CommandMetrics holds metrics for a specific command.
type CommandMetrics struct {
	Name          string
	ExecCount     uint64
	VetoCount     uint64
	ErrorCount    uint64
	TotalDuration time.Duration
	MinDuration   time.Duration
	MaxDuration   time.Duration
	LastStatus    string
	LastExec      time.Time
}

// Rejection reasons as reported by Rejections.
const (
	ReasonNotFound    = "not-found"
	ReasonReadOnly    = "read-only"
	ReasonUnavailable = "unavailable"
)

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		commandMetrics: make(map[string]*CommandMetrics),
		rejections:     make(map[string]uint64),
	}
}

// RecordExec records an execution that reached the notification phase.
func (m *Metrics) RecordExec(e *hook.Event, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalExecs++
	m.totalDuration += duration

	name := e.CommandName()
	cm := m.commandMetrics[name]
	if cm == nil {
		cm = &CommandMetrics{
			Name:        name,
			MinDuration: duration,
			MaxDuration: duration,
		}
		m.commandMetrics[name] = cm
	}

	cm.ExecCount++
	cm.TotalDuration += duration
	cm.LastStatus = e.Status()
	cm.LastExec = time.Now()

	if duration < cm.MinDuration {
		cm.MinDuration = duration
	}
	if duration > cm.MaxDuration {
		cm.MaxDuration = duration
	}

	switch {
	case e.Err != nil:
		m.totalErrors++
		cm.ErrorCount++
	case e.Vetoed:
		m.totalVetoes++
		cm.VetoCount++
	}
}

// RecordRejection records a command that failed resolution or policy checks.
func (m *Metrics) RecordRejection(name string, reason error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalRejections++
	m.rejections[rejectionReason(reason)]++
}

// RecordPanic records a panic recovery.
func (m *Metrics) RecordPanic(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalPanics++
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrReadOnly):
		return ReasonReadOnly
	case errors.Is(err, ErrUnavailable):
		return ReasonUnavailable
	default:
		return ReasonNotFound
	}
}

// TotalExecs returns the number of executions that reached the hooks.
func (m *Metrics) TotalExecs() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalExecs
}

// TotalVetoes returns the number of vetoed executions.
func (m *Metrics) TotalVetoes() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalVetoes
}

// TotalErrors returns the number of executions that ended in a fault.
func (m *Metrics) TotalErrors() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalErrors
}

// TotalPanics returns the number of panics recovered.
func (m *Metrics) TotalPanics() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalPanics
}

// TotalRejections returns the number of rejected executions.
func (m *Metrics) TotalRejections() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalRejections
}

// Rejections returns the rejection count for a reason (ReasonNotFound etc).
func (m *Metrics) Rejections(reason string) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rejections[reason]
}

// AverageDuration returns the average execution duration.
func (m *Metrics) AverageDuration() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.totalExecs == 0 {
		return 0
	}
	return m.totalDuration / time.Duration(m.totalExecs)
}

// CommandStats returns a copy of the metrics for a command, or nil.
func (m *Metrics) CommandStats(name string) *CommandMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cm := m.commandMetrics[name]
	if cm == nil {
		return nil
	}
	c := *cm
	return &c
}

// TopCommands returns the n most executed commands. A negative n yields none.
func (m *Metrics) TopCommands(n int) []*CommandMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cmds := make([]*CommandMetrics, 0, len(m.commandMetrics))
	for _, cm := range m.commandMetrics {
		c := *cm
		cmds = append(cmds, &c)
	}

	sort.Slice(cmds, func(i, j int) bool {
		if cmds[i].ExecCount != cmds[j].ExecCount {
			return cmds[i].ExecCount > cmds[j].ExecCount
		}
		return cmds[i].Name < cmds[j].Name
	})

	return cmds[:max(0, min(n, len(cmds)))]
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.commandMetrics = make(map[string]*CommandMetrics)
	m.rejections = make(map[string]uint64)
	m.totalExecs = 0
	m.totalVetoes = 0
	m.totalErrors = 0
	m.totalPanics = 0
	m.totalRejections = 0
	m.totalDuration = 0
}

// MetricsSnapshot is a point-in-time copy of the global counters.
type MetricsSnapshot struct {
	TotalExecs      uint64
	TotalVetoes     uint64
	TotalErrors     uint64
	TotalPanics     uint64
	TotalRejections uint64
	AverageDuration time.Duration
	CommandCount    int
	Timestamp       time.Time
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := MetricsSnapshot{
		TotalExecs:      m.totalExecs,
		TotalVetoes:     m.totalVetoes,
		TotalErrors:     m.totalErrors,
		TotalPanics:     m.totalPanics,
		TotalRejections: m.totalRejections,
		CommandCount:    len(m.commandMetrics),
		Timestamp:       time.Now(),
	}
	if m.totalExecs > 0 {
		s.AverageDuration = m.totalDuration / time.Duration(m.totalExecs)
	}
	return s
}

// AverageDuration returns the average duration for the command.
func (cm *CommandMetrics) AverageDuration() time.Duration {
	if cm.ExecCount == 0 {
		return 0
	}
	return cm.TotalDuration / time.Duration(cm.ExecCount)
}

// SuccessRate returns the share of successful executions as a percentage.
func (cm *CommandMetrics) SuccessRate() float64 {
	if cm.ExecCount == 0 {
		return 0
	}
	ok := cm.ExecCount - cm.VetoCount - cm.ErrorCount
	return float64(ok) / float64(cm.ExecCount) * 100
}
