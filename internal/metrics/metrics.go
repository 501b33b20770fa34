package metrics

import (
	"sort"
	"sync"
	"time"
)

// Metrics accumulates how long each benchmark phase took across runs.
type Metrics struct {
	startTime  time.Time
	phaseStats map[string]*PhaseStats
	mu         sync.RWMutex
}

type PhaseStats struct {
	Calls     int64
	TotalTime time.Duration
	MaxTime   time.Duration
	Skipped   int64
}

func NewMetrics() *Metrics {
	return &Metrics{
		startTime:  time.Now(),
		phaseStats: make(map[string]*PhaseStats),
	}
}

func (m *Metrics) stats(phase string) *PhaseStats {
	stats, exists := m.phaseStats[phase]
	if !exists {
		stats = &PhaseStats{}
		m.phaseStats[phase] = stats
	}
	return stats
}

func (m *Metrics) AddPhase(phase string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := m.stats(phase)
	stats.Calls++
	stats.TotalTime += duration
	stats.MaxTime = max(stats.MaxTime, duration)
}

// SkipPhase records a phase that did not run because the heap lacks it.
func (m *Metrics) SkipPhase(phase string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats(phase).Skipped++
}

func (m *Metrics) Phase(phase string) PhaseStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if stats, ok := m.phaseStats[phase]; ok {
		return *stats
	}
	return PhaseStats{}
}

// Phases returns the recorded phase names in sorted order.
func (m *Metrics) Phases() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.phaseStats))
	for name := range m.phaseStats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make(map[string]interface{})
	stats["uptime_in_seconds"] = int(time.Since(m.startTime).Seconds())

	phaseStats := make(map[string]map[string]interface{})
	for phase, stat := range m.phaseStats {
		avg := time.Duration(0)
		if stat.Calls > 0 {
			avg = stat.TotalTime / time.Duration(stat.Calls)
		}
		phaseStats[phase] = map[string]interface{}{
			"calls":    stat.Calls,
			"skipped":  stat.Skipped,
			"total_us": stat.TotalTime.Microseconds(),
			"avg_us":   avg.Microseconds(),
			"max_us":   stat.MaxTime.Microseconds(),
		}
	}
	stats["phasestats"] = phaseStats

	return stats
}
