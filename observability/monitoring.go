// Package observability samples process and runtime health for the
// /stats endpoint. It observes, it never influences the relay path.
package observability

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Stats is the snapshot served to operators.
type Stats struct {
	ActiveSessions int     `json:"active_sessions"`
	Goroutines     int     `json:"goroutines"`
	AllocMemMB     uint64  `json:"alloc_mem_mb"`
	ProcessRSSMB   uint64  `json:"process_rss_mb"`
	ProcessCPUPct  float64 `json:"process_cpu_pct"`
	NumGC          uint32  `json:"num_gc"`
	SampledAt      string  `json:"sampled_at"`
}

// Monitor periodically refreshes a Stats snapshot. It runs as a
// supervised worker.
type Monitor struct {
	log      *slog.Logger
	mu       sync.RWMutex
	latest   Stats
	proc     *process.Process
	interval time.Duration
	// sessions reports the presence registry's current size.
	sessions func() int
}

func NewMonitor(log *slog.Logger, interval time.Duration, sessions func() int) (*Monitor, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &Monitor{
		log:      log,
		proc:     proc,
		interval: interval,
		sessions: sessions,
	}, nil
}

// Run samples on a fixed interval until the context is canceled.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.sample()
	for {
		select {
		case <-ctx.Done():
			m.log.Debug("monitoring stopped")
			return nil
		case <-ticker.C:
			m.sample()
		}
	}
}

func (m *Monitor) sample() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := Stats{
		ActiveSessions: m.sessions(),
		Goroutines:     runtime.NumGoroutine(),
		AllocMemMB:     memStats.Alloc / 1024 / 1024,
		NumGC:          memStats.NumGC,
		SampledAt:      time.Now().UTC().Format(time.RFC3339),
	}

	if cpu, err := m.proc.CPUPercent(); err == nil {
		stats.ProcessCPUPct = cpu
	}
	if mem, err := m.proc.MemoryInfo(); err == nil {
		stats.ProcessRSSMB = mem.RSS / 1024 / 1024
	}

	m.mu.Lock()
	m.latest = stats
	m.mu.Unlock()

	m.log.Debug("stats sampled",
		"active_sessions", stats.ActiveSessions,
		"goroutines", stats.Goroutines,
		"alloc_mem_mb", stats.AllocMemMB,
	)
}

func (m *Monitor) Latest() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}
