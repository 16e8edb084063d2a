package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemStatus represents the complete operational status response.
type SystemStatus struct {
	Timestamp     string        `json:"timestamp"`
	Version       string        `json:"version"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	Runtime       RuntimeStatus `json:"runtime"`
	Poll          PollStatus    `json:"poll"`
	Devices       DevicesStatus `json:"devices"`
}

// RuntimeStatus contains Go runtime statistics.
type RuntimeStatus struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// PollStatus contains poll loop health.
type PollStatus struct {
	LastCycleOK   bool   `json:"last_cycle_ok"`
	LastSuccessAt string `json:"last_success_at,omitempty"`
	StalenessSecs int64  `json:"staleness_seconds,omitempty"`
}

// DevicesStatus contains device inventory statistics.
type DevicesStatus struct {
	Total int `json:"total"`
}

// handleStatus returns operational status for humans and dashboards.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	status := SystemStatus{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeStatus{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		Devices: DevicesStatus{
			Total: s.registry.DeviceCount(),
		},
	}

	lastOK, lastAt := s.registry.PollHealth()
	status.Poll.LastCycleOK = lastOK
	if !lastAt.IsZero() {
		status.Poll.LastSuccessAt = lastAt.UTC().Format(time.RFC3339)
		status.Poll.StalenessSecs = int64(time.Since(lastAt).Seconds())
	}

	writeJSON(w, http.StatusOK, status)
}
