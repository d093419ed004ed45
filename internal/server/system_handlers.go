package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/aristath/minesim/internal/di"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemHandlers handles system monitoring endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	container   *di.Container
	startupTime time.Time
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(log zerolog.Logger, container *di.Container) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("handler", "system").Logger(),
		container:   container,
		startupTime: time.Now(),
	}
}

// SystemStatusResponse is returned by /api/system/status
type SystemStatusResponse struct {
	Status        string  `json:"status"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	Workers       int     `json:"workers"`
	MaxTrials     int     `json:"max_trials"`
	Goroutines    int     `json:"goroutines"`
	GoVersion     string  `json:"go_version"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	ArchiveOK     bool    `json:"archive_ok"`
	LastChecked   string  `json:"last_checked"`
}

// DatabaseStatsResponse is returned by /api/system/database/stats
type DatabaseStatsResponse struct {
	Name        string  `json:"name"`
	Path        string  `json:"path"`
	SizeMB      float64 `json:"size_mb"`
	WALSizeMB   float64 `json:"wal_size_mb"`
	PageCount   int64   `json:"page_count"`
	PageSize    int64   `json:"page_size"`
	LastChecked string  `json:"last_checked"`
}

// HandleSystemStatus returns host load and simulation capacity
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	cpuPercent, memPercent := h.getSystemStats()
	response := SystemStatusResponse{
		Status:        "healthy",
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		Goroutines:    runtime.NumGoroutine(),
		GoVersion:     runtime.Version(),
		UptimeSeconds: int64(time.Since(h.startupTime).Seconds()),
		LastChecked:   time.Now().Format(time.RFC3339),
	}

	if h.container != nil {
		if svc := h.container.ScenarioService; svc != nil {
			response.Workers = svc.Workers()
			response.MaxTrials = svc.MaxTrials()
		}
		if db := h.container.ArchiveDB; db != nil {
			if err := db.HealthCheck(r.Context()); err != nil {
				h.log.Warn().Err(err).Msg("Archive health check failed")
				response.Status = "degraded"
			} else {
				response.ArchiveOK = true
			}
		}
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleDatabaseStats returns archive database statistics
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	if h.container == nil || h.container.ArchiveDB == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Archive not configured"})
		return
	}
	db := h.container.ArchiveDB

	stats, err := db.GetStats()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get archive stats")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to get database stats"})
		return
	}

	h.writeJSON(w, http.StatusOK, DatabaseStatsResponse{
		Name:        db.Name(),
		Path:        db.Path(),
		SizeMB:      float64(stats.SizeBytes) / 1024 / 1024,
		WALSizeMB:   float64(stats.WALSizeBytes) / 1024 / 1024,
		PageCount:   stats.PageCount,
		PageSize:    stats.PageSize,
		LastChecked: time.Now().Format(time.RFC3339),
	})
}

// getSystemStats calculates CPU and RAM usage percentages over a short 100ms window
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
