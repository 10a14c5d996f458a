package handlers

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/yuzvak/salesboard-service/internal/infrastructure/http/response"
	"github.com/yuzvak/salesboard-service/internal/pkg/logger"
)

// Check reports whether one dependency is reachable.
type Check func(ctx context.Context) error

type HealthHandler struct {
	checks    map[string]Check
	log       *logger.Logger
	startTime time.Time
}

func NewHealthHandler(checks map[string]Check, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		checks:    checks,
		log:       log,
		startTime: time.Now().UTC(),
	}
}

type MemoryMetrics struct {
	Alloc      uint64 `json:"alloc"`
	TotalAlloc uint64 `json:"total_alloc"`
	Sys        uint64 `json:"sys"`
	NumGC      uint32 `json:"num_gc"`
}

type HealthData struct {
	Status         string            `json:"status"`
	ServicesStatus map[string]string `json:"services_status"`
	Uptime         string            `json:"uptime"`
	Memory         MemoryMetrics     `json:"memory"`
	Goroutines     int               `json:"goroutines"`
}

func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "UP"
	services := map[string]string{"app": "UP"}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.log.Warn("Health check failed", "service", name, "error", err)
			services[name] = "DOWN"
			status = "DEGRADED"
			continue
		}
		services[name] = "UP"
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	data := HealthData{
		Status:         status,
		ServicesStatus: services,
		Uptime:         time.Since(h.startTime).String(),
		Memory: MemoryMetrics{
			Alloc:      mem.Alloc,
			TotalAlloc: mem.TotalAlloc,
			Sys:        mem.Sys,
			NumGC:      mem.NumGC,
		},
		Goroutines: runtime.NumGoroutine(),
	}

	code := http.StatusOK
	if status != "UP" {
		code = http.StatusServiceUnavailable
	}
	response.WriteJSON(w, code, response.Success(data))
}
