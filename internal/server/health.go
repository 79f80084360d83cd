package server

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"equity-valuator/internal/store"
)

// HealthStatus represents the health status of a component.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentHealth represents the health of a single component.
type ComponentHealth struct {
	Name      string                 `json:"name"`
	Status    HealthStatus           `json:"status"`
	Message   string                 `json:"message"`
	LatencyMs float64                `json:"latency_ms"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// HealthCheck represents a health check function.
type HealthCheck func(ctx context.Context) ComponentHealth

// SystemHealth is the /api/health response body.
type SystemHealth struct {
	Status        HealthStatus      `json:"status"`
	Message       string            `json:"message"`
	Uptime        string            `json:"uptime"`
	Components    []ComponentHealth `json:"components"`
	Goroutines    int               `json:"goroutines"`
	MemoryAllocMB uint64            `json:"memory_alloc_mb"`
}

// Health runs registered component checks on demand.
type Health struct {
	mu                 sync.RWMutex
	startTime          time.Time
	components         map[string]HealthCheck
	timeout            time.Duration
	memoryThreshold    uint64
	goroutineThreshold int
}

// NewHealth creates a health registry with the memory and goroutine checks.
func NewHealth() *Health {
	h := &Health{
		startTime:          time.Now(),
		components:         make(map[string]HealthCheck),
		timeout:            5 * time.Second,
		memoryThreshold:    500 * 1024 * 1024,
		goroutineThreshold: 1000,
	}
	h.Register("memory", h.checkMemory)
	h.Register("goroutines", h.checkGoroutines)
	return h
}

// Register registers a health check for a component.
func (h *Health) Register(name string, check HealthCheck) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.components[name] = check
}

// Check runs every component check concurrently. A check that panics is
// reported unhealthy.
func (h *Health) Check(ctx context.Context) SystemHealth {
	h.mu.RLock()
	components := make(map[string]HealthCheck, len(h.components))
	for k, v := range h.components {
		components[k] = v
	}
	h.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make([]ComponentHealth, 0, len(components))
		wg      conc.WaitGroup
	)
	for name, check := range components {
		name, check := name, check
		wg.Go(func() {
			start := time.Now()
			health := runCheck(ctx, check)
			health.Name = name
			health.LatencyMs = float64(time.Since(start).Microseconds()) / 1000

			mu.Lock()
			results = append(results, health)
			mu.Unlock()
		})
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	overall := HealthStatusHealthy
	for _, c := range results {
		switch c.Status {
		case HealthStatusUnhealthy:
			overall = HealthStatusUnhealthy
		case HealthStatusDegraded:
			if overall == HealthStatusHealthy {
				overall = HealthStatusDegraded
			}
		}
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return SystemHealth{
		Status:        overall,
		Message:       "Valuation API is running",
		Uptime:        time.Since(h.startTime).Round(time.Second).String(),
		Components:    results,
		Goroutines:    runtime.NumGoroutine(),
		MemoryAllocMB: memStats.Alloc / 1024 / 1024,
	}
}

func runCheck(ctx context.Context, check HealthCheck) (health ComponentHealth) {
	defer func() {
		if r := recover(); r != nil {
			health = ComponentHealth{
				Status:  HealthStatusUnhealthy,
				Message: fmt.Sprintf("Panic recovered: %v", r),
			}
		}
	}()
	return check(ctx)
}

func (h *Health) checkMemory(context.Context) ComponentHealth {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	health := ComponentHealth{
		Details: map[string]interface{}{
			"alloc_mb": memStats.Alloc / 1024 / 1024,
			"sys_mb":   memStats.Sys / 1024 / 1024,
			"num_gc":   memStats.NumGC,
		},
	}

	if memStats.Alloc > h.memoryThreshold {
		health.Status = HealthStatusDegraded
		health.Message = fmt.Sprintf("Memory usage high: %d MB", memStats.Alloc/1024/1024)
	} else {
		health.Status = HealthStatusHealthy
		health.Message = fmt.Sprintf("Memory usage: %d MB", memStats.Alloc/1024/1024)
	}
	return health
}

func (h *Health) checkGoroutines(context.Context) ComponentHealth {
	n := runtime.NumGoroutine()
	health := ComponentHealth{Details: map[string]interface{}{"count": n}}

	if n > h.goroutineThreshold {
		health.Status = HealthStatusDegraded
		health.Message = fmt.Sprintf("High goroutine count: %d", n)
	} else {
		health.Status = HealthStatusHealthy
		health.Message = fmt.Sprintf("Goroutine count: %d", n)
	}
	return health
}

const probeKey = "health:probe"

// CacheHealthCheck round-trips a probe entry through the snapshot cache.
func CacheHealthCheck(cache store.SnapshotCache) HealthCheck {
	return func(ctx context.Context) ComponentHealth {
		health := ComponentHealth{Details: map[string]interface{}{"backend": cache.Name()}}

		if cache.Name() == store.BackendNone {
			health.Status = HealthStatusHealthy
			health.Message = "Caching disabled"
			return health
		}

		if err := cache.Set(ctx, probeKey, []byte("ok"), time.Minute); err != nil {
			health.Status = HealthStatusUnhealthy
			health.Message = fmt.Sprintf("Cache write failed: %v", err)
			return health
		}
		_, err := cache.Get(ctx, probeKey)
		switch {
		case err == nil:
			health.Status = HealthStatusHealthy
			health.Message = "Cache reachable"
		case errors.Is(err, context.DeadlineExceeded):
			health.Status = HealthStatusUnhealthy
			health.Message = "Cache read timed out"
		default:
			health.Status = HealthStatusDegraded
			health.Message = fmt.Sprintf("Cache read failed: %v", err)
		}
		_ = cache.Delete(ctx, probeKey)
		return health
	}
}

// BreakerHealthCheck reports the upstream circuit breaker state.
func BreakerHealthCheck(state func() string) HealthCheck {
	return func(context.Context) ComponentHealth {
		s := state()
		health := ComponentHealth{Details: map[string]interface{}{"state": s}}

		switch s {
		case "open":
			health.Status = HealthStatusUnhealthy
			health.Message = "Market data circuit open"
		case "half-open":
			health.Status = HealthStatusDegraded
			health.Message = "Market data circuit recovering"
		default:
			health.Status = HealthStatusHealthy
			health.Message = "Market data available"
		}
		return health
	}
}
