package handlers

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"
)

const healthPingTimeout = 2 * time.Second

// HealthHandler reports service liveness and dependency reachability.
type HealthHandler struct {
	Database    Pinger
	Cache       Pinger
	Environment string
	Production  bool
	StartedAt   time.Time
	NowFunc     func() time.Time
	LookupEnv   func(string) (string, bool)
}

type healthResponse struct {
	Status          string  `json:"status"`
	Timestamp       string  `json:"timestamp"`
	Uptime          float64 `json:"uptime"`
	Environment     string  `json:"environment"`
	PostgreSQL      string  `json:"postgresql"`
	PostgreSQLError string  `json:"postgresql_error,omitempty"`
	Redis           string  `json:"redis"`
	RedisError      string  `json:"redis_error,omitempty"`
}

type memoryInfo struct {
	Alloc      uint64 `json:"alloc"`
	TotalAlloc uint64 `json:"totalAlloc"`
	Sys        uint64 `json:"sys"`
	HeapInUse  uint64 `json:"heapInUse"`
	NumGC      uint32 `json:"numGC"`
}

type infoResponse struct {
	Go         string            `json:"go"`
	Platform   string            `json:"platform"`
	CPUs       int               `json:"cpus"`
	Goroutines int               `json:"goroutines"`
	Memory     memoryInfo        `json:"memory"`
	Env        map[string]string `json:"env"`
}

// Check handles GET /api/health. It answers 503 when either backing service
// fails its ping.
func (h HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := h.now()

	resp := healthResponse{
		Status:      "ok",
		Timestamp:   now.UTC().Format(time.RFC3339Nano),
		Environment: h.Environment,
	}
	if !h.StartedAt.IsZero() {
		resp.Uptime = now.Sub(h.StartedAt).Seconds()
	}

	resp.PostgreSQL, resp.PostgreSQLError = ping(ctx, h.Database)
	resp.Redis, resp.RedisError = ping(ctx, h.Cache)

	status := http.StatusOK
	if resp.PostgreSQL != "connected" || resp.Redis != "connected" {
		status = http.StatusServiceUnavailable
		resp.Status = "degraded"
	}

	respondJSON(ctx, w, status, resp)
}

// Info handles GET /api/health/info. It is disabled in production.
func (h HealthHandler) Info(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.Production {
		respondMessage(ctx, w, http.StatusForbidden, "not available in production")
		return
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	lookup := h.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	env := make(map[string]string, 2)
	for name, key := range map[string]string{
		"DATABASE_URL": "VIDEOHUB_DATABASE_URL",
		"REDIS_URL":    "VIDEOHUB_REDIS_URL",
	} {
		if value, ok := lookup(key); ok && value != "" {
			env[name] = "[defined]"
		} else {
			env[name] = "[undefined]"
		}
	}

	respondJSON(ctx, w, http.StatusOK, infoResponse{
		Go:         runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
		CPUs:       runtime.NumCPU(),
		Goroutines: runtime.NumGoroutine(),
		Memory: memoryInfo{
			Alloc:      mem.Alloc,
			TotalAlloc: mem.TotalAlloc,
			Sys:        mem.Sys,
			HeapInUse:  mem.HeapInuse,
			NumGC:      mem.NumGC,
		},
		Env: env,
	})
}

func (h HealthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now()
}

func ping(ctx context.Context, p Pinger) (string, string) {
	if p == nil {
		return "error", "not configured"
	}
	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		return "error", err.Error()
	}
	return "connected", ""
}
