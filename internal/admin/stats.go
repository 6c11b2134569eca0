// AngelaMos | 2026
// stats.go

package admin

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/admin-console/internal/activity"
	"github.com/carterperez-dev/admin-console/internal/core"
)

// Pinger reports whether a dependency answers.
type Pinger func(ctx context.Context) error

type StatsConfig struct {
	DBStats    func() sql.DBStats
	RedisStats func() *core.RedisPoolStats
	DBPing     Pinger
	RedisPing  Pinger
	Dispatcher func() activity.DispatcherStats
}

// StatsHandler serves the owner's view of the process: pool usage,
// dependency reachability and the activity queue.
type StatsHandler struct {
	dbStats    func() sql.DBStats
	redisStats func() *core.RedisPoolStats
	dbPing     Pinger
	redisPing  Pinger
	dispatcher func() activity.DispatcherStats
}

func NewStatsHandler(cfg StatsConfig) *StatsHandler {
	return &StatsHandler{
		dbStats:    cfg.DBStats,
		redisStats: cfg.RedisStats,
		dbPing:     cfg.DBPing,
		redisPing:  cfg.RedisPing,
		dispatcher: cfg.Dispatcher,
	}
}

func (h *StatsHandler) RegisterRoutes(
	r chi.Router,
	ownerOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/stats", func(r chi.Router) {
		r.Use(ownerOnly)

		r.Get("/", h.System)
		r.Get("/db", h.Database)
		r.Get("/redis", h.Redis)
		r.Get("/runtime", h.Runtime)
	})
}

func reachable(ctx context.Context, p Pinger) bool {
	if p == nil {
		return false
	}
	return p(ctx) == nil
}

func (h *StatsHandler) System(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp := SystemStatsResponse{
		Database: DatabaseStatus{
			Healthy: reachable(ctx, h.dbPing),
			Stats:   h.poolStats(),
		},
		Redis: RedisStatus{
			Healthy: reachable(ctx, h.redisPing),
			Stats:   h.redisPoolStats(),
		},
		Runtime: readRuntime(),
	}
	if h.dispatcher != nil {
		st := h.dispatcher()
		resp.Activity = &st
	}

	core.Success(w, http.StatusOK, "System stats retrieved successfully", resp)
}

func (h *StatsHandler) Database(w http.ResponseWriter, r *http.Request) {
	core.Success(w, http.StatusOK, "", h.poolStats())
}

func (h *StatsHandler) Redis(w http.ResponseWriter, r *http.Request) {
	core.Success(w, http.StatusOK, "", h.redisPoolStats())
}

func (h *StatsHandler) Runtime(w http.ResponseWriter, r *http.Request) {
	core.Success(w, http.StatusOK, "", readRuntime())
}

func readRuntime() RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     mem.Alloc,
		MemSys:       mem.Sys,
		NumGC:        mem.NumGC,
	}
}

func (h *StatsHandler) poolStats() *DBPoolStats {
	if h.dbStats == nil {
		return nil
	}

	stats := h.dbStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
		MaxIdleClosed:      stats.MaxIdleClosed,
		MaxIdleTimeClosed:  stats.MaxIdleTimeClosed,
		MaxLifetimeClosed:  stats.MaxLifetimeClosed,
	}
}

func (h *StatsHandler) redisPoolStats() *core.RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}
	return h.redisStats()
}

type SystemStatsResponse struct {
	Database DatabaseStatus            `json:"database"`
	Redis    RedisStatus               `json:"redis"`
	Runtime  RuntimeStats              `json:"runtime"`
	Activity *activity.DispatcherStats `json:"activity,omitempty"`
}

type DatabaseStatus struct {
	Healthy bool         `json:"healthy"`
	Stats   *DBPoolStats `json:"stats,omitempty"`
}

type RedisStatus struct {
	Healthy bool                 `json:"healthy"`
	Stats   *core.RedisPoolStats `json:"stats,omitempty"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
	MaxIdleClosed      int64  `json:"max_idle_closed"`
	MaxIdleTimeClosed  int64  `json:"max_idle_time_closed"`
	MaxLifetimeClosed  int64  `json:"max_lifetime_closed"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	MemSys       uint64 `json:"mem_sys_bytes"`
	NumGC        uint32 `json:"num_gc"`
}
