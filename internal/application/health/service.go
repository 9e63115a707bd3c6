package health

import (
	"context"
	"strconv"
	"time"

	"homilet-backend/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// DBPinger is optional for the probe. If nil, database reports disconnected.
type DBPinger interface {
	Ping() error
}

type DepStatus struct {
	Status string      `json:"status"`
	PingMs interface{} `json:"pingMs"`
}

type TrafficInfo struct {
	TotalRequests int    `json:"totalRequests"`
	FailedCount   int    `json:"failedCount"`
	SuccessRate   string `json:"successRate"`
}

type Result struct {
	Status       string               `json:"status"`
	Dependencies map[string]DepStatus `json:"dependencies"`
	Traffic      TrafficInfo          `json:"traffic"`
}

// Collect pings the database and Redis and folds in the request counters the
// metrics middleware keeps.
func Collect(ctx context.Context, rdb *redis.Client, db DBPinger) Result {
	result := Result{
		Status:       "ok",
		Dependencies: make(map[string]DepStatus),
		Traffic:      TrafficInfo{SuccessRate: "100"},
	}

	dbStatus := "disconnected"
	var dbPingMs *int64
	if db != nil {
		start := time.Now()
		if err := db.Ping(); err == nil {
			ms := time.Since(start).Milliseconds()
			dbPingMs = &ms
			dbStatus = "connected"
		} else {
			dbStatus = "error"
			result.Status = "degraded"
		}
	}
	result.Dependencies["database"] = DepStatus{Status: dbStatus, PingMs: dbPingMs}

	redisStatus := "disconnected"
	var redisPingMs *int64
	if rdb != nil {
		start := time.Now()
		if err := rdb.Ping(ctx).Err(); err == nil {
			ms := time.Since(start).Milliseconds()
			redisPingMs = &ms
			redisStatus = "connected"

			total, _ := rdb.Get(ctx, middleware.KeyReqTotal).Result()
			failed, _ := rdb.Get(ctx, middleware.KeyReqErrors).Result()
			result.Traffic.TotalRequests, _ = strconv.Atoi(total)
			result.Traffic.FailedCount, _ = strconv.Atoi(failed)
			if result.Traffic.TotalRequests > 0 {
				ok := result.Traffic.TotalRequests - result.Traffic.FailedCount
				rate := float64(ok) / float64(result.Traffic.TotalRequests) * 100
				result.Traffic.SuccessRate = strconv.FormatFloat(rate, 'f', 1, 64)
			}
		} else {
			redisStatus = "error"
		}
	}
	result.Dependencies["redis"] = DepStatus{Status: redisStatus, PingMs: redisPingMs}

	return result
}
