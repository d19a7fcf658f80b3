package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// BreakerStates reports each remote breaker. infra.BreakerSet implements it.
type BreakerStates interface {
	States() map[string]string
}

// SyncStatus reports whether remote sync is switched on.
type SyncStatus interface {
	Active(ctx context.Context) bool
}

// Health returns a JSON health check response. The store must answer; a nil
// db means an in-process store. Redis and sync are optional and reported as
// "disabled" when absent.
func Health(db *gorm.DB, rdb *redis.Client, sync SyncStatus, breakers BreakerStates) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		if db != nil {
			sqlDB, err := db.DB()
			if err != nil || sqlDB.PingContext(ctx) != nil {
				dbStatus = "error"
			}
		}

		redisStatus := "disabled"
		if rdb != nil {
			redisStatus = "connected"
			if rdb.Ping(ctx).Err() != nil {
				redisStatus = "error"
			}
		}

		syncStatus := "disabled"
		if sync != nil && sync.Active(ctx) {
			syncStatus = "enabled"
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus == "error" {
			status = http.StatusServiceUnavailable
		}

		body := gin.H{
			"ok":    status == http.StatusOK,
			"store": dbStatus,
			"redis": redisStatus,
			"sync":  syncStatus,
		}
		// An open breaker degrades a feature to its fallback; it is not an outage.
		if breakers != nil {
			body["breakers"] = breakers.States()
		}
		c.JSON(status, body)
	}
}
