package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jimdaga/pomodo/internal/database"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Handler answers liveness probes.
func Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// Ready reports whether the database, and Redis when configured, answer.
// rdb may be nil.
func Ready(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := database.Ping(db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false, "reason": "database not ready"})
			return
		}
		if rdb != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := rdb.Ping(ctx).Err(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false, "reason": "redis not ready"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"ready": true})
	}
}
