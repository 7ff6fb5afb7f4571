package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mudassirfayaz/Kings-Properties/browser"
	"github.com/mudassirfayaz/Kings-Properties/models"
)

// Health returns a handler for GET /api/v1/health.
//
// Reports browser connectivity; status degrades when the session is gone.
func Health(session *browser.Session, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := session.Stats()

		status := "healthy"
		if !stats.Connected {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Browser: stats,
			Version: "1.0.0",
		})
	}
}
