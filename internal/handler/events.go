package handler

import (
	"github.com/33hpS/PRISE-WAS-PRO2/internal/realtime"

	"github.com/gin-gonic/gin"
)

// Events GET /v1/ws upgrades to a websocket that streams catalog changes.
func Events(hub *realtime.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		realtime.ServeWS(hub, c.Writer, c.Request)
	}
}
