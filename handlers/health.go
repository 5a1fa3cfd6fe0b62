package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (hb *HandlerBundle) LivenessHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}

// ReadinessHandler probes every dependency and answers 503 if any is down.
func (hb *HandlerBundle) ReadinessHandler(c *gin.Context) {
	if hb.Health == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	status := hb.Health.Check(c.Request.Context())
	if !status.Healthy() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "health": status})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "health": status})
}
