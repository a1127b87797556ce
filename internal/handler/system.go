package handler

import (
	"Alertivo/pkg/middleware"
	"Alertivo/pkg/response"

	"github.com/gin-gonic/gin"
)

// Health 存活探针
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":      "ok",
		"connections": h.hub.ConnectionCount(),
	})
}

// TriggerSweep 手动触发一轮心跳巡检
func (h *Handlers) TriggerSweep(c *gin.Context) {
	demoted, err := h.monitor.Sweep()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "sweep completed", gin.H{"demoted": demoted})
}

// UpdateRateLimit 运行时调整限流配置
func (h *Handlers) UpdateRateLimit(c *gin.Context) {
	var cfg middleware.RateLimiterConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		response.Fail(c, "invalid rate limiter config", nil)
		return
	}
	h.limiter.UpdateConfig(cfg)
	response.Success(c, "rate limiter updated", h.limiter.Config())
}
