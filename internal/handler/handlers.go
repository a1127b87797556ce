package handler

import (
	"time"

	"Alertivo/internal/dispatch"
	"Alertivo/pkg/cache"
	"Alertivo/pkg/middleware"
	"Alertivo/pkg/notification"
	"Alertivo/pkg/stream"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handlers HTTP 处理器集合，依赖注入便于测试
type Handlers struct {
	db        *gorm.DB
	router    *dispatch.Router
	monitor   *dispatch.LivenessMonitor
	hub       *stream.Hub
	mailer    notification.OTPSender
	limiter   *middleware.RateLimiter
	otpDomain string
}

func NewHandlers(
	db *gorm.DB,
	router *dispatch.Router,
	monitor *dispatch.LivenessMonitor,
	hub *stream.Hub,
	mailer notification.OTPSender,
	limiter *middleware.RateLimiter,
	otpDomain string,
) *Handlers {
	return &Handlers{
		db:        db,
		router:    router,
		monitor:   monitor,
		hub:       hub,
		mailer:    mailer,
		limiter:   limiter,
		otpDomain: otpDomain,
	}
}

// RegisterRoutes 挂载全部路由
// 警报状态操作挂幂等中间件：通道 at-least-once，重放在入口被拦
func (h *Handlers) RegisterRoutes(r *gin.Engine, prefix string, store cache.Cache) {
	idem := middleware.IdempotencyMiddleware(middleware.IdempotencyConfig{
		TTL:   10 * time.Minute,
		Store: store,
	})

	api := r.Group(prefix)
	{
		api.POST("/reports", h.CreateReport)
		api.GET("/reports/:id", h.GetReport)

		api.POST("/responders", h.RegisterResponder)
		api.GET("/responders/:uid", h.GetResponder)
		api.POST("/responders/:uid/heartbeat", h.Heartbeat)
		api.PUT("/responders/:uid/status", h.SetResponderStatus)

		api.GET("/alerts", h.ListAlerts)
		api.GET("/alerts/stream", h.StreamAlerts)
		api.GET("/alerts/:id", h.GetAlert)
		api.POST("/alerts/:id/accept", idem, h.AcceptAlert)
		api.POST("/alerts/:id/decline", idem, h.DeclineAlert)
		api.POST("/alerts/:id/complete", idem, h.CompleteEmergency)

		api.GET("/departments/:department/emergencies", h.ListDepartmentEmergencies)

		api.POST("/auth/otp/request", h.RequestOTP)
		api.POST("/auth/otp/verify", h.VerifyOTP)
	}

	r.GET("/health", h.Health)
	admin := r.Group(prefix + "/admin")
	{
		admin.POST("/sweep", h.TriggerSweep)
		admin.PUT("/rate-limit", h.UpdateRateLimit)
	}
}
