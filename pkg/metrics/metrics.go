package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 调度核心的可观测计数器
var (
	ReportsRouted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alertivo_reports_routed_total",
		Help: "Emergency reports routed, by type",
	}, []string{"type"})

	Assignments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alertivo_assignments_total",
		Help: "Nearest-match assignment outcomes",
	}, []string{"outcome"}) // assigned | unassigned

	SweepDemotions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alertivo_sweep_demotions_total",
		Help: "Responders demoted to inactive by the liveness sweep",
	})

	OTPDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alertivo_otp_denials_total",
		Help: "OTP gate denials, by reason",
	}, []string{"reason"}) // rate_limited | locked | invalid

	PushFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alertivo_push_failures_total",
		Help: "Best-effort push notification failures",
	})
)

// Handler /metrics 路由
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) { h.ServeHTTP(c.Writer, c.Request) }
}
