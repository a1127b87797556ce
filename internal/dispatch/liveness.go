package dispatch

import (
	"context"
	"time"

	"Alertivo/internal/models"
	"Alertivo/pkg/errors"
	"Alertivo/pkg/logger"
	"Alertivo/pkg/metrics"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LivenessMonitor 周期巡检：心跳超时的 active 响应者降级为 inactive
type LivenessMonitor struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewLivenessMonitor(db *gorm.DB, timeout time.Duration) *LivenessMonitor {
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	return &LivenessMonitor{db: db, timeout: timeout}
}

// Sweep 单轮巡检，返回降级数量
//
// 只扫 status=active，重复执行天然幂等。降级是条件更新：
// WHERE 里复核 last_heartbeat 仍然过期，竞争中的新心跳总是赢。
// 单条失败记日志跳过，不中断整轮。
func (m *LivenessMonitor) Sweep() (int, error) {
	now := time.Now()
	cutoff := now.Add(-m.timeout)

	responders, err := models.ListActiveResponders(m.db)
	if err != nil {
		return 0, err
	}

	demoted := 0
	for i := range responders {
		r := &responders[i]
		ts := r.LastHeartbeat
		if ts == nil {
			ts = r.LastActiveAt // 从未上报过心跳时退回最近活跃时间
		}
		if ts != nil && !ts.Before(cutoff) {
			continue
		}

		res := m.db.Model(&models.Responder{}).
			Where("uid = ? AND status = ? AND (last_heartbeat IS NULL OR last_heartbeat < ?)",
				r.UID, models.ResponderActive, cutoff).
			Updates(map[string]interface{}{
				"status":           models.ResponderInactive,
				"last_inactive_at": now,
			})
		if res.Error != nil {
			logger.Warn("failed to demote responder, continuing sweep",
				zap.String("uid", r.UID), zap.Error(res.Error))
			continue
		}
		if res.RowsAffected > 0 {
			demoted++
			logger.Info("responder marked inactive due to heartbeat timeout",
				zap.String("uid", r.UID))
		}
	}

	metrics.SweepDemotions.Add(float64(demoted))
	return demoted, nil
}

// Run 调度器入口
func (m *LivenessMonitor) Run(ctx context.Context) {
	if _, err := m.Sweep(); err != nil {
		logger.Error("liveness sweep failed", zap.Error(errors.Cause(err)))
	}
}
