package models

import (
	"time"

	"Alertivo/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 审计动作
const (
	AuditOTPSent      = "OTP_SENT"
	AuditOTPFailed    = "OTP_FAILED"
	AuditUserVerified = "USER_VERIFIED"
)

// AuditLog 只追加，不修改
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Action    string    `gorm:"size:32;not null;index" json:"action"`
	Email     string    `gorm:"size:255;index" json:"email"`
	UID       string    `gorm:"size:36" json:"uid"`
	Details   string    `gorm:"type:text" json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

// AppendAudit 追加审计记录，失败只记日志——审计不能拖垮主流程
func AppendAudit(db *gorm.DB, action, email, uid, details string) {
	entry := &AuditLog{Action: action, Email: email, UID: uid, Details: details}
	if err := db.Create(entry).Error; err != nil {
		logger.Warn("failed to append audit log", zap.String("action", action), zap.Error(err))
	}
}
