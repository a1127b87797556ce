package models

import "gorm.io/gorm"

// 信号名，listeners 在启动时订阅
const (
	SigAlertAssigned = "alert:assigned" // sender: *Alert，params[0]: *Responder（可能为 nil）
	SigReportRouted  = "report:routed"  // sender: *EmergencyReport
)

// AutoMigrate 建表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&EmergencyReport{},
		&DepartmentEmergency{},
		&Alert{},
		&Responder{},
		&User{},
		&OTPChallenge{},
		&RateLimitRecord{},
		&LockoutRecord{},
		&AuditLog{},
	)
}
