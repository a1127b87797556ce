package models

import (
	"time"

	"Alertivo/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 上报类型
const (
	ReportTypeSecurity = "security"
	ReportTypeMedical  = "medical"
	ReportTypeFire     = "fire"
)

// 上报状态
const (
	ReportStatusPending   = "pending"
	ReportStatusCompleted = "completed"
)

// EmergencyReport 紧急上报，除 status 外创建后不再变更
type EmergencyReport struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	Type          string     `gorm:"size:16;not null;index" json:"type"`
	Lat           float64    `gorm:"not null" json:"lat"`
	Lng           float64    `gorm:"not null" json:"lng"`
	Address       string     `gorm:"size:255" json:"address"`
	Details       string     `json:"details"`
	Notes         string     `json:"notes"` // 医疗表单的自由文本
	Urgency       string     `gorm:"size:16" json:"urgency"`
	ContactMethod string     `gorm:"size:16" json:"contact_method"`
	AdditionalRaw string     `gorm:"type:text" json:"-"` // additional_info 原样 JSON
	CreatedByUID  string     `gorm:"size:64;not null;index" json:"created_by_uid"`
	DisplayCode   string     `gorm:"size:32" json:"display_code"`
	Status        string     `gorm:"size:16;not null;default:pending" json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// CreateReportInput 入参
type CreateReportInput struct {
	Type          string
	Lat           *float64
	Lng           *float64
	Address       string
	Details       string
	Notes         string
	Urgency       string
	ContactMethod string
	AdditionalRaw string
	CreatedByUID  string
	DisplayCode   string
}

// CreateEmergencyReport 校验并落库，返回持久化后的上报
// 路由分发由 dispatch 层异步完成，调用方拿到 report id 即可返回
func CreateEmergencyReport(db *gorm.DB, in CreateReportInput) (*EmergencyReport, error) {
	switch in.Type {
	case ReportTypeSecurity, ReportTypeMedical, ReportTypeFire:
	case "":
		return nil, errors.Validation("missing required emergency fields")
	default:
		return nil, errors.WithCodef(errors.CodeValidation, "unknown report type: %s", in.Type)
	}
	if in.Lat == nil || in.Lng == nil || in.CreatedByUID == "" {
		return nil, errors.Validation("missing required emergency fields")
	}

	report := &EmergencyReport{
		ID:            uuid.NewString(),
		Type:          in.Type,
		Lat:           *in.Lat,
		Lng:           *in.Lng,
		Address:       in.Address,
		Details:       in.Details,
		Notes:         in.Notes,
		Urgency:       in.Urgency,
		ContactMethod: in.ContactMethod,
		AdditionalRaw: in.AdditionalRaw,
		CreatedByUID:  in.CreatedByUID,
		DisplayCode:   in.DisplayCode,
		Status:        ReportStatusPending,
	}
	if report.Urgency == "" {
		report.Urgency = "medium"
	}
	if report.ContactMethod == "" {
		report.ContactMethod = "chat"
	}
	if report.DisplayCode == "" {
		report.DisplayCode = "ANON"
	}

	if err := db.Create(report).Error; err != nil {
		return nil, errors.Internal(err, "failed to persist report")
	}
	return report, nil
}

// GetReport 按 id 取上报
func GetReport(db *gorm.DB, id string) (*EmergencyReport, error) {
	var r EmergencyReport
	if err := db.First(&r, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("report not found")
		}
		return nil, errors.Internal(err, "failed to load report")
	}
	return &r, nil
}
