package models

import (
	"time"

	"Alertivo/pkg/errors"

	"gorm.io/gorm"
)

// 部门路由目标
const (
	DepartmentClinic   = "clinic"
	DepartmentFireDept = "fire_dept"
)

// DepartmentEmergency 部门应急清单条目（medical / fire 的路由终点）
type DepartmentEmergency struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Department string    `gorm:"size:32;not null;index" json:"department"`
	ReportID   string    `gorm:"size:36;not null;uniqueIndex" json:"report_id"`
	Type       string    `gorm:"size:16;not null" json:"type"`
	Urgency    string    `gorm:"size:16" json:"urgency"`
	RoutedAt   time.Time `json:"routed_at"`
}

// RouteToDepartment 把上报挂到部门清单
func RouteToDepartment(db *gorm.DB, department string, report *EmergencyReport) error {
	entry := &DepartmentEmergency{
		Department: department,
		ReportID:   report.ID,
		Type:       report.Type,
		Urgency:    report.Urgency,
		RoutedAt:   time.Now(),
	}
	if err := db.Create(entry).Error; err != nil {
		return errors.Internal(err, "failed to route report to department")
	}
	return nil
}

// ListDepartmentEmergencies 部门视角的上报清单
func ListDepartmentEmergencies(db *gorm.DB, department string) ([]EmergencyReport, error) {
	var ids []string
	if err := db.Model(&DepartmentEmergency{}).
		Where("department = ?", department).
		Order("routed_at desc").
		Pluck("report_id", &ids).Error; err != nil {
		return nil, errors.Internal(err, "failed to list department emergencies")
	}
	if len(ids) == 0 {
		return []EmergencyReport{}, nil
	}
	var out []EmergencyReport
	if err := db.Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, errors.Internal(err, "failed to load department reports")
	}
	return out, nil
}
