package models

import (
	"time"

	"Alertivo/pkg/errors"

	"gorm.io/gorm"
)

// 警报状态机：pending → accepted | declined，accepted → completed
// declined / completed 为终态
const (
	AlertPending   = "pending"
	AlertAccepted  = "accepted"
	AlertDeclined  = "declined"
	AlertCompleted = "completed"
)

// Alert 派警记录，id 与上报 id 相同
type Alert struct {
	ID                string     `gorm:"primaryKey;size:36" json:"id"`
	EmergencyID       string     `gorm:"size:36;not null;index" json:"emergency_id"`
	Type              string     `gorm:"size:16;not null" json:"type"`
	Details           string     `json:"details"`
	Urgency           string     `gorm:"size:16" json:"urgency"`
	CreatedByUID      string     `gorm:"size:64" json:"created_by_uid"`
	DisplayCode       string     `gorm:"size:32" json:"display_code"`
	Lat               float64    `json:"lat"`
	Lng               float64    `json:"lng"`
	Address           string     `gorm:"size:255" json:"address"`
	AssignedResponder *string    `gorm:"size:64;index" json:"assigned_responder,omitempty"`
	ResponderUID      *string    `gorm:"size:64" json:"responder_uid,omitempty"`
	Status            string     `gorm:"size:16;not null;default:pending;index" json:"status"`
	RoutedAt          time.Time  `json:"routed_at"`
	AcceptedAt        *time.Time `json:"accepted_at,omitempty"`
	DeclinedAt        *time.Time `json:"declined_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

// CreateAlert 写入派警记录（仅 security 上报）
func CreateAlert(db *gorm.DB, report *EmergencyReport, assignedUID *string) (*Alert, error) {
	a := &Alert{
		ID:                report.ID,
		EmergencyID:       report.ID,
		Type:              report.Type,
		Details:           report.Details,
		Urgency:           report.Urgency,
		CreatedByUID:      report.CreatedByUID,
		DisplayCode:       report.DisplayCode,
		Lat:               report.Lat,
		Lng:               report.Lng,
		Address:           report.Address,
		AssignedResponder: assignedUID,
		Status:            AlertPending,
		RoutedAt:          time.Now(),
	}
	if err := db.Create(a).Error; err != nil {
		return nil, errors.Internal(err, "failed to create alert")
	}
	return a, nil
}

// AcceptAlert pending → accepted，条件更新拒掉迟到/重复请求
// 同步把响应者置 busy（派单时已 busy 则为幂等刷新）
func AcceptAlert(db *gorm.DB, alertID, responderUID string) error {
	if alertID == "" || responderUID == "" {
		return errors.Validation("missing alertId or responderId")
	}
	now := time.Now()
	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Alert{}).
			Where("id = ? AND status = ?", alertID, AlertPending).
			Updates(map[string]interface{}{
				"status":        AlertAccepted,
				"accepted_at":   now,
				"responder_uid": responderUID,
			})
		if res.Error != nil {
			return errors.Internal(res.Error, "failed to accept alert")
		}
		if res.RowsAffected == 0 {
			var a Alert
			if err := tx.First(&a, "id = ?", alertID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errors.NotFound("alert not found")
				}
				return errors.Internal(err, "failed to load alert")
			}
			return errors.WithCodef(errors.CodeConflict, "alert is %s, not pending", a.Status)
		}

		// 幂等：派单路径可能已经置 busy。0 行说明响应者不存在，整体回滚
		busy := tx.Model(&Responder{}).Where("uid = ?", responderUID).Updates(map[string]interface{}{
			"status":             ResponderBusy,
			"assigned_emergency": alertID,
		})
		if busy.Error != nil {
			return errors.Internal(busy.Error, "failed to mark responder busy")
		}
		if busy.RowsAffected == 0 {
			return errors.NotFound("responder not found")
		}
		return nil
	})
}

// DeclineAlert pending → declined（终态）
// 被指派的响应者同时放回可用池，避免占用泄漏
func DeclineAlert(db *gorm.DB, alertID string) error {
	if alertID == "" {
		return errors.Validation("missing alertId")
	}
	now := time.Now()
	return db.Transaction(func(tx *gorm.DB) error {
		var a Alert
		if err := tx.First(&a, "id = ?", alertID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.NotFound("alert not found")
			}
			return errors.Internal(err, "failed to load alert")
		}

		res := tx.Model(&Alert{}).
			Where("id = ? AND status = ?", alertID, AlertPending).
			Updates(map[string]interface{}{
				"status":      AlertDeclined,
				"declined_at": now,
			})
		if res.Error != nil {
			return errors.Internal(res.Error, "failed to decline alert")
		}
		if res.RowsAffected == 0 {
			return errors.WithCodef(errors.CodeConflict, "alert is %s, not pending", a.Status)
		}

		if a.AssignedResponder != nil {
			if err := tx.Model(&Responder{}).
				Where("uid = ? AND assigned_emergency = ?", *a.AssignedResponder, alertID).
				Updates(map[string]interface{}{
					"status":             ResponderActive,
					"assigned_emergency": nil,
					"last_active_at":     now,
				}).Error; err != nil {
				return errors.Internal(err, "failed to release responder")
			}
		}
		return nil
	})
}

// CompleteEmergency 完结：响应者回到 active，上报与警报置 completed
func CompleteEmergency(db *gorm.DB, responderUID, emergencyID string) error {
	if responderUID == "" || emergencyID == "" {
		return errors.Validation("missing responderUID or emergencyId")
	}
	now := time.Now()
	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Responder{}).Where("uid = ?", responderUID).Updates(map[string]interface{}{
			"status":             ResponderActive,
			"assigned_emergency": nil,
			"last_active_at":     now,
		})
		if res.Error != nil {
			return errors.Internal(res.Error, "failed to restore responder")
		}
		if res.RowsAffected == 0 {
			return errors.NotFound("responder not found")
		}

		res = tx.Model(&EmergencyReport{}).Where("id = ?", emergencyID).Updates(map[string]interface{}{
			"status":       ReportStatusCompleted,
			"completed_at": now,
		})
		if res.Error != nil {
			return errors.Internal(res.Error, "failed to complete report")
		}
		if res.RowsAffected == 0 {
			return errors.NotFound("emergency not found")
		}

		// security 上报才有警报记录，accepted → completed
		if err := tx.Model(&Alert{}).
			Where("id = ? AND status = ?", emergencyID, AlertAccepted).
			Updates(map[string]interface{}{
				"status":       AlertCompleted,
				"completed_at": now,
			}).Error; err != nil {
			return errors.Internal(err, "failed to complete alert")
		}
		return nil
	})
}

// GetAlert 按 id 取警报
func GetAlert(db *gorm.DB, id string) (*Alert, error) {
	var a Alert
	if err := db.First(&a, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("alert not found")
		}
		return nil, errors.Internal(err, "failed to load alert")
	}
	return &a, nil
}

// ListAlertsForResponder 重连客户端拉取自己名下的警报
func ListAlertsForResponder(db *gorm.DB, responderUID, status string) ([]Alert, error) {
	q := db.Where("assigned_responder = ?", responderUID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []Alert
	if err := q.Order("routed_at desc").Find(&out).Error; err != nil {
		return nil, errors.Internal(err, "failed to list alerts")
	}
	return out, nil
}
