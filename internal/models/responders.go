package models

import (
	"time"

	"Alertivo/pkg/errors"

	"gorm.io/gorm"
)

// 响应者状态
const (
	ResponderActive   = "active"
	ResponderBusy     = "busy"
	ResponderInactive = "inactive"
)

// Responder 在场响应者注册表项
// assigned_emergency 与 busy 状态同生共死：赋值即 busy，清空即脱离 busy
type Responder struct {
	UID               string     `gorm:"primaryKey;size:64" json:"uid"`
	Name              string     `gorm:"size:64" json:"name"`
	Status            string     `gorm:"size:16;not null;default:inactive;index" json:"status"`
	Lat               *float64   `json:"lat,omitempty"`
	Lng               *float64   `json:"lng,omitempty"`
	LocationUpdatedAt *time.Time `json:"location_updated_at,omitempty"`
	LastHeartbeat     *time.Time `json:"last_heartbeat,omitempty"`
	LastActiveAt      *time.Time `json:"last_active_at,omitempty"`
	LastInactiveAt    *time.Time `json:"last_inactive_at,omitempty"`
	AssignedEmergency *string    `gorm:"size:36" json:"assigned_emergency,omitempty"`
	ExpoPushToken     string     `gorm:"size:255" json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// RegisterResponderInput 注册入参
type RegisterResponderInput struct {
	UID           string
	Name          string
	ExpoPushToken string
}

// RegisterResponder 创建注册表项，重复注册只刷新名称与推送令牌
func RegisterResponder(db *gorm.DB, in RegisterResponderInput) (*Responder, error) {
	if in.UID == "" {
		return nil, errors.Validation("missing responder uid")
	}
	r := &Responder{UID: in.UID, Name: in.Name, Status: ResponderInactive, ExpoPushToken: in.ExpoPushToken}
	err := db.Where("uid = ?", in.UID).
		Assign(map[string]interface{}{"name": in.Name, "expo_push_token": in.ExpoPushToken}).
		FirstOrCreate(r).Error
	if err != nil {
		return nil, errors.Internal(err, "failed to register responder")
	}
	return r, nil
}

// RecordHeartbeat 刷新心跳，可携带位置
// 时间戳无条件刷新，新心跳总是赢过巡检（last-write-wins）。
// 状态拉回 active 走单独的条件更新，busy 不降级——中间不读行，
// 并发派单把人置 busy 时不会被心跳写回 active。
func RecordHeartbeat(db *gorm.DB, uid string, lat, lng *float64) error {
	now := time.Now()
	updates := map[string]interface{}{
		"last_heartbeat": now,
		"last_active_at": now,
	}
	if lat != nil && lng != nil {
		updates["lat"] = *lat
		updates["lng"] = *lng
		updates["location_updated_at"] = now
	}

	res := db.Model(&Responder{}).Where("uid = ?", uid).Updates(updates)
	if res.Error != nil {
		return errors.Internal(res.Error, "failed to record heartbeat")
	}
	if res.RowsAffected == 0 {
		return errors.NotFound("responder not found")
	}

	res = db.Model(&Responder{}).
		Where("uid = ? AND status <> ?", uid, ResponderBusy).
		Update("status", ResponderActive)
	if res.Error != nil {
		return errors.Internal(res.Error, "failed to refresh responder status")
	}
	return nil
}

// SetResponderStatus 管理入口：直接设置状态
func SetResponderStatus(db *gorm.DB, uid, status string) error {
	switch status {
	case ResponderActive, ResponderBusy, ResponderInactive:
	default:
		return errors.WithCodef(errors.CodeValidation, "unknown responder status: %s", status)
	}
	updates := map[string]interface{}{"status": status}
	if status != ResponderBusy {
		updates["assigned_emergency"] = nil
	}
	res := db.Model(&Responder{}).Where("uid = ?", uid).Updates(updates)
	if res.Error != nil {
		return errors.Internal(res.Error, "failed to set responder status")
	}
	if res.RowsAffected == 0 {
		return errors.NotFound("responder not found")
	}
	return nil
}

// ListActiveResponders 拉取 active 响应者，扫描顺序稳定（按注册先后）
func ListActiveResponders(db *gorm.DB) ([]Responder, error) {
	var out []Responder
	if err := db.Where("status = ?", ResponderActive).Order("created_at").Find(&out).Error; err != nil {
		return nil, errors.Internal(err, "failed to list active responders")
	}
	return out, nil
}

// ClaimResponder 条件占用：仅当仍为 active 时置 busy 并绑定警情
// 返回 false 表示被并发方抢先，调用方换下一个候选
func ClaimResponder(db *gorm.DB, uid, emergencyID string) (bool, error) {
	res := db.Model(&Responder{}).
		Where("uid = ? AND status = ?", uid, ResponderActive).
		Updates(map[string]interface{}{
			"status":             ResponderBusy,
			"assigned_emergency": emergencyID,
		})
	if res.Error != nil {
		return false, errors.Internal(res.Error, "failed to claim responder")
	}
	return res.RowsAffected > 0, nil
}

// ReleaseResponder 解除占用，回到 active 可用池
func ReleaseResponder(db *gorm.DB, uid string) error {
	now := time.Now()
	res := db.Model(&Responder{}).Where("uid = ?", uid).Updates(map[string]interface{}{
		"status":             ResponderActive,
		"assigned_emergency": nil,
		"last_active_at":     now,
	})
	if res.Error != nil {
		return errors.Internal(res.Error, "failed to release responder")
	}
	if res.RowsAffected == 0 {
		return errors.NotFound("responder not found")
	}
	return nil
}

// GetResponder 按 uid 取响应者
func GetResponder(db *gorm.DB, uid string) (*Responder, error) {
	var r Responder
	if err := db.First(&r, "uid = ?", uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("responder not found")
		}
		return nil, errors.Internal(err, "failed to load responder")
	}
	return &r, nil
}
