package models

import (
	"time"

	"Alertivo/pkg/errors"
	"Alertivo/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User 学生账号，OTP 验证通过后建档
type User struct {
	UID          string    `gorm:"primaryKey;size:36" json:"uid"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	Verified     bool      `json:"verified"`
	Role         string    `gorm:"size:16;default:student" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProvisionUser 取已有账号，没有则新建已验证账号
// 传了密码就顺手设置凭证；凭证失败只记日志不影响验证结果
func ProvisionUser(db *gorm.DB, email, password string) (*User, error) {
	var u User
	err := db.First(&u, "email = ?", email).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Internal(err, "failed to load user")
		}
		u = User{UID: uuid.NewString(), Email: email, Verified: true, Role: "student"}
		if err := db.Create(&u).Error; err != nil {
			return nil, errors.Internal(err, "failed to create user")
		}
	} else if !u.Verified {
		if err := db.Model(&u).Update("verified", true).Error; err != nil {
			return nil, errors.Internal(err, "failed to mark user verified")
		}
	}

	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err == nil {
			err = db.Model(&u).Update("password_hash", string(hash)).Error
		}
		if err != nil {
			// 账号已经存在，密码之后可以重置
			logger.Warn("failed to set user credential", zap.String("uid", u.UID), zap.Error(err))
		}
	}
	return &u, nil
}
