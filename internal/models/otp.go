package models

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"Alertivo/pkg/errors"
	"Alertivo/pkg/logger"
	"Alertivo/pkg/metrics"
	"Alertivo/pkg/notification"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OTP 安全门参数
const (
	OTPExpiry        = 5 * time.Minute
	OTPMaxPerWindow  = 3 // 每滚动小时的请求上限
	OTPWindow        = time.Hour
	LockoutThreshold = 5 // 连续失败次数
	LockoutDuration  = 30 * time.Minute
)

// OTPChallenge 一次性验证码，单次消费
type OTPChallenge struct {
	Email     string    `gorm:"primaryKey;size:255" json:"email"`
	Code      string    `gorm:"size:8;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RateLimitRecord 每邮箱的滚动窗口计数
type RateLimitRecord struct {
	Email         string    `gorm:"primaryKey;size:255" json:"email"`
	AttemptCount  int       `gorm:"not null" json:"attempt_count"`
	WindowResetAt time.Time `json:"window_reset_at"`
}

// LockoutRecord 连续验证失败的锁定状态
type LockoutRecord struct {
	Email        string     `gorm:"primaryKey;size:255" json:"email"`
	FailureCount int        `gorm:"not null" json:"failure_count"`
	LockedUntil  *time.Time `json:"locked_until,omitempty"`
}

// generateOTPCode 六位数字验证码
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// RequestOTP 发送验证码：域校验 → 频率限制 → 锁定检查 → 重发 → 审计
func RequestOTP(db *gorm.DB, mailer notification.OTPSender, email, allowedDomain string) error {
	if email == "" || !strings.HasSuffix(email, "@"+allowedDomain) {
		return errors.Validation("invalid student email")
	}
	now := time.Now()

	// 频率限制：窗口过期从 1 重计，否则累加
	var rl RateLimitRecord
	err := db.First(&rl, "email = ?", email).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		rl = RateLimitRecord{Email: email, AttemptCount: 1, WindowResetAt: now.Add(OTPWindow)}
	case err != nil:
		return errors.Internal(err, "failed to load rate limit record")
	case rl.WindowResetAt.Before(now):
		rl.AttemptCount = 1
		rl.WindowResetAt = now.Add(OTPWindow)
	default:
		rl.AttemptCount++
	}
	if rl.AttemptCount > OTPMaxPerWindow {
		metrics.OTPDenials.WithLabelValues("rate_limited").Inc()
		retry := time.Until(rl.WindowResetAt).Round(time.Minute)
		return errors.WithCodef(errors.CodeRateLimited, "too many attempts, try again in %s", retry)
	}

	// 锁定检查
	var lock LockoutRecord
	if err := db.First(&lock, "email = ?", email).Error; err == nil {
		if lock.LockedUntil != nil && lock.LockedUntil.After(now) {
			metrics.OTPDenials.WithLabelValues("locked").Inc()
			return errors.WithCodef(errors.CodeLocked,
				"account locked due to too many failed attempts, try again in %s",
				time.Until(*lock.LockedUntil).Round(time.Minute))
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Internal(err, "failed to load lockout record")
	}

	if err := db.Save(&rl).Error; err != nil {
		return errors.Internal(err, "failed to update rate limit record")
	}

	// 旧验证码作废，重发即替换
	if err := db.Delete(&OTPChallenge{}, "email = ?", email).Error; err != nil {
		logger.Warn("failed to delete prior otp challenge", zap.Error(err))
	}

	code, err := generateOTPCode()
	if err != nil {
		return errors.Internal(err, "failed to generate otp")
	}
	challenge := &OTPChallenge{
		Email:     email,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(OTPExpiry),
	}
	if err := db.Create(challenge).Error; err != nil {
		return errors.Internal(err, "failed to persist otp challenge")
	}

	if err := mailer.SendOTPEmail(email, code, int(OTPExpiry.Minutes())); err != nil {
		return errors.Internal(err, "failed to send otp email")
	}

	AppendAudit(db, AuditOTPSent, email, "", fmt.Sprintf(`{"attempts":%d}`, rl.AttemptCount))
	return nil
}

// VerifyOTP 校验验证码；成功返回账号 uid
// 失败路径累计锁定计数，到阈值设置 lockedUntil
func VerifyOTP(db *gorm.DB, email, code, password string) (string, error) {
	if email == "" || code == "" {
		return "", errors.Validation("email and otp required")
	}
	now := time.Now()

	var lock LockoutRecord
	lockErr := db.First(&lock, "email = ?", email).Error
	if lockErr == nil && lock.LockedUntil != nil && lock.LockedUntil.After(now) {
		metrics.OTPDenials.WithLabelValues("locked").Inc()
		return "", errors.WithCodef(errors.CodeLocked,
			"account locked due to too many failed attempts, try again in %s",
			time.Until(*lock.LockedUntil).Round(time.Minute))
	}
	if lockErr != nil && !errors.Is(lockErr, gorm.ErrRecordNotFound) {
		return "", errors.Internal(lockErr, "failed to load lockout record")
	}

	var challenge OTPChallenge
	err := db.First(&challenge, "email = ?", email).Error
	valid := err == nil && challenge.Code == code && challenge.ExpiresAt.After(now)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", errors.Internal(err, "failed to load otp challenge")
	}

	if !valid {
		lock.Email = email
		lock.FailureCount++
		if lock.FailureCount >= LockoutThreshold {
			until := now.Add(LockoutDuration)
			lock.LockedUntil = &until
		}
		if err := db.Save(&lock).Error; err != nil {
			logger.Warn("failed to record otp failure", zap.Error(err))
		}
		AppendAudit(db, AuditOTPFailed, email, "", fmt.Sprintf(`{"fails":%d}`, lock.FailureCount))
		metrics.OTPDenials.WithLabelValues("invalid").Inc()
		return "", errors.WithCode(errors.CodeInvalidOTP, "invalid or expired OTP")
	}

	// 单次消费：先删挑战，再清频率与锁定记录
	if err := db.Delete(&OTPChallenge{}, "email = ?", email).Error; err != nil {
		return "", errors.Internal(err, "failed to consume otp challenge")
	}
	if err := db.Delete(&RateLimitRecord{}, "email = ?", email).Error; err != nil {
		logger.Warn("failed to clear rate limit record", zap.Error(err))
	}
	if err := db.Delete(&LockoutRecord{}, "email = ?", email).Error; err != nil {
		logger.Warn("failed to clear lockout record", zap.Error(err))
	}

	user, err := ProvisionUser(db, email, password)
	if err != nil {
		return "", err
	}

	AppendAudit(db, AuditUserVerified, email, user.UID, `{"verified":true}`)
	return user.UID, nil
}
