package models

import (
	"fmt"
	"testing"
	"time"

	"Alertivo/pkg/errors"

	"github.com/stretchr/testify/require"
)

const testDomain = "students.unilorin.edu.ng"

type stubMailer struct {
	lastCode string
	sent     int
	fail     bool
}

func (s *stubMailer) SendOTPEmail(to, code string, expiryMinutes int) error {
	if s.fail {
		return fmt.Errorf("smtp unavailable")
	}
	s.lastCode = code
	s.sent++
	return nil
}

func TestRequestOTP(t *testing.T) {
	t.Run("rejects foreign domain", func(t *testing.T) {
		db := newTestDB(t)
		err := RequestOTP(db, &stubMailer{}, "someone@gmail.com", testDomain)
		require.True(t, errors.IsCode(err, errors.CodeValidation))
	})

	t.Run("sends six digit code", func(t *testing.T) {
		db := newTestDB(t)
		m := &stubMailer{}
		require.NoError(t, RequestOTP(db, m, "a@"+testDomain, testDomain))
		require.Equal(t, 1, m.sent)
		require.Len(t, m.lastCode, 6)
	})

	t.Run("rate limit allows three then denies", func(t *testing.T) {
		db := newTestDB(t)
		m := &stubMailer{}
		email := "b@" + testDomain
		for i := 0; i < OTPMaxPerWindow; i++ {
			require.NoError(t, RequestOTP(db, m, email, testDomain))
		}
		err := RequestOTP(db, m, email, testDomain)
		require.True(t, errors.IsCode(err, errors.CodeRateLimited))
		require.Equal(t, OTPMaxPerWindow, m.sent)

		// 窗口过期后重新计数
		require.NoError(t, db.Model(&RateLimitRecord{}).Where("email = ?", email).
			Update("window_reset_at", time.Now().Add(-time.Minute)).Error)
		require.NoError(t, RequestOTP(db, m, email, testDomain))
	})

	t.Run("denied request does not consume window slot", func(t *testing.T) {
		db := newTestDB(t)
		m := &stubMailer{}
		email := "c@" + testDomain
		for i := 0; i < OTPMaxPerWindow; i++ {
			require.NoError(t, RequestOTP(db, m, email, testDomain))
		}
		for i := 0; i < 3; i++ {
			err := RequestOTP(db, m, email, testDomain)
			require.True(t, errors.IsCode(err, errors.CodeRateLimited))
		}
		var rl RateLimitRecord
		require.NoError(t, db.First(&rl, "email = ?", email).Error)
		require.Equal(t, OTPMaxPerWindow, rl.AttemptCount)
	})

	t.Run("mailer failure surfaces as internal", func(t *testing.T) {
		db := newTestDB(t)
		err := RequestOTP(db, &stubMailer{fail: true}, "d@"+testDomain, testDomain)
		require.True(t, errors.IsCode(err, errors.CodeInternal))
	})

	t.Run("resend replaces prior challenge", func(t *testing.T) {
		db := newTestDB(t)
		m := &stubMailer{}
		email := "e@" + testDomain
		require.NoError(t, RequestOTP(db, m, email, testDomain))
		first := m.lastCode
		require.NoError(t, RequestOTP(db, m, email, testDomain))

		if first != m.lastCode {
			_, err := VerifyOTP(db, email, first, "")
			require.True(t, errors.IsCode(err, errors.CodeInvalidOTP))
		}
	})
}

func TestVerifyOTP(t *testing.T) {
	t.Run("round trip provisions verified user", func(t *testing.T) {
		db := newTestDB(t)
		m := &stubMailer{}
		email := "a@" + testDomain
		require.NoError(t, RequestOTP(db, m, email, testDomain))

		uid, err := VerifyOTP(db, email, m.lastCode, "s3cret")
		require.NoError(t, err)
		require.NotEmpty(t, uid)

		var u User
		require.NoError(t, db.First(&u, "email = ?", email).Error)
		require.True(t, u.Verified)
		require.Equal(t, uid, u.UID)

		// 单次消费：同一验证码不能重放
		_, err = VerifyOTP(db, email, m.lastCode, "s3cret")
		require.True(t, errors.IsCode(err, errors.CodeInvalidOTP))
	})

	t.Run("expired code rejected", func(t *testing.T) {
		db := newTestDB(t)
		m := &stubMailer{}
		email := "b@" + testDomain
		require.NoError(t, RequestOTP(db, m, email, testDomain))
		require.NoError(t, db.Model(&OTPChallenge{}).Where("email = ?", email).
			Update("expires_at", time.Now().Add(-time.Second)).Error)

		_, err := VerifyOTP(db, email, m.lastCode, "")
		require.True(t, errors.IsCode(err, errors.CodeInvalidOTP))
	})

	t.Run("locks after five failures", func(t *testing.T) {
		db := newTestDB(t)
		m := &stubMailer{}
		email := "c@" + testDomain
		require.NoError(t, RequestOTP(db, m, email, testDomain))

		for i := 0; i < LockoutThreshold; i++ {
			_, err := VerifyOTP(db, email, "000000", "")
			require.True(t, errors.IsCode(err, errors.CodeInvalidOTP))
		}

		// 锁定后正确验证码也被拒
		_, err := VerifyOTP(db, email, m.lastCode, "")
		require.True(t, errors.IsCode(err, errors.CodeLocked))

		// 发送入口同样被锁
		err = RequestOTP(db, m, email, testDomain)
		require.True(t, errors.IsCode(err, errors.CodeLocked))
	})

	t.Run("success clears lockout and rate records", func(t *testing.T) {
		db := newTestDB(t)
		m := &stubMailer{}
		email := "d@" + testDomain
		require.NoError(t, RequestOTP(db, m, email, testDomain))
		_, err := VerifyOTP(db, email, "000000", "")
		require.True(t, errors.IsCode(err, errors.CodeInvalidOTP))

		_, err = VerifyOTP(db, email, m.lastCode, "")
		require.NoError(t, err)

		var n int64
		require.NoError(t, db.Model(&LockoutRecord{}).Where("email = ?", email).Count(&n).Error)
		require.Zero(t, n)
		require.NoError(t, db.Model(&RateLimitRecord{}).Where("email = ?", email).Count(&n).Error)
		require.Zero(t, n)
	})

	t.Run("audit trail recorded", func(t *testing.T) {
		db := newTestDB(t)
		m := &stubMailer{}
		email := "e@" + testDomain
		require.NoError(t, RequestOTP(db, m, email, testDomain))
		_, err := VerifyOTP(db, email, m.lastCode, "")
		require.NoError(t, err)

		var actions []string
		require.NoError(t, db.Model(&AuditLog{}).Where("email = ?", email).
			Order("id").Pluck("action", &actions).Error)
		require.Equal(t, []string{AuditOTPSent, AuditUserVerified}, actions)
	})
}
