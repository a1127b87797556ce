package handler

import (
	"Alertivo/internal/models"
	"Alertivo/pkg/response"

	"github.com/gin-gonic/gin"
)

type otpRequestReq struct {
	Email string `json:"email" binding:"required"`
}

// RequestOTP 发送一次性验证码到校内邮箱
func (h *Handlers) RequestOTP(c *gin.Context) {
	var req otpRequestReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "missing email", nil)
		return
	}
	if err := models.RequestOTP(h.db, h.mailer, req.Email, h.otpDomain); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "otp sent", nil)
}

type otpVerifyReq struct {
	Email    string `json:"email" binding:"required"`
	OTP      string `json:"otp" binding:"required"`
	Password string `json:"password"`
}

// VerifyOTP 校验验证码并开通账号
func (h *Handlers) VerifyOTP(c *gin.Context) {
	var req otpVerifyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "email and otp required", nil)
		return
	}
	uid, err := models.VerifyOTP(h.db, req.Email, req.OTP, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "account verified", gin.H{"uid": uid})
}
