package errors

import "net/http"

// 业务错误码，前三位对应 HTTP 状态
const (
	CodeValidation   = 40001 // 参数缺失或非法
	CodeInvalidOTP   = 40102 // 验证码不存在、不匹配或已过期
	CodeNotFound     = 40401 // 目标实体不存在
	CodeConflict     = 40901 // 状态机前置条件不满足
	CodeLocked       = 42302 // 账号锁定
	CodeRateLimited  = 42901 // 验证码请求超出频率限制
	CodeInternal     = 50001 // 下游依赖失败（邮件、推送、同步）
)

// HTTPStatus 将业务码映射为 HTTP 状态码
func HTTPStatus(code int) int {
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeInvalidOTP:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeLocked:
		return http.StatusLocked
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Validation 参数错误
func Validation(message string) *Error { return WithCode(CodeValidation, message) }

// NotFound 实体不存在
func NotFound(message string) *Error { return WithCode(CodeNotFound, message) }

// Conflict 状态冲突
func Conflict(message string) *Error { return WithCode(CodeConflict, message) }

// Internal 下游依赖失败
func Internal(err error, message string) *Error { return Wrap(err, CodeInternal, message) }
