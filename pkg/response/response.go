package response

import (
	"net/http"

	"Alertivo/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Body 统一响应结构
type Body struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Body{Code: 0, Message: message, Data: data})
}

// Fail 失败响应，HTTP 状态固定 400
func Fail(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusBadRequest, Body{Code: errors.CodeValidation, Message: message, Data: data})
}

// Error 按业务码映射 HTTP 状态返回错误
func Error(c *gin.Context, err error) {
	code := errors.GetCode(err)
	if code == 0 {
		code = errors.CodeInternal
	}
	c.JSON(errors.HTTPStatus(code), Body{Code: code, Message: errors.GetMessage(err)})
}
