package handler

import (
	"Alertivo/internal/models"
	"Alertivo/pkg/response"

	"github.com/gin-gonic/gin"
)

// GetAlert 查询警报
func (h *Handlers) GetAlert(c *gin.Context) {
	a, err := models.GetAlert(h.db, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "ok", a)
}

// ListAlerts 响应者名下的警报，重连后用这个接口补齐状态
func (h *Handlers) ListAlerts(c *gin.Context) {
	responder := c.Query("responder")
	if responder == "" {
		response.Fail(c, "missing responder query parameter", nil)
		return
	}
	alerts, err := models.ListAlertsForResponder(h.db, responder, c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "ok", alerts)
}

type acceptAlertReq struct {
	ResponderUID string `json:"responder_uid" binding:"required"`
}

// AcceptAlert 响应者接单：pending → accepted
func (h *Handlers) AcceptAlert(c *gin.Context) {
	var req acceptAlertReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "missing responder_uid", nil)
		return
	}
	if err := models.AcceptAlert(h.db, c.Param("id"), req.ResponderUID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "alert accepted", nil)
}

// DeclineAlert 响应者拒单：pending → declined，人放回可用池
func (h *Handlers) DeclineAlert(c *gin.Context) {
	if err := models.DeclineAlert(h.db, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "alert declined", nil)
}

type completeReq struct {
	ResponderUID string `json:"responder_uid" binding:"required"`
}

// CompleteEmergency 完结警情：响应者回 active，上报/警报置 completed
func (h *Handlers) CompleteEmergency(c *gin.Context) {
	var req completeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "missing responder_uid", nil)
		return
	}
	if err := models.CompleteEmergency(h.db, req.ResponderUID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "emergency completed", nil)
}

// StreamAlerts SSE 长连接，按响应者订阅警报事件
func (h *Handlers) StreamAlerts(c *gin.Context) {
	responder := c.Query("responder")
	if responder == "" {
		response.Fail(c, "missing responder query parameter", nil)
		return
	}
	h.hub.Serve(c, responder)
}
