package handler

import (
	"Alertivo/internal/models"
	"Alertivo/pkg/response"

	"github.com/gin-gonic/gin"
)

type registerResponderReq struct {
	UID           string `json:"uid" binding:"required"`
	Name          string `json:"name"`
	ExpoPushToken string `json:"expo_push_token"`
}

// RegisterResponder 注册/刷新响应者，初始 inactive，等首个心跳激活
func (h *Handlers) RegisterResponder(c *gin.Context) {
	var req registerResponderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "missing responder uid", nil)
		return
	}
	r, err := models.RegisterResponder(h.db, models.RegisterResponderInput{
		UID:           req.UID,
		Name:          req.Name,
		ExpoPushToken: req.ExpoPushToken,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "responder registered", r)
}

// GetResponder 查询响应者
func (h *Handlers) GetResponder(c *gin.Context) {
	r, err := models.GetResponder(h.db, c.Param("uid"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "ok", r)
}

type heartbeatReq struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// Heartbeat 心跳上报，可携带位置
func (h *Handlers) Heartbeat(c *gin.Context) {
	var req heartbeatReq
	// 空请求体也算一次合法心跳
	_ = c.ShouldBindJSON(&req)
	if err := models.RecordHeartbeat(h.db, c.Param("uid"), req.Lat, req.Lng); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "heartbeat recorded", nil)
}

type setStatusReq struct {
	Status string `json:"status" binding:"required"`
}

// SetResponderStatus 管理入口：直接设置状态
func (h *Handlers) SetResponderStatus(c *gin.Context) {
	var req setStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "missing status", nil)
		return
	}
	if err := models.SetResponderStatus(h.db, c.Param("uid"), req.Status); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "status updated", nil)
}
