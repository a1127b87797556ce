package handler

import (
	"encoding/json"

	"Alertivo/internal/models"
	"Alertivo/pkg/logger"
	"Alertivo/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type createReportReq struct {
	Type          string          `json:"type" binding:"required"`
	Lat           *float64        `json:"lat" binding:"required"`
	Lng           *float64        `json:"lng" binding:"required"`
	Address       string          `json:"address"`
	Details       string          `json:"details"`
	Notes         string          `json:"notes"`
	Urgency       string          `json:"urgency"`
	ContactMethod string          `json:"contact_method"`
	Additional    json.RawMessage `json:"additional_info"`
	CreatedByUID  string          `json:"created_by_uid" binding:"required"`
	DisplayCode   string          `json:"display_code"`
}

// CreateReport 接收紧急上报
// 先落库应答 reportId，路由分发在应答后的 goroutine 里完成
func (h *Handlers) CreateReport(c *gin.Context) {
	var req createReportReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "missing required emergency fields", nil)
		return
	}

	report, err := models.CreateEmergencyReport(h.db, models.CreateReportInput{
		Type:          req.Type,
		Lat:           req.Lat,
		Lng:           req.Lng,
		Address:       req.Address,
		Details:       req.Details,
		Notes:         req.Notes,
		Urgency:       req.Urgency,
		ContactMethod: req.ContactMethod,
		AdditionalRaw: string(req.Additional),
		CreatedByUID:  req.CreatedByUID,
		DisplayCode:   req.DisplayCode,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	logger.Info("emergency report accepted",
		zap.String("report_id", report.ID), zap.String("type", report.Type))
	response.Success(c, "report accepted", gin.H{"report_id": report.ID, "status": report.Status})

	go h.router.Route(report)
}

// GetReport 查询上报详情
func (h *Handlers) GetReport(c *gin.Context) {
	report, err := models.GetReport(h.db, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "ok", report)
}

// ListDepartmentEmergencies 部门应急清单（clinic / fire_dept）
func (h *Handlers) ListDepartmentEmergencies(c *gin.Context) {
	dept := c.Param("department")
	if dept != models.DepartmentClinic && dept != models.DepartmentFireDept {
		response.Fail(c, "unknown department", nil)
		return
	}
	reports, err := models.ListDepartmentEmergencies(h.db, dept)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "ok", reports)
}
