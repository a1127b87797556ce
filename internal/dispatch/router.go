package dispatch

import (
	"Alertivo/internal/models"
	"Alertivo/pkg/logger"
	"Alertivo/pkg/metrics"
	"Alertivo/pkg/util"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Router 按上报类型分发到部门
// security 走就近派单，medical / fire 挂部门应急清单
type Router struct {
	db       *gorm.DB
	signals  *util.SignalHub
	assigner *Assigner
}

func NewRouter(db *gorm.DB, signals *util.SignalHub) *Router {
	return &Router{db: db, signals: signals, assigner: NewAssigner(db, signals)}
}

// Route 对调用方 fire-and-forget：handler 先应答 reportId 再调这里
func (r *Router) Route(report *models.EmergencyReport) {
	metrics.ReportsRouted.WithLabelValues(report.Type).Inc()

	switch report.Type {
	case models.ReportTypeSecurity:
		if _, err := r.assigner.Assign(report); err != nil {
			logger.Error("failed to assign security report",
				zap.String("report_id", report.ID), zap.Error(err))
		}
	case models.ReportTypeMedical:
		if err := models.RouteToDepartment(r.db, models.DepartmentClinic, report); err != nil {
			logger.Error("failed to route medical report",
				zap.String("report_id", report.ID), zap.Error(err))
			return
		}
		// 行政后台同步由 listener 尽力而为地完成
		r.signals.Emit(models.SigReportRouted, report)
	case models.ReportTypeFire:
		if err := models.RouteToDepartment(r.db, models.DepartmentFireDept, report); err != nil {
			logger.Error("failed to route fire report",
				zap.String("report_id", report.ID), zap.Error(err))
		}
	}
}
