package dispatch

import (
	"sort"

	"Alertivo/internal/models"
	"Alertivo/pkg/geo"
	"Alertivo/pkg/logger"
	"Alertivo/pkg/metrics"
	"Alertivo/pkg/util"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Assigner 就近派单：在 active 响应者里选大圆距离最近的一个
type Assigner struct {
	db      *gorm.DB
	signals *util.SignalHub
}

func NewAssigner(db *gorm.DB, signals *util.SignalHub) *Assigner {
	return &Assigner{db: db, signals: signals}
}

type candidate struct {
	responder models.Responder
	distance  float64
}

// Assign 为 security 上报派单并写入警报记录
//
// 占用是单行条件更新（active → busy），并发上报抢同一个人时只有一个成功，
// 落败方顺延到下一个候选。占用与警报写入在同一事务里，
// 警报落库失败时占用一并回滚，不会把人漏在 busy。
// 没有候选时警报照常创建，assigned 置空，不做重试。
func (a *Assigner) Assign(report *models.EmergencyReport) (*models.Alert, error) {
	responders, err := models.ListActiveResponders(a.db)
	if err != nil {
		return nil, err
	}

	candidates := make([]candidate, 0, len(responders))
	for _, r := range responders {
		if r.Lat == nil || r.Lng == nil {
			continue
		}
		candidates = append(candidates, candidate{
			responder: r,
			distance:  geo.Distance(report.Lat, report.Lng, *r.Lat, *r.Lng),
		})
	}
	// 稳定排序保持扫描序，等距时先见者先得
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})

	var alert *models.Alert
	var assigned *models.Responder
	err = a.db.Transaction(func(tx *gorm.DB) error {
		for i := range candidates {
			c := &candidates[i]
			ok, err := models.ClaimResponder(tx, c.responder.UID, report.ID)
			if err != nil {
				return err
			}
			if ok {
				assigned = &c.responder
				logger.Info("nearest responder assigned",
					zap.String("report_id", report.ID),
					zap.String("responder", c.responder.UID),
					zap.Float64("distance_m", c.distance))
				break
			}
			// 被并发派单抢先，换下一个
		}

		var assignedUID *string
		if assigned != nil {
			assignedUID = &assigned.UID
		}
		var cerr error
		alert, cerr = models.CreateAlert(tx, report, assignedUID)
		return cerr
	})
	if err != nil {
		return nil, err
	}

	if assigned != nil {
		metrics.Assignments.WithLabelValues("assigned").Inc()
		a.signals.Emit(models.SigAlertAssigned, alert, assigned)
	} else {
		metrics.Assignments.WithLabelValues("unassigned").Inc()
		logger.Info("no active responder available", zap.String("report_id", report.ID))
	}
	return alert, nil
}
