package listeners

import (
	"context"
	"fmt"
	"time"

	"Alertivo/internal/models"
	syncx "Alertivo/internal/sync"
	"Alertivo/pkg/logger"
	"Alertivo/pkg/metrics"
	"Alertivo/pkg/notification"
	"Alertivo/pkg/stream"
	"Alertivo/pkg/util"

	"go.uber.org/zap"
)

// InitAlertListeners 挂接派单与分发信号的副作用
// 推送、SSE 下发、后台同步都是尽力而为，失败不回滚派单结果
func InitAlertListeners(signals *util.SignalHub, hub *stream.Hub, push notification.ExpoPushClient, admin *syncx.AdminClient) {
	signals.Connect(models.SigAlertAssigned, func(sender any, params ...any) {
		alert, ok := sender.(*models.Alert)
		if !ok || len(params) == 0 {
			return
		}
		responder, ok := params[0].(*models.Responder)
		if !ok || responder == nil {
			return
		}

		hub.PublishToResponder(responder.UID, stream.Event{
			Kind:    "alert_upsert",
			AlertID: alert.ID,
			Payload: alert,
		})

		if responder.ExpoPushToken == "" {
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			body := fmt.Sprintf("New %s emergency reported", alert.Type)
			if alert.Address != "" {
				body = fmt.Sprintf("New %s emergency near %s", alert.Type, alert.Address)
			}
			err := push.Push(ctx, responder.ExpoPushToken, "Emergency Alert", body,
				map[string]interface{}{"alertId": alert.ID, "type": alert.Type})
			if err != nil {
				metrics.PushFailures.Inc()
				logger.Warn("push notification failed",
					zap.String("alert_id", alert.ID),
					zap.String("responder", responder.UID),
					zap.Error(err))
			}
		}()
	})

	signals.Connect(models.SigReportRouted, func(sender any, params ...any) {
		report, ok := sender.(*models.EmergencyReport)
		if !ok || !admin.Enabled() {
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := admin.SyncReport(ctx, report); err != nil {
				logger.Warn("admin sync failed",
					zap.String("report_id", report.ID), zap.Error(err))
			}
		}()
	})
}
