package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"Alertivo/internal/models"
)

// AdminClient 把 medical 上报同步到行政后台
// 尽力而为：失败由调用方记日志，不重试也不影响分发结果
type AdminClient struct {
	url string
	cli *http.Client
}

func NewAdminClient(url string) *AdminClient {
	return &AdminClient{url: url, cli: &http.Client{Timeout: 10 * time.Second}}
}

// Enabled 未配置后台地址时跳过同步
func (a *AdminClient) Enabled() bool { return a.url != "" }

type adminReportPayload struct {
	ReportID    string  `json:"report_id"`
	Type        string  `json:"type"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Address     string  `json:"address,omitempty"`
	Details     string  `json:"details,omitempty"`
	Urgency     string  `json:"urgency"`
	DisplayCode string  `json:"display_code"`
	CreatedAt   string  `json:"created_at"`
}

// SyncReport 推送单条上报，非 2xx 视为失败
func (a *AdminClient) SyncReport(ctx context.Context, report *models.EmergencyReport) error {
	if !a.Enabled() {
		return nil
	}
	payload, err := json.Marshal(adminReportPayload{
		ReportID:    report.ID,
		Type:        report.Type,
		Lat:         report.Lat,
		Lng:         report.Lng,
		Address:     report.Address,
		Details:     report.Details,
		Urgency:     report.Urgency,
		DisplayCode: report.DisplayCode,
		CreatedAt:   report.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.cli.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("admin sync responded %d", resp.StatusCode)
	}
	return nil
}
