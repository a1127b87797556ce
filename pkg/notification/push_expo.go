package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ExpoPushClient 便于替换/注入的推送接口
type ExpoPushClient interface {
	Push(ctx context.Context, token, title, body string, data map[string]interface{}) error
}

// ExpoPush Expo push HTTP API 客户端
type ExpoPush struct {
	url string
	cli *http.Client
}

func NewExpoPush(url string) *ExpoPush {
	return &ExpoPush{url: url, cli: &http.Client{Timeout: 10 * time.Second}}
}

type expoMessage struct {
	To    string                 `json:"to"`
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

// Push 发送单条推送，非 2xx 视为失败
func (e *ExpoPush) Push(ctx context.Context, token, title, body string, data map[string]interface{}) error {
	if e.url == "" {
		return fmt.Errorf("expo push not configured")
	}
	payload, err := json.Marshal(expoMessage{To: token, Title: title, Body: body, Data: data})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := e.cli.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("expo push responded %d", resp.StatusCode)
	}
	return nil
}
