package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Event 下发给响应者客户端的一条警报事件
type Event struct {
	Kind    string      `json:"kind"` // alert_upsert
	AlertID string      `json:"alert_id"`
	Payload interface{} `json:"payload"`
}

type client struct {
	id        string
	responder string
	ch        chan string
	done      chan struct{}
}

// Hub 按响应者分组的 SSE 中心
// 同一响应者可以有多个连接（多端），事件对每个连接 at-least-once
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]*client
	responders map[string]map[string]bool // responderID -> clientID set
	interval   time.Duration
	retryMs    int
	nextID     int
}

func NewHub(interval time.Duration) *Hub {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Hub{
		clients:    make(map[string]*client),
		responders: make(map[string]map[string]bool),
		interval:   interval,
		retryMs:    5000,
	}
}

func (h *Hub) addClient(responderID string) *client {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	c := &client{
		id:        fmt.Sprintf("%s#%d", responderID, h.nextID),
		responder: responderID,
		ch:        make(chan string, 64),
		done:      make(chan struct{}),
	}
	h.clients[c.id] = c
	if h.responders[responderID] == nil {
		h.responders[responderID] = make(map[string]bool)
	}
	h.responders[responderID][c.id] = true
	return c
}

func (h *Hub) removeClient(id string) {
	h.mu.Lock()
	if c, ok := h.clients[id]; ok {
		close(c.done)
		delete(h.responders[c.responder], id)
		delete(h.clients, id)
	}
	h.mu.Unlock()
}

// PublishToResponder 向某个响应者的所有连接投递事件，慢连接丢弃不阻塞
func (h *Hub) PublishToResponder(responderID string, ev Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	msg := formatData(string(b))
	h.mu.RLock()
	for id := range h.responders[responderID] {
		if c := h.clients[id]; c != nil {
			select {
			case c.ch <- msg:
			default:
			}
		}
	}
	h.mu.RUnlock()
}

// ConnectionCount 当前连接数
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func formatData(s string) string { return fmt.Sprintf("data: %s\n\n", s) }

// Serve 以 SSE 方式挂起连接，直到客户端断开
func (h *Hub) Serve(c *gin.Context, responderID string) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	fmt.Fprintf(c.Writer, "retry: %d\n\n", h.retryMs)

	cl := h.addClient(responderID)
	defer h.removeClient(cl.id)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.Status(http.StatusInternalServerError)
		return
	}
	ping := time.NewTicker(h.interval)
	defer ping.Stop()

	for {
		select {
		case <-cl.done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			fmt.Fprintf(c.Writer, "event: ping\ndata: {}\n\n")
			flusher.Flush()
		case msg := <-cl.ch:
			c.Writer.Write([]byte(msg))
			flusher.Flush()
		}
	}
}
