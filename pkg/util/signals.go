package util

import "sync"

// SignalHandler 信号回调，sender 为事件主体，params 为附加参数
type SignalHandler func(sender any, params ...any)

// SignalHub 进程内信号分发器，监听器注册与业务解耦
// 由 main 构造后注入使用方，不做全局单例
type SignalHub struct {
	mu       sync.RWMutex
	handlers map[string][]SignalHandler
}

func NewSignalHub() *SignalHub {
	return &SignalHub{handlers: make(map[string][]SignalHandler)}
}

// Connect 注册监听器
func (h *SignalHub) Connect(signal string, handler SignalHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[signal] = append(h.handlers[signal], handler)
}

// Emit 同步触发所有监听器，监听器内部自行决定是否起 goroutine
func (h *SignalHub) Emit(signal string, sender any, params ...any) {
	h.mu.RLock()
	hs := make([]SignalHandler, len(h.handlers[signal]))
	copy(hs, h.handlers[signal])
	h.mu.RUnlock()
	for _, fn := range hs {
		fn(sender, params...)
	}
}
