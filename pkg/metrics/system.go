package metrics

import (
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// 主机与运行时资源指标，SystemMonitor 周期采集后经 /metrics 暴露
var (
	systemCPUUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "alertivo_system_cpu_usage_percent",
		Help: "Host CPU usage percentage",
	})
	systemMemUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "alertivo_system_memory_usage_percent",
		Help: "Host memory usage percentage",
	})
	systemDiskUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "alertivo_system_disk_usage_percent",
		Help: "Root filesystem usage percentage",
	})
	runtimeGoroutines = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "alertivo_runtime_goroutines",
		Help: "Number of live goroutines",
	})
	runtimeHeapAlloc = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "alertivo_runtime_heap_alloc_bytes",
		Help: "Bytes of allocated heap objects",
	})
)

// SystemMonitor 系统监控器，按固定间隔刷新资源指标
type SystemMonitor struct {
	interval time.Duration
	stopChan chan struct{}
	mu       sync.Mutex
	running  bool
}

func NewSystemMonitor(interval time.Duration) *SystemMonitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &SystemMonitor{interval: interval, stopChan: make(chan struct{})}
}

// Start 启动采集循环
func (sm *SystemMonitor) Start() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.running {
		return
	}
	sm.running = true
	go sm.loop()
}

// Stop 停止采集
func (sm *SystemMonitor) Stop() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if !sm.running {
		return
	}
	sm.running = false
	close(sm.stopChan)
}

func (sm *SystemMonitor) loop() {
	ticker := time.NewTicker(sm.interval)
	defer ticker.Stop()
	sm.collect()
	for {
		select {
		case <-ticker.C:
			sm.collect()
		case <-sm.stopChan:
			return
		}
	}
}

// collect 单轮采集，单项失败跳过不中断
func (sm *SystemMonitor) collect() {
	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		systemCPUUsage.Set(pct[0])
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		systemMemUsage.Set(vm.UsedPercent)
	}
	if du, err := disk.Usage("/"); err == nil {
		systemDiskUsage.Set(du.UsedPercent)
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	runtimeGoroutines.Set(float64(runtime.NumGoroutine()))
	runtimeHeapAlloc.Set(float64(m.HeapAlloc))
}
