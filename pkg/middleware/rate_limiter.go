package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	redis "github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// RateLimiterConfig 限流配置
//
// Rate: "100-M"、"10-S" 等 ulule 速率格式
// PerRouteRates: 路由覆盖速率，如 {"/api/v1/auth/otp/request": "10-M"}
// SkipPaths: 前缀匹配，跳过限流（/health、/metrics）
type RateLimiterConfig struct {
	Rate          string            `json:"rate"`
	PerRouteRates map[string]string `json:"per_route_rates"`
	SkipPaths     []string          `json:"skip_paths"`
	AddHeaders    bool              `json:"add_headers"`
}

// MetricsObserver 指标上报接口
type MetricsObserver interface {
	OnAllow(route string)
	OnDeny(route string)
}

// PrometheusObserver 基于 Prometheus 的实现
type PrometheusObserver struct {
	allow *prometheus.CounterVec
	deny  *prometheus.CounterVec
}

func NewPrometheusObserver() *PrometheusObserver {
	return &PrometheusObserver{
		allow: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_limit_allow_total",
			Help: "Allowed requests by rate limiter",
		}, []string{"route"}),
		deny: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_limit_deny_total",
			Help: "Denied requests by rate limiter",
		}, []string{"route"}),
	}
}

func (p *PrometheusObserver) OnAllow(route string) { p.allow.WithLabelValues(route).Inc() }
func (p *PrometheusObserver) OnDeny(route string)  { p.deny.WithLabelValues(route).Inc() }

// RateLimiter 面向实例的限流器，按速率缓存 limiter
type RateLimiter struct {
	cfg            RateLimiterConfig
	store          limiter.Store
	observer       MetricsObserver
	limitersByRate map[string]*limiter.Limiter
	mu             sync.RWMutex
}

// NewRateLimiter 内存存储的限流器
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	return &RateLimiter{
		cfg:            cfg,
		store:          memory.NewStore(),
		limitersByRate: make(map[string]*limiter.Limiter),
	}
}

// WithRedis 改用 Redis 存储（多实例部署时共享计数）
func (l *RateLimiter) WithRedis(client *redis.Client) *RateLimiter {
	store, err := sredis.NewStore(client)
	if err == nil {
		l.mu.Lock()
		l.store = store
		l.limitersByRate = make(map[string]*limiter.Limiter)
		l.mu.Unlock()
	}
	return l
}

// UpdateConfig 运行时替换限流配置，已缓存的 limiter 一并重建
func (l *RateLimiter) UpdateConfig(cfg RateLimiterConfig) {
	l.mu.Lock()
	l.cfg = cfg
	l.limitersByRate = make(map[string]*limiter.Limiter)
	l.mu.Unlock()
}

// Config 当前限流配置
func (l *RateLimiter) Config() RateLimiterConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

// WithObserver 配置指标观察者
func (l *RateLimiter) WithObserver(observer MetricsObserver) *RateLimiter {
	l.observer = observer
	return l
}

// Middleware 返回 gin 中间件，按客户端 IP 限流
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.skipped(c.Request.URL.Path) {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		lim := l.limiterFor(l.rateFor(route))

		lctx, err := lim.Get(c, "ip:"+c.ClientIP())
		if err != nil {
			c.Next()
			return
		}
		if l.Config().AddHeaders {
			c.Header("X-RateLimit-Limit", int64String(lctx.Limit))
			c.Header("X-RateLimit-Remaining", int64String(lctx.Remaining))
		}
		if lctx.Reached {
			if l.observer != nil {
				l.observer.OnDeny(route)
			}
			retry := int(time.Until(time.Unix(lctx.Reset, 0)).Seconds())
			if retry < 0 {
				retry = 0
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too Many Requests"})
			return
		}
		if l.observer != nil {
			l.observer.OnAllow(route)
		}
		c.Next()
	}
}

func (l *RateLimiter) skipped(path string) bool {
	for _, pref := range l.Config().SkipPaths {
		if pref != "" && len(path) >= len(pref) && path[:len(pref)] == pref {
			return true
		}
	}
	return false
}

func (l *RateLimiter) rateFor(route string) string {
	cfg := l.Config()
	if r, ok := cfg.PerRouteRates[route]; ok && r != "" {
		return r
	}
	if cfg.Rate != "" {
		return cfg.Rate
	}
	return "10-S"
}

func (l *RateLimiter) limiterFor(rateStr string) *limiter.Limiter {
	l.mu.RLock()
	lim, ok := l.limitersByRate[rateStr]
	l.mu.RUnlock()
	if ok {
		return lim
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok = l.limitersByRate[rateStr]; ok {
		return lim
	}
	r, err := limiter.NewRateFromFormatted(rateStr)
	if err != nil {
		r = limiter.Rate{Period: time.Second, Limit: 10}
	}
	lim = limiter.New(l.store, r)
	l.limitersByRate[rateStr] = lim
	return lim
}

func int64String(v int64) string { return strconv.FormatInt(v, 10) }
