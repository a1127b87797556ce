package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"time"

	"Alertivo/pkg/cache"

	"github.com/gin-gonic/gin"
)

// IdempotencyConfig 幂等配置
type IdempotencyConfig struct {
	HeaderName string        // Idempotency-Key 的请求头名
	TTL        time.Duration // 重复请求的拒绝窗口
	Store      cache.Cache   // go-cache 或 redis
}

// IdempotencyMiddleware 同一幂等键在窗口内只放行一次
// 警报通道是 at-least-once 投递，接受/拒绝的重放在这里被拦下
func IdempotencyMiddleware(cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "Idempotency-Key"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	store := cfg.Store
	if store == nil {
		store = cache.NewGoCache(cache.LocalConfig{})
	}
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(cfg.HeaderName))
		if key == "" {
			// 兜底：用请求路径+请求体哈希作为幂等键
			b, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(strings.NewReader(string(b)))
			h := sha256.Sum256(append([]byte(c.Request.URL.Path+"\n"), b...))
			key = hex.EncodeToString(h[:])
		}
		ok, err := store.SetNX(c, "idem:"+key, 1, cfg.TTL)
		if err != nil {
			// 存储不可用时放行，不挡主流程
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "duplicate request"})
			return
		}
		c.Next()
	}
}
