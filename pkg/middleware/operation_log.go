package middleware

import (
	"net"
	"net/http"
	"time"

	"Alertivo/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/mssola/user_agent"
	"github.com/oschwald/geoip2-golang"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OperationLog 写请求的操作记录，客户端环境从 User-Agent 解析
type OperationLog struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Method          string    `gorm:"size:8;not null" json:"method"`
	Target          string    `gorm:"size:255;not null;index" json:"target"`
	Status          int       `json:"status"`
	IPAddress       string    `gorm:"size:64" json:"ip_address"`
	Browser         string    `gorm:"size:64" json:"browser"`
	OperatingSystem string    `gorm:"size:64" json:"operating_system"`
	Device          string    `gorm:"size:64" json:"device"`
	Location        string    `gorm:"size:64" json:"location"`
	CreatedAt       time.Time `json:"created_at"`
}

// OperationLogConfig 操作日志配置
type OperationLogConfig struct {
	// GeoLite2-City.mmdb 路径，留空跳过地理定位
	GeoDBPath string
}

// OperationLogMiddleware 落库记录每个写请求
// 定位结果按 IP 做 LRU 缓存；记录失败只打日志，不影响请求本身
func OperationLogMiddleware(db *gorm.DB, cfg OperationLogConfig) gin.HandlerFunc {
	var reader *geoip2.Reader
	if cfg.GeoDBPath != "" {
		r, err := geoip2.Open(cfg.GeoDBPath)
		if err != nil {
			logger.Warn("failed to open geoip database, locations disabled", zap.Error(err))
		} else {
			reader = r
		}
	}
	locations := expirable.NewLRU[string, string](1024, nil, time.Hour)

	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method == http.MethodGet {
			return
		}

		ua := user_agent.New(c.GetHeader("User-Agent"))
		browser, version := ua.Browser()
		target := c.FullPath()
		if target == "" {
			target = c.Request.URL.Path
		}
		entry := &OperationLog{
			Method:          c.Request.Method,
			Target:          target,
			Status:          c.Writer.Status(),
			IPAddress:       c.ClientIP(),
			Browser:         browser + " " + version,
			OperatingSystem: ua.OS(),
			Device:          ua.Platform(),
			Location:        lookupLocation(reader, locations, c.ClientIP()),
		}
		if err := db.Create(entry).Error; err != nil {
			logger.Warn("failed to record operation log",
				zap.String("target", entry.Target), zap.Error(err))
		}
	}
}

func lookupLocation(reader *geoip2.Reader, cache *expirable.LRU[string, string], ip string) string {
	if reader == nil {
		return ""
	}
	if loc, ok := cache.Get(ip); ok {
		return loc
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	record, err := reader.City(parsed)
	if err != nil {
		return ""
	}
	loc := record.City.Names["en"]
	cache.Add(ip, loc)
	return loc
}
