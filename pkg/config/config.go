package config

import (
	"log"
	"os"
	"time"

	"Alertivo/pkg/logger"
	"Alertivo/pkg/notification"
	"Alertivo/pkg/util"
)

// config/config.go
type Config struct {
	DBDriver string `env:"DB_DRIVER"`
	DSN      string `env:"DSN"`
	Addr     string `env:"ADDR"`
	Mode     string `env:"MODE"`

	Log  logger.LogConfig
	Mail notification.MailConfig

	APIPrefix string `env:"API_PREFIX"`

	// 心跳与巡检
	HeartbeatTimeout time.Duration `env:"HEARTBEAT_TIMEOUT"`
	SweepSchedule    string        `env:"SWEEP_SCHEDULE"` // cron 表达式

	// OTP 安全门
	OTPAllowedDomain string `env:"OTP_ALLOWED_DOMAIN"`

	// 推送与外部同步（尽力而为）
	ExpoPushURL  string `env:"EXPO_PUSH_URL"`
	AdminSyncURL string `env:"ADMIN_SYNC_URL"`

	// 操作日志的 GeoIP 库文件，留空则不做地理定位
	GeoIPDBPath string `env:"GEOIP_DB_PATH"`

	// 缓存 / 限流
	CacheType     string `env:"CACHE_TYPE"` // gocache | redis
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB"`
	RateLimit     string `env:"RATE_LIMIT"` // 如 "100-M"

	// 备份
	BackupEnabled  bool   `env:"BACKUP_ENABLED"`
	BackupPath     string `env:"BACKUP_PATH"`
	BackupSchedule string `env:"BACKUP_SCHEDULE"`
}

var GlobalConfig *Config

func Load() error {
	// 1. 根据环境加载 .env 文件
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development" // 默认使用开发环境
	}
	if err := util.LoadEnv(env); err != nil {
		log.Printf("Failed to load .env file: %v", err)
	}

	// 2. 加载全局配置
	GlobalConfig = &Config{
		DBDriver: util.GetEnv("DB_DRIVER", "sqlite"),
		DSN:      util.GetEnv("DSN"),
		Addr:     util.GetEnv("ADDR", ":8080"),
		Mode:     util.GetEnv("MODE", "debug"),
		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},
		Mail: notification.MailConfig{
			Host:     util.GetEnv("MAIL_HOST"),
			Port:     util.GetIntEnv("MAIL_PORT", 587),
			Username: util.GetEnv("MAIL_USERNAME"),
			Password: util.GetEnv("MAIL_PASSWORD"),
			From:     util.GetEnv("MAIL_FROM"),
		},
		APIPrefix:        util.GetEnv("API_PREFIX", "/api/v1"),
		HeartbeatTimeout: util.GetDurationEnv("HEARTBEAT_TIMEOUT", 3*time.Minute),
		SweepSchedule:    util.GetEnv("SWEEP_SCHEDULE", "@every 1m"),
		OTPAllowedDomain: util.GetEnv("OTP_ALLOWED_DOMAIN", "students.unilorin.edu.ng"),
		ExpoPushURL:      util.GetEnv("EXPO_PUSH_URL", "https://exp.host/--/api/v2/push/send"),
		AdminSyncURL:     util.GetEnv("ADMIN_SYNC_URL"),
		GeoIPDBPath:      util.GetEnv("GEOIP_DB_PATH"),
		CacheType:        util.GetEnv("CACHE_TYPE", "gocache"),
		RedisAddr:        util.GetEnv("REDIS_ADDR"),
		RedisPassword:    util.GetEnv("REDIS_PASSWORD"),
		RedisDB:          int(util.GetIntEnv("REDIS_DB")),
		RateLimit:        util.GetEnv("RATE_LIMIT", "100-M"),
		BackupEnabled:    util.GetBoolEnv("BACKUP_ENABLED"),
		BackupPath:       util.GetEnv("BACKUP_PATH", "backups"),
		BackupSchedule:   util.GetEnv("BACKUP_SCHEDULE", "0 3 * * *"),
	}
	return nil
}
