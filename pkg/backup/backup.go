package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"Alertivo/pkg/config"
	"Alertivo/pkg/logger"
	"Alertivo/pkg/scheduler"

	"go.uber.org/zap"
)

// Register 将数据库备份任务挂到调度器上
func Register(cr *scheduler.Cron) error {
	_, err := cr.AddWithCtx(config.GlobalConfig.BackupSchedule, func(ctx context.Context) {
		if err := Execute(); err != nil {
			logger.Warn("backup failed", zap.Error(err))
		}
	})
	return err
}

// Execute 根据配置执行数据库备份
func Execute() error {
	cfg := config.GlobalConfig
	switch cfg.DBDriver {
	case "", "sqlite":
		dst := filepath.Join(cfg.BackupPath, fmt.Sprintf("alertivo_backup_%s.db", time.Now().Format("20060102_150405")))
		return backupSQLite(cfg.DSN, dst)
	case "mysql":
		dst := filepath.Join(cfg.BackupPath, fmt.Sprintf("alertivo_backup_%s.sql", time.Now().Format("20060102_150405")))
		return backupMySQL(cfg.DSN, dst)
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", cfg.DBDriver)
	}
}

func backupSQLite(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create backup directory: %v", err)
	}

	sourceFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("error opening source file: %v", err)
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("error creating destination file: %v", err)
	}
	defer destFile.Close()

	if _, err = io.Copy(destFile, sourceFile); err != nil {
		return fmt.Errorf("error copying data: %v", err)
	}

	logger.Info("sqlite backup completed", zap.String("dst", dst))
	return nil
}

func backupMySQL(dsn, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create backup directory: %v", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("error creating destination file: %v", err)
	}
	defer out.Close()

	cmd := exec.Command("mysqldump", dsn)
	cmd.Stdout = out
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to backup mysql database: %v", err)
	}

	logger.Info("mysql backup completed", zap.String("dst", dst))
	return nil
}
