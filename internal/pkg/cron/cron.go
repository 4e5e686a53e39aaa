package cron

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/Naakoi/uekera_go_server/config"
	"github.com/Naakoi/uekera_go_server/internal/repository"
)

// Scheduler 进程内定时维护任务：订阅过期清扫和上传临时目录清理。
// 随服务启动，ctx 取消即停。
type Scheduler struct {
	subRepo *repository.SubscriptionRepository
	cfg     *config.Config
}

func NewScheduler(subRepo *repository.SubscriptionRepository, cfg *config.Config) *Scheduler {
	return &Scheduler{subRepo: subRepo, cfg: cfg}
}

// Start 启动全部定时任务
func (s *Scheduler) Start(ctx context.Context) {
	go s.runEvery(ctx, time.Hour, "订阅过期清扫", s.SweepExpiredSubscriptions)
	go s.runEvery(ctx, 6*time.Hour, "上传临时目录清理", s.CleanupUploadTemp)
}

func (s *Scheduler) runEvery(ctx context.Context, interval time.Duration, name string, fn func() error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := fn(); err != nil {
				log.Printf("定时任务 %s 执行失败: %v", name, err)
			}
		}
	}
}

// SweepExpiredSubscriptions 把已过期的 active 订阅批量置为 expired。
// 访问判定本身按时间窗口过滤，这里只是让状态字段跟上事实。
func (s *Scheduler) SweepExpiredSubscriptions() error {
	n, err := s.subRepo.ExpireOutdated(time.Now())
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("订阅清扫: %d 条已过期", n)
	}
	return nil
}

// CleanupUploadTemp 清理超过保留期的上传临时文件
func (s *Scheduler) CleanupUploadTemp() error {
	dir := s.cfg.Upload.TempDir
	if dir == "" {
		return nil
	}

	maxAge := time.Duration(s.cfg.Upload.ExpireHours) * time.Hour
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}

	return CleanupDirOlderThan(dir, maxAge)
}

// CleanupDirOlderThan 删除目录下修改时间早于保留期的条目
func CleanupDirOlderThan(dir string, maxAge time.Duration) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			log.Printf("清理 %s 失败: %v", path, err)
			continue
		}
		log.Printf("已清理过期临时文件: %s", path)
	}
	return nil
}
