package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/Naakoi/uekera_go_server/config"
	"github.com/Naakoi/uekera_go_server/internal/repository"
)

var (
	dryRun       = flag.Bool("dry-run", true, "Dry run mode, don't actually delete files")
	uploadExpire = flag.Int("upload-expire", 24, "Hours to keep upload temp files")
	cleanUploads = flag.Bool("clean-uploads", true, "Clean expired upload temp files")
	cleanOrphans = flag.Bool("clean-orphans", true, "Clean page cache of deleted documents")
)

func main() {
	flag.Parse()

	log.Println("🧹 Starting cleanup task...")
	log.Printf("Mode: dry-run=%v", *dryRun)

	// 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 连接数据库
	db, err := connectDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	deletedSize := int64(0)
	deletedDirs := 0

	// 1. 清理过期的上传临时文件
	if *cleanUploads {
		log.Printf("\n📦 Cleaning expired upload temp (older than %d hours)...", *uploadExpire)
		size, count := cleanExpiredUploads(cfg.Upload.TempDir, *uploadExpire, *dryRun)
		deletedSize += size
		deletedDirs += count
	}

	// 2. 清理已删除刊物遗留的页面缓存目录
	if *cleanOrphans {
		log.Println("\n📄 Cleaning orphan page cache directories...")
		size, count := cleanOrphanPageCache(db, cfg.Storage.PageCacheDir, *dryRun)
		deletedSize += size
		deletedDirs += count
	}

	// 输出统计
	log.Println("\n" + strings.Repeat("=", 60))
	log.Println("📊 Cleanup Summary")
	log.Println(strings.Repeat("=", 60))
	log.Printf("Deleted directories: %d", deletedDirs)
	log.Printf("Freed space: %s", formatSize(deletedSize))
	if *dryRun {
		log.Println("\n⚠️  DRY RUN MODE - No files were actually deleted")
		log.Println("   Run with -dry-run=false to actually delete files")
	} else {
		log.Println("\n✅ Cleanup completed!")
	}
	log.Println(strings.Repeat("=", 60))
}

// cleanExpiredUploads 清理过期的上传临时目录
func cleanExpiredUploads(tempDir string, expireHours int, dryRun bool) (int64, int) {
	if tempDir == "" {
		return 0, 0
	}

	expireTime := time.Now().Add(-time.Duration(expireHours) * time.Hour)
	var totalSize int64
	var count int

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Failed to read temp dir: %v", err)
		}
		return 0, 0
	}

	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(expireTime) {
			continue
		}

		path := filepath.Join(tempDir, entry.Name())
		size := getDirSize(path)
		totalSize += size

		log.Printf("  - %s (%s, %s old)",
			entry.Name(),
			formatSize(size),
			time.Since(info.ModTime()).Round(time.Hour))

		if !dryRun {
			if err := os.RemoveAll(path); err != nil {
				log.Printf("    ❌ Failed to delete: %v", err)
				continue
			}
		}
		count++
	}

	log.Printf("Found %d expired temp entries (total: %s)", count, formatSize(totalSize))
	return totalSize, count
}

// cleanOrphanPageCache 删除数据库里已不存在的刊物的页面缓存目录。
// 目录名即刊物 ID，对不上的（非数字）不碰。
func cleanOrphanPageCache(db *gorm.DB, cacheDir string, dryRun bool) (int64, int) {
	pagesDir := filepath.Join(cacheDir, "pages")

	ids, err := repository.NewDocumentRepository(db).AllIDs()
	if err != nil {
		log.Printf("Failed to query document ids: %v", err)
		return 0, 0
	}
	alive := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		alive[id] = struct{}{}
	}

	entries, err := os.ReadDir(pagesDir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Failed to read page cache dir: %v", err)
		}
		return 0, 0
	}

	var totalSize int64
	var count int

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id, err := strconv.ParseInt(entry.Name(), 10, 64)
		if err != nil {
			continue
		}
		if _, ok := alive[id]; ok {
			continue
		}

		path := filepath.Join(pagesDir, entry.Name())
		size := getDirSize(path)
		totalSize += size

		log.Printf("  - document %d (%s)", id, formatSize(size))

		if !dryRun {
			if err := os.RemoveAll(path); err != nil {
				log.Printf("    ❌ Failed to delete: %v", err)
				continue
			}
		}
		count++
	}

	log.Printf("Found %d orphan cache directories (total: %s)", count, formatSize(totalSize))
	return totalSize, count
}

// getDirSize 计算目录大小
func getDirSize(path string) int64 {
	var size int64
	filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size
}

// formatSize 格式化文件大小
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// connectDB 连接数据库
func connectDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Database,
	)

	return gorm.Open(mysql.Open(dsn), &gorm.Config{})
}
