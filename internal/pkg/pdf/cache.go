package pdf

import (
	"fmt"
	"os"
	"path/filepath"
)

// PageCache 按 (刊物ID, 页码) 存放渲染好的 PNG。
// 磁盘上是否存在即为缓存事实，不落数据库。目录布局是对外契约：
// <base>/pages/<document_id>/page-<n>.png，按需渲染和批量预渲染共用。
type PageCache struct {
	baseDir string
}

func NewPageCache(baseDir string) *PageCache {
	return &PageCache{baseDir: baseDir}
}

// PagePath 页面图片的磁盘路径
func (c *PageCache) PagePath(documentID int64, page int) string {
	return filepath.Join(c.baseDir, "pages", fmt.Sprintf("%d", documentID), fmt.Sprintf("page-%d.png", page))
}

// DocumentDir 单个刊物的缓存目录
func (c *PageCache) DocumentDir(documentID int64) string {
	return filepath.Join(c.baseDir, "pages", fmt.Sprintf("%d", documentID))
}

// Has 页面是否已缓存
func (c *PageCache) Has(documentID int64, page int) bool {
	info, err := os.Stat(c.PagePath(documentID, page))
	return err == nil && info.Size() > 0
}

// Read 读取缓存页面
func (c *PageCache) Read(documentID int64, page int) ([]byte, error) {
	return os.ReadFile(c.PagePath(documentID, page))
}

// Write 写入缓存页面。先写临时文件再 rename，
// 避免并发写同一 key 时出现半成品文件。
func (c *PageCache) Write(documentID int64, page int, data []byte) error {
	dir := c.DocumentDir(documentID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, fmt.Sprintf("page-%d-*.tmp", page))
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	if err := os.Rename(tmp.Name(), c.PagePath(documentID, page)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// CachedPages 已缓存的页数（用于任务进度和幂等重跑）
func (c *PageCache) CachedPages(documentID int64, total int) int {
	count := 0
	for p := 1; p <= total; p++ {
		if c.Has(documentID, p) {
			count++
		}
	}
	return count
}

// RemoveDocument 删除单个刊物的全部缓存页面
func (c *PageCache) RemoveDocument(documentID int64) error {
	return os.RemoveAll(c.DocumentDir(documentID))
}
