package pdf

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"
	"strings"
	"sync"

	"github.com/Naakoi/uekera_go_server/internal/model"
)

// PageCountStore 持久化首次由可靠后端得出的页数
type PageCountStore interface {
	SavePageCount(documentID int64, count int) error
}

// Result 单页渲染结果
type Result struct {
	Data        []byte
	FromCache   bool
	Placeholder bool
	Backend     string
	Diagnostic  string
}

// 分片锁数量，必须是 2 的幂
const lockStripes = 64

// Renderer 页面渲染管线：先查缓存，未命中则沿后端链渲染并回填缓存，
// 全链失败时返回占位图。同一 (刊物, 页码) 的并发请求只触发一次渲染。
// 页锁按 (刊物, 页码) 哈希到固定数量的分片上，内存占用有上界，
// 不同页偶尔共享一把锁只是串行化，不影响正确性。
type Renderer struct {
	cache    *PageCache
	backends []Backend
	store    PageCountStore

	locks [lockStripes]sync.Mutex
}

func NewRenderer(cache *PageCache, backends []Backend, store PageCountStore) *Renderer {
	return &Renderer{
		cache:    cache,
		backends: backends,
		store:    store,
	}
}

// GetPage 获取单页 PNG。永远返回非空结果：
// 缓存命中 → 新渲染 → 占位图，逐级兜底。占位图不会写入缓存，
// 下次请求还有机会渲染成功。
func (r *Renderer) GetPage(ctx context.Context, doc *model.Document, page int, dpi int) *Result {
	if data, err := r.cache.Read(doc.ID, page); err == nil && len(data) > 0 {
		return &Result{Data: data, FromCache: true}
	}

	unlock := r.lockPage(doc.ID, page)
	defer unlock()

	// 拿到锁后再查一次，前一个持锁者可能已经渲染完了
	if data, err := r.cache.Read(doc.ID, page); err == nil && len(data) > 0 {
		return &Result{Data: data, FromCache: true}
	}

	data, backend, err := r.renderChain(ctx, doc.FilePath, page, dpi)
	if err != nil {
		log.Printf("刊物 %d 第 %d 页所有后端渲染失败: %v", doc.ID, page, err)
		return &Result{
			Data:        PlaceholderPNG(),
			Placeholder: true,
			Diagnostic:  err.Error(),
		}
	}

	if err := r.cache.Write(doc.ID, page, data); err != nil {
		// 缓存写失败不影响本次响应
		log.Printf("刊物 %d 第 %d 页写缓存失败: %v", doc.ID, page, err)
	}

	return &Result{Data: data, Backend: backend}
}

// RenderPage 绕过页面缓存直接走后端链，用于缩略图等一次性输出
func (r *Renderer) RenderPage(ctx context.Context, pdfPath string, page int, dpi int) ([]byte, error) {
	data, _, err := r.renderChain(ctx, pdfPath, page, dpi)
	return data, err
}

// GetPageCount 获取刊物页数。已知页数直接返回；否则沿后端链探测，
// 可靠后端的结果持久化，rawscan 的估算值只返回不落库。
func (r *Renderer) GetPageCount(ctx context.Context, doc *model.Document) (int, error) {
	if doc.PageCount != nil && *doc.PageCount > 0 {
		return *doc.PageCount, nil
	}

	for _, b := range r.backends {
		n, err := b.CountPages(ctx, doc.FilePath)
		if err != nil {
			log.Printf("后端 %s 统计刊物 %d 页数失败: %v", b.Name(), doc.ID, err)
			continue
		}
		if n < 1 {
			continue
		}

		if b.Name() == BackendRawScan {
			log.Printf("刊物 %d 页数估算为 %d (rawscan)，不持久化", doc.ID, n)
			return n, nil
		}

		if r.store != nil {
			if err := r.store.SavePageCount(doc.ID, n); err != nil {
				log.Printf("持久化刊物 %d 页数失败: %v", doc.ID, err)
			}
		}
		count := n
		doc.PageCount = &count
		return n, nil
	}

	return 0, ErrCountUnavailable
}

// renderChain 按优先级逐个后端尝试，返回第一个成功结果
func (r *Renderer) renderChain(ctx context.Context, pdfPath string, page int, dpi int) ([]byte, string, error) {
	var reasons []string
	for _, b := range r.backends {
		data, err := b.RenderPage(ctx, pdfPath, page, dpi)
		if err != nil {
			reasons = append(reasons, fmt.Sprintf("%s: %v", b.Name(), err))
			continue
		}
		if len(data) == 0 {
			reasons = append(reasons, fmt.Sprintf("%s: empty output", b.Name()))
			continue
		}
		return data, b.Name(), nil
	}
	return nil, "", fmt.Errorf("all backends failed: %s", strings.Join(reasons, "; "))
}

func (r *Renderer) lockPage(documentID int64, page int) func() {
	h := fnv.New32a()
	fmt.Fprintf(h, "%d:%d", documentID, page)
	l := &r.locks[h.Sum32()&(lockStripes-1)]

	l.Lock()
	return l.Unlock
}
