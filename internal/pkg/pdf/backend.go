package pdf

import (
	"context"
	"errors"
	"log"

	"github.com/Naakoi/uekera_go_server/config"
)

// 后端名称，渲染链按声明顺序降级
const (
	BackendFitz    = "fitz"
	BackendPoppler = "poppler"
	BackendRawScan = "rawscan"
)

var (
	// ErrRenderUnsupported 后端只能统计页数，不能渲染
	ErrRenderUnsupported = errors.New("backend does not support rendering")
	// ErrCountUnavailable 所有后端都拿不到页数
	ErrCountUnavailable = errors.New("page count unavailable")
)

// Backend PDF 处理后端。CountPages 和 RenderPage 都以 1 为起始页码。
type Backend interface {
	Name() string
	Available() bool
	CountPages(ctx context.Context, pdfPath string) (int, error)
	RenderPage(ctx context.Context, pdfPath string, page int, dpi int) ([]byte, error)
}

// DetectBackends 启动时探测一次可用后端，按优先级排列：
// fitz（进程内）→ poppler（子进程，需要显式开启且二进制在 PATH 上）→ rawscan。
// rawscan 永远在场，保证链非空。
func DetectBackends(cfg *config.RenderConfig) []Backend {
	var backends []Backend

	candidates := []Backend{}
	if !cfg.DisableFitz {
		candidates = append(candidates, NewFitzBackend())
	}
	if cfg.AllowSubprocess {
		candidates = append(candidates, NewPopplerBackend())
	}
	candidates = append(candidates, NewRawScanBackend())

	for _, b := range candidates {
		if !b.Available() {
			log.Printf("后端 %s 不可用，跳过", b.Name())
			continue
		}
		backends = append(backends, b)
	}

	names := make([]string, 0, len(backends))
	for _, b := range backends {
		names = append(names, b.Name())
	}
	log.Printf("PDF 渲染链: %v", names)

	return backends
}
