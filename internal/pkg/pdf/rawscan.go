package pdf

import (
	"bytes"
	"context"
	"fmt"
	"os"
)

// 页面树外每页平均出现的 /Page 标记数，经验值
const rawScanMarkerMultiplicity = 2

// RawScanBackend 直接扫描 PDF 字节流里的页面对象标记来估算页数。
// 不依赖任何解析库，永远可用，但只能数页不能渲染，
// 结果是估算值，调用方不应把它当作精确页数持久化。
type RawScanBackend struct{}

func NewRawScanBackend() *RawScanBackend {
	return &RawScanBackend{}
}

func (b *RawScanBackend) Name() string {
	return BackendRawScan
}

func (b *RawScanBackend) Available() bool {
	return true
}

func (b *RawScanBackend) CountPages(ctx context.Context, pdfPath string) (int, error) {
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return 0, fmt.Errorf("failed to read pdf: %w", err)
	}

	n := countPageMarkers(data)
	if n < 1 {
		return 0, fmt.Errorf("no page markers found")
	}

	return n, nil
}

func (b *RawScanBackend) RenderPage(ctx context.Context, pdfPath string, page int, dpi int) ([]byte, error) {
	return nil, ErrRenderUnsupported
}

// countPageMarkers 先数页面对象声明（/Type /Page 减去页面树的 /Type /Pages），
// 拿不到再退回数裸 /Page 标记除以经验倍数，下限 1。
func countPageMarkers(data []byte) int {
	typed := bytes.Count(data, []byte("/Type /Page")) + bytes.Count(data, []byte("/Type/Page"))
	trees := bytes.Count(data, []byte("/Type /Pages")) + bytes.Count(data, []byte("/Type/Pages"))
	if n := typed - trees; n > 0 {
		return n
	}

	raw := bytes.Count(data, []byte("/Page")) - bytes.Count(data, []byte("/Pages"))
	if raw <= 0 {
		return 0
	}
	n := raw / rawScanMarkerMultiplicity
	if n < 1 {
		n = 1
	}
	return n
}
