package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/gen2brain/go-fitz"
)

// FitzBackend 基于 MuPDF 的进程内渲染后端，首选方案。
// 不依赖外部二进制，速度和还原度都最好。
type FitzBackend struct{}

func NewFitzBackend() *FitzBackend {
	return &FitzBackend{}
}

func (b *FitzBackend) Name() string {
	return BackendFitz
}

func (b *FitzBackend) Available() bool {
	return true
}

func (b *FitzBackend) CountPages(ctx context.Context, pdfPath string) (int, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer doc.Close()

	return doc.NumPage(), nil
}

func (b *FitzBackend) RenderPage(ctx context.Context, pdfPath string, page int, dpi int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer doc.Close()

	if page < 1 || page > doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range (1-%d)", page, doc.NumPage())
	}

	// go-fitz 页码从 0 开始
	img, err := doc.ImageDPI(page-1, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", page, err)
	}

	// 透明背景的 PDF 直接编码会得到黑底，先铺一层白底
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(out, bounds, img, bounds.Min, draw.Over)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}

	return buf.Bytes(), nil
}
