package pdf

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sync"
)

// A4 比例的占位图尺寸
const (
	placeholderWidth  = 620
	placeholderHeight = 877
)

var (
	placeholderOnce sync.Once
	placeholderData []byte
)

// PlaceholderPNG 所有后端都渲染失败时返回的空白页。
// 阅读器拿到的永远是一张合法 PNG，不会因为单页损坏整体报错。
func PlaceholderPNG() []byte {
	placeholderOnce.Do(func() {
		img := image.NewRGBA(image.Rect(0, 0, placeholderWidth, placeholderHeight))
		draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

		// 四边画一圈浅灰边框，和真实页面区分开
		border := color.RGBA{R: 0xDD, G: 0xDD, B: 0xDD, A: 0xFF}
		for x := 0; x < placeholderWidth; x++ {
			img.Set(x, 0, border)
			img.Set(x, placeholderHeight-1, border)
		}
		for y := 0; y < placeholderHeight; y++ {
			img.Set(0, y, border)
			img.Set(placeholderWidth-1, y, border)
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			panic("pdf: failed to encode placeholder png: " + err.Error())
		}
		placeholderData = buf.Bytes()
	})

	out := make([]byte, len(placeholderData))
	copy(out, placeholderData)
	return out
}
