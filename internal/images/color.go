package images

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

const (
	colorBinsPerChannel = 16
	colorBinWidth       = 256 / colorBinsPerChannel
	// maxColorSamples 限制参与统计的像素数量，大图按步长抽样。
	maxColorSamples = 1 << 20
)

// dominantColor 将 RGB 空间量化为 16×16×16 个桶，返回像素最多的桶的中心色。
// 完全透明的像素不参与统计；全透明图片返回黑色。
func dominantColor(img image.Image) string {
	nrgba := imaging.Clone(img)
	pixels := len(nrgba.Pix) / 4
	step := 1
	if pixels > maxColorSamples {
		step = pixels / maxColorSamples
	}

	var hist [colorBinsPerChannel * colorBinsPerChannel * colorBinsPerChannel]int
	for i := 0; i < pixels; i += step {
		p := nrgba.Pix[i*4 : i*4+4]
		if p[3] == 0 {
			continue
		}
		r := int(p[0]) / colorBinWidth
		g := int(p[1]) / colorBinWidth
		b := int(p[2]) / colorBinWidth
		hist[(r*colorBinsPerChannel+g)*colorBinsPerChannel+b]++
	}

	best, bestCount := 0, 0
	for idx, count := range hist {
		if count > bestCount {
			best, bestCount = idx, count
		}
	}
	if bestCount == 0 {
		return "rgb(0,0,0)"
	}

	r := best / (colorBinsPerChannel * colorBinsPerChannel)
	g := (best / colorBinsPerChannel) % colorBinsPerChannel
	b := best % colorBinsPerChannel
	return fmt.Sprintf("rgb(%d,%d,%d)", binCentre(r), binCentre(g), binCentre(b))
}

func binCentre(bin int) int {
	return bin*colorBinWidth + colorBinWidth/2
}
