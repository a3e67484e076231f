package images

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/atelier-press/atelier/internal/thumbformat"
)

// GetPicture 为每个宽度生成全部配置格式的缩略图，组装 <picture> 所需的数据。
// 非 Raster 格式排在前面；Img 取 Raster 格式在最大请求宽度下的结果。
// sizes 为空时使用默认宽度。
func (e *Engine) GetPicture(ctx context.Context, img Image, sizes []Size) (Picture, error) {
	if len(sizes) == 0 {
		sizes = e.DefaultSizes()
	}
	if len(sizes) == 0 {
		return Picture{}, fmt.Errorf("%w: no widths requested", ErrInvalidSize)
	}

	largest := sizes[0]
	for _, size := range sizes[1:] {
		if size.Width > largest.Width {
			largest = size
		}
	}

	formats := e.orderedFormats()
	picture := Picture{Sources: make([]Source, 0, len(formats))}
	for _, meta := range formats {
		seen := make(map[string]struct{}, len(sizes))
		candidates := make([]Thumb, 0, len(sizes))
		for _, size := range sizes {
			thumb, err := e.Resize(ctx, img, size, meta.Key)
			if err != nil {
				return Picture{}, err
			}
			key := fmt.Sprintf("%s %d", thumb.URL, thumb.Width)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			candidates = append(candidates, thumb)
		}
		sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Width < candidates[j].Width })
		picture.Sources = append(picture.Sources, Source{Type: meta.MIMEType, SrcSet: srcSet(candidates)})
	}

	raster := e.rasterFormat()
	fallback, err := e.Resize(ctx, img, largest, raster.Key)
	if err != nil {
		return Picture{}, err
	}
	if fallback.Height == 0 {
		fallback.Height = roundInt(float64(fallback.Width) * float64(img.Height) / float64(img.Width))
	}
	picture.Img = fallback
	return picture, nil
}

func srcSet(thumbs []Thumb) string {
	parts := make([]string, 0, len(thumbs))
	for _, thumb := range thumbs {
		parts = append(parts, fmt.Sprintf("%s %dw", thumb.URL, thumb.Width))
	}
	return strings.Join(parts, ", ")
}

func (e *Engine) orderedFormats() []thumbformat.Metadata {
	var modern, raster []thumbformat.Metadata
	for _, key := range e.opts.Formats {
		meta, err := thumbformat.Lookup(key)
		if err != nil {
			continue
		}
		if meta.Raster {
			raster = append(raster, meta)
		} else {
			modern = append(modern, meta)
		}
	}
	return append(modern, raster...)
}

// RasterFormat 返回用作 <img> 回退的格式键。
func (e *Engine) RasterFormat() string {
	return e.rasterFormat().Key
}

func (e *Engine) rasterFormat() thumbformat.Metadata {
	for _, meta := range e.orderedFormats() {
		if meta.Raster {
			return meta
		}
	}
	// NewEngine 保证至少存在一种 Raster 格式。
	panic("images: no raster format configured")
}
