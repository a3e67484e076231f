// Package avif 注册 avif 缩略图格式；导入本包同时向 image 包注册 avif 解码器。
package avif

import (
	"image"
	"io"

	"github.com/gen2brain/avif"

	"github.com/atelier-press/atelier/internal/thumbformat"
)

const (
	defaultQuality = 60
	defaultSpeed   = 8
)

func init() {
	thumbformat.MustRegister(thumbformat.Metadata{
		Key:            "avif",
		MIMEType:       "image/avif",
		Description:    "AV1 still image, preferred by modern browsers",
		Raster:         false,
		DefaultQuality: defaultQuality,
		DefaultSpeed:   defaultSpeed,
		Encode:         encode,
	})
}

func encode(w io.Writer, img image.Image, opts thumbformat.Options) error {
	return avif.Encode(w, img, avif.Options{
		Quality:      opts.Quality,
		QualityAlpha: opts.Quality,
		Speed:        opts.Speed,
	})
}
