// Package jpeg 注册 jpg 缩略图格式，作为 <picture> 的兼容回退。
package jpeg

import (
	"image"
	"io"

	"github.com/disintegration/imaging"

	"github.com/atelier-press/atelier/internal/thumbformat"
)

const defaultQuality = 60

func init() {
	thumbformat.MustRegister(thumbformat.Metadata{
		Key:            "jpg",
		MIMEType:       "image/jpeg",
		Description:    "baseline JPEG, served to every browser",
		Raster:         true,
		DefaultQuality: defaultQuality,
		Encode:         encode,
	})
}

func encode(w io.Writer, img image.Image, opts thumbformat.Options) error {
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(opts.Quality))
}
