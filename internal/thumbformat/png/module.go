// Package png 注册无损 png 缩略图格式，适合线稿或带透明通道的作品。
package png

import (
	"image"
	"io"

	"github.com/disintegration/imaging"

	"github.com/atelier-press/atelier/internal/thumbformat"
)

func init() {
	thumbformat.MustRegister(thumbformat.Metadata{
		Key:         "png",
		MIMEType:    "image/png",
		Description: "lossless PNG, quality settings are ignored",
		Raster:      true,
		Encode:      encode,
	})
}

func encode(w io.Writer, img image.Image, _ thumbformat.Options) error {
	return imaging.Encode(w, img, imaging.PNG)
}
