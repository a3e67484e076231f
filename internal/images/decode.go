package images

import (
	"fmt"
	"image"

	// 源图片可能是 webp/avif，需要向 image 包注册对应解码器。
	_ "github.com/gen2brain/avif"
	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"
)

// decode 读取并解码源图片，按 EXIF 方向旋转，使元数据尺寸与缩略图方向一致。
func (e *Engine) decode(filePath string) (image.Image, error) {
	img, err := imaging.Open(filePath, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("images: decode %s: %w", filePath, err)
	}
	e.decodes.Add(1)
	return img, nil
}
