package pipeline

import (
	"context"

	"github.com/atelier-press/atelier/internal/images"
	"github.com/atelier-press/atelier/internal/optional"
)

// Image 返回 src 对应的图片元数据。
func (p *Pipeline) Image(ctx context.Context, src string) (optional.Option[images.Image], error) {
	return p.engine.GetImage(ctx, src)
}

// Picture 为 src 生成 picture 数据；图片不存在时返回 Missing。sizes 为空时使用默认宽度。
func (p *Pipeline) Picture(ctx context.Context, src string, sizes []images.Size) (optional.Option[images.Picture], error) {
	result, err := p.engine.GetImage(ctx, src)
	if err != nil {
		return optional.Missing[images.Picture](), err
	}
	img, ok := result.Get()
	if !ok {
		return optional.Missing[images.Picture](), nil
	}
	picture, err := p.engine.GetPicture(ctx, img, sizes)
	if err != nil {
		return optional.Missing[images.Picture](), err
	}
	return optional.Found(picture), nil
}
