package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"

	"github.com/atelier-press/atelier/internal/cache"
	"github.com/atelier-press/atelier/internal/identity"
	"github.com/atelier-press/atelier/internal/logging"
	"github.com/atelier-press/atelier/internal/thumbformat"
)

// fitSize 计算最终输出尺寸：Height 缺省时按源图比例推导；只缩小不放大，
// 任一轴被限制到源图尺寸时，另一轴按请求的比例重新计算。
func fitSize(img Image, size Size) (int, int, error) {
	if img.Width <= 0 || img.Height <= 0 {
		return 0, 0, fmt.Errorf("%w: source %dx%d", ErrInvalidSize, img.Width, img.Height)
	}
	if size.Width <= 0 || size.Height < 0 {
		return 0, 0, fmt.Errorf("%w: requested %dx%d", ErrInvalidSize, size.Width, size.Height)
	}

	width, height := size.Width, size.Height
	if height == 0 {
		height = roundInt(float64(width) * float64(img.Height) / float64(img.Width))
	}
	if height <= 0 {
		height = 1
	}
	ratio := float64(width) / float64(height)

	if img.Width < width {
		width = img.Width
		height = roundInt(float64(width) / ratio)
	}
	if img.Height < height {
		height = img.Height
		width = roundInt(float64(height) * ratio)
	}
	return max(width, 1), max(height, 1), nil
}

func roundInt(v float64) int {
	return int(math.Round(v))
}

func thumbName(width, height int, format string) string {
	return fmt.Sprintf("%dx%d.%s", width, height, format)
}

// Resize 返回 img 在指定尺寸与格式下的缩略图。查找顺序为静态输出层、
// 持久缓存层，两层都未命中时才解码并编码，结果先写缓存层再复制到静态层。
func (e *Engine) Resize(ctx context.Context, img Image, size Size, format string) (Thumb, error) {
	meta, err := thumbformat.Lookup(format)
	if err != nil {
		return Thumb{}, err
	}
	width, height, err := fitSize(img, size)
	if err != nil {
		return Thumb{}, err
	}

	name := thumbName(width, height, meta.Key)
	locator := thumbLocator(img.ID, name)
	thumb := Thumb{
		URL:    e.publicURL(img.ID, name),
		Width:  width,
		Height: height,
		Format: meta.Key,
	}

	return e.thumbs.Do(ctx, locator, func(ctx context.Context) (Thumb, error) {
		if err := e.materialize(ctx, img, locator, meta, width, height); err != nil {
			return Thumb{}, err
		}
		return thumb, nil
	})
}

// ResizeAll 按 formats × sizes 的顺序依次生成缩略图，遇到第一个错误即返回。
func (e *Engine) ResizeAll(ctx context.Context, img Image, sizes []Size, formats []string) ([]Thumb, error) {
	thumbs := make([]Thumb, 0, len(sizes)*len(formats))
	for _, format := range formats {
		for _, size := range sizes {
			thumb, err := e.Resize(ctx, img, size, format)
			if err != nil {
				return nil, err
			}
			thumbs = append(thumbs, thumb)
		}
	}
	return thumbs, nil
}

func (e *Engine) materialize(ctx context.Context, img Image, locator cache.Locator, meta thumbformat.Metadata, width, height int) error {
	name := thumbName(width, height, meta.Key)
	tier, err := e.tiers.Locate(ctx, locator)
	if err != nil {
		return err
	}

	switch tier {
	case cache.TierStatic:
		e.staticHits.Add(1)
		e.logger.WithFields(logging.ThumbFields("thumb_resolve", string(img.ID), name, string(tier))).Debug("静态层已存在")
		return nil
	case cache.TierCache:
		entry, err := e.tiers.Promote(ctx, locator)
		if err != nil {
			// 缓存层文件可能在 Locate 之后被清理，回退到重新编码。
			if !errors.Is(err, cache.ErrNotFound) {
				return err
			}
		} else {
			e.cacheCopies.Add(1)
			e.logger.WithFields(logging.ThumbFields("thumb_resolve", string(img.ID), name, string(tier))).
				WithField("size", humanize.Bytes(uint64(entry.SizeBytes))).
				Debug("从缓存层复制")
			return nil
		}
	}

	return e.render(ctx, img, locator, meta, width, height)
}

func (e *Engine) render(ctx context.Context, img Image, locator cache.Locator, meta thumbformat.Metadata, width, height int) error {
	filePath, ok := e.resolveSource(img.URL)
	if !ok {
		return fmt.Errorf("images: resolve %s: %w", img.URL, identity.ErrNotFound)
	}
	id, err := identity.Identify(filePath)
	if err != nil {
		return err
	}
	if id != img.ID {
		return fmt.Errorf("%w: %s is now %s", ErrStaleImage, img.ID, id)
	}

	src, err := e.decode(filePath)
	if err != nil {
		return err
	}
	resized := imaging.Fill(src, width, height, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := meta.Encode(&buf, resized, e.encodeOptions(meta)); err != nil {
		return fmt.Errorf("images: encode %s: %w", locator.String(), err)
	}
	encodedSize := buf.Len()
	if _, err := e.tiers.Publish(ctx, locator, &buf); err != nil {
		return err
	}
	e.encodes.Add(1)

	e.logger.WithFields(logging.ThumbFields("thumb_encoded", string(img.ID), thumbName(width, height, meta.Key), "encode")).
		WithField("size", humanize.Bytes(uint64(encodedSize))).
		Info("缩略图已生成")
	return nil
}
