package images

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/atelier-press/atelier/internal/cache"
	"github.com/atelier-press/atelier/internal/identity"
	"github.com/atelier-press/atelier/internal/logging"
	"github.com/atelier-press/atelier/internal/optional"
)

// GetImage 返回 src（相对 PublicRoot 的站点路径）对应图片的元数据。
// 源文件缺失时记录告警并返回 Missing，不视为错误。
func (e *Engine) GetImage(ctx context.Context, src string) (optional.Option[Image], error) {
	return e.images.Do(ctx, src, func(ctx context.Context) (optional.Option[Image], error) {
		return e.loadImage(ctx, src)
	})
}

func (e *Engine) loadImage(ctx context.Context, src string) (optional.Option[Image], error) {
	e.logger.WithFields(logging.ImageFields("image_get", "", src)).Debug("读取图片元数据")

	filePath, ok := e.resolveSource(src)
	if !ok {
		return e.reportMissing(src), nil
	}
	id, err := identity.Identify(filePath)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return e.reportMissing(src), nil
		}
		return optional.Missing[Image](), err
	}

	locator := metadataLocator(id)
	if img, ok := e.readMetadata(ctx, locator); ok {
		e.metadataHits.Add(1)
		img.URL = src
		return optional.Found(img), nil
	}

	decoded, err := e.decode(filePath)
	if err != nil {
		return optional.Missing[Image](), err
	}
	bounds := decoded.Bounds()
	img := Image{
		ID:            id,
		URL:           src,
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		DominantColor: dominantColor(decoded),
	}

	data, err := json.Marshal(img)
	if err != nil {
		return optional.Missing[Image](), err
	}
	if _, err := e.tiers.Durable.Put(ctx, locator, bytes.NewReader(data), cache.PutOptions{}); err != nil {
		return optional.Missing[Image](), err
	}

	e.logger.WithFields(logging.ImageFields("image_decoded", string(id), src)).
		WithField("width", img.Width).
		WithField("height", img.Height).
		Info("图片元数据已生成")
	return optional.Found(img), nil
}

// readMetadata 读取 data.json；文件缺失或内容损坏都视为未命中。
func (e *Engine) readMetadata(ctx context.Context, locator cache.Locator) (Image, bool) {
	result, err := e.tiers.Durable.Get(ctx, locator)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			e.logger.WithError(err).WithField("locator", locator.String()).Warn("cache_get_failed")
		}
		return Image{}, false
	}
	defer result.Reader.Close()

	raw, err := io.ReadAll(result.Reader)
	if err != nil {
		e.logger.WithError(err).WithField("locator", locator.String()).Warn("cache_read_failed")
		return Image{}, false
	}

	img, err := DecodeMetadata(raw)
	if err != nil {
		e.logger.WithError(err).WithField("action", "cache_corrupt").WithField("locator", locator.String()).Warn("图片元数据损坏，重新生成")
		return Image{}, false
	}
	return img, true
}

// DecodeMetadata 解析 data.json 内容；缺少 id 或尺寸非正时返回 ErrCorruptMetadata。
func DecodeMetadata(raw []byte) (Image, error) {
	var img Image
	if err := json.Unmarshal(raw, &img); err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrCorruptMetadata, err)
	}
	if img.ID == "" || img.Width <= 0 || img.Height <= 0 {
		return Image{}, fmt.Errorf("%w: id=%q size=%dx%d", ErrCorruptMetadata, img.ID, img.Width, img.Height)
	}
	return img, nil
}

func (e *Engine) reportMissing(src string) optional.Option[Image] {
	e.missing.Add(1)
	e.logger.WithFields(logging.ImageFields("image_missing", "", src)).Warn("图片不存在")
	return optional.Missing[Image]()
}
