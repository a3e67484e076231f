package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/atelier-press/atelier/internal/content"
	"github.com/atelier-press/atelier/internal/images"
)

// CoverWidth 是作品封面缩略图的宽度。
const CoverWidth = 200

// WarmReport 汇总一次预热处理的图片数量。
type WarmReport struct {
	Works    int `json:"works"`
	Images   int `json:"images"`
	Pictures int `json:"pictures"`
	Covers   int `json:"covers"`
	Failures int `json:"failures"`
}

// Warm 解析首页、全部作品与条目，并为引用到的每张图片生成默认宽度的 picture 与封面缩略图，
// 使静态输出层包含渲染所需的全部文件。单张图片失败不会中断其他图片，
// 全部失败以 errors.Join 汇总返回。
func (p *Pipeline) Warm(ctx context.Context) (WarmReport, error) {
	var report WarmReport

	index, err := p.IndexFromCache(ctx)
	if err != nil {
		return report, err
	}
	works, err := p.WorksFromCache(ctx)
	if err != nil {
		return report, err
	}
	items, err := p.ItemsFromCache(ctx)
	if err != nil {
		return report, err
	}
	if _, err := p.TagsFromCache(ctx); err != nil {
		return report, err
	}
	if _, err := p.CategoriesFromCache(ctx); err != nil {
		return report, err
	}
	report.Works = len(works)

	covers := make(map[string]images.Image)
	gallery := make(map[string]images.Image)
	if img, ok := index.Image.Get(); ok {
		covers[string(img.ID)] = img
	}
	for _, work := range mergeWorks(index.Works, works) {
		if img, ok := work.Image.Get(); ok {
			covers[string(img.ID)] = img
		}
		for _, img := range work.Images {
			gallery[string(img.ID)] = img
		}
	}
	for _, item := range items {
		for _, img := range item.Images {
			gallery[string(img.ID)] = img
		}
	}

	report.Images = len(gallery)
	for id := range covers {
		if _, ok := gallery[id]; !ok {
			report.Images++
		}
	}

	var errs []error
	raster := p.engine.RasterFormat()
	for _, img := range covers {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if _, err := p.engine.Resize(ctx, img, images.Size{Width: CoverWidth}, raster); err != nil {
			errs = append(errs, p.warmFailed(&report, img, err))
			continue
		}
		report.Covers++
	}
	sizes := p.engine.DefaultSizes()
	for _, img := range gallery {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if _, err := p.engine.GetPicture(ctx, img, sizes); err != nil {
			errs = append(errs, p.warmFailed(&report, img, err))
			continue
		}
		report.Pictures++
	}

	p.logger.WithFields(logrus.Fields{
		"action":   "warm_done",
		"works":    report.Works,
		"images":   report.Images,
		"pictures": report.Pictures,
		"covers":   report.Covers,
		"failures": report.Failures,
	}).Info("静态输出层预热完成")
	return report, errors.Join(errs...)
}

func (p *Pipeline) warmFailed(report *WarmReport, img images.Image, err error) error {
	report.Failures++
	p.logger.WithError(err).WithFields(logrus.Fields{
		"action":   "warm_failed",
		"image_id": string(img.ID),
		"src":      img.URL,
	}).Error("图片派生失败")
	return fmt.Errorf("%s: %w", img.URL, err)
}

// mergeWorks 合并首页作品与全部作品，按 id 去重。
func mergeWorks(lists ...[]content.Work) []content.Work {
	seen := make(map[string]struct{})
	var merged []content.Work
	for _, list := range lists {
		for _, work := range list {
			if _, ok := seen[work.ID]; ok {
				continue
			}
			seen[work.ID] = struct{}{}
			merged = append(merged, work)
		}
	}
	return merged
}
